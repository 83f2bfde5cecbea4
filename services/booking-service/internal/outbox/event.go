package outbox

import (
	"encoding/json"
	"time"

	"github.com/nusrat-jahan/clinicbook/services/booking-service/internal/model"
)

const (
	TopicAppointmentBooked    = "clinic.appointment.booked.v1"
	TopicAppointmentCancelled = "clinic.appointment.cancelled.v1"
)

// Event is the envelope staged in outbox_events. The Kafka topic name
// equals EventType, one event type per topic.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type appointmentPayload struct {
	AppointmentID   string `json:"appointment_id"`
	BranchID        int64  `json:"branch_id"`
	VisitDate       string `json:"visit_date"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	TreatmentID     string `json:"treatment_id,omitempty"`
	PatientName     string `json:"patient_name"`
	PatientEmail    string `json:"patient_email"`
	PatientPhone    string `json:"patient_phone,omitempty"`
	CancelReason    string `json:"cancellation_reason,omitempty"`
	OccurredAt      string `json:"occurred_at"`
}

func AppointmentBooked(appt model.Appointment) (Event, error) {
	return appointmentEvent(TopicAppointmentBooked, appt)
}

func AppointmentCancelled(appt model.Appointment) (Event, error) {
	return appointmentEvent(TopicAppointmentCancelled, appt)
}

func appointmentEvent(eventType string, appt model.Appointment) (Event, error) {
	payload, err := json.Marshal(appointmentPayload{
		AppointmentID:   appt.ID,
		BranchID:        appt.BranchID,
		VisitDate:       appt.VisitDate.Format("2006-01-02"),
		StartTime:       appt.Start.String(),
		DurationMinutes: appt.DurationMinutes,
		TreatmentID:     appt.TreatmentID,
		PatientName:     appt.PatientName,
		PatientEmail:    appt.PatientEmail,
		PatientPhone:    appt.PatientPhone,
		CancelReason:    appt.CancelReason,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
