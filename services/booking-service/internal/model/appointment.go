package model

import (
	"time"

	"github.com/nusrat-jahan/clinicbook/libs/clock"
)

type Appointment struct {
	ID              string
	BranchID        int64
	VisitDate       time.Time
	Start           clock.Minute
	DurationMinutes int
	TreatmentID     string
	PatientName     string
	PatientEmail    string
	PatientPhone    string
	Status          string
	CancelledAt     *time.Time
	CancelReason    string
	CreatedAt       time.Time
}

func (a Appointment) End() clock.Minute {
	return a.Start + clock.Minute(a.DurationMinutes)
}
