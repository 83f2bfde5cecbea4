package clock

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    Minute
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"9:30", 0, true},
		{"930", 0, true},
		{"", 0, true},
		{"12:3x", 0, true},
		{"00:5a", 0, true},
		{"09:0z", 0, true},
		{"ab:cd", 0, true},
		{"1a:30", 0, true},
		{"12 30", 0, true},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestString(t *testing.T) {
	if got := Minute(570).String(); got != "09:30" {
		t.Fatalf("String() = %q, want 09:30", got)
	}
	if got := Minute(0).String(); got != "00:00" {
		t.Fatalf("String() = %q, want 00:00", got)
	}
}

func TestDisplay(t *testing.T) {
	cases := []struct {
		in   Minute
		want string
	}{
		{0, "12:00 AM"},
		{570, "9:30 AM"},
		{720, "12:00 PM"},
		{900, "3:00 PM"},
		{1439, "11:59 PM"},
	}
	for _, tc := range cases {
		if got := tc.in.Display(); got != tc.want {
			t.Errorf("Minute(%d).Display() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-09")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Weekday() != time.Monday {
		t.Fatalf("expected Monday, got %s", d.Weekday())
	}
	if _, err := ParseDate("09/03/2026"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestMondayFirstCoversWeek(t *testing.T) {
	seen := map[time.Weekday]bool{}
	for _, d := range MondayFirst {
		seen[d] = true
	}
	if len(seen) != 7 {
		t.Fatalf("MondayFirst covers %d weekdays", len(seen))
	}
	if MondayFirst[0] != time.Monday || MondayFirst[6] != time.Sunday {
		t.Fatalf("unexpected ordering: %v", MondayFirst)
	}
}
