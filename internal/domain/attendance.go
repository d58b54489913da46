package domain

import (
	"time"
)

// AttendanceStatus is the state of an employee's attendance record for one day.
type AttendanceStatus string

const (
	StatusCheckedIn  AttendanceStatus = "CHECKED_IN"
	StatusCheckedOut AttendanceStatus = "CHECKED_OUT"
)

// AttendanceOutcome is the result of applying a recognition event to the ledger.
type AttendanceOutcome string

const (
	OutcomeCheckIn  AttendanceOutcome = "check_in"
	OutcomeCheckOut AttendanceOutcome = "check_out"
	OutcomeAlready  AttendanceOutcome = "already"
)

// Suppression reasons for OutcomeAlready.
const (
	ReasonCooldown          = "cooldown"
	ReasonAlreadyCheckedOut = "already_checked_out"
)

// AttendanceRecord is one employee's attendance for one calendar day.
// Created on the first check-in of the day, mutated in place on checkout,
// never deleted by this core.
type AttendanceRecord struct {
	EmployeeID   int64            `json:"employee_id"`
	Date         time.Time        `json:"date"`
	CheckInTime  time.Time        `json:"check_in_time"`
	CheckOutTime *time.Time       `json:"check_out_time,omitempty"`
	Status       AttendanceStatus `json:"status"`
	LastEventAt  time.Time        `json:"last_event_at"`
	PhotoRef     string           `json:"photo_ref,omitempty"`
	WorkingHours *float64         `json:"working_hours,omitempty"`
}

// AttendanceEvent is the outcome of one ledger transition attempt.
type AttendanceEvent struct {
	Outcome AttendanceOutcome `json:"outcome"`
	Reason  string            `json:"reason,omitempty"`
	Record  *AttendanceRecord `json:"record,omitempty"`
}

// DateOf truncates a timestamp to its calendar day in the timestamp's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
