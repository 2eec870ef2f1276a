package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AppointmentStatus string

const (
	StatusPending             AppointmentStatus = "pending"
	StatusConfirmed           AppointmentStatus = "confirmed"
	StatusCancelled           AppointmentStatus = "cancelled"
	StatusCancelledReschedule AppointmentStatus = "cancelled_reschedule"
	StatusDone                AppointmentStatus = "done"
	StatusNoShow              AppointmentStatus = "no-show"
	StatusRescheduleRequested AppointmentStatus = "reschedule_requested"
)

// SlotHoldingStatuses are the statuses under which an appointment claims its slot.
var SlotHoldingStatuses = []AppointmentStatus{StatusPending, StatusConfirmed}

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:             {StatusConfirmed, StatusCancelled, StatusRescheduleRequested, StatusNoShow},
	StatusConfirmed:           {StatusDone, StatusNoShow, StatusCancelled, StatusRescheduleRequested},
	StatusRescheduleRequested: {StatusCancelled, StatusCancelledReschedule, StatusConfirmed},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCancelledReschedule,
		StatusDone, StatusNoShow, StatusRescheduleRequested:
		return true
	}
	return false
}

func (s AppointmentStatus) HoldsSlot() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID              string            `db:"id"`
	UserID          string            `db:"user_id"`
	CustomerName    string            `db:"customer_name"`
	CustomerEmail   string            `db:"customer_email"`
	Service         string            `db:"service"`
	Date            string            `db:"date"`
	Timeslot        string            `db:"timeslot"`
	Status          AppointmentStatus `db:"status"`
	Notes           string            `db:"notes"`
	RescheduledFrom *string           `db:"rescheduled_from"`
	RescheduleFee   decimal.Decimal   `db:"reschedule_fee"`
	CancelReason    string            `db:"cancel_reason"`
	CancelledAt     *time.Time        `db:"cancelled_at"`
	CreatedAt       time.Time         `db:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at"`
}

// BlockedSlot is an administrator's record removing times on a date from availability.
type BlockedSlot struct {
	ID        string    `db:"id"`
	Date      string    `db:"date"`
	Timeslots []string  `db:"timeslots"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

type AppointmentFilter struct {
	Date   *string
	UserID *string
	Status *AppointmentStatus
}
