package api

import "time"

type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type SlotsResponse struct {
	Date      string     `json:"date"`
	Confirmed bool       `json:"confirmed"`
	Slots     []TimeSlot `json:"slots"`
}

type PolicyResponse struct {
	CanCancel            bool      `json:"can_cancel"`
	CanReschedule        bool      `json:"can_reschedule"`
	RequiresFee          bool      `json:"requires_fee"`
	FeeAmount            float64   `json:"fee_amount"`
	Currency             string    `json:"currency"`
	HoursRemaining       float64   `json:"hours_remaining"`
	TimeUntilAppointment string    `json:"time_until_appointment"`
	PolicyMessage        string    `json:"policy_message"`
	Window               string    `json:"window"`
	EvaluatedAt          time.Time `json:"evaluated_at"`
	RefreshAfterSeconds  int       `json:"refresh_after_seconds"`
}

type AppointmentRequest struct {
	UserID        string `json:"user_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Service       string `json:"service"`
	Date          string `json:"date"`
	Timeslot      string `json:"timeslot"`
	Notes         string `json:"notes,omitempty"`
}

type AppointmentResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	CustomerName    string     `json:"customer_name"`
	CustomerEmail   string     `json:"customer_email,omitempty"`
	Service         string     `json:"service,omitempty"`
	Date            string     `json:"date"`
	Timeslot        string     `json:"timeslot"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	RescheduledFrom *string    `json:"rescheduled_from,omitempty"`
	RescheduleFee   float64    `json:"reschedule_fee,omitempty"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type AppointmentCancelRequest struct {
	Reason string `json:"reason"`
}

type AppointmentRescheduleRequest struct {
	Date     string `json:"date"`
	Timeslot string `json:"timeslot"`
}

type AppointmentRescheduleResponse struct {
	Previous    AppointmentResponse `json:"previous"`
	Appointment AppointmentResponse `json:"appointment"`
}

type AppointmentStatusRequest struct {
	Status string `json:"status"`
}

type BlockedSlotRequest struct {
	Date      string   `json:"date"`
	Timeslots []string `json:"timeslots"`
	Reason    string   `json:"reason,omitempty"`
}

type BlockedSlotResponse struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Timeslots []string  `json:"timeslots"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
