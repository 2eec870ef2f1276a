package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"booking-service/api"
	"booking-service/internal/availability"
	"booking-service/internal/models"
	"booking-service/internal/schedule"
	"booking-service/pkg/response"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newID() string {
	return uuid.NewString()
}

// Appointments

// CreateAppointment books a slot as pending. The slot is re-validated under
// a per-slot lock; the store's unique slot index settles any remaining race.
func (s *Service) CreateAppointment(ctx context.Context, req *api.AppointmentRequest) (*api.AppointmentResponse, error) {
	const op = "service.CreateAppointment"

	if err := validateAppointmentRequest(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.checkBookable(req.Date, req.Timeslot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	a := &models.Appointment{
		ID:            s.newID(),
		UserID:        req.UserID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Service:       req.Service,
		Date:          req.Date,
		Timeslot:      req.Timeslot,
		Status:        models.StatusPending,
		Notes:         req.Notes,
		RescheduleFee: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var id string
	err := s.withSlotLock(ctx, req.Date, req.Timeslot, func() error {
		if err := s.ensureSlotFree(ctx, req.Date, req.Timeslot); err != nil {
			return err
		}

		var err error
		id, err = s.store.CreateAppointment(ctx, a)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAppointment(ctx, id)
}

func (s *Service) GetAppointment(ctx context.Context, id string) (*api.AppointmentResponse, error) {
	const op = "service.GetAppointment"

	a, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toAppointmentResponse(a)
	return &resp, nil
}

func (s *Service) ListAppointments(ctx context.Context, filter models.AppointmentFilter) ([]*api.AppointmentResponse, error) {
	const op = "service.ListAppointments"

	if filter.Date != nil {
		if _, err := schedule.ParseDate(*filter.Date); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, response.ErrInvalidInput, err)
		}
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown status %q", op, response.ErrInvalidInput, *filter.Status)
	}

	appointments, err := s.store.ListAppointments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]*api.AppointmentResponse, len(appointments))
	for i, a := range appointments {
		resp := toAppointmentResponse(a)
		out[i] = &resp
	}

	return out, nil
}

// CancelAppointment cancels on behalf of the customer, subject to the
// cancellation policy.
func (s *Service) CancelAppointment(ctx context.Context, id, reason string) (*api.AppointmentResponse, error) {
	const op = "service.CancelAppointment"

	a, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !a.Status.CanTransitionTo(models.StatusCancelled) {
		return nil, fmt.Errorf("%s: %w: %s -> %s", op, response.ErrInvalidTransition, a.Status, models.StatusCancelled)
	}

	now := s.now()
	if st := s.evaluator.Evaluate(a.Date, a.Timeslot, now); !st.CanCancel {
		return nil, fmt.Errorf("%s: %w: %s", op, response.ErrPolicyViolation, st.PolicyMessage)
	}

	if err := s.store.UpdateAppointmentStatus(ctx, id, a.Status, models.StatusCancelled, strings.TrimSpace(reason), now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAppointment(ctx, id)
}

// RescheduleAppointment moves an appointment to a new slot. The new
// appointment starts pending and carries the fee the policy charged for the move.
func (s *Service) RescheduleAppointment(ctx context.Context, id string, req *api.AppointmentRescheduleRequest) (*api.AppointmentRescheduleResponse, error) {
	const op = "service.RescheduleAppointment"

	old, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if old.Status != models.StatusRescheduleRequested && !old.Status.CanTransitionTo(models.StatusRescheduleRequested) {
		return nil, fmt.Errorf("%s: %w: %s cannot be rescheduled", op, response.ErrInvalidTransition, old.Status)
	}

	if req.Date == old.Date && req.Timeslot == old.Timeslot {
		return nil, fmt.Errorf("%s: %w: new slot equals the current one", op, response.ErrInvalidInput)
	}

	now := s.now()
	st := s.evaluator.Evaluate(old.Date, old.Timeslot, now)
	if !st.CanReschedule {
		return nil, fmt.Errorf("%s: %w: %s", op, response.ErrPolicyViolation, st.PolicyMessage)
	}

	if err := s.checkBookable(req.Date, req.Timeslot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fee := decimal.Zero
	if st.RequiresFee {
		fee = st.FeeAmount
	}

	next := &models.Appointment{
		ID:              s.newID(),
		UserID:          old.UserID,
		CustomerName:    old.CustomerName,
		CustomerEmail:   old.CustomerEmail,
		Service:         old.Service,
		Date:            req.Date,
		Timeslot:        req.Timeslot,
		Status:          models.StatusPending,
		Notes:           old.Notes,
		RescheduledFrom: &old.ID,
		RescheduleFee:   fee,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var nextID string
	err = s.withSlotLock(ctx, req.Date, req.Timeslot, func() error {
		if err := s.ensureSlotFree(ctx, req.Date, req.Timeslot); err != nil {
			return err
		}

		var err error
		nextID, err = s.store.RescheduleAppointment(ctx, old.ID, old.Status, next, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	previous, err := s.GetAppointment(ctx, old.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.GetAppointment(ctx, nextID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.AppointmentRescheduleResponse{
		Previous:    *previous,
		Appointment: *created,
	}, nil
}

// UpdateAppointmentStatus applies an administrative status change. The
// cancellation policy does not apply here, only the transition table.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, id, status string) (*api.AppointmentResponse, error) {
	const op = "service.UpdateAppointmentStatus"

	next := models.AppointmentStatus(status)
	if !next.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown status %q", op, response.ErrInvalidInput, status)
	}

	a, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !a.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s: %w: %s -> %s", op, response.ErrInvalidTransition, a.Status, next)
	}

	if err := s.store.UpdateAppointmentStatus(ctx, id, a.Status, next, "", s.now()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAppointment(ctx, id)
}

// checkBookable rejects malformed and already elapsed slots.
func (s *Service) checkBookable(date, clock string) error {
	at, err := schedule.At(date, clock, s.evaluator.Location())
	if err != nil {
		return fmt.Errorf("%w: %w", response.ErrInvalidInput, err)
	}
	if !at.After(s.now()) {
		return fmt.Errorf("%w: %s %s is in the past", response.ErrSlotNotAvailable, date, clock)
	}
	return nil
}

// ensureSlotFree re-resolves the date and requires clock to be an available
// candidate. Unconfirmed availability never counts as free.
func (s *Service) ensureSlotFree(ctx context.Context, date, clock string) error {
	av, err := s.resolver.Resolve(ctx, date)
	if err != nil {
		if errors.Is(err, availability.ErrDataFetch) {
			return fmt.Errorf("%w: %w", response.ErrUnavailable, err)
		}
		return fmt.Errorf("%w: %w", response.ErrInvalidInput, err)
	}

	if !av.IsAvailable(clock) {
		return fmt.Errorf("%w: %s %s", response.ErrSlotNotAvailable, date, clock)
	}

	return nil
}

func validateAppointmentRequest(req *api.AppointmentRequest) error {
	var problems []string

	if strings.TrimSpace(req.UserID) == "" {
		problems = append(problems, "user_id is required")
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		problems = append(problems, "customer_name is required")
	}
	if req.CustomerEmail != "" {
		if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
			problems = append(problems, "customer_email is invalid")
		}
	}
	if req.Date == "" {
		problems = append(problems, "date is required")
	}
	if req.Timeslot == "" {
		problems = append(problems, "timeslot is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", response.ErrInvalidInput, strings.Join(problems, ", "))
	}

	return nil
}

func toAppointmentResponse(a *models.Appointment) api.AppointmentResponse {
	return api.AppointmentResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		CustomerName:    a.CustomerName,
		CustomerEmail:   a.CustomerEmail,
		Service:         a.Service,
		Date:            a.Date,
		Timeslot:        a.Timeslot,
		Status:          string(a.Status),
		Notes:           a.Notes,
		RescheduledFrom: a.RescheduledFrom,
		RescheduleFee:   a.RescheduleFee.InexactFloat64(),
		CancelReason:    a.CancelReason,
		CancelledAt:     a.CancelledAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
