package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"booking-service/api"
	"booking-service/internal/availability"
	"booking-service/internal/lock"
	"booking-service/internal/models"
	"booking-service/internal/policy"
	"booking-service/pkg/response"
)

const defaultLockTTL = 10 * time.Second

type Store interface {
	availability.BookedSlotsFetcher
	availability.BlockedSlotsFetcher

	// Appointments
	CreateAppointment(ctx context.Context, a *models.Appointment) (string, error)
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	ListAppointments(ctx context.Context, filter models.AppointmentFilter) ([]*models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, from, to models.AppointmentStatus, reason string, at time.Time) error
	RescheduleAppointment(ctx context.Context, oldID string, from models.AppointmentStatus, next *models.Appointment, at time.Time) (string, error)

	// Blocked slots
	CreateBlockedSlot(ctx context.Context, b *models.BlockedSlot) (string, error)
	GetBlockedSlot(ctx context.Context, id string) (*models.BlockedSlot, error)
	ListBlockedSlots(ctx context.Context, date *string) ([]*models.BlockedSlot, error)
	DeleteBlockedSlot(ctx context.Context, id string) error
}

type Service struct {
	store     Store
	locker    lock.Locker
	resolver  *availability.Resolver
	evaluator *policy.Evaluator

	lockTTL time.Duration
	refresh time.Duration
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLockTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refresh = d
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

func NewService(store Store, locker lock.Locker, resolver *availability.Resolver, evaluator *policy.Evaluator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		locker:    locker,
		resolver:  resolver,
		evaluator: evaluator,
		lockTTL:   defaultLockTTL,
		refresh:   policy.DefaultRefreshInterval,
		now:       time.Now,
		newID:     newID,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Slots

// ResolveSlots returns the slot list for date. When the booked or blocked
// sets cannot be read the degraded list is returned together with an error
// wrapping response.ErrUnavailable.
func (s *Service) ResolveSlots(ctx context.Context, date string) (*api.SlotsResponse, error) {
	const op = "service.ResolveSlots"

	av, err := s.resolver.Resolve(ctx, date)

	resp := &api.SlotsResponse{
		Date:      av.Date,
		Confirmed: av.Confirmed,
		Slots:     make([]api.TimeSlot, len(av.Slots)),
	}
	for i, slot := range av.Slots {
		resp.Slots[i] = api.TimeSlot{Time: slot.Time, Available: slot.Available}
	}

	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, availability.ErrInvalidDate):
		return nil, fmt.Errorf("%s: %w: %w", op, response.ErrInvalidInput, err)
	case errors.Is(err, availability.ErrDataFetch):
		return resp, fmt.Errorf("%s: %w: %w", op, response.ErrUnavailable, err)
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}

// Policy

func (s *Service) EvaluatePolicy(_ context.Context, date, clock string) (*api.PolicyResponse, error) {
	now := s.now()
	resp := toPolicyResponse(s.evaluator.Evaluate(date, clock, now), now, s.refresh)
	return &resp, nil
}

func (s *Service) EvaluateAppointmentPolicy(ctx context.Context, id string) (*api.PolicyResponse, error) {
	const op = "service.EvaluateAppointmentPolicy"

	a, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	resp := toPolicyResponse(s.evaluator.Evaluate(a.Date, a.Timeslot, now), now, s.refresh)
	return &resp, nil
}

// WatchAppointmentPolicy streams a fresh policy decision for the appointment
// every refresh interval until ctx is done.
func (s *Service) WatchAppointmentPolicy(ctx context.Context, id string) (<-chan api.PolicyResponse, error) {
	const op = "service.WatchAppointmentPolicy"

	a, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	statuses := s.evaluator.Watch(ctx, a.Date, a.Timeslot, s.now, s.refresh)
	out := make(chan api.PolicyResponse)

	go func() {
		defer close(out)

		for st := range statuses {
			select {
			case out <- toPolicyResponse(st, s.now(), s.refresh):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *Service) withSlotLock(ctx context.Context, date, clock string, fn func() error) error {
	key := lock.SlotKey(date, clock)

	token, ok, err := s.locker.Lock(ctx, key, s.lockTTL)
	if err != nil {
		return fmt.Errorf("lock error: %w", err)
	}
	if !ok {
		return response.ErrLocked
	}
	defer func() {
		_ = s.locker.Unlock(context.WithoutCancel(ctx), key, token)
	}()

	return fn()
}

func toPolicyResponse(st policy.Status, at time.Time, refresh time.Duration) api.PolicyResponse {
	return api.PolicyResponse{
		CanCancel:            st.CanCancel,
		CanReschedule:        st.CanReschedule,
		RequiresFee:          st.RequiresFee,
		FeeAmount:            st.FeeAmount.InexactFloat64(),
		Currency:             st.Currency,
		HoursRemaining:       st.HoursRemaining,
		TimeUntilAppointment: st.TimeUntilAppointment,
		PolicyMessage:        st.PolicyMessage,
		Window:               string(st.Window),
		EvaluatedAt:          at,
		RefreshAfterSeconds:  int(refresh / time.Second),
	}
}
