// Package availability resolves which candidate slots of a date can still be booked.
package availability

import (
	"context"
	"errors"
	"fmt"

	"booking-service/internal/models"
	"booking-service/internal/schedule"

	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidDate = errors.New("invalid date")
	// ErrDataFetch means booked or blocked slots could not be read, so
	// availability is unknown.
	ErrDataFetch = errors.New("availability data fetch failed")
)

type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// Availability is the resolved slot list for Date. Confirmed is false when the
// slots were not checked against bookings and blocks; every slot is then
// reported unavailable.
type Availability struct {
	Date      string     `json:"date"`
	Slots     []TimeSlot `json:"slots"`
	Confirmed bool       `json:"confirmed"`
}

type BookedSlotsFetcher interface {
	BookedSlots(ctx context.Context, date string) ([]string, error)
}

type BlockedSlotsFetcher interface {
	BlockedSlots(ctx context.Context, date string) ([]models.BlockedSlot, error)
}

type Resolver struct {
	table   *schedule.Table
	booked  BookedSlotsFetcher
	blocked BlockedSlotsFetcher
}

func NewResolver(table *schedule.Table, booked BookedSlotsFetcher, blocked BlockedSlotsFetcher) *Resolver {
	return &Resolver{table: table, booked: booked, blocked: blocked}
}

func (r *Resolver) Resolve(ctx context.Context, date string) (Availability, error) {
	const op = "availability.Resolver.Resolve"

	day, err := schedule.ParseDate(date)
	if err != nil {
		return Availability{Date: date, Slots: []TimeSlot{}}, fmt.Errorf("%s: %w: %w", op, ErrInvalidDate, err)
	}

	candidates := r.table.Candidates(day.Weekday())
	if len(candidates) == 0 {
		return Availability{Date: date, Slots: []TimeSlot{}, Confirmed: true}, nil
	}

	var (
		booked  []string
		blocked []models.BlockedSlot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		booked, err = r.booked.BookedSlots(gctx, date)
		if err != nil {
			return fmt.Errorf("booked slots: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		blocked, err = r.blocked.BlockedSlots(gctx, date)
		if err != nil {
			return fmt.Errorf("blocked slots: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return unconfirmed(date, candidates), fmt.Errorf("%s: %w: %w", op, ErrDataFetch, err)
	}

	excluded := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		excluded[t] = struct{}{}
	}
	for _, b := range blocked {
		for _, t := range b.Timeslots {
			excluded[t] = struct{}{}
		}
	}

	slots := make([]TimeSlot, 0, len(candidates))
	for _, t := range candidates {
		_, taken := excluded[t]
		slots = append(slots, TimeSlot{Time: t, Available: !taken})
	}

	return Availability{Date: date, Slots: slots, Confirmed: true}, nil
}

func unconfirmed(date string, candidates []string) Availability {
	slots := make([]TimeSlot, 0, len(candidates))
	for _, t := range candidates {
		slots = append(slots, TimeSlot{Time: t})
	}
	return Availability{Date: date, Slots: slots}
}

// IsAvailable reports whether clock is a candidate of a and free.
func (a Availability) IsAvailable(clock string) bool {
	if !a.Confirmed {
		return false
	}
	for _, s := range a.Slots {
		if s.Time == clock {
			return s.Available
		}
	}
	return false
}
