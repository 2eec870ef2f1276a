package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"booking-service/api"
	"booking-service/internal/models"
	"booking-service/internal/schedule"
	"booking-service/pkg/response"
)

// Blocked slots

func (s *Service) CreateBlockedSlot(ctx context.Context, req *api.BlockedSlotRequest) (*api.BlockedSlotResponse, error) {
	const op = "service.CreateBlockedSlot"

	if _, err := schedule.ParseDate(req.Date); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, response.ErrInvalidInput, err)
	}

	if len(req.Timeslots) == 0 {
		return nil, fmt.Errorf("%s: %w: timeslots must not be empty", op, response.ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(req.Timeslots))
	timeslots := make([]string, 0, len(req.Timeslots))
	for _, ts := range req.Timeslots {
		if _, _, err := schedule.ParseClock(ts); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, response.ErrInvalidInput, err)
		}
		if _, ok := seen[ts]; ok {
			continue
		}
		seen[ts] = struct{}{}
		timeslots = append(timeslots, ts)
	}
	sort.Strings(timeslots)

	b := &models.BlockedSlot{
		ID:        s.newID(),
		Date:      req.Date,
		Timeslots: timeslots,
		Reason:    strings.TrimSpace(req.Reason),
		CreatedAt: s.now(),
	}

	id, err := s.store.CreateBlockedSlot(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBlockedSlot(ctx, id)
}

func (s *Service) GetBlockedSlot(ctx context.Context, id string) (*api.BlockedSlotResponse, error) {
	const op = "service.GetBlockedSlot"

	b, err := s.store.GetBlockedSlot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toBlockedSlotResponse(b)
	return &resp, nil
}

func (s *Service) ListBlockedSlots(ctx context.Context, date *string) ([]*api.BlockedSlotResponse, error) {
	const op = "service.ListBlockedSlots"

	if date != nil {
		if _, err := schedule.ParseDate(*date); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, response.ErrInvalidInput, err)
		}
	}

	blocks, err := s.store.ListBlockedSlots(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]*api.BlockedSlotResponse, len(blocks))
	for i, b := range blocks {
		resp := toBlockedSlotResponse(b)
		out[i] = &resp
	}

	return out, nil
}

func (s *Service) DeleteBlockedSlot(ctx context.Context, id string) error {
	const op = "service.DeleteBlockedSlot"

	if err := s.store.DeleteBlockedSlot(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func toBlockedSlotResponse(b *models.BlockedSlot) api.BlockedSlotResponse {
	return api.BlockedSlotResponse{
		ID:        b.ID,
		Date:      b.Date,
		Timeslots: b.Timeslots,
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt,
	}
}
