package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/labdesk/labctl/pkg/domain"
)

// --- Time slot methods ---

// AddTimeSlot creates a time slot.
func (c *Client) AddTimeSlot(ctx context.Context, in domain.TimeSlotInput) (*domain.TimeSlot, error) {
	var ts domain.TimeSlot
	if err := c.post(ctx, "/api/timeslot", in, &ts); err != nil {
		return nil, fmt.Errorf("client.AddTimeSlot: %w", err)
	}
	return &ts, nil
}

// GetTimeSlot fetches one time slot.
func (c *Client) GetTimeSlot(ctx context.Context, id int64) (*domain.TimeSlot, error) {
	var ts domain.TimeSlot
	if err := c.get(ctx, idPath("/api/timeslot/", id), nil, &ts); err != nil {
		return nil, fmt.Errorf("client.GetTimeSlot: %w", err)
	}
	return &ts, nil
}

// ListTimeSlots lists every time slot.
func (c *Client) ListTimeSlots(ctx context.Context) ([]domain.TimeSlot, error) {
	var slots []domain.TimeSlot
	if err := c.get(ctx, "/api/timeslot/list", nil, &slots); err != nil {
		return nil, fmt.Errorf("client.ListTimeSlots: %w", err)
	}
	return slots, nil
}

// EnabledTimeSlots lists enabled time slots.
func (c *Client) EnabledTimeSlots(ctx context.Context) ([]domain.TimeSlot, error) {
	var slots []domain.TimeSlot
	if err := c.get(ctx, "/api/timeslot/enabled", nil, &slots); err != nil {
		return nil, fmt.Errorf("client.EnabledTimeSlots: %w", err)
	}
	return slots, nil
}

// TimeSlotsByStatus lists slots with status 0 (disabled) or 1 (enabled).
func (c *Client) TimeSlotsByStatus(ctx context.Context, status int) ([]domain.TimeSlot, error) {
	var slots []domain.TimeSlot
	if err := c.get(ctx, "/api/timeslot/status/"+strconv.Itoa(status), nil, &slots); err != nil {
		return nil, fmt.Errorf("client.TimeSlotsByStatus: %w", err)
	}
	return slots, nil
}

// AvailableTimeSlots lists the slots of a lab on a date, with Reserved set
// on those already taken.
func (c *Client) AvailableTimeSlots(ctx context.Context, labID int64, date string) ([]domain.TimeSlot, error) {
	params := url.Values{}
	params.Set("labId", strconv.FormatInt(labID, 10))
	params.Set("date", date)
	var slots []domain.TimeSlot
	if err := c.get(ctx, "/api/timeslot/available", params, &slots); err != nil {
		return nil, fmt.Errorf("client.AvailableTimeSlots: %w", err)
	}
	return slots, nil
}

// UpdateTimeSlot updates a time slot.
func (c *Client) UpdateTimeSlot(ctx context.Context, id int64, in domain.TimeSlotInput) error {
	if err := c.put(ctx, idPath("/api/timeslot/", id), nil, in, nil); err != nil {
		return fmt.Errorf("client.UpdateTimeSlot: %w", err)
	}
	return nil
}

// UpdateTimeSlotStatus enables (1) or disables (0) a slot.
func (c *Client) UpdateTimeSlotStatus(ctx context.Context, id int64, status int) error {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))
	params.Set("status", strconv.Itoa(status))
	if err := c.put(ctx, "/api/timeslot/status", params, nil, nil); err != nil {
		return fmt.Errorf("client.UpdateTimeSlotStatus: %w", err)
	}
	return nil
}

// BatchUpdateSort reorders slots.
func (c *Client) BatchUpdateSort(ctx context.Context, items []domain.SortItem) error {
	if err := c.put(ctx, "/api/timeslot/batch-sort", nil, items, nil); err != nil {
		return fmt.Errorf("client.BatchUpdateSort: %w", err)
	}
	return nil
}

// DeleteTimeSlot removes a slot.
func (c *Client) DeleteTimeSlot(ctx context.Context, id int64) error {
	if err := c.del(ctx, idPath("/api/timeslot/", id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteTimeSlot: %w", err)
	}
	return nil
}

// TimeSlotStatistics returns slot counters.
func (c *Client) TimeSlotStatistics(ctx context.Context) (domain.Statistics, error) {
	var stats domain.Statistics
	if err := c.get(ctx, "/api/timeslot/statistics", nil, &stats); err != nil {
		return nil, fmt.Errorf("client.TimeSlotStatistics: %w", err)
	}
	return stats, nil
}
