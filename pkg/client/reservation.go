package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/labdesk/labctl/pkg/domain"
)

// --- Reservation methods ---

func reservationParams(q domain.ReservationQuery) url.Values {
	params := url.Values{}
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}
	if q.UserID != 0 {
		params.Set("userId", strconv.FormatInt(q.UserID, 10))
	}
	if q.LabID != 0 {
		params.Set("labId", strconv.FormatInt(q.LabID, 10))
	}
	if q.Status != nil {
		params.Set("status", strconv.Itoa(int(*q.Status)))
	}
	if q.StartDate != "" {
		params.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("endDate", q.EndDate)
	}
	return params
}

// CreateReservation books a lab for a date and time range.
func (c *Client) CreateReservation(ctx context.Context, req domain.ReservationRequest) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := c.post(ctx, "/api/reservation", req, &res); err != nil {
		return nil, fmt.Errorf("client.CreateReservation: %w", err)
	}
	return &res, nil
}

// GetReservation fetches one reservation.
func (c *Client) GetReservation(ctx context.Context, id int64) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := c.get(ctx, idPath("/api/reservation/", id), nil, &res); err != nil {
		return nil, fmt.Errorf("client.GetReservation: %w", err)
	}
	return &res, nil
}

// ListReservations lists reservations, filtered by q.
func (c *Client) ListReservations(ctx context.Context, q domain.ReservationQuery) ([]domain.Reservation, error) {
	var list []domain.Reservation
	if err := c.get(ctx, "/api/reservation/list", reservationParams(q), &list); err != nil {
		return nil, fmt.Errorf("client.ListReservations: %w", err)
	}
	return list, nil
}

// UserReservations lists one user's reservations.
func (c *Client) UserReservations(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	var list []domain.Reservation
	if err := c.get(ctx, idPath("/api/reservation/user/", userID), nil, &list); err != nil {
		return nil, fmt.Errorf("client.UserReservations: %w", err)
	}
	return list, nil
}

// MyReservations lists the user's reservations, optionally narrowed to one
// status. The server has no per-status user endpoint so the filter is local.
func (c *Client) MyReservations(ctx context.Context, userID int64, status *domain.ReservationStatus) ([]domain.Reservation, error) {
	list, err := c.UserReservations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return list, nil
	}
	filtered := list[:0]
	for _, r := range list {
		if r.Status == *status {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// LabReservations lists one laboratory's reservations.
func (c *Client) LabReservations(ctx context.Context, labID int64) ([]domain.Reservation, error) {
	var list []domain.Reservation
	if err := c.get(ctx, idPath("/api/reservation/lab/", labID), nil, &list); err != nil {
		return nil, fmt.Errorf("client.LabReservations: %w", err)
	}
	return list, nil
}

// ReservationsByStatus lists reservations in one state.
func (c *Client) ReservationsByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error) {
	var list []domain.Reservation
	if err := c.get(ctx, "/api/reservation/status/"+strconv.Itoa(int(status)), nil, &list); err != nil {
		return nil, fmt.Errorf("client.ReservationsByStatus: %w", err)
	}
	return list, nil
}

// PendingReservations lists reservations awaiting approval.
func (c *Client) PendingReservations(ctx context.Context) ([]domain.Reservation, error) {
	var list []domain.Reservation
	if err := c.get(ctx, "/api/reservation/pending", nil, &list); err != nil {
		return nil, fmt.Errorf("client.PendingReservations: %w", err)
	}
	return list, nil
}

func noteParams(key, value string) url.Values {
	if value == "" {
		return nil
	}
	params := url.Values{}
	params.Set(key, value)
	return params
}

// ApproveReservation approves a pending reservation.
func (c *Client) ApproveReservation(ctx context.Context, id int64, note string) error {
	if err := c.put(ctx, idPath("/api/reservation/approve/", id), noteParams("approvalNote", note), nil, nil); err != nil {
		return fmt.Errorf("client.ApproveReservation: %w", err)
	}
	return nil
}

// RejectReservation rejects a pending reservation.
func (c *Client) RejectReservation(ctx context.Context, id int64, note string) error {
	if err := c.put(ctx, idPath("/api/reservation/reject/", id), noteParams("approvalNote", note), nil, nil); err != nil {
		return fmt.Errorf("client.RejectReservation: %w", err)
	}
	return nil
}

// UpdateReservation updates a reservation; req.ID must be set.
func (c *Client) UpdateReservation(ctx context.Context, req domain.ReservationRequest) error {
	if err := c.put(ctx, "/api/reservation", nil, req, nil); err != nil {
		return fmt.Errorf("client.UpdateReservation: %w", err)
	}
	return nil
}

// CancelReservation cancels a reservation.
func (c *Client) CancelReservation(ctx context.Context, id int64) error {
	if err := c.put(ctx, idPath("/api/reservation/cancel/", id), nil, nil, nil); err != nil {
		return fmt.Errorf("client.CancelReservation: %w", err)
	}
	return nil
}

// CompleteReservation marks a reservation completed with optional feedback.
func (c *Client) CompleteReservation(ctx context.Context, id int64, feedback string) error {
	if err := c.put(ctx, idPath("/api/reservation/complete/", id), noteParams("feedback", feedback), nil, nil); err != nil {
		return fmt.Errorf("client.CompleteReservation: %w", err)
	}
	return nil
}

// DeleteReservation removes a reservation.
func (c *Client) DeleteReservation(ctx context.Context, id int64) error {
	if err := c.del(ctx, idPath("/api/reservation/", id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteReservation: %w", err)
	}
	return nil
}

// CheckConflict asks whether labID is free on date during timeSlot
// ("HH:mm-HH:mm"). The server signals a conflict either with a boolean
// payload or by failing the envelope, so a business error is reported as
// a conflict rather than an error.
func (c *Client) CheckConflict(ctx context.Context, labID int64, date, timeSlot string) (*domain.ConflictResult, error) {
	params := url.Values{}
	params.Set("labId", strconv.FormatInt(labID, 10))
	params.Set("reserveDate", date)
	params.Set("timeSlot", timeSlot)

	var conflict *bool
	err := c.get(ctx, "/api/reservation/check-conflict", params, &conflict)
	var bizErr *BusinessError
	switch {
	case errors.As(err, &bizErr) && !IsUnauthorized(err):
		return &domain.ConflictResult{Conflict: true, Message: bizErr.Envelope.Message}, nil
	case err != nil:
		return nil, fmt.Errorf("client.CheckConflict: %w", err)
	}
	return &domain.ConflictResult{Conflict: conflict != nil && *conflict}, nil
}

// ReservationsByDateRange lists reservations between two dates inclusive.
func (c *Client) ReservationsByDateRange(ctx context.Context, startDate, endDate string) ([]domain.Reservation, error) {
	params := url.Values{}
	params.Set("startDate", startDate)
	params.Set("endDate", endDate)
	var list []domain.Reservation
	if err := c.get(ctx, "/api/reservation/date-range", params, &list); err != nil {
		return nil, fmt.Errorf("client.ReservationsByDateRange: %w", err)
	}
	return list, nil
}

// SearchReservations searches reservations.
func (c *Client) SearchReservations(ctx context.Context, q domain.ReservationQuery) ([]domain.Reservation, error) {
	var list []domain.Reservation
	if err := c.get(ctx, "/api/reservation/search", reservationParams(q), &list); err != nil {
		return nil, fmt.Errorf("client.SearchReservations: %w", err)
	}
	return list, nil
}

// LabSchedule lists a laboratory's reservations on one date.
func (c *Client) LabSchedule(ctx context.Context, labID int64, date string) ([]domain.Reservation, error) {
	params := url.Values{}
	params.Set("labId", strconv.FormatInt(labID, 10))
	params.Set("date", date)
	var list []domain.Reservation
	if err := c.get(ctx, "/api/reservation/lab-schedule", params, &list); err != nil {
		return nil, fmt.Errorf("client.LabSchedule: %w", err)
	}
	return list, nil
}

// ReservationStatistics returns counters for userID, or global counters when userID is 0.
func (c *Client) ReservationStatistics(ctx context.Context, userID int64) (domain.Statistics, error) {
	var params url.Values
	if userID != 0 {
		params = url.Values{}
		params.Set("userId", strconv.FormatInt(userID, 10))
	}
	var stats domain.Statistics
	if err := c.get(ctx, "/api/reservation/statistics", params, &stats); err != nil {
		return nil, fmt.Errorf("client.ReservationStatistics: %w", err)
	}
	return stats, nil
}
