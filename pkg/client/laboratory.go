package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/labdesk/labctl/pkg/domain"
)

// --- Laboratory methods ---

// AddLaboratory creates a laboratory.
func (c *Client) AddLaboratory(ctx context.Context, in domain.LaboratoryInput) (*domain.Laboratory, error) {
	var lab domain.Laboratory
	if err := c.post(ctx, "/api/laboratory", in, &lab); err != nil {
		return nil, fmt.Errorf("client.AddLaboratory: %w", err)
	}
	return &lab, nil
}

// GetLaboratory fetches one laboratory.
func (c *Client) GetLaboratory(ctx context.Context, id int64) (*domain.Laboratory, error) {
	var lab domain.Laboratory
	if err := c.get(ctx, idPath("/api/laboratory/", id), nil, &lab); err != nil {
		return nil, fmt.Errorf("client.GetLaboratory: %w", err)
	}
	return &lab, nil
}

// ListLaboratories lists every laboratory.
func (c *Client) ListLaboratories(ctx context.Context) ([]domain.Laboratory, error) {
	var labs []domain.Laboratory
	if err := c.get(ctx, "/api/laboratory/list", nil, &labs); err != nil {
		return nil, fmt.Errorf("client.ListLaboratories: %w", err)
	}
	return labs, nil
}

// ListLaboratoriesByType lists laboratories of one type.
func (c *Client) ListLaboratoriesByType(ctx context.Context, labType string) ([]domain.Laboratory, error) {
	var labs []domain.Laboratory
	if err := c.get(ctx, "/api/laboratory/type/"+url.PathEscape(labType), nil, &labs); err != nil {
		return nil, fmt.Errorf("client.ListLaboratoriesByType: %w", err)
	}
	return labs, nil
}

// ListLaboratoriesByStatus lists laboratories in one state.
func (c *Client) ListLaboratoriesByStatus(ctx context.Context, status domain.LabStatus) ([]domain.Laboratory, error) {
	var labs []domain.Laboratory
	if err := c.get(ctx, "/api/laboratory/status/"+strconv.Itoa(int(status)), nil, &labs); err != nil {
		return nil, fmt.Errorf("client.ListLaboratoriesByStatus: %w", err)
	}
	return labs, nil
}

// AvailableLaboratories lists laboratories open for booking.
func (c *Client) AvailableLaboratories(ctx context.Context) ([]domain.Laboratory, error) {
	var labs []domain.Laboratory
	if err := c.get(ctx, "/api/laboratory/available", nil, &labs); err != nil {
		return nil, fmt.Errorf("client.AvailableLaboratories: %w", err)
	}
	return labs, nil
}

// SearchLaboratories searches by keyword, type and status.
func (c *Client) SearchLaboratories(ctx context.Context, s domain.LabSearch) ([]domain.Laboratory, error) {
	params := url.Values{}
	if s.Keyword != "" {
		params.Set("keyword", s.Keyword)
	}
	if s.Type != "" {
		params.Set("labType", s.Type)
	}
	if s.Status != nil {
		params.Set("status", strconv.Itoa(int(*s.Status)))
	}
	var labs []domain.Laboratory
	if err := c.get(ctx, "/api/laboratory/search", params, &labs); err != nil {
		return nil, fmt.Errorf("client.SearchLaboratories: %w", err)
	}
	return labs, nil
}

// LaboratoriesByCapacity lists laboratories whose capacity lies in [min, max].
// A zero bound is left open.
func (c *Client) LaboratoriesByCapacity(ctx context.Context, minCapacity, maxCapacity int) ([]domain.Laboratory, error) {
	params := url.Values{}
	if minCapacity > 0 {
		params.Set("minCapacity", strconv.Itoa(minCapacity))
	}
	if maxCapacity > 0 {
		params.Set("maxCapacity", strconv.Itoa(maxCapacity))
	}
	var labs []domain.Laboratory
	if err := c.get(ctx, "/api/laboratory/capacity", params, &labs); err != nil {
		return nil, fmt.Errorf("client.LaboratoriesByCapacity: %w", err)
	}
	return labs, nil
}

// UpdateLaboratory updates a laboratory; in.ID must be set.
func (c *Client) UpdateLaboratory(ctx context.Context, in domain.LaboratoryInput) error {
	if err := c.put(ctx, "/api/laboratory", nil, in, nil); err != nil {
		return fmt.Errorf("client.UpdateLaboratory: %w", err)
	}
	return nil
}

// DeleteLaboratory removes a laboratory. This endpoint lives outside /api.
func (c *Client) DeleteLaboratory(ctx context.Context, id int64) error {
	if err := c.del(ctx, idPath("/laboratories/", id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteLaboratory: %w", err)
	}
	return nil
}

// UpdateLaboratoryStatus changes a laboratory's state. This endpoint lives outside /api.
func (c *Client) UpdateLaboratoryStatus(ctx context.Context, id int64, status domain.LabStatus) error {
	body := map[string]int{"status": int(status)}
	if err := c.put(ctx, idPath("/laboratories/", id)+"/status", nil, body, nil); err != nil {
		return fmt.Errorf("client.UpdateLaboratoryStatus: %w", err)
	}
	return nil
}

// LaboratoryStatistics returns laboratory counters.
func (c *Client) LaboratoryStatistics(ctx context.Context) (domain.Statistics, error) {
	var stats domain.Statistics
	if err := c.get(ctx, "/api/laboratory/statistics", nil, &stats); err != nil {
		return nil, fmt.Errorf("client.LaboratoryStatistics: %w", err)
	}
	return stats, nil
}
