package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labdesk/labctl/pkg/domain"
)

// ReportQuery narrows an export. Empty fields are omitted.
type ReportQuery struct {
	StartDate string
	EndDate   string
	LabID     int64
	Status    *domain.ReservationStatus
}

func (q ReportQuery) values() url.Values {
	params := url.Values{}
	if q.StartDate != "" {
		params.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("endDate", q.EndDate)
	}
	if q.LabID != 0 {
		params.Set("labId", strconv.FormatInt(q.LabID, 10))
	}
	if q.Status != nil {
		params.Set("status", strconv.Itoa(int(*q.Status)))
	}
	return params
}

// --- Report methods ---

// ExportReservations downloads the reservation spreadsheet.
func (c *Client) ExportReservations(ctx context.Context, q ReportQuery) (*domain.Blob, error) {
	blob, err := c.doBlob(ctx, request{method: http.MethodGet, path: "/api/report/export-reservations", query: q.values()})
	if err != nil {
		return nil, fmt.Errorf("client.ExportReservations: %w", err)
	}
	if blob.Filename == "" {
		blob.Filename = "reservations.xlsx"
	}
	return blob, nil
}

// ExportStatistics downloads the statistics spreadsheet.
func (c *Client) ExportStatistics(ctx context.Context, q ReportQuery) (*domain.Blob, error) {
	blob, err := c.doBlob(ctx, request{method: http.MethodGet, path: "/api/report/export-statistics", query: q.values()})
	if err != nil {
		return nil, fmt.Errorf("client.ExportStatistics: %w", err)
	}
	if blob.Filename == "" {
		blob.Filename = "statistics.xlsx"
	}
	return blob, nil
}
