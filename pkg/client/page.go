package client

import (
	"bytes"

	"github.com/goccy/go-json"
)

// pageBody decodes a paged list. Servers return either a bare array or a
// page object carrying the rows under records, content, list or items.
type pageBody[T any] struct {
	Items []T
	Total int
}

func (p *pageBody[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &p.Items)
	}
	var w struct {
		Records []T `json:"records"`
		Content []T `json:"content"`
		List    []T `json:"list"`
		Items   []T `json:"items"`
		Total   int `json:"total"`
		// Spring Data pages
		TotalElements int `json:"totalElements"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	for _, rows := range [][]T{w.Records, w.Content, w.List, w.Items} {
		if rows != nil {
			p.Items = rows
			break
		}
	}
	p.Total = max(w.Total, w.TotalElements)
	return nil
}
