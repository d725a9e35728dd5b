package models

import (
	"strings"
	"time"
)

// Status describes where a parcel sits in its lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusShipped  Status = "shipped"
	StatusReceived Status = "received"
)

// Valid reports whether the value is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusReceived:
		return true
	}
	return false
}

// Toggled returns the two-state flip used by the quick status control.
func (s Status) Toggled() Status {
	if s == StatusPending {
		return StatusReceived
	}
	return StatusPending
}

// Next returns the following step in the three-state chain. Received is
// terminal and returns itself.
func (s Status) Next() Status {
	switch s {
	case StatusPending:
		return StatusShipped
	case StatusShipped:
		return StatusReceived
	default:
		return StatusReceived
	}
}

// Package is the canonical parcel/inventory entry. Every variant's loose
// record shape maps onto this one type; wire-name translation happens at the
// remote store boundary only.
type Package struct {
	ID             string    `json:"id"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	ItemName       string    `json:"item_name"`
	Recipient      string    `json:"recipient,omitempty"`
	Sender         string    `json:"sender,omitempty"`
	CostPrice      float64   `json:"cost_price"`
	Quantity       int       `json:"quantity"`
	Status         Status    `json:"status"`
	ProductID      string    `json:"product_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Pending reports whether the parcel still awaits receipt.
func (p Package) Pending() bool {
	return p.Status == StatusPending
}

// Value is the monetary worth of the entry (cost times quantity).
func (p Package) Value() float64 {
	qty := p.Quantity
	if qty <= 0 {
		qty = 0
	}
	return p.CostPrice * float64(qty)
}

// Matches reports whether the free-text search term hits any of the
// searchable fields. An empty term matches everything.
func (p Package) Matches(term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, field := range []string{p.TrackingNumber, p.ItemName, p.Recipient, p.Sender} {
		if field != "" && strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// AddPackageInput carries the fields accepted by the add form.
type AddPackageInput struct {
	TrackingNumber string  `json:"tracking_number"`
	ItemName       string  `json:"item_name" binding:"required"`
	Recipient      string  `json:"recipient"`
	Sender         string  `json:"sender"`
	CostPrice      float64 `json:"cost_price"`
	Quantity       int     `json:"quantity"`
}
