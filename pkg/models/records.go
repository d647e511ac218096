package models

import (
	"errors"
	"time"
)

// Record is a search result that can check its own shape after decoding.
type Record interface {
	Validate() error
}

// Invoice is a single invoice row returned by the invoice search endpoints.
type Invoice struct {
	ID         int64     `json:"id"`
	Number     string    `json:"number"`
	ClientName string    `json:"client_name"`
	Total      float64   `json:"total"`
	Status     string    `json:"status"`
	IssuedAt   time.Time `json:"issued_at"`
}

// Validate reports whether the invoice carries the fields the views rely on.
func (i Invoice) Validate() error {
	if i.ID <= 0 {
		return errors.New("missing id")
	}
	if i.Number == "" {
		return errors.New("missing number")
	}
	return nil
}

// Client is a customer record.
type Client struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (c Client) Validate() error {
	if c.ID <= 0 {
		return errors.New("missing id")
	}
	if c.Name == "" {
		return errors.New("missing name")
	}
	return nil
}

// Product is a catalogue item.
type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	SKU   string  `json:"sku,omitempty"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

func (p Product) Validate() error {
	if p.ID <= 0 {
		return errors.New("missing id")
	}
	if p.Name == "" {
		return errors.New("missing name")
	}
	if p.Price < 0 {
		return errors.New("negative price")
	}
	return nil
}
