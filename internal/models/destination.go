package models

import (
	"time"

	"github.com/uptrace/bun"
)

var Currencies = []string{"EUR", "USD", "MAD", "DZD", "TND"}

type LocalizedText struct {
	Fr string `bun:"fr,notnull" json:"fr"`
	En string `bun:"en,notnull" json:"en"`
	Ar string `bun:"ar,notnull" json:"ar"`
}

// In returns the text for lang, falling back to French.
func (t LocalizedText) In(lang string) string {
	switch lang {
	case "en":
		if t.En != "" {
			return t.En
		}
	case "ar":
		if t.Ar != "" {
			return t.Ar
		}
	}
	return t.Fr
}

type Destination struct {
	bun.BaseModel `bun:"table:destinations,alias:d"`

	ID           string        `bun:"id,pk" json:"id"`
	Name         LocalizedText `bun:"embed:name_" json:"name"`
	Description  LocalizedText `bun:"embed:description_" json:"description"`
	UnitPrice    float64       `bun:"price,notnull" json:"price"`
	Currency     string        `bun:"currency,notnull" json:"currency"`
	ImageURL     string        `bun:"image_url,nullzero" json:"image_url,omitempty"`
	Available    bool          `bun:"available,notnull" json:"available"`
	Active       bool          `bun:"active,notnull" json:"active"`
	DurationDays int           `bun:"duration_days,notnull" json:"duration_days"`
	Category     string        `bun:"category,nullzero" json:"category,omitempty"`
	Country      string        `bun:"country,nullzero" json:"country,omitempty"`
	City         string        `bun:"city,nullzero" json:"city,omitempty"`
	Popularity   int64         `bun:"popularity,notnull" json:"popularity"`
	CreatedAt    time.Time     `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt    time.Time     `bun:"updated_at,notnull" json:"updated_at"`
}

// IsBookable reports whether new reservations may target the destination.
func (d *Destination) IsBookable() bool {
	return d.Active && d.Available
}

type LocalizedName struct {
	Fr string `json:"fr" validate:"required,min=2,max=100"`
	En string `json:"en" validate:"required,min=2,max=100"`
	Ar string `json:"ar" validate:"required,min=2,max=100"`
}

type LocalizedDescription struct {
	Fr string `json:"fr" validate:"required,min=10,max=2000"`
	En string `json:"en" validate:"required,min=10,max=2000"`
	Ar string `json:"ar" validate:"required,min=10,max=2000"`
}

type DestinationRequest struct {
	Name         LocalizedName        `json:"name"`
	Description  LocalizedDescription `json:"description"`
	UnitPrice    float64              `json:"price" validate:"gte=0"`
	Currency     string               `json:"currency" validate:"omitempty,oneof=EUR USD MAD DZD TND"`
	ImageURL     string               `json:"image_url" validate:"omitempty,url"`
	Available    *bool                `json:"available"`
	Active       *bool                `json:"active"`
	DurationDays int                  `json:"duration_days" validate:"min=1"`
	Category     string               `json:"category" validate:"omitempty,oneof=beach mountain city countryside desert cultural adventure"`
	Country      string               `json:"country" validate:"omitempty,min=2,max=50"`
	City         string               `json:"city" validate:"omitempty,min=2,max=50"`
}

type DestinationPage struct {
	Count        int           `json:"count"`
	Total        int           `json:"total"`
	Page         int           `json:"page"`
	Pages        int           `json:"pages"`
	Destinations []Destination `json:"destinations"`
}

// DestinationView is a destination rendered in a single language.
type DestinationView struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	UnitPrice    float64 `json:"price"`
	Currency     string  `json:"currency"`
	ImageURL     string  `json:"image_url,omitempty"`
	Available    bool    `json:"available"`
	DurationDays int     `json:"duration_days"`
	Category     string  `json:"category,omitempty"`
	Country      string  `json:"country,omitempty"`
	City         string  `json:"city,omitempty"`
	Popularity   int64   `json:"popularity"`
}

func (d *Destination) View(lang string) DestinationView {
	return DestinationView{
		ID:           d.ID,
		Name:         d.Name.In(lang),
		Description:  d.Description.In(lang),
		UnitPrice:    d.UnitPrice,
		Currency:     d.Currency,
		ImageURL:     d.ImageURL,
		Available:    d.Available,
		DurationDays: d.DurationDays,
		Category:     d.Category,
		Country:      d.Country,
		City:         d.City,
		Popularity:   d.Popularity,
	}
}
