package utils

import (
	"math"
	"net/http"
	"strconv"
)

const MaxPageLimit = 100

// MaxPage keeps Offset within int for every accepted limit.
const MaxPage = math.MaxInt / MaxPageLimit

type Page struct {
	Page  int
	Limit int
}

// ParsePage reads ?page= and ?limit=, falling back to page 1 and defaultLimit.
func ParsePage(r *http.Request, defaultLimit int) Page {
	p := Page{Page: 1, Limit: defaultLimit}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		p.Limit = v
	}
	return p.Normalize(defaultLimit)
}

func (p Page) Normalize(defaultLimit int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p Page) Pages(total int) int {
	if p.Limit == 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}
