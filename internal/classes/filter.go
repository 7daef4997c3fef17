package classes

import (
	"errors"
	"strings"

	"tutoring-service/internal/models"
)

var ErrInvalidPriceBand = errors.New("unknown price band")

// PriceBand is one of the monthly price brackets offered when browsing.
type PriceBand string

const (
	PriceAny      PriceBand = ""
	PriceUnder300 PriceBand = "under_300"
	Price300To500 PriceBand = "300_500"
	Price500To800 PriceBand = "500_800"
	PriceOver800  PriceBand = "over_800"
)

func ParsePriceBand(s string) (PriceBand, error) {
	switch b := PriceBand(strings.TrimSpace(s)); b {
	case PriceAny, PriceUnder300, Price300To500, Price500To800, PriceOver800:
		return b, nil
	default:
		return PriceAny, ErrInvalidPriceBand
	}
}

// Contains reports whether price falls in the band. 300 and 500 belong to
// 300_500, 800 to 500_800.
func (b PriceBand) Contains(price float64) bool {
	switch b {
	case PriceUnder300:
		return price < 300
	case Price300To500:
		return price >= 300 && price <= 500
	case Price500To800:
		return price > 500 && price <= 800
	case PriceOver800:
		return price > 800
	default:
		return true
	}
}

// Filter narrows the browse list. Zero values match everything.
type Filter struct {
	Search  string
	Subject string
	Grade   int
	Price   PriceBand
}

func (f Filter) Match(c models.TutorClass) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		tutorName := ""
		if c.Tutor != nil {
			tutorName = strings.ToLower(c.Tutor.FullName)
		}
		if !strings.Contains(strings.ToLower(c.Title), term) &&
			!strings.Contains(strings.ToLower(c.Subject), term) &&
			!strings.Contains(tutorName, term) {
			return false
		}
	}
	if f.Subject != "" && c.Subject != f.Subject {
		return false
	}
	if f.Grade != 0 && c.Grade != f.Grade {
		return false
	}
	return f.Price.Contains(c.MonthlyPrice)
}

// Apply returns the classes matching f, keeping their order.
func (f Filter) Apply(list []models.TutorClass) []models.TutorClass {
	out := make([]models.TutorClass, 0, len(list))
	for _, c := range list {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}
