package analytics

import (
	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
)

const (
	UtilisationHigh   = "high"
	UtilisationMedium = "medium"
	UtilisationLow    = "low"
)

// FilterRoutes keeps routes whose mode label matches, preserving order.
func FilterRoutes(routes []entities.Route, mode entities.ModeFilter) []entities.Route {
	out := make([]entities.Route, 0, len(routes))
	for _, route := range routes {
		if mode.Matches(route.Mode) {
			out = append(out, route)
		}
	}
	return out
}

// TopRoutes returns the first n routes in their existing order.
func TopRoutes(routes []entities.Route, n int) []entities.Route {
	if n < 0 {
		n = 0
	}
	if n > len(routes) {
		n = len(routes)
	}
	out := make([]entities.Route, n)
	copy(out, routes[:n])
	return out
}

func UtilisationLevel(percent int) string {
	switch {
	case percent > 75:
		return UtilisationHigh
	case percent > 60:
		return UtilisationMedium
	}
	return UtilisationLow
}

// WithUtilisationLevels returns a copy of cmp with UtilisationLevel set.
func WithUtilisationLevels(cmp []entities.ModeComparison) []entities.ModeComparison {
	out := make([]entities.ModeComparison, len(cmp))
	for i, c := range cmp {
		c.UtilisationLevel = UtilisationLevel(c.Utilisation)
		out[i] = c
	}
	return out
}
