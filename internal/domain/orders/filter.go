package orders

import (
	"strings"
	"time"

	"storefront/internal/domain/catalog"
)

// AllStatuses disables the status filter.
const AllStatuses = "all"

// DefaultPageSize is used by dashboards when no size is requested.
const DefaultPageSize = 20

// FilterParams compose with logical AND. Zero values disable a filter.
type FilterParams struct {
	Status         string
	Search         string
	DateWindowDays int
	StoreID        catalog.StoreID
}

// Filter keeps orders matching every active filter, preserving input order.
func Filter(list []Order, params FilterParams, now time.Time) []Order {
	status := strings.TrimSpace(params.Status)
	matchAllStatuses := status == "" || strings.EqualFold(status, AllStatuses)
	needle := strings.ToLower(strings.TrimSpace(params.Search))
	var cutoff time.Time
	if params.DateWindowDays > 0 {
		cutoff = now.Add(-time.Duration(params.DateWindowDays) * 24 * time.Hour)
	}

	out := make([]Order, 0, len(list))
	for _, o := range list {
		if !matchAllStatuses && string(o.Status) != status {
			continue
		}
		if needle != "" && !matchesSearch(o, needle) {
			continue
		}
		if !cutoff.IsZero() && o.CreatedAt.Before(cutoff) {
			continue
		}
		if params.StoreID != "" && o.Item.Store.ID != params.StoreID {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchesSearch(o Order, needle string) bool {
	fields := []string{o.Item.Name, o.BuyerEmail, o.BuyerName, string(o.ID)}
	if o.ShippingAddress != nil {
		fields = append(fields, o.ShippingAddress.Name)
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Paginate returns the 1-indexed page slice [(page-1)*size, page*size). Out-of-range
// requests yield an empty, non-nil slice.
func Paginate(list []Order, page, size int) []Order {
	if page < 1 || size < 1 {
		return []Order{}
	}
	start := (page - 1) * size
	if start >= len(list) {
		return []Order{}
	}
	end := start + size
	if end > len(list) {
		end = len(list)
	}
	return list[start:end]
}

// PageCount returns the number of pages needed for total items.
func PageCount(total, size int) int {
	if total <= 0 || size < 1 {
		return 0
	}
	return (total + size - 1) / size
}
