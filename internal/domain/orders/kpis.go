package orders

import (
	"time"

	"storefront/internal/domain/shared/money"
)

const (
	attentionAge = 3 * 24 * time.Hour
	recentAge    = 24 * time.Hour
)

type KPIs struct {
	TotalRevenue    money.Money
	TotalOrders     int
	PlatformRevenue money.Money
	AvgOrderValue   money.Money
}

// ComputeKPIs aggregates paid orders only. An empty input yields zeros.
func ComputeKPIs(list []Order) KPIs {
	currency := money.DefaultCurrency
	var revenue, fees int64
	count := 0
	for _, o := range list {
		if o.Status != StatusPaid {
			continue
		}
		if count == 0 && o.Amount.Currency != "" {
			currency = o.Amount.Currency
		}
		revenue += o.Amount.Amount
		fees += o.PlatformFee.Amount
		count++
	}
	total := money.Money{Amount: revenue, Currency: currency}
	return KPIs{
		TotalRevenue:    total,
		TotalOrders:     count,
		PlatformRevenue: money.Money{Amount: fees, Currency: currency},
		AvgOrderValue:   total.DivideBy(int64(count)),
	}
}

type ActionBuckets struct {
	NeedsAttention []Order
	RecentOrders   []Order
	PendingOrders  []Order
}

// ComputeActionBuckets fills each bucket independently; an order may land in several or none.
func ComputeActionBuckets(list []Order, now time.Time) ActionBuckets {
	buckets := ActionBuckets{
		NeedsAttention: []Order{},
		RecentOrders:   []Order{},
		PendingOrders:  []Order{},
	}
	for _, o := range list {
		age := now.Sub(o.CreatedAt)
		if o.Status == StatusPaid && age > attentionAge {
			buckets.NeedsAttention = append(buckets.NeedsAttention, o)
		}
		if o.Status == StatusPaid && age < recentAge {
			buckets.RecentOrders = append(buckets.RecentOrders, o)
		}
		if o.Status == StatusPending {
			buckets.PendingOrders = append(buckets.PendingOrders, o)
		}
	}
	return buckets
}
