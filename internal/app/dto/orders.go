package dto

import (
	"time"

	apporders "storefront/internal/app/orders"
	domainorders "storefront/internal/domain/orders"
)

type StatusStyle struct {
	Label string `json:"label"`
	Badge string `json:"badge"`
	Dot   string `json:"dot"`
}

type ShippingAddress struct {
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type OrderItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	CoverURL string   `json:"cover_url,omitempty"`
	Store    StoreRef `json:"store"`
}

type Order struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	Style           StatusStyle      `json:"style"`
	Amount          MoneyDTO         `json:"amount"`
	PlatformFee     MoneyDTO         `json:"platform_fee"`
	RefundAmount    *MoneyDTO        `json:"refund_amount,omitempty"`
	SellerProceeds  MoneyDTO         `json:"seller_proceeds"`
	Refundable      bool             `json:"refundable"`
	BuyerName       string           `json:"buyer_name"`
	BuyerEmail      string           `json:"buyer_email"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	RefundedAt      *time.Time       `json:"refunded_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	Item            OrderItem        `json:"item"`
}

type OrderPageResponse struct {
	Items    []Order `json:"items"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Pages    int     `json:"pages"`
}

type KPIs struct {
	TotalRevenue    MoneyDTO `json:"total_revenue"`
	TotalOrders     int      `json:"total_orders"`
	PlatformRevenue MoneyDTO `json:"platform_revenue"`
	AvgOrderValue   MoneyDTO `json:"avg_order_value"`
}

type DashboardResponse struct {
	KPIs           KPIs    `json:"kpis"`
	NeedsAttention []Order `json:"needs_attention"`
	RecentOrders   []Order `json:"recent_orders"`
	PendingOrders  []Order `json:"pending_orders"`
	OrderCount     int     `json:"order_count"`
}

type RefundResponse struct {
	Success  bool     `json:"success"`
	RefundID string   `json:"refund_id,omitempty"`
	Amount   MoneyDTO `json:"amount"`
	Status   string   `json:"status"`
	Order    *Order   `json:"order,omitempty"`
}

type ExportResponse struct {
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}

func MapOrder(o domainorders.Order) Order {
	style := domainorders.StyleFor(o.Status)
	out := Order{
		ID:             string(o.ID),
		Status:         string(o.Status),
		Style:          StatusStyle{Label: style.Label, Badge: style.Badge, Dot: style.Dot},
		Amount:         MapMoney(o.Amount),
		PlatformFee:    MapMoney(o.PlatformFee),
		RefundAmount:   mapMoneyPtr(o.RefundAmount),
		SellerProceeds: MapMoney(o.SellerProceeds()),
		Refundable:     o.Refundable(),
		BuyerName:      o.BuyerName,
		BuyerEmail:     o.BuyerEmail,
		RefundedAt:     o.RefundedAt,
		CreatedAt:      o.CreatedAt,
		Item: OrderItem{
			ID:    string(o.Item.ID),
			Name:  o.Item.Name,
			Store: MapStoreRef(o.Item.Store),
		},
	}
	if len(o.Item.Images) > 0 {
		out.Item.CoverURL = o.Item.Images[0].URL
	}
	if a := o.ShippingAddress; a != nil {
		out.ShippingAddress = &ShippingAddress{
			Name:       a.Name,
			Phone:      a.Phone,
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		}
	}
	return out
}

func MapOrders(list []domainorders.Order) []Order {
	out := make([]Order, 0, len(list))
	for _, o := range list {
		out = append(out, MapOrder(o))
	}
	return out
}

func MapOrderPage(page apporders.OrderPage) OrderPageResponse {
	return OrderPageResponse{
		Items:    MapOrders(page.Items),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Pages:    page.Pages,
	}
}

func MapDashboard(d apporders.Dashboard) DashboardResponse {
	return DashboardResponse{
		KPIs: KPIs{
			TotalRevenue:    MapMoney(d.KPIs.TotalRevenue),
			TotalOrders:     d.KPIs.TotalOrders,
			PlatformRevenue: MapMoney(d.KPIs.PlatformRevenue),
			AvgOrderValue:   MapMoney(d.KPIs.AvgOrderValue),
		},
		NeedsAttention: MapOrders(d.Buckets.NeedsAttention),
		RecentOrders:   MapOrders(d.Buckets.RecentOrders),
		PendingOrders:  MapOrders(d.Buckets.PendingOrders),
		OrderCount:     d.Orders,
	}
}

func MapRefund(outcome apporders.RefundOutcome) RefundResponse {
	res := RefundResponse{
		Success:  outcome.Result.Success,
		RefundID: outcome.Result.RefundID,
		Amount:   MapMoney(outcome.Result.Amount),
		Status:   string(outcome.Result.Status),
	}
	if outcome.Order.ID != "" {
		order := MapOrder(outcome.Order)
		res.Order = &order
		res.Status = order.Status
	}
	return res
}
