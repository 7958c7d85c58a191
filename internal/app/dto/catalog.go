package dto

import (
	"time"

	"storefront/internal/domain/catalog"
	"storefront/internal/domain/notifications"
	"storefront/internal/domain/payments"
)

type StoreRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

type Store struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Image struct {
	URL      string `json:"url"`
	Position int    `json:"position"`
}

type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       MoneyDTO `json:"price"`
	Images      []Image  `json:"images"`
	Store       StoreRef `json:"store"`
}

type StorePageResponse struct {
	Store Store  `json:"store"`
	Items []Item `json:"items"`
}

type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	Link      string     `json:"link,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	Unread    bool       `json:"unread"`
}

type NotificationList struct {
	Items  []Notification `json:"items"`
	Unread int            `json:"unread"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type ConnectStatusResponse struct {
	Connected        bool   `json:"connected"`
	AccountID        string `json:"account_id,omitempty"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	DetailsSubmitted bool   `json:"details_submitted"`
	ReadyForPayouts  bool   `json:"ready_for_payouts"`
}

func MapStoreRef(ref catalog.StoreRef) StoreRef {
	return StoreRef{ID: string(ref.ID), Name: ref.Name, Slug: ref.Slug}
}

func MapStore(s catalog.Store) Store {
	return Store{ID: string(s.ID), Slug: s.Slug, Name: s.Name, Description: s.Description, CreatedAt: s.CreatedAt}
}

func MapStores(list []catalog.Store) []Store {
	out := make([]Store, 0, len(list))
	for _, s := range list {
		out = append(out, MapStore(s))
	}
	return out
}

func MapItem(i catalog.Item) Item {
	images := make([]Image, 0, len(i.Images))
	for _, img := range i.OrderedImages() {
		images = append(images, Image{URL: img.URL, Position: img.Position})
	}
	return Item{
		ID:          string(i.ID),
		Name:        i.Name,
		Description: i.Description,
		Price:       MapMoney(i.Price),
		Images:      images,
		Store:       MapStoreRef(i.Store),
	}
}

func MapItems(list []catalog.Item) []Item {
	out := make([]Item, 0, len(list))
	for _, i := range list {
		out = append(out, MapItem(i))
	}
	return out
}

func MapNotifications(list []notifications.Notification) NotificationList {
	items := make([]Notification, 0, len(list))
	for _, n := range list {
		items = append(items, Notification{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Body:      n.Body,
			Link:      n.Link,
			CreatedAt: n.CreatedAt,
			ReadAt:    n.ReadAt,
			Unread:    n.IsUnread(),
		})
	}
	return NotificationList{Items: items, Unread: notifications.CountUnread(list)}
}

func MapConnectStatus(s payments.ConnectStatus) ConnectStatusResponse {
	return ConnectStatusResponse{
		Connected:        s.Connected,
		AccountID:        s.AccountID,
		ChargesEnabled:   s.ChargesEnabled,
		PayoutsEnabled:   s.PayoutsEnabled,
		DetailsSubmitted: s.DetailsSubmitted,
		ReadyForPayouts:  s.ReadyForPayouts(),
	}
}
