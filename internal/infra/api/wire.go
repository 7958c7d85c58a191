package api

import (
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/catalog"
	"storefront/internal/domain/inbox"
	"storefront/internal/domain/notifications"
	"storefront/internal/domain/orders"
	"storefront/internal/domain/shared/money"
)

type userWire struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type participantWire struct {
	UserID     string     `json:"userId"`
	User       *userWire  `json:"user"`
	LastReadAt *time.Time `json:"lastReadAt"`
}

type messageWire struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	SenderID       string    `json:"senderId"`
	Sender         *userWire `json:"sender"`
	GuestName      string    `json:"guestName"`
	GuestEmail     string    `json:"guestEmail"`
}

type conversationWire struct {
	ID           string            `json:"id"`
	StoreID      string            `json:"storeId"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Participants []participantWire `json:"participants"`
	Messages     []messageWire     `json:"messages"`
}

func (w userWire) toDomain() inbox.User {
	return inbox.User{ID: w.ID, Name: w.Name, Email: w.Email}
}

// toDomain decodes the sender variant: a user sender and guest contact fields are
// mutually exclusive and one of them must be present.
func (w messageWire) toDomain(conversationID string) (inbox.Message, error) {
	hasGuest := strings.TrimSpace(w.GuestName) != "" || strings.TrimSpace(w.GuestEmail) != ""
	hasUser := w.Sender != nil || strings.TrimSpace(w.SenderID) != ""

	var sender inbox.Sender
	switch {
	case hasUser && hasGuest:
		return inbox.Message{}, fmt.Errorf("message %s: %w", w.ID, inbox.ErrSenderAmbiguous)
	case hasGuest:
		sender = inbox.GuestSender(inbox.Guest{Name: w.GuestName, Email: w.GuestEmail})
	case hasUser:
		u := inbox.User{ID: w.SenderID}
		if w.Sender != nil {
			u = w.Sender.toDomain()
			if u.ID == "" {
				u.ID = w.SenderID
			}
		}
		sender = inbox.UserSender(u)
	default:
		return inbox.Message{}, fmt.Errorf("message %s: %w", w.ID, inbox.ErrSenderMissing)
	}

	convID := w.ConversationID
	if convID == "" {
		convID = conversationID
	}
	return inbox.Message{
		ID:             inbox.MessageID(w.ID),
		ConversationID: inbox.ConversationID(convID),
		Content:        w.Content,
		CreatedAt:      w.CreatedAt,
		Sender:         sender,
	}, nil
}

func (w conversationWire) toDomain() (inbox.Conversation, error) {
	participants := make([]inbox.Participant, 0, len(w.Participants))
	for _, p := range w.Participants {
		u := inbox.User{ID: p.UserID}
		if p.User != nil {
			u = p.User.toDomain()
			if u.ID == "" {
				u.ID = p.UserID
			}
		}
		participants = append(participants, inbox.Participant{User: u, LastReadAt: p.LastReadAt})
	}
	messages := make([]inbox.Message, 0, len(w.Messages))
	for _, m := range w.Messages {
		msg, err := m.toDomain(w.ID)
		if err != nil {
			return inbox.Conversation{}, err
		}
		messages = append(messages, msg)
	}
	return inbox.Conversation{
		ID:           inbox.ConversationID(w.ID),
		StoreID:      w.StoreID,
		UpdatedAt:    w.UpdatedAt,
		Participants: participants,
		Messages:     messages,
	}, nil
}

type imageWire struct {
	URL      string `json:"url"`
	Position int    `json:"position"`
}

type storeRefWire struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type storeWire struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type itemWire struct {
	ID          string       `json:"id"`
	StoreID     string       `json:"storeId"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       float64      `json:"price"`
	Currency    string       `json:"currency"`
	Images      []imageWire  `json:"images"`
	Store       storeRefWire `json:"store"`
	CreatedAt   time.Time    `json:"createdAt"`
}

func mapImages(in []imageWire) []catalog.Image {
	out := make([]catalog.Image, 0, len(in))
	for _, img := range in {
		out = append(out, catalog.Image{URL: img.URL, Position: img.Position})
	}
	return catalog.OrderedImages(out)
}

func (w storeRefWire) toDomain() catalog.StoreRef {
	return catalog.StoreRef{ID: catalog.StoreID(w.ID), Name: w.Name, Slug: w.Slug}
}

func (w storeWire) toDomain() catalog.Store {
	return catalog.Store{
		ID:          catalog.StoreID(w.ID),
		Slug:        w.Slug,
		Name:        w.Name,
		Description: w.Description,
		OwnerID:     w.OwnerID,
		CreatedAt:   w.CreatedAt,
	}
}

func (w itemWire) toDomain() (catalog.Item, error) {
	price, err := money.FromMajor(w.Price, w.Currency)
	if err != nil {
		return catalog.Item{}, fmt.Errorf("item %s price: %w", w.ID, err)
	}
	storeID := w.StoreID
	if storeID == "" {
		storeID = w.Store.ID
	}
	return catalog.Item{
		ID:          catalog.ItemID(w.ID),
		StoreID:     catalog.StoreID(storeID),
		Name:        w.Name,
		Description: w.Description,
		Price:       price,
		Images:      mapImages(w.Images),
		Store:       w.Store.toDomain(),
		CreatedAt:   w.CreatedAt,
	}, nil
}

type postalWire struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type shippingWire struct {
	Name    string     `json:"name"`
	Phone   string     `json:"phone"`
	Address postalWire `json:"address"`
}

type orderItemWire struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Images      []imageWire  `json:"images"`
	Store       storeRefWire `json:"store"`
}

type orderWire struct {
	ID              string        `json:"id"`
	Amount          float64       `json:"amount"`
	PlatformFee     float64       `json:"platformFee"`
	Currency        string        `json:"currency"`
	Status          string        `json:"status"`
	BuyerEmail      string        `json:"buyerEmail"`
	BuyerName       string        `json:"buyerName"`
	ShippingAddress *shippingWire `json:"shippingAddress"`
	RefundedAt      *time.Time    `json:"refundedAt"`
	RefundAmount    *float64      `json:"refundAmount"`
	CreatedAt       time.Time     `json:"createdAt"`
	Item            orderItemWire `json:"item"`
}

func (w orderWire) toDomain() (orders.Order, error) {
	amount, err := money.FromMajor(w.Amount, w.Currency)
	if err != nil {
		return orders.Order{}, fmt.Errorf("order %s amount: %w", w.ID, err)
	}
	fee, err := money.FromMajor(w.PlatformFee, w.Currency)
	if err != nil {
		return orders.Order{}, fmt.Errorf("order %s platform fee: %w", w.ID, err)
	}
	o := orders.Order{
		ID:          orders.OrderID(w.ID),
		Amount:      amount,
		PlatformFee: fee,
		Status:      orders.ParseStatus(w.Status),
		BuyerEmail:  w.BuyerEmail,
		BuyerName:   w.BuyerName,
		RefundedAt:  w.RefundedAt,
		CreatedAt:   w.CreatedAt,
		Item: orders.OrderItem{
			ID:          catalog.ItemID(w.Item.ID),
			Name:        w.Item.Name,
			Description: w.Item.Description,
			Images:      mapImages(w.Item.Images),
			Store:       w.Item.Store.toDomain(),
		},
	}
	if w.RefundAmount != nil {
		refund, err := money.FromMajor(*w.RefundAmount, w.Currency)
		if err != nil {
			return orders.Order{}, fmt.Errorf("order %s refund amount: %w", w.ID, err)
		}
		o.RefundAmount = &refund
	}
	if w.ShippingAddress != nil {
		o.ShippingAddress = &orders.ShippingAddress{
			Name:       w.ShippingAddress.Name,
			Phone:      w.ShippingAddress.Phone,
			Line1:      w.ShippingAddress.Address.Line1,
			Line2:      w.ShippingAddress.Address.Line2,
			City:       w.ShippingAddress.Address.City,
			State:      w.ShippingAddress.Address.State,
			PostalCode: w.ShippingAddress.Address.PostalCode,
			Country:    w.ShippingAddress.Address.Country,
		}
	}
	return o, nil
}

func mapOrders(in []orderWire) ([]orders.Order, error) {
	out := make([]orders.Order, 0, len(in))
	for _, w := range in {
		o, err := w.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

type notificationWire struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Link      string     `json:"link"`
	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt"`
	Read      bool       `json:"read"`
}

func (w notificationWire) toDomain() notifications.Notification {
	n := notifications.Notification{
		ID:        w.ID,
		Type:      w.Type,
		Title:     w.Title,
		Body:      w.Body,
		Link:      w.Link,
		CreatedAt: w.CreatedAt,
		ReadAt:    w.ReadAt,
	}
	if n.ReadAt == nil && w.Read {
		n.MarkRead(w.CreatedAt)
	}
	return n
}

type countWire struct {
	Count int `json:"count"`
}
