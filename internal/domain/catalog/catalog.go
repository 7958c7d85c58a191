package catalog

import (
	"sort"
	"time"

	"storefront/internal/domain/shared/money"
)

type StoreID string

type ItemID string

// Store is read-only reference data owned by the backend.
type Store struct {
	ID          StoreID
	Slug        string
	Name        string
	Description string
	OwnerID     string
	CreatedAt   time.Time
}

// StoreRef is the slim store projection embedded in items and orders.
type StoreRef struct {
	ID   StoreID
	Name string
	Slug string
}

// Image is an item picture; Position drives gallery ordering.
type Image struct {
	URL      string
	Position int
}

type Item struct {
	ID          ItemID
	StoreID     StoreID
	Name        string
	Description string
	Price       money.Money
	Images      []Image
	Store       StoreRef
	CreatedAt   time.Time
}

// OrderedImages returns a copy of the images sorted by position.
func OrderedImages(images []Image) []Image {
	out := append([]Image(nil), images...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

func (i Item) OrderedImages() []Image {
	return OrderedImages(i.Images)
}

// Cover returns the lowest-positioned image, if any.
func (i Item) Cover() (Image, bool) {
	ordered := i.OrderedImages()
	if len(ordered) == 0 {
		return Image{}, false
	}
	return ordered[0], true
}
