package api

import (
	"context"
	"net/http"

	"storefront/internal/domain/catalog"
)

func (c *Client) ListStores(ctx context.Context) ([]catalog.Store, error) {
	var out struct {
		Stores []storeWire `json:"stores"`
	}
	if err := c.do(ctx, request{
		endpoint: "stores.list",
		method:   http.MethodGet,
		path:     "/stores",
	}, &out); err != nil {
		return nil, err
	}
	stores := make([]catalog.Store, 0, len(out.Stores))
	for _, w := range out.Stores {
		stores = append(stores, w.toDomain())
	}
	return stores, nil
}

func (c *Client) GetStore(ctx context.Context, slug string) (catalog.Store, error) {
	var out struct {
		Store storeWire `json:"store"`
	}
	if err := c.do(ctx, request{
		endpoint: "stores.get",
		method:   http.MethodGet,
		path:     "/stores/" + escape(slug),
	}, &out); err != nil {
		return catalog.Store{}, err
	}
	return out.Store.toDomain(), nil
}

// StoreItems lists a store's catalog with images ordered by position.
func (c *Client) StoreItems(ctx context.Context, slug string) ([]catalog.Item, error) {
	var out struct {
		Items []itemWire `json:"items"`
	}
	if err := c.do(ctx, request{
		endpoint: "stores.items",
		method:   http.MethodGet,
		path:     "/stores/" + escape(slug) + "/items",
	}, &out); err != nil {
		return nil, err
	}
	items := make([]catalog.Item, 0, len(out.Items))
	for _, w := range out.Items {
		item, err := w.toDomain()
		if err != nil {
			return nil, decodeFailure(err)
		}
		items = append(items, item)
	}
	return items, nil
}

// RecordStoreView is fire-and-forget analytics; the credential is optional.
func (c *Client) RecordStoreView(ctx context.Context, credential, slug string) error {
	return c.do(ctx, request{
		endpoint:   "stores.view",
		method:     http.MethodPost,
		path:       "/stores/" + escape(slug) + "/view",
		credential: credential,
	}, nil)
}
