package ginserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"storefront/internal/app/dto"
	appstorefront "storefront/internal/app/storefront"
)

type StoreHTTP interface {
	List(c *gin.Context)
	Page(c *gin.Context)
	RecordView(c *gin.Context)
}

type StoreHandler struct {
	Service *appstorefront.Service
	Logger  *slog.Logger
}

func (h StoreHandler) List(c *gin.Context) {
	stores, err := h.Service.Stores(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, "list stores", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": dto.MapStores(stores)})
}

// Page returns a store with its catalog.
func (h StoreHandler) Page(c *gin.Context) {
	slug := c.Param("slug")
	store, err := h.Service.Store(c.Request.Context(), slug)
	if err != nil {
		respondError(c, h.Logger, "get store", err, "slug", slug)
		return
	}
	items, err := h.Service.StoreItems(c.Request.Context(), slug)
	if err != nil {
		respondError(c, h.Logger, "store items", err, "slug", slug)
		return
	}
	c.JSON(http.StatusOK, dto.StorePageResponse{Store: dto.MapStore(store), Items: dto.MapItems(items)})
}

// RecordView acknowledges immediately; the upstream call is best effort.
func (h StoreHandler) RecordView(c *gin.Context) {
	slug := c.Param("slug")
	cred := credential(c)
	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		h.Service.RecordView(ctx, cred, slug)
	}()
	c.Status(http.StatusAccepted)
}

var _ StoreHTTP = StoreHandler{}
