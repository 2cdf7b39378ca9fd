// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/template-store/internal/domain/cart"
	"github.com/your-org/template-store/internal/domain/pricing"
	"github.com/your-org/template-store/internal/interfaces/http/middleware"
)

// CartProvider leases the cart bound to a session. release must be called
// once the request is done with the cart.
type CartProvider interface {
	Acquire(ctx context.Context, sessionID string) (store *cart.PersistentStore, release func(), err error)
}

// CartHandler handles cart endpoints
type CartHandler struct {
	carts CartProvider
	log   *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts CartProvider, log *logrus.Logger) *CartHandler {
	return &CartHandler{
		carts: carts,
		log:   log,
	}
}

// AddToCartRequest is the body of POST /cart/items
type AddToCartRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
	Tier       string `json:"tier" binding:"required"`
}

// UpdateCartItemRequest is the body of PUT /cart/items/:id/:tier
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// CartResponse is the cart as returned to the storefront
type CartResponse struct {
	Items   []cart.LineItem `json:"items"`
	Summary cart.Summary    `json:"summary"`
}

func cartResponse(c *cart.PersistentStore) CartResponse {
	items, summary := c.View()
	if items == nil {
		items = []cart.LineItem{}
	}
	return CartResponse{Items: items, Summary: summary}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	store, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cart retrieved successfully",
		"data":    cartResponse(store),
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	key, err := cart.NewKey(req.TemplateID, req.Tier)
	if err != nil {
		c.JSON(http.StatusBadRequest, cart.ResultOf(err))
		return
	}

	store, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()

	if err := store.AddItem(c.Request.Context(), key.ProductID, key.Tier); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Item added to cart successfully",
		"data":    cartResponse(store),
	})
}

// UpdateCartItem handles PUT /cart/items/:id/:tier
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	key, err := cart.NewKey(c.Param("id"), c.Param("tier"))
	if err != nil {
		c.JSON(http.StatusBadRequest, cart.ResultOf(err))
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}
	if req.Quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Quantity must be at least 1",
		})
		return
	}

	store, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()

	if !store.UpdateQuantity(key.ProductID, key.Tier, req.Quantity) && !hasLine(store, key) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Cart item not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cart item updated successfully",
		"data":    cartResponse(store),
	})
}

// RemoveFromCart handles DELETE /cart/items/:id/:tier.
// Removing a line that is not in the cart succeeds.
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	key, err := cart.NewKey(c.Param("id"), c.Param("tier"))
	if err != nil {
		c.JSON(http.StatusBadRequest, cart.ResultOf(err))
		return
	}

	store, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()

	removed := store.RemoveItem(key.ProductID, key.Tier)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Item removed from cart successfully",
		"removed": removed,
		"data":    cartResponse(store),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	store, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()

	store.Clear()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cart cleared successfully",
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	store, release, ok := h.sessionCart(c)
	if !ok {
		return
	}
	defer release()

	summary := store.Summary()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count":      summary.TotalQuantity,
			"item_count": summary.ItemCount,
		},
	})
}

func (h *CartHandler) sessionCart(c *gin.Context) (*cart.PersistentStore, func(), bool) {
	sessionID, ok := middleware.GetSessionIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "Cart session required",
		})
		return nil, nil, false
	}

	store, release, err := h.carts.Acquire(c.Request.Context(), sessionID)
	if err != nil {
		h.log.WithError(err).WithField("session_id", sessionID).Error("Failed to load cart")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Failed to retrieve cart",
		})
		return nil, nil, false
	}
	return store, release, true
}

// fail renders a cart operation error as a {success:false, error} result
func (h *CartHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pricing.ErrUnknownTier):
		status = http.StatusBadRequest
	case errors.Is(err, pricing.ErrInvalidPricingInput):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	}

	result := cart.ResultOf(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithField(middleware.RequestIDKey, c.GetString(middleware.RequestIDKey)).Error("Cart operation failed")
		result.Error = "Failed to update cart"
	}

	c.JSON(status, result)
}

func hasLine(store *cart.PersistentStore, key cart.Key) bool {
	for _, item := range store.Items() {
		if item.Key() == key {
			return true
		}
	}
	return false
}
