// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/template-store/internal/interfaces/http/handlers"
)

// SetupTemplateRoutes sets up catalog browsing routes
func SetupTemplateRoutes(rg *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	templates := rg.Group("/templates")
	{
		templates.GET("", catalogHandler.GetTemplates)
		templates.GET("/:category", catalogHandler.GetCategory)
		templates.GET("/:category/:id", catalogHandler.GetTemplate)
	}
}

// SetupCartRoutes sets up cart routes. session must resolve the caller's
// cart session before any cart handler runs.
func SetupCartRoutes(rg *gin.RouterGroup, cartHandler *handlers.CartHandler, session gin.HandlerFunc) {
	cart := rg.Group("/cart")
	cart.Use(session)
	{
		cart.GET("", cartHandler.GetCart)
		cart.DELETE("", cartHandler.ClearCart)
		cart.GET("/count", cartHandler.GetCartCount)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:id/:tier", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:id/:tier", cartHandler.RemoveFromCart)
	}
}
