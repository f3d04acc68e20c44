package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type RouterParams struct {
	Handler   *Handler
	WebSocket http.HandlerFunc
	Logger    zerolog.Logger
}

// NewRouter configures all routes of the service
func NewRouter(params RouterParams) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger(params.Logger.With().Str("component", "http").Logger()))

	router.GET("/health", params.Handler.Health)
	if params.WebSocket != nil {
		router.GET("/ws", gin.WrapF(params.WebSocket))
	}

	api := router.Group("/api")
	{
		api.GET("/lot", params.Handler.GetLot)
		api.POST("/lot/next", params.Handler.NextLot)
		api.POST("/bids", params.Handler.PlaceBid)
	}

	users := api.Group("/users")
	{
		users.GET("", params.Handler.ListUsers)
		users.GET("/:id", params.Handler.GetUser)
		users.PUT("/:id", params.Handler.PutUser)
	}

	return router
}
