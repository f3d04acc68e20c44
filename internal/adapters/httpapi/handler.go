package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"lot-auction-service/internal/domain/item"
	"lot-auction-service/internal/domain/shared"
	"lot-auction-service/internal/ports/inbound"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type placeBidBody struct {
	UserID     string `json:"user_id" binding:"required"`
	ScheduleID int64  `json:"schedule_id" binding:"required"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
}

type userBody struct {
	Name string `json:"name" binding:"omitempty,max=64"`
}

// Handler serves the REST API
type Handler struct {
	auctionService inbound.AuctionService
	bidService     inbound.BidService
	userService    inbound.UserService
	logger         zerolog.Logger
}

type HandlerParams struct {
	AuctionService inbound.AuctionService
	BidService     inbound.BidService
	UserService    inbound.UserService
	Logger         zerolog.Logger
}

func NewHandler(params HandlerParams) *Handler {
	return &Handler{
		auctionService: params.AuctionService,
		bidService:     params.BidService,
		userService:    params.UserService,
		logger:         params.Logger.With().Str("component", "http_handler").Logger(),
	}
}

func (h *Handler) handleBindError(c *gin.Context, handlerName string, err error) {
	JSONError(c, http.StatusBadRequest, fmt.Errorf("invalid request payload: %w", err), "invalid request payload")
	h.logger.Warn().Err(err).Str("handler", handlerName).Msg("Binding error")
}

func (h *Handler) handleServiceError(c *gin.Context, handlerName string, err error) {
	status, message := MapErrorToHTTP(err)
	JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	event := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).Str("handler", handlerName).Int("status", status).Msg("Request failed")
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	JSONResponse(c, http.StatusOK, gin.H{"service": "lot-auction-service"}, "ok")
}

// GetLot handles GET /api/lot
func (h *Handler) GetLot(c *gin.Context) {
	view, err := h.auctionService.GetActiveLot(c.Request.Context())
	if errors.Is(err, shared.ErrItemNotFound) {
		JSONResponse(c, http.StatusOK, inbound.LotView{State: item.StateNoActiveLot}, "no active lot")
		return
	}
	if err != nil {
		h.handleServiceError(c, "GetLot", err)
		return
	}

	JSONResponse(c, http.StatusOK, view, "lot retrieved successfully")
}

// NextLot handles POST /api/lot/next
func (h *Handler) NextLot(c *gin.Context) {
	summary, err := h.auctionService.GenerateNextItem(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, "NextLot", err)
		return
	}

	JSONResponse(c, http.StatusCreated, summary, "lot generated successfully")
}

// PlaceBid handles POST /api/bids
func (h *Handler) PlaceBid(c *gin.Context) {
	var body placeBidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.handleBindError(c, "PlaceBid", err)
		return
	}

	req := inbound.PlaceBidRequest{
		UserID:     body.UserID,
		ScheduleID: body.ScheduleID,
		Amount:     body.Amount,
	}
	if err := req.Validate(); err != nil {
		h.handleServiceError(c, "PlaceBid", err)
		return
	}

	ack, err := h.bidService.PlaceBid(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, "PlaceBid", err)
		return
	}

	JSONResponse(c, http.StatusOK, ack, "bid accepted")
}

// PutUser handles PUT /api/users/:id; the body is optional
func (h *Handler) PutUser(c *gin.Context) {
	var body userBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		h.handleBindError(c, "PutUser", err)
		return
	}

	user, err := h.userService.EnsureUser(c.Request.Context(), inbound.EnsureUserRequest{
		ID:   c.Param("id"),
		Name: body.Name,
	})
	if err != nil {
		h.handleServiceError(c, "PutUser", err)
		return
	}

	JSONResponse(c, http.StatusOK, user, "user ready")
}

// GetUser handles GET /api/users/:id
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, "GetUser", err)
		return
	}

	JSONResponse(c, http.StatusOK, user, "user retrieved successfully")
}

// ListUsers handles GET /api/users
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, "ListUsers", err)
		return
	}
	if users == nil {
		users = []*shared.User{}
	}

	JSONResponse(c, http.StatusOK, users, "users retrieved successfully")
}
