package transport

import (
	"net/http"

	"github.com/Kokonsdelche/dg-sub000/internal/domain"
	"github.com/Kokonsdelche/dg-sub000/internal/middleware"
	"github.com/Kokonsdelche/dg-sub000/internal/repository"
	"github.com/Kokonsdelche/dg-sub000/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateOrderRequest represents the checkout payload
type CreateOrderRequest struct {
	Items []CreateOrderItemRequest `json:"items" validate:"required,min=1,dive"`

	RecipientName string `json:"recipient_name" validate:"required,max=200"`
	Phone         string `json:"phone" validate:"required,min=10,max=15"`
	Province      string `json:"province" validate:"required"`
	City          string `json:"city" validate:"required"`
	Street        string `json:"street" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required"`

	PaymentMethod string `json:"payment_method" validate:"required,oneof=online cash_on_delivery card_to_card"`
}

// CreateOrderItemRequest is one cart line in the checkout payload.
type CreateOrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

// CancelOrderRequest represents the cancellation payload
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// OrderHandler handles HTTP requests for the customer order lifecycle.
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler, rateLimiter func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		// Public tracking by order number, no account needed.
		r.Get("/{orderNumber}/track", h.Track)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/my-orders", h.ListMyOrders)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}/cancel", h.Cancel)

			r.Group(func(r chi.Router) {
				if rateLimiter != nil {
					r.Use(rateLimiter)
				}
				r.Post("/", h.Create)
			})
		})
	})
}

// Create handles checkout.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "احراز هویت ناموفق بود")
		return
	}

	var req CreateOrderRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	items := make([]service.CreateOrderItemInput, 0, len(req.Items))
	for _, line := range req.Items {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "شناسه محصول نامعتبر است")
			return
		}
		items = append(items, service.CreateOrderItemInput{
			ProductID: productID,
			Quantity:  line.Quantity,
			Color:     line.Color,
			Size:      line.Size,
		})
	}

	summary, err := h.orderService.Create(r.Context(), userID, service.CreateOrderInput{
		Items: items,
		ShippingAddress: domain.ShippingAddress{
			RecipientName: req.RecipientName,
			Phone:         req.Phone,
			Province:      req.Province,
			City:          req.City,
			Street:        req.Street,
			PostalCode:    req.PostalCode,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Order created",
		zap.String("order_id", summary.ID.String()),
		zap.String("order_number", summary.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.Int64("final_amount", summary.FinalAmount),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, summary)
}

// ListMyOrders returns the caller's orders.
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "احراز هویت ناموفق بود")
		return
	}

	filter := repository.OrderFilter{
		Status:   domain.OrderStatus(r.URL.Query().Get("status")),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 0),
	}

	orders, total, err := h.orderService.ListMyOrders(r.Context(), userID, filter)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	filter.Normalize()
	middleware.RespondWithJSON(w, http.StatusOK,
		newPaginatedResponse(orders, filter.Page, filter.PageSize, total))
}

// GetOrder returns one order to its owner or an admin.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "احراز هویت ناموفق بود")
		return
	}
	isAdmin, _ := middleware.IsAdmin(r.Context())

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "شناسه سفارش نامعتبر است")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), userID, isAdmin, orderID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// Cancel cancels the caller's order and restores stock.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "احراز هویت ناموفق بود")
		return
	}
	isAdmin, _ := middleware.IsAdmin(r.Context())

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "شناسه سفارش نامعتبر است")
		return
	}

	var req CancelOrderRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	order, err := h.orderService.Cancel(r.Context(), userID, isAdmin, orderID, req.Reason)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Order cancelled",
		zap.String("order_id", orderID.String()),
		zap.String("user_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// Track returns the public tracking view of an order.
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")
	if orderNumber == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "شماره سفارش نامعتبر است")
		return
	}

	info, err := h.orderService.Track(r.Context(), orderNumber)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, info)
}
