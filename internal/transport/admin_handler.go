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

// ProductRequest represents the admin product create/update payload
type ProductRequest struct {
	Name          string                `json:"name" validate:"required,max=300"`
	Description   string                `json:"description"`
	Price         int64                 `json:"price" validate:"required,gt=0"`
	DiscountPrice *int64                `json:"discount_price" validate:"omitempty,gt=0"`
	Category      string                `json:"category" validate:"required"`
	Images        []string              `json:"images" validate:"dive,url"`
	Colors        []domain.ProductColor `json:"colors"`
	Sizes         []domain.ProductSize  `json:"sizes"`
	Stock         int                   `json:"stock" validate:"gte=0"`
	IsActive      bool                  `json:"is_active"`
	IsFeatured    bool                  `json:"is_featured"`
}

// UpdateOrderStatusRequest represents the admin order status payload
type UpdateOrderStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"tracking_number" validate:"max=100"`
	Note           string `json:"note" validate:"max=1000"`
}

// UpdatePaymentStatusRequest represents the admin payment status payload
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=pending paid failed"`
}

// SetUserActiveRequest represents the admin account toggle payload
type SetUserActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// BannerRequest represents the admin banner create/update payload
type BannerRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	ImageURL  string `json:"image_url" validate:"required,url"`
	Link      string `json:"link" validate:"omitempty,url"`
	Position  string `json:"position" validate:"omitempty,oneof=hero middle footer"`
	SortOrder int    `json:"sort_order"`
	IsActive  bool   `json:"is_active"`
}

// AdminHandler handles HTTP requests for the admin panel.
type AdminHandler struct {
	adminService service.AdminService
	logger       *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, logger: logger}
}

// RegisterRoutes registers all admin routes behind authentication and the
// admin gate.
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(requireAdmin)

		r.Get("/dashboard", h.Dashboard)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Put("/{id}/status", h.UpdateOrderStatus)
			r.Put("/{id}/payment", h.UpdatePaymentStatus)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Put("/{id}/active", h.SetUserActive)
		})

		r.Route("/banners", func(r chi.Router) {
			r.Get("/", h.ListBanners)
			r.Post("/", h.CreateBanner)
			r.Put("/{id}", h.UpdateBanner)
			r.Delete("/{id}", h.DeleteBanner)
		})
	})
}

// Dashboard returns aggregate store statistics.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Dashboard(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// ListProducts returns the catalog for the admin panel, inactive products
// included.
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ProductFilter{
		Category:    domain.Category(q.Get("category")),
		Search:      q.Get("search"),
		MinPrice:    queryInt64(r, "min_price", 0),
		MaxPrice:    queryInt64(r, "max_price", 0),
		InStockOnly: q.Get("in_stock") == "true",
		Page:        queryInt(r, "page", 1),
		PageSize:    queryInt(r, "page_size", 0),
		SortBy:      q.Get("sort_by"),
		SortOrder:   repository.SortOrder(q.Get("sort_order")),
	}

	products, total, err := h.adminService.ListProducts(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	filter.Normalize()
	middleware.RespondWithJSON(w, http.StatusOK,
		newPaginatedResponse(products, filter.Page, filter.PageSize, total))
}

// CreateProduct adds a new catalog entry.
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	product, err := h.adminService.CreateProduct(r.Context(), productInput(req))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct replaces the editable fields of a product.
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "شناسه محصول نامعتبر است")
		return
	}

	var req ProductRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	product, err := h.adminService.UpdateProduct(r.Context(), id, productInput(req))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct soft-deletes a product.
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "شناسه محصول نامعتبر است")
		return
	}

	if err := h.adminService.DeleteProduct(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "محصول با موفقیت حذف شد",
	})
}

// ListOrders returns orders for the admin panel.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.OrderFilter{
		Status:        domain.OrderStatus(q.Get("status")),
		PaymentStatus: domain.PaymentStatus(q.Get("payment_status")),
		OrderNumber:   q.Get("order_number"),
		Page:          queryInt(r, "page", 1),
		PageSize:      queryInt(r, "page_size", 0),
	}

	orders, total, err := h.adminService.ListOrders(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	filter.Normalize()
	middleware.RespondWithJSON(w, http.StatusOK,
		newPaginatedResponse(orders, filter.Page, filter.PageSize, total))
}

// UpdateOrderStatus moves an order along its lifecycle.
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "شناسه سفارش نامعتبر است")
		return
	}

	var req UpdateOrderStatusRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	order, err := h.adminService.UpdateOrderStatus(r.Context(), id,
		domain.OrderStatus(req.Status), req.TrackingNumber, req.Note)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", id.String()),
		zap.String("status", req.Status),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// UpdatePaymentStatus updates the payment state of an order.
func (h *AdminHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "شناسه سفارش نامعتبر است")
		return
	}

	var req UpdatePaymentStatusRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	if err := h.adminService.SetOrderPaymentStatus(r.Context(), id, domain.PaymentStatus(req.PaymentStatus)); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Payment status updated",
		zap.String("order_id", id.String()),
		zap.String("payment_status", req.PaymentStatus),
	)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "وضعیت پرداخت بروزرسانی شد",
	})
}

// ListUsers returns accounts for the admin panel.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.UserFilter{
		Search:     q.Get("search"),
		ActiveOnly: q.Get("active") == "true",
		AdminsOnly: q.Get("admins") == "true",
		Page:       queryInt(r, "page", 1),
		PageSize:   queryInt(r, "page_size", 0),
	}

	users, total, err := h.adminService.ListUsers(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	filter.Normalize()
	middleware.RespondWithJSON(w, http.StatusOK,
		newPaginatedResponse(users, filter.Page, filter.PageSize, total))
}

// SetUserActive toggles an account's active flag.
func (h *AdminHandler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "شناسه کاربر نامعتبر است")
		return
	}

	var req SetUserActiveRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	if err := h.adminService.SetUserActive(r.Context(), id, req.IsActive); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("User active flag updated",
		zap.String("user_id", id.String()),
		zap.Bool("is_active", req.IsActive),
	)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "وضعیت حساب کاربری بروزرسانی شد",
	})
}

// ListBanners returns every banner, active or not.
func (h *AdminHandler) ListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.adminService.ListBanners(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, banners)
}

// CreateBanner adds a storefront banner.
func (h *AdminHandler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	var req BannerRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	banner, err := h.adminService.CreateBanner(r.Context(), bannerInput(req))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, banner)
}

// UpdateBanner replaces the editable fields of a banner.
func (h *AdminHandler) UpdateBanner(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "شناسه بنر نامعتبر است")
		return
	}

	var req BannerRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	banner, err := h.adminService.UpdateBanner(r.Context(), id, bannerInput(req))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, banner)
}

// DeleteBanner removes a banner.
func (h *AdminHandler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "شناسه بنر نامعتبر است")
		return
	}

	if err := h.adminService.DeleteBanner(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "بنر با موفقیت حذف شد",
	})
}

func productInput(req ProductRequest) service.ProductInput {
	return service.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Category:      domain.Category(req.Category),
		Images:        req.Images,
		Colors:        req.Colors,
		Sizes:         req.Sizes,
		Stock:         req.Stock,
		IsActive:      req.IsActive,
		IsFeatured:    req.IsFeatured,
	}
}

func bannerInput(req BannerRequest) service.BannerInput {
	return service.BannerInput{
		Title:     req.Title,
		ImageURL:  req.ImageURL,
		Link:      req.Link,
		Position:  domain.BannerPosition(req.Position),
		SortOrder: req.SortOrder,
		IsActive:  req.IsActive,
	}
}
