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

// AddReviewRequest represents the review submission payload
type AddReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ProductHandler handles HTTP requests for the public catalog.
type ProductHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalogService service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalogService: catalogService, logger: logger}
}

// RegisterRoutes registers all catalog routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, optionalAuthMiddleware func(http.Handler) http.Handler, rateLimiter func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/featured/list", h.FeaturedProducts)
		r.Get("/categories/list", h.Categories)

		r.Group(func(r chi.Router) {
			r.Use(optionalAuthMiddleware)
			r.Get("/{id}", h.GetProduct)
		})

		r.Get("/{id}/reviews", h.ListReviews)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			if rateLimiter != nil {
				r.Use(rateLimiter)
			}
			r.Post("/{id}/reviews", h.AddReview)
		})
	})

	r.Get("/api/banners", h.ListBanners)
}

// ListProducts lists active products with filtering and pagination.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
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

	products, total, err := h.catalogService.ListProducts(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	filter.Normalize()
	middleware.RespondWithJSON(w, http.StatusOK,
		newPaginatedResponse(products, filter.Page, filter.PageSize, total))
}

// GetProduct returns a single product. Runs behind optional auth so a
// logged-in view still counts anonymously when the token is bad.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "شناسه محصول نامعتبر است")
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// FeaturedProducts returns the featured selection for the home page.
func (h *ProductHandler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 8)

	products, err := h.catalogService.FeaturedProducts(r.Context(), limit)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": products})
}

// Categories returns every category with its product count.
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.catalogService.Categories(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": counts})
}

// AddReview records the caller's review of a product.
func (h *ProductHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "احراز هویت ناموفق بود")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "شناسه محصول نامعتبر است")
		return
	}

	var req AddReviewRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	review, err := h.catalogService.AddReview(r.Context(), productID, userID, req.Rating, req.Comment)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Review added",
		zap.String("product_id", productID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("rating", req.Rating),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, review)
}

// ListReviews returns a product's reviews.
func (h *ProductHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "شناسه محصول نامعتبر است")
		return
	}

	reviews, err := h.catalogService.ListReviews(r.Context(), productID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": reviews})
}

// ListBanners returns the active banners for a storefront position.
func (h *ProductHandler) ListBanners(w http.ResponseWriter, r *http.Request) {
	position := domain.BannerPosition(r.URL.Query().Get("position"))

	banners, err := h.catalogService.ListBanners(r.Context(), position)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"data": banners})
}
