package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Kokonsdelche/dg-sub000/internal/middleware"
	"github.com/Kokonsdelche/dg-sub000/internal/repository"
	"github.com/Kokonsdelche/dg-sub000/internal/service"

	"go.uber.org/zap"
)

// PaginatedResponse is the envelope for every list endpoint.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
}

func newPaginatedResponse(data interface{}, page, pageSize, total int) PaginatedResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return PaginatedResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryInt64(r *http.Request, name string, fallback int64) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

// respondServiceError translates service and repository errors into the
// storefront's Persian HTTP responses. Anything unmapped is a 500 with a
// generic message; the real error only goes to the log.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var unavailable *service.ProductUnavailableError
	var insufficient *service.InsufficientStockError

	switch {
	case errors.As(err, &unavailable):
		middleware.RespondWithError(w, http.StatusBadRequest, "محصول مورد نظر موجود نیست")
	case errors.As(err, &insufficient):
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, "موجودی کافی نیست", map[string]interface{}{
			"product":   insufficient.ProductName,
			"requested": insufficient.Requested,
			"available": insufficient.Available,
		})
	case errors.Is(err, service.ErrEmptyCart):
		middleware.RespondWithError(w, http.StatusBadRequest, "سبد خرید خالی است")
	case errors.Is(err, service.ErrInvalidRating):
		middleware.RespondWithError(w, http.StatusBadRequest, "امتیاز باید بین ۱ تا ۵ باشد")
	case errors.Is(err, service.ErrInvalidCategory):
		middleware.RespondWithError(w, http.StatusBadRequest, "دسته‌بندی نامعتبر است")
	case errors.Is(err, service.ErrInvalidOrderStatus):
		middleware.RespondWithError(w, http.StatusBadRequest, "وضعیت سفارش نامعتبر است")
	case errors.Is(err, service.ErrCancelViaStatus):
		middleware.RespondWithError(w, http.StatusBadRequest, "لغو سفارش از مسیر مخصوص خود انجام می‌شود")
	case errors.Is(err, service.ErrOrderAlreadyClosed):
		middleware.RespondWithError(w, http.StatusConflict, "سفارش بسته شده است و قابل تغییر نیست")
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, http.StatusUnauthorized, "ایمیل یا رمز عبور اشتباه است")
	case errors.Is(err, service.ErrAccountDisabled):
		middleware.RespondWithError(w, http.StatusUnauthorized, "حساب کاربری غیرفعال است")
	case errors.Is(err, service.ErrForbidden):
		middleware.RespondWithError(w, http.StatusForbidden, "دسترسی غیرمجاز")
	case errors.Is(err, repository.ErrUserAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "کاربری با این ایمیل یا شماره تلفن وجود دارد")
	case errors.Is(err, repository.ErrDuplicateReview):
		middleware.RespondWithError(w, http.StatusConflict, "شما قبلا برای این محصول نظر ثبت کرده‌اید")
	case errors.Is(err, repository.ErrOrderNotCancellable):
		middleware.RespondWithError(w, http.StatusBadRequest, "این سفارش قابل لغو نیست")
	case errors.Is(err, repository.ErrInsufficientStock):
		middleware.RespondWithError(w, http.StatusBadRequest, "موجودی کافی نیست")
	case errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "کاربر یافت نشد")
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "محصول یافت نشد")
	case errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "سفارش یافت نشد")
	case errors.Is(err, repository.ErrBannerNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "بنر یافت نشد")
	default:
		logger.Error("Unhandled service error", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "خطای داخلی سرور")
	}
}

// decodeBody decodes and validates a request DTO, writing the error
// response itself. Returns false when the request was already answered.
func decodeBody(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "بدنه درخواست نامعتبر است")
		return false
	}
	return true
}
