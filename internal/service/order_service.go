package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kokonsdelche/dg-sub000/internal/domain"
	"github.com/Kokonsdelche/dg-sub000/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart = errors.New("order must contain at least one item")
	ErrForbidden = errors.New("caller does not own this resource")
)

// ProductUnavailableError is returned when an ordered product is missing or
// has been deactivated.
type ProductUnavailableError struct {
	ProductID uuid.UUID
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is not available", e.ProductID)
}

// InsufficientStockError is returned when an order line asks for more units
// than the product has left.
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// CreateOrderItemInput is one cart line at checkout.
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Color     string
	Size      string
}

// CreateOrderInput is the checkout payload.
type CreateOrderInput struct {
	Items           []CreateOrderItemInput
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
}

// OrderSummary is what checkout returns to the client.
type OrderSummary struct {
	ID             uuid.UUID            `json:"id"`
	OrderNumber    string               `json:"order_number"`
	Status         domain.OrderStatus   `json:"status"`
	PaymentStatus  domain.PaymentStatus `json:"payment_status"`
	TotalAmount    int64                `json:"total_amount"`
	DiscountAmount int64                `json:"discount_amount"`
	ShippingCost   int64                `json:"shipping_cost"`
	FinalAmount    int64                `json:"final_amount"`
}

// TrackingInfo is the public view of an order exposed by the tracking
// endpoint. It deliberately omits amounts and the shipping address.
type TrackingInfo struct {
	OrderNumber    string                     `json:"order_number"`
	Status         domain.OrderStatus         `json:"status"`
	TrackingNumber string                     `json:"tracking_number,omitempty"`
	StatusHistory  []domain.OrderStatusChange `json:"status_history"`
	CreatedAt      time.Time                  `json:"created_at"`
}

// OrderService defines the interface for the order lifecycle: checkout,
// retrieval, cancellation and tracking.
type OrderService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderSummary, error)
	GetOrder(ctx context.Context, callerID uuid.UUID, callerIsAdmin bool, orderID uuid.UUID) (*domain.Order, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID, filter repository.OrderFilter) ([]*domain.Order, int, error)
	Cancel(ctx context.Context, callerID uuid.UUID, callerIsAdmin bool, orderID uuid.UUID, reason string) (*domain.Order, error)
	Track(ctx context.Context, orderNumber string) (*TrackingInfo, error)
}

type orderService struct {
	orderRepo             repository.OrderRepository
	productRepo           repository.ProductRepository
	freeShippingThreshold int64
	shippingFee           int64
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	freeShippingThreshold int64,
	shippingFee int64,
) OrderService {
	return &orderService{
		orderRepo:             orderRepo,
		productRepo:           productRepo,
		freeShippingThreshold: freeShippingThreshold,
		shippingFee:           shippingFee,
	}
}

// Create validates the cart against live products, prices it and persists
// the order. Pricing rules:
//
//   - each line is counted at the list price, and the discount column
//     accumulates the difference to any discounted price
//   - shipping is free once the list total reaches the threshold,
//     otherwise a flat fee applies
//   - final = total - discount + shipping
//
// The persisted item rows are a snapshot: later product edits never change
// what was bought. Stock is reserved inside the repository transaction, so
// a cart that fails here leaves no trace.
func (s *orderService) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderSummary, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyCart
	}

	var (
		totalAmount    int64
		discountAmount int64
		items          = make([]domain.OrderItem, 0, len(input.Items))
	)

	for _, line := range input.Items {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: invalid quantity %d", ErrEmptyCart, line.Quantity)
		}

		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			if err == repository.ErrProductNotFound {
				return nil, &ProductUnavailableError{ProductID: line.ProductID}
			}
			return nil, fmt.Errorf("failed to load product: %w", err)
		}
		if !product.Purchasable(line.Quantity) {
			if !product.IsActive {
				return nil, &ProductUnavailableError{ProductID: line.ProductID}
			}
			return nil, &InsufficientStockError{
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.Stock,
			}
		}

		unitPrice := product.EffectivePrice()
		totalAmount += product.Price * int64(line.Quantity)
		discountAmount += (product.Price - unitPrice) * int64(line.Quantity)

		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0]
		}

		items = append(items, domain.OrderItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: unitPrice,
			Quantity:  line.Quantity,
			Color:     line.Color,
			Size:      line.Size,
			Image:     image,
		})
	}

	shippingCost := s.shippingFee
	if totalAmount >= s.freeShippingThreshold {
		shippingCost = 0
	}

	order := &domain.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Status:         domain.OrderStatusPending,
		Items:          items,
		TotalAmount:    totalAmount,
		DiscountAmount: discountAmount,
		ShippingCost:   shippingCost,
		FinalAmount:    totalAmount - discountAmount + shippingCost,
		ShippingAddr:   input.ShippingAddress,
		PaymentMethod:  input.PaymentMethod,
		PaymentStatus:  domain.PaymentStatusPending,
		CreatedAt:      time.Now(),
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		if err == repository.ErrInsufficientStock {
			// A concurrent checkout won the race between our availability
			// check and the reservation.
			return nil, &InsufficientStockError{Requested: 0, Available: 0}
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return &OrderSummary{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		PaymentStatus:  order.PaymentStatus,
		TotalAmount:    order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		ShippingCost:   order.ShippingCost,
		FinalAmount:    order.FinalAmount,
	}, nil
}

// GetOrder returns an order to its owner or to an admin.
func (s *orderService) GetOrder(ctx context.Context, callerID uuid.UUID, callerIsAdmin bool, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != callerID && !callerIsAdmin {
		return nil, ErrForbidden
	}

	return order, nil
}

// ListMyOrders returns the caller's orders with pagination.
func (s *orderService) ListMyOrders(ctx context.Context, userID uuid.UUID, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	return s.orderRepo.ListByUser(ctx, userID, filter)
}

// Cancel cancels an order on behalf of its owner (or an admin) and returns
// the refreshed order. Orders that are already shipped, delivered or
// cancelled are rejected without any state change; on success the reserved
// stock is restored in the same transaction as the status flip.
func (s *orderService) Cancel(ctx context.Context, callerID uuid.UUID, callerIsAdmin bool, orderID uuid.UUID, reason string) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != callerID && !callerIsAdmin {
		return nil, ErrForbidden
	}

	if !order.Status.Cancellable() {
		return nil, repository.ErrOrderNotCancellable
	}

	if err := s.orderRepo.Cancel(ctx, orderID, reason); err != nil {
		return nil, err
	}

	return s.orderRepo.FindByID(ctx, orderID)
}

// Track returns the public tracking view of an order by its number.
func (s *orderService) Track(ctx context.Context, orderNumber string) (*TrackingInfo, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	return &TrackingInfo{
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		TrackingNumber: order.TrackingNumber,
		StatusHistory:  order.StatusHistory,
		CreatedAt:      order.CreatedAt,
	}, nil
}
