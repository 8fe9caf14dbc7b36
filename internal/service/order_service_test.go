package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Kokonsdelche/dg-sub000/internal/domain"
	"github.com/Kokonsdelche/dg-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const (
	testFreeShippingThreshold = 500000
	testShippingFee           = 30000
)

func newOrderServiceFixture() (OrderService, *mockOrderRepository, *mockProductRepository) {
	productRepo := newMockProductRepository()
	orderRepo := newMockOrderRepository(productRepo)
	svc := NewOrderService(orderRepo, productRepo, testFreeShippingThreshold, testShippingFee)
	return svc, orderRepo, productRepo
}

func seedProduct(repo *mockProductRepository, price int64, discountPrice *int64, stock int) *domain.Product {
	product := &domain.Product{
		ID:            uuid.New(),
		Name:          "شال آبی",
		Price:         price,
		DiscountPrice: discountPrice,
		Category:      domain.CategoryShawl,
		Images:        []string{"https://cdn.example.com/shawl.jpg"},
		Stock:         stock,
		IsActive:      true,
	}
	repo.products[product.ID] = product
	return product
}

func testShippingAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		RecipientName: "Sara Ahmadi",
		Phone:         "09121234567",
		Province:      "Tehran",
		City:          "Tehran",
		Street:        "Valiasr St",
		PostalCode:    "1234567890",
	}
}

func TestProperty_OrderAmountsSatisfyIdentity(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("final amount equals total minus discount plus shipping", prop.ForAll(
		func(price int64, discountPct int, quantity int) bool {
			svc, _, productRepo := newOrderServiceFixture()
			ctx := context.Background()

			var discountPrice *int64
			if discountPct > 0 {
				discounted := price - price*int64(discountPct)/100
				if discounted > 0 && discounted < price {
					discountPrice = &discounted
				}
			}
			product := seedProduct(productRepo, price, discountPrice, quantity+10)

			summary, err := svc.Create(ctx, uuid.New(), CreateOrderInput{
				Items: []CreateOrderItemInput{
					{ProductID: product.ID, Quantity: quantity},
				},
				ShippingAddress: testShippingAddress(),
				PaymentMethod:   "online",
			})
			if err != nil {
				t.Logf("FAIL: Create returned error: %v", err)
				return false
			}

			if summary.FinalAmount != summary.TotalAmount-summary.DiscountAmount+summary.ShippingCost {
				t.Logf("FAIL: identity violated: final=%d total=%d discount=%d shipping=%d",
					summary.FinalAmount, summary.TotalAmount, summary.DiscountAmount, summary.ShippingCost)
				return false
			}

			if summary.DiscountAmount < 0 || summary.DiscountAmount > summary.TotalAmount {
				t.Logf("FAIL: discount %d out of range for total %d", summary.DiscountAmount, summary.TotalAmount)
				return false
			}

			// Shipping is free at the threshold, a flat fee below it.
			wantShipping := int64(testShippingFee)
			if summary.TotalAmount >= testFreeShippingThreshold {
				wantShipping = 0
			}
			if summary.ShippingCost != wantShipping {
				t.Logf("FAIL: shipping %d, want %d for total %d", summary.ShippingCost, wantShipping, summary.TotalAmount)
				return false
			}

			return true
		},
		gen.Int64Range(1000, 2000000),
		gen.IntRange(0, 90),
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCreateOrder_ShippingFeeBelowThreshold(t *testing.T) {
	svc, _, productRepo := newOrderServiceFixture()
	product := seedProduct(productRepo, 200000, nil, 10)

	summary, err := svc.Create(context.Background(), uuid.New(), CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "online",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if summary.ShippingCost != testShippingFee {
		t.Errorf("ShippingCost = %d, want %d", summary.ShippingCost, testShippingFee)
	}
	if summary.FinalAmount != 230000 {
		t.Errorf("FinalAmount = %d, want 230000", summary.FinalAmount)
	}
}

func TestCreateOrder_FreeShippingAtThreshold(t *testing.T) {
	svc, _, productRepo := newOrderServiceFixture()
	product := seedProduct(productRepo, 600000, nil, 10)

	summary, err := svc.Create(context.Background(), uuid.New(), CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "online",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if summary.ShippingCost != 0 {
		t.Errorf("ShippingCost = %d, want 0", summary.ShippingCost)
	}
	if summary.FinalAmount != 600000 {
		t.Errorf("FinalAmount = %d, want 600000", summary.FinalAmount)
	}
}

func TestCreateOrder_DiscountAccumulates(t *testing.T) {
	svc, _, productRepo := newOrderServiceFixture()
	discounted := int64(150000)
	product := seedProduct(productRepo, 200000, &discounted, 10)

	summary, err := svc.Create(context.Background(), uuid.New(), CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: product.ID, Quantity: 2}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "online",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if summary.TotalAmount != 400000 {
		t.Errorf("TotalAmount = %d, want 400000", summary.TotalAmount)
	}
	if summary.DiscountAmount != 100000 {
		t.Errorf("DiscountAmount = %d, want 100000", summary.DiscountAmount)
	}
	// 400000 - 100000 + 30000
	if summary.FinalAmount != 330000 {
		t.Errorf("FinalAmount = %d, want 330000", summary.FinalAmount)
	}
}

func TestCreateOrder_EmptyCartRejected(t *testing.T) {
	svc, orderRepo, _ := newOrderServiceFixture()

	_, err := svc.Create(context.Background(), uuid.New(), CreateOrderInput{
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "online",
	})
	if !errors.Is(err, ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
	if len(orderRepo.orders) != 0 {
		t.Errorf("no order should be persisted, found %d", len(orderRepo.orders))
	}
}

func TestCreateOrder_InactiveProductRejected(t *testing.T) {
	svc, orderRepo, productRepo := newOrderServiceFixture()
	product := seedProduct(productRepo, 100000, nil, 10)
	product.IsActive = false

	_, err := svc.Create(context.Background(), uuid.New(), CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "online",
	})

	var unavailable *ProductUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ProductUnavailableError, got %v", err)
	}
	if unavailable.ProductID != product.ID {
		t.Errorf("error carries product %s, want %s", unavailable.ProductID, product.ID)
	}
	if len(orderRepo.orders) != 0 {
		t.Errorf("no order should be persisted, found %d", len(orderRepo.orders))
	}
}

func TestCreateOrder_InsufficientStockLeavesNoTrace(t *testing.T) {
	svc, orderRepo, productRepo := newOrderServiceFixture()
	product := seedProduct(productRepo, 100000, nil, 2)

	_, err := svc.Create(context.Background(), uuid.New(), CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: product.ID, Quantity: 5}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "online",
	})

	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Requested != 5 || insufficient.Available != 2 {
		t.Errorf("error carries requested=%d available=%d, want 5 and 2",
			insufficient.Requested, insufficient.Available)
	}
	if product.Stock != 2 {
		t.Errorf("stock changed to %d on failed checkout, want 2", product.Stock)
	}
	if len(orderRepo.orders) != 0 {
		t.Errorf("no order should be persisted, found %d", len(orderRepo.orders))
	}
}

func TestCreateOrder_ReservesStock(t *testing.T) {
	svc, _, productRepo := newOrderServiceFixture()
	product := seedProduct(productRepo, 100000, nil, 10)

	_, err := svc.Create(context.Background(), uuid.New(), CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: product.ID, Quantity: 3}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "online",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if product.Stock != 7 {
		t.Errorf("Stock = %d after checkout, want 7", product.Stock)
	}
	if product.SoldCount != 3 {
		t.Errorf("SoldCount = %d after checkout, want 3", product.SoldCount)
	}
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	svc, _, productRepo := newOrderServiceFixture()
	product := seedProduct(productRepo, 100000, nil, 10)
	userID := uuid.New()

	summary, err := svc.Create(context.Background(), userID, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: product.ID, Quantity: 4}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "online",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	order, err := svc.Cancel(context.Background(), userID, false, summary.ID, "انصراف از خرید")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if order.Status != domain.OrderStatusCancelled {
		t.Errorf("Status = %s, want cancelled", order.Status)
	}
	if order.CancelledAt == nil {
		t.Error("CancelledAt not set")
	}
	if order.CancelReason != "انصراف از خرید" {
		t.Errorf("CancelReason = %q", order.CancelReason)
	}
	if product.Stock != 10 {
		t.Errorf("Stock = %d after cancel, want 10", product.Stock)
	}
	if product.SoldCount != 0 {
		t.Errorf("SoldCount = %d after cancel, want 0", product.SoldCount)
	}
}

func TestCancelOrder_RejectedOnceShipped(t *testing.T) {
	for _, status := range []domain.OrderStatus{
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
		domain.OrderStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			svc, orderRepo, productRepo := newOrderServiceFixture()
			product := seedProduct(productRepo, 100000, nil, 10)
			userID := uuid.New()

			summary, err := svc.Create(context.Background(), userID, CreateOrderInput{
				Items:           []CreateOrderItemInput{{ProductID: product.ID, Quantity: 2}},
				ShippingAddress: testShippingAddress(),
				PaymentMethod:   "online",
			})
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			orderRepo.orders[summary.ID].Status = status

			_, err = svc.Cancel(context.Background(), userID, false, summary.ID, "late")
			if !errors.Is(err, repository.ErrOrderNotCancellable) {
				t.Errorf("expected ErrOrderNotCancellable, got %v", err)
			}
			// Stock must stay reserved for the shipped goods.
			if product.Stock != 8 {
				t.Errorf("Stock = %d after rejected cancel, want 8", product.Stock)
			}
		})
	}
}

func TestGetOrder_OwnerOnly(t *testing.T) {
	svc, _, productRepo := newOrderServiceFixture()
	product := seedProduct(productRepo, 100000, nil, 10)
	owner := uuid.New()

	summary, err := svc.Create(context.Background(), owner, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "online",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.GetOrder(context.Background(), owner, false, summary.ID); err != nil {
		t.Errorf("owner read failed: %v", err)
	}

	if _, err := svc.GetOrder(context.Background(), uuid.New(), false, summary.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger read: expected ErrForbidden, got %v", err)
	}

	if _, err := svc.GetOrder(context.Background(), uuid.New(), true, summary.ID); err != nil {
		t.Errorf("admin read failed: %v", err)
	}
}

func TestCancelOrder_StrangerForbidden(t *testing.T) {
	svc, _, productRepo := newOrderServiceFixture()
	product := seedProduct(productRepo, 100000, nil, 10)
	owner := uuid.New()

	summary, err := svc.Create(context.Background(), owner, CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "online",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), uuid.New(), false, summary.ID, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if product.Stock != 9 {
		t.Errorf("Stock = %d after forbidden cancel, want 9", product.Stock)
	}
}

func TestTrack_ReturnsPublicViewByOrderNumber(t *testing.T) {
	svc, _, productRepo := newOrderServiceFixture()
	product := seedProduct(productRepo, 100000, nil, 10)

	summary, err := svc.Create(context.Background(), uuid.New(), CreateOrderInput{
		Items:           []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "online",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	info, err := svc.Track(context.Background(), summary.OrderNumber)
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	if info.OrderNumber != summary.OrderNumber {
		t.Errorf("OrderNumber = %s, want %s", info.OrderNumber, summary.OrderNumber)
	}
	if info.Status != domain.OrderStatusPending {
		t.Errorf("Status = %s, want pending", info.Status)
	}
	if len(info.StatusHistory) != 1 {
		t.Errorf("StatusHistory has %d entries, want 1", len(info.StatusHistory))
	}

	if _, err := svc.Track(context.Background(), "ORD-0-0000"); !errors.Is(err, repository.ErrOrderNotFound) {
		t.Errorf("unknown number: expected ErrOrderNotFound, got %v", err)
	}
}

func TestCreateOrder_ItemSnapshotUsesEffectivePrice(t *testing.T) {
	svc, orderRepo, productRepo := newOrderServiceFixture()
	discounted := int64(80000)
	product := seedProduct(productRepo, 100000, &discounted, 10)
	userID := uuid.New()

	summary, err := svc.Create(context.Background(), userID, CreateOrderInput{
		Items: []CreateOrderItemInput{
			{ProductID: product.ID, Quantity: 2, Color: "آبی", Size: "بزرگ"},
		},
		ShippingAddress: testShippingAddress(),
		PaymentMethod:   "online",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	order := orderRepo.orders[summary.ID]
	if len(order.Items) != 1 {
		t.Fatalf("order has %d items, want 1", len(order.Items))
	}

	item := order.Items[0]
	if item.UnitPrice != 80000 {
		t.Errorf("UnitPrice = %d, want discounted 80000", item.UnitPrice)
	}
	if item.Name != product.Name {
		t.Errorf("Name = %q, want snapshot of %q", item.Name, product.Name)
	}
	if item.Image != product.Images[0] {
		t.Errorf("Image = %q, want %q", item.Image, product.Images[0])
	}
	if item.Color != "آبی" || item.Size != "بزرگ" {
		t.Errorf("variant snapshot = %q/%q", item.Color, item.Size)
	}
	if item.Subtotal() != 160000 {
		t.Errorf("Subtotal = %d, want 160000", item.Subtotal())
	}
}
