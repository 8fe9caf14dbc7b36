package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Kokonsdelche/dg-sub000/internal/domain"
	"github.com/Kokonsdelche/dg-sub000/internal/repository"

	"github.com/google/uuid"
)

func newAdminServiceFixture() (AdminService, *mockOrderRepository, *mockProductRepository, *mockUserRepository) {
	productRepo := newMockProductRepository()
	orderRepo := newMockOrderRepository(productRepo)
	userRepo := newMockUserRepository()
	bannerRepo := newMockBannerRepository()
	svc := NewAdminService(productRepo, orderRepo, userRepo, nil, bannerRepo)
	return svc, orderRepo, productRepo, userRepo
}

func placeTestOrder(t *testing.T, orderRepo *mockOrderRepository, productRepo *mockProductRepository) *domain.Order {
	t.Helper()
	product := seedProduct(productRepo, 100000, nil, 10)
	order := &domain.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Status: domain.OrderStatusPending,
		Items: []domain.OrderItem{{
			ID:        uuid.New(),
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: 100000,
			Quantity:  1,
		}},
		TotalAmount:   100000,
		ShippingCost:  30000,
		FinalAmount:   130000,
		PaymentStatus: domain.PaymentStatusPending,
	}
	if err := orderRepo.Create(context.Background(), order); err != nil {
		t.Fatalf("failed to place order: %v", err)
	}
	return order
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	svc, _, _, _ := newAdminServiceFixture()

	_, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:     "کلاه",
		Price:    50000,
		Category: "hat",
	})
	if !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestDeleteProduct_IsSoft(t *testing.T) {
	svc, _, productRepo, _ := newAdminServiceFixture()
	product := seedProduct(productRepo, 100000, nil, 10)

	if err := svc.DeleteProduct(context.Background(), product.ID); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}

	// The row survives for historical orders; it just leaves the storefront.
	if _, exists := productRepo.products[product.ID]; !exists {
		t.Fatal("product row removed, expected soft delete")
	}
	if productRepo.products[product.ID].IsActive {
		t.Error("product still active after delete")
	}
}

func TestUpdateOrderStatus_CancelledIsRefused(t *testing.T) {
	svc, orderRepo, productRepo, _ := newAdminServiceFixture()
	order := placeTestOrder(t, orderRepo, productRepo)

	_, err := svc.UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatusCancelled, "", "")
	if !errors.Is(err, ErrCancelViaStatus) {
		t.Errorf("expected ErrCancelViaStatus, got %v", err)
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("order status changed to %s", order.Status)
	}
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	svc, orderRepo, productRepo, _ := newAdminServiceFixture()
	order := placeTestOrder(t, orderRepo, productRepo)

	if _, err := svc.UpdateOrderStatus(context.Background(), order.ID, "teleported", "", ""); !errors.Is(err, ErrInvalidOrderStatus) {
		t.Errorf("expected ErrInvalidOrderStatus, got %v", err)
	}
}

func TestUpdateOrderStatus_DeliveredSetsTimestamp(t *testing.T) {
	svc, orderRepo, productRepo, _ := newAdminServiceFixture()
	order := placeTestOrder(t, orderRepo, productRepo)

	updated, err := svc.UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatusDelivered, "TRK-123", "تحویل شد")
	if err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}

	if updated.Status != domain.OrderStatusDelivered {
		t.Errorf("Status = %s, want delivered", updated.Status)
	}
	if updated.DeliveredAt == nil {
		t.Error("DeliveredAt not set")
	}
	if updated.TrackingNumber != "TRK-123" {
		t.Errorf("TrackingNumber = %q", updated.TrackingNumber)
	}
	// pending + delivered
	if len(updated.StatusHistory) != 2 {
		t.Errorf("StatusHistory has %d entries, want 2", len(updated.StatusHistory))
	}
}

func TestUpdateOrderStatus_ClosedOrdersAreImmutable(t *testing.T) {
	svc, orderRepo, productRepo, _ := newAdminServiceFixture()

	delivered := placeTestOrder(t, orderRepo, productRepo)
	if _, err := svc.UpdateOrderStatus(context.Background(), delivered.ID, domain.OrderStatusDelivered, "", ""); err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}

	cancelled := placeTestOrder(t, orderRepo, productRepo)
	if err := orderRepo.Cancel(context.Background(), cancelled.ID, "انصراف"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	for name, orderID := range map[string]uuid.UUID{
		"delivered": delivered.ID,
		"cancelled": cancelled.ID,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateOrderStatus(context.Background(), orderID, domain.OrderStatusConfirmed, "", "")
			if !errors.Is(err, ErrOrderAlreadyClosed) {
				t.Errorf("Expected ErrOrderAlreadyClosed, got %v", err)
			}
		})
	}
}

func TestSetOrderPaymentStatus_Validates(t *testing.T) {
	svc, orderRepo, productRepo, _ := newAdminServiceFixture()
	order := placeTestOrder(t, orderRepo, productRepo)

	if err := svc.SetOrderPaymentStatus(context.Background(), order.ID, "refunded"); err == nil {
		t.Error("unknown payment status accepted")
	}

	if err := svc.SetOrderPaymentStatus(context.Background(), order.ID, domain.PaymentStatusPaid); err != nil {
		t.Fatalf("SetOrderPaymentStatus failed: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("PaymentStatus = %s, want paid", order.PaymentStatus)
	}
}

func TestSetUserActive_Toggles(t *testing.T) {
	svc, _, _, userRepo := newAdminServiceFixture()
	user := &domain.User{ID: uuid.New(), Email: "sara@example.com", IsActive: true}
	userRepo.users[user.ID] = user

	if err := svc.SetUserActive(context.Background(), user.ID, false); err != nil {
		t.Fatalf("SetUserActive failed: %v", err)
	}
	if user.IsActive {
		t.Error("user still active")
	}

	if err := svc.SetUserActive(context.Background(), user.ID, true); err != nil {
		t.Fatalf("SetUserActive failed: %v", err)
	}
	if !user.IsActive {
		t.Error("user still inactive")
	}

	if err := svc.SetUserActive(context.Background(), uuid.New(), false); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestBannerLifecycle(t *testing.T) {
	svc, _, _, _ := newAdminServiceFixture()
	ctx := context.Background()

	banner, err := svc.CreateBanner(ctx, BannerInput{
		Title:    "حراج پاییزه",
		ImageURL: "https://cdn.example.com/banner.jpg",
		Position: "sidebar", // unknown, falls back to hero
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateBanner failed: %v", err)
	}
	if banner.Position != domain.BannerPositionHero {
		t.Errorf("Position = %s, want hero fallback", banner.Position)
	}

	updated, err := svc.UpdateBanner(ctx, banner.ID, BannerInput{
		Title:    "حراج زمستانه",
		ImageURL: "https://cdn.example.com/banner2.jpg",
		Position: domain.BannerPositionMiddle,
		IsActive: false,
	})
	if err != nil {
		t.Fatalf("UpdateBanner failed: %v", err)
	}
	if updated.Title != "حراج زمستانه" || updated.Position != domain.BannerPositionMiddle {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := svc.DeleteBanner(ctx, banner.ID); err != nil {
		t.Fatalf("DeleteBanner failed: %v", err)
	}
	if err := svc.DeleteBanner(ctx, banner.ID); !errors.Is(err, repository.ErrBannerNotFound) {
		t.Errorf("expected ErrBannerNotFound, got %v", err)
	}
}
