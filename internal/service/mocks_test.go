package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kokonsdelche/dg-sub000/internal/domain"
	"github.com/Kokonsdelche/dg-sub000/internal/repository"

	"github.com/google/uuid"
)

// In-memory repositories for testing

type mockUserRepository struct {
	users     map[uuid.UUID]*domain.User
	favorites map[uuid.UUID][]uuid.UUID
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:     make(map[uuid.UUID]*domain.User),
		favorites: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, exists := m.users[id]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.ID]; !exists {
		return repository.ErrUserNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	user, exists := m.users[id]
	if !exists {
		return repository.ErrUserNotFound
	}
	user.IsActive = active
	return nil
}

func (m *mockUserRepository) IsAccountActive(ctx context.Context, id uuid.UUID) (bool, error) {
	user, exists := m.users[id]
	if !exists {
		return false, repository.ErrUserNotFound
	}
	return user.IsActive, nil
}

func (m *mockUserRepository) List(ctx context.Context, filter repository.UserFilter) ([]*domain.User, int, error) {
	var users []*domain.User
	for _, user := range m.users {
		if filter.ActiveOnly && !user.IsActive {
			continue
		}
		if filter.AdminsOnly && !user.IsAdmin {
			continue
		}
		if filter.Search != "" && !strings.Contains(user.Email, filter.Search) {
			continue
		}
		users = append(users, user)
	}
	return users, len(users), nil
}

func (m *mockUserRepository) AddFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	for _, id := range m.favorites[userID] {
		if id == productID {
			return nil
		}
	}
	m.favorites[userID] = append(m.favorites[userID], productID)
	return nil
}

func (m *mockUserRepository) RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	ids := m.favorites[userID]
	for i, id := range ids {
		if id == productID {
			m.favorites[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockUserRepository) ListFavorites(ctx context.Context, userID uuid.UUID) ([]*domain.Product, error) {
	return []*domain.Product{}, nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
	reviews  map[uuid.UUID][]*domain.Review
	// reviewed mirrors the UNIQUE(product_id, user_id) constraint
	reviewed map[string]bool

	failViewCount bool
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
		reviews:  make(map[uuid.UUID][]*domain.Review),
		reviewed: make(map[string]bool),
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, exists := m.products[product.ID]; !exists {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	product, exists := m.products[id]
	if !exists {
		return repository.ErrProductNotFound
	}
	product.IsActive = false
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	var products []*domain.Product
	for _, product := range m.products {
		if filter.OnlyActive && !product.IsActive {
			continue
		}
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		products = append(products, product)
	}
	return products, len(products), nil
}

func (m *mockProductRepository) Featured(ctx context.Context, limit int) ([]*domain.Product, error) {
	var products []*domain.Product
	for _, product := range m.products {
		if product.IsActive && product.IsFeatured {
			products = append(products, product)
		}
	}
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (m *mockProductRepository) CategoryCounts(ctx context.Context) ([]repository.CategoryCount, error) {
	counts := make(map[domain.Category]int)
	for _, product := range m.products {
		if product.IsActive {
			counts[product.Category]++
		}
	}
	var result []repository.CategoryCount
	for _, category := range domain.Categories() {
		result = append(result, repository.CategoryCount{Category: category, Count: counts[category]})
	}
	return result, nil
}

func (m *mockProductRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	if m.failViewCount {
		return fmt.Errorf("view count unavailable")
	}
	product, exists := m.products[id]
	if !exists {
		return repository.ErrProductNotFound
	}
	product.ViewCount++
	return nil
}

func (m *mockProductRepository) AddReview(ctx context.Context, review *domain.Review) error {
	key := review.ProductID.String() + "/" + review.UserID.String()
	if m.reviewed[key] {
		return repository.ErrDuplicateReview
	}
	m.reviewed[key] = true
	m.reviews[review.ProductID] = append(m.reviews[review.ProductID], review)

	// Recompute aggregates the way the SQL transaction does.
	product := m.products[review.ProductID]
	if product != nil {
		var sum int
		for _, r := range m.reviews[review.ProductID] {
			sum += r.Rating
		}
		product.TotalReviews = len(m.reviews[review.ProductID])
		product.AverageRating = float64(sum) / float64(product.TotalReviews)
	}
	return nil
}

func (m *mockProductRepository) ListReviews(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	return m.reviews[productID], nil
}

// mockOrderRepository mimics the transactional behavior of the SQL
// implementation: Create validates every stock guard before mutating
// anything, so a failed checkout leaves no trace, and Cancel restores the
// reserved stock atomically.
type mockOrderRepository struct {
	orders   map[uuid.UUID]*domain.Order
	products *mockProductRepository
	seq      int
}

func newMockOrderRepository(products *mockProductRepository) *mockOrderRepository {
	return &mockOrderRepository{
		orders:   make(map[uuid.UUID]*domain.Order),
		products: products,
	}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	for _, item := range order.Items {
		product, exists := m.products.products[item.ProductID]
		if !exists || product.Stock < item.Quantity {
			return repository.ErrInsufficientStock
		}
	}
	for _, item := range order.Items {
		product := m.products.products[item.ProductID]
		product.Stock -= item.Quantity
		product.SoldCount += item.Quantity
	}

	m.seq++
	order.OrderNumber = fmt.Sprintf("ORD-%d-%04d", time.Now().Unix(), m.seq)
	order.StatusHistory = []domain.OrderStatusChange{{
		ID:        uuid.New(),
		OrderID:   order.ID,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now(),
	}}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, exists := m.orders[id]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	for _, order := range m.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	var orders []*domain.Order
	for _, order := range m.orders {
		if order.UserID != userID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		orders = append(orders, order)
	}
	return orders, len(orders), nil
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	var orders []*domain.Order
	for _, order := range m.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && order.PaymentStatus != filter.PaymentStatus {
			continue
		}
		orders = append(orders, order)
	}
	return orders, len(orders), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, trackingNumber, note string) error {
	order, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}
	if status == domain.OrderStatusDelivered {
		now := time.Now()
		order.DeliveredAt = &now
	}
	order.StatusHistory = append(order.StatusHistory, domain.OrderStatusChange{
		ID:        uuid.New(),
		OrderID:   id,
		Status:    status,
		Note:      note,
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *mockOrderRepository) SetPaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	order, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	order.PaymentStatus = status
	return nil
}

func (m *mockOrderRepository) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	order, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	if !order.Status.Cancellable() {
		return repository.ErrOrderNotCancellable
	}

	for _, item := range order.Items {
		if product, ok := m.products.products[item.ProductID]; ok {
			product.Stock += item.Quantity
			product.SoldCount -= item.Quantity
		}
	}

	now := time.Now()
	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancelReason = reason
	order.StatusHistory = append(order.StatusHistory, domain.OrderStatusChange{
		ID:        uuid.New(),
		OrderID:   id,
		Status:    domain.OrderStatusCancelled,
		Note:      reason,
		CreatedAt: now,
	})
	return nil
}

type mockBannerRepository struct {
	banners map[uuid.UUID]*domain.Banner
}

func newMockBannerRepository() *mockBannerRepository {
	return &mockBannerRepository{banners: make(map[uuid.UUID]*domain.Banner)}
}

func (m *mockBannerRepository) Create(ctx context.Context, banner *domain.Banner) error {
	m.banners[banner.ID] = banner
	return nil
}

func (m *mockBannerRepository) Update(ctx context.Context, banner *domain.Banner) error {
	if _, exists := m.banners[banner.ID]; !exists {
		return repository.ErrBannerNotFound
	}
	m.banners[banner.ID] = banner
	return nil
}

func (m *mockBannerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.banners[id]; !exists {
		return repository.ErrBannerNotFound
	}
	delete(m.banners, id)
	return nil
}

func (m *mockBannerRepository) ListActive(ctx context.Context, position domain.BannerPosition) ([]*domain.Banner, error) {
	var banners []*domain.Banner
	for _, banner := range m.banners {
		if banner.IsActive && banner.Position == position {
			banners = append(banners, banner)
		}
	}
	return banners, nil
}

func (m *mockBannerRepository) List(ctx context.Context) ([]*domain.Banner, error) {
	var banners []*domain.Banner
	for _, banner := range m.banners {
		banners = append(banners, banner)
	}
	return banners, nil
}
