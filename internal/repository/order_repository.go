package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kokonsdelche/dg-sub000/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrInsufficientStock   = errors.New("insufficient stock for order item")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
)

const orderCounterName = "order_number"

const orderColumns = `id, user_id, order_number, status,
	total_amount, discount_amount, shipping_cost, final_amount,
	recipient_name, recipient_phone, province, city, street, postal_code,
	payment_method, payment_status, tracking_number,
	delivered_at, cancelled_at, cancel_reason, created_at`

// OrderRepository defines the interface for order data access. Create,
// UpdateStatus and Cancel each run as a single database transaction so the
// order rows and the product stock mutations commit or roll back together.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter OrderFilter) ([]*domain.Order, int, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, trackingNumber, note string) error
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error
	Cancel(ctx context.Context, id uuid.UUID, reason string) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// NextOrderNumber reserves the next value of the order counter and formats
// it. The counter row is incremented atomically, so concurrent checkouts
// can never observe the same sequence value.
func NextOrderNumber(ctx context.Context, tx *sql.Tx, now time.Time) (string, error) {
	var seq int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO counters (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value
	`, orderCounterName).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("failed to advance order counter: %w", err)
	}

	return fmt.Sprintf("ORD-%d-%04d", now.Unix(), seq), nil
}

// Create persists the order, its item snapshot and the initial status
// history entry, and reserves stock, all in one transaction. The stock
// update is guarded with stock >= quantity so two concurrent checkouts can
// never drive a product negative; the loser gets ErrInsufficientStock and
// nothing is written.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin order transaction: %w", err)
	}
	defer tx.Rollback()

	orderNumber, err := NextOrderNumber(ctx, tx, order.CreatedAt)
	if err != nil {
		return err
	}
	order.OrderNumber = orderNumber

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, order_number, status,
			total_amount, discount_amount, shipping_cost, final_amount,
			recipient_name, recipient_phone, province, city, street, postal_code,
			payment_method, payment_status, tracking_number, cancel_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, '', '', $17)
	`,
		order.ID,
		order.UserID,
		order.OrderNumber,
		order.Status,
		order.TotalAmount,
		order.DiscountAmount,
		order.ShippingCost,
		order.FinalAmount,
		order.ShippingAddr.RecipientName,
		order.ShippingAddr.Phone,
		order.ShippingAddr.Province,
		order.ShippingAddr.City,
		order.ShippingAddr.Street,
		order.ShippingAddr.PostalCode,
		order.PaymentMethod,
		order.PaymentStatus,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		// Reserve stock first: the guard keeps stock non-negative even when
		// two transactions race past the service-level availability check.
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $2, sold_count = sold_count + $2, updated_at = NOW()
			WHERE id = $1 AND stock >= $2
		`, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to reserve stock: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrInsufficientStock
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, unit_price, quantity, color, size, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, item.ID, item.OrderID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.Color, item.Size, item.Image)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := appendStatusHistory(ctx, tx, order.ID, order.Status, ""); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order transaction: %w", err)
	}

	return nil
}

func appendStatusHistory(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, status domain.OrderStatus, note string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_history (id, order_id, status, note, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, uuid.New(), orderID, status, note)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.Status,
		&order.TotalAmount,
		&order.DiscountAmount,
		&order.ShippingCost,
		&order.FinalAmount,
		&order.ShippingAddr.RecipientName,
		&order.ShippingAddr.Phone,
		&order.ShippingAddr.Province,
		&order.ShippingAddr.City,
		&order.ShippingAddr.Street,
		&order.ShippingAddr.PostalCode,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.TrackingNumber,
		&order.DeliveredAt,
		&order.CancelledAt,
		&order.CancelReason,
		&order.CreatedAt,
	)
	return order, err
}

func (r *orderRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, unit_price, quantity, color, size, image
		FROM order_items
		WHERE order_id = $1
		ORDER BY name
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name,
			&item.UnitPrice, &item.Quantity, &item.Color, &item.Size, &item.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

func (r *orderRepository) loadStatusHistory(ctx context.Context, orderID uuid.UUID) ([]domain.OrderStatusChange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, status, note, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	defer rows.Close()

	history := []domain.OrderStatusChange{}
	for rows.Next() {
		var change domain.OrderStatusChange
		err := rows.Scan(&change.ID, &change.OrderID, &change.Status, &change.Note, &change.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		history = append(history, change)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}

	return history, nil
}

// FindByID retrieves an order with its items and status history.
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if order.Items, err = r.loadItems(ctx, order.ID); err != nil {
		return nil, err
	}
	if order.StatusHistory, err = r.loadStatusHistory(ctx, order.ID); err != nil {
		return nil, err
	}

	return order, nil
}

// FindByOrderNumber retrieves an order by its public order number, with
// items and status history. Used by the public tracking endpoint.
func (r *orderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE order_number = $1`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderNumber))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by number: %w", err)
	}

	if order.Items, err = r.loadItems(ctx, order.ID); err != nil {
		return nil, err
	}
	if order.StatusHistory, err = r.loadStatusHistory(ctx, order.ID); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByUser returns the user's own orders, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter OrderFilter) ([]*domain.Order, int, error) {
	filter.Normalize()

	whereClause := "WHERE user_id = $1"
	args := []interface{}{userID}
	argIndex := 2

	if filter.Status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	return r.listOrders(ctx, whereClause, args, argIndex, filter)
}

// List returns orders for the admin panel with filtering and pagination.
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error) {
	filter.Normalize()

	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.Status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.PaymentStatus != "" {
		whereClause += fmt.Sprintf(" AND payment_status = $%d", argIndex)
		args = append(args, filter.PaymentStatus)
		argIndex++
	}
	if filter.OrderNumber != "" {
		whereClause += fmt.Sprintf(" AND order_number ILIKE $%d", argIndex)
		args = append(args, "%"+filter.OrderNumber+"%")
		argIndex++
	}

	return r.listOrders(ctx, whereClause, args, argIndex, filter)
}

func (r *orderRepository) listOrders(ctx context.Context, whereClause string, args []interface{}, argIndex int, filter OrderFilter) ([]*domain.Order, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	query := fmt.Sprintf(`
		SELECT %s FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, whereClause, argIndex, argIndex+1)
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		if order.Items, err = r.loadItems(ctx, order.ID); err != nil {
			return nil, 0, err
		}
	}

	return orders, total, nil
}

// UpdateStatus moves an order to a new status and appends the matching
// history entry in one transaction. When the new status is delivered the
// delivery timestamp is set as well. Transitions are recorded, not policed;
// only cancellation is excluded here because it must go through Cancel so
// the reserved stock is returned.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, trackingNumber, note string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin status transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE orders
		SET status = $2,
		    tracking_number = CASE WHEN $3 <> '' THEN $3 ELSE tracking_number END,
		    delivered_at = CASE WHEN $2 = 'delivered' THEN NOW() ELSE delivered_at END
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, query, id, status, trackingNumber)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	if err := appendStatusHistory(ctx, tx, id, status, note); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status transaction: %w", err)
	}

	return nil
}

// SetPaymentStatus updates the payment side of an order.
func (r *orderRepository) SetPaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set payment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Cancel marks the order cancelled and returns every reserved item to
// stock, in one transaction. The current status is re-read under a row lock
// so a concurrent ship or a double cancel cannot slip through between the
// caller's check and the write.
func (r *orderRepository) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cancel transaction: %w", err)
	}
	defer tx.Rollback()

	var status domain.OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to lock order: %w", err)
	}

	if !status.Cancellable() {
		return ErrOrderNotCancellable
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, cancelled_at = NOW(), cancel_reason = $3
		WHERE id = $1
	`, id, domain.OrderStatusCancelled, reason)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	// Inverse of the reservation made at creation time.
	_, err = tx.ExecContext(ctx, `
		UPDATE products p
		SET stock = p.stock + i.quantity,
		    sold_count = p.sold_count - i.quantity,
		    updated_at = NOW()
		FROM order_items i
		WHERE i.order_id = $1 AND i.product_id = p.id
	`, id)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	if err := appendStatusHistory(ctx, tx, id, domain.OrderStatusCancelled, reason); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancel transaction: %w", err)
	}

	return nil
}
