package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Kokonsdelche/dg-sub000/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateReview = errors.New("user has already reviewed this product")
)

const productColumns = `id, name, description, price, discount_price, category,
	images, colors, sizes, stock, is_active, is_featured,
	average_rating, total_reviews, sold_count, view_count, created_at, updated_at`

// prefixedProductColumns qualifies every product column with a table alias
// for use in joins.
func prefixedProductColumns(alias string) string {
	cols := strings.Split(productColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// CategoryCount pairs a category with the number of active products in it.
type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
	Featured(ctx context.Context, limit int) ([]*domain.Product, error)
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	AddReview(ctx context.Context, review *domain.Review) error
	ListReviews(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	product := &domain.Product{}
	var images, colors, sizes []byte
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.DiscountPrice,
		&product.Category,
		&images,
		&colors,
		&sizes,
		&product.Stock,
		&product.IsActive,
		&product.IsFeatured,
		&product.AverageRating,
		&product.TotalReviews,
		&product.SoldCount,
		&product.ViewCount,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(images, &product.Images); err != nil {
		return nil, fmt.Errorf("failed to decode product images: %w", err)
	}
	if err := json.Unmarshal(colors, &product.Colors); err != nil {
		return nil, fmt.Errorf("failed to decode product colors: %w", err)
	}
	if err := json.Unmarshal(sizes, &product.Sizes); err != nil {
		return nil, fmt.Errorf("failed to decode product sizes: %w", err)
	}

	return product, nil
}

func encodeVariants(product *domain.Product) (images, colors, sizes []byte, err error) {
	if product.Images == nil {
		product.Images = []string{}
	}
	if product.Colors == nil {
		product.Colors = []domain.ProductColor{}
	}
	if product.Sizes == nil {
		product.Sizes = []domain.ProductSize{}
	}

	if images, err = json.Marshal(product.Images); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode product images: %w", err)
	}
	if colors, err = json.Marshal(product.Colors); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode product colors: %w", err)
	}
	if sizes, err = json.Marshal(product.Sizes); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode product sizes: %w", err)
	}
	return images, colors, sizes, nil
}

// Create inserts a new product using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	images, colors, sizes, err := encodeVariants(product)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, name, description, price, discount_price, category,
			images, colors, sizes, stock, is_active, is_featured,
			average_rating, total_reviews, sold_count, view_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.DiscountPrice,
		product.Category,
		images,
		colors,
		sizes,
		product.Stock,
		product.IsActive,
		product.IsFeatured,
		product.AverageRating,
		product.TotalReviews,
		product.SoldCount,
		product.ViewCount,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update updates the editable fields of a product. Review aggregates, view
// and sold counters are maintained by their own operations.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	images, colors, sizes, err := encodeVariants(product)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, discount_price = $5,
		    category = $6, images = $7, colors = $8, sizes = $9, stock = $10,
		    is_active = $11, is_featured = $12, updated_at = $13
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.DiscountPrice,
		product.Category,
		images,
		colors,
		sizes,
		product.Stock,
		product.IsActive,
		product.IsFeatured,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// SoftDelete deactivates a product instead of removing the row, so placed
// orders keep a valid reference.
func (r *productRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves products with filtering, search, pagination, and sorting.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error) {
	filter.Normalize()

	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.OnlyActive {
		whereClause += " AND is_active = TRUE"
	}
	if filter.Category != "" {
		whereClause += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, filter.Category)
		argIndex++
	}
	if filter.Search != "" {
		whereClause += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}
	if filter.MinPrice > 0 {
		whereClause += fmt.Sprintf(" AND price >= $%d", argIndex)
		args = append(args, filter.MinPrice)
		argIndex++
	}
	if filter.MaxPrice > 0 {
		whereClause += fmt.Sprintf(" AND price <= $%d", argIndex)
		args = append(args, filter.MaxPrice)
		argIndex++
	}
	if filter.InStockOnly {
		whereClause += " AND stock > 0"
	}
	if filter.Featured {
		whereClause += " AND is_featured = TRUE"
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize

	// SortBy and SortOrder come out of Normalize's allow list, never from
	// raw user input.
	query := fmt.Sprintf(`
		SELECT %s FROM products
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, filter.SortBy, filter.SortOrder, argIndex, argIndex+1)
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// Featured returns active featured products, newest first.
func (r *productRepository) Featured(ctx context.Context, limit int) ([]*domain.Product, error) {
	if limit < 1 {
		limit = 8
	}

	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE is_featured = TRUE AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT $1
	`, productColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan featured product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating featured products: %w", err)
	}

	return products, nil
}

// CategoryCounts returns the number of active products per category.
func (r *productRepository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	query := `
		SELECT category, COUNT(*)
		FROM products
		WHERE is_active = TRUE
		GROUP BY category
		ORDER BY category
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	defer rows.Close()

	counts := []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts = append(counts, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category counts: %w", err)
	}

	return counts, nil
}

// IncrementViewCount bumps the product view counter. Failures are reported
// but callers typically treat them as non-fatal.
func (r *productRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

// AddReview inserts a review and recomputes the product's rating aggregates
// in the same transaction. A second review from the same user hits the
// unique constraint and leaves the aggregates untouched.
func (r *productRepository) AddReview(ctx context.Context, review *domain.Review) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO product_reviews (id, product_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, review.ID, review.ProductID, review.UserID, review.Rating, review.Comment, review.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET average_rating = agg.avg_rating,
		    total_reviews = agg.review_count,
		    updated_at = NOW()
		FROM (
			SELECT AVG(rating)::numeric(3,2) AS avg_rating, COUNT(*) AS review_count
			FROM product_reviews
			WHERE product_id = $1
		) agg
		WHERE id = $1
	`, review.ProductID)
	if err != nil {
		return fmt.Errorf("failed to update rating aggregates: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review transaction: %w", err)
	}

	return nil
}

// ListReviews returns all reviews of a product, newest first, with the
// reviewer's display name joined in.
func (r *productRepository) ListReviews(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	query := `
		SELECT r.id, r.product_id, r.user_id,
		       u.first_name || ' ' || u.last_name AS user_name,
		       r.rating, r.comment, r.created_at
		FROM product_reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		review := &domain.Review{}
		err := rows.Scan(
			&review.ID,
			&review.ProductID,
			&review.UserID,
			&review.UserName,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
