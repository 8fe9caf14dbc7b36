package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Kokonsdelche/dg-sub000/internal/domain"

	"github.com/google/uuid"
)

var ErrBannerNotFound = errors.New("banner not found")

const bannerColumns = `id, title, image_url, link, position, sort_order, is_active, created_at, updated_at`

// BannerRepository defines the interface for storefront banner data access
type BannerRepository interface {
	Create(ctx context.Context, banner *domain.Banner) error
	Update(ctx context.Context, banner *domain.Banner) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListActive(ctx context.Context, position domain.BannerPosition) ([]*domain.Banner, error)
	List(ctx context.Context) ([]*domain.Banner, error)
}

type bannerRepository struct {
	db *sql.DB
}

// NewBannerRepository creates a new instance of BannerRepository
func NewBannerRepository(db *sql.DB) BannerRepository {
	return &bannerRepository{db: db}
}

func scanBanner(row interface{ Scan(...any) error }) (*domain.Banner, error) {
	banner := &domain.Banner{}
	err := row.Scan(
		&banner.ID,
		&banner.Title,
		&banner.ImageURL,
		&banner.Link,
		&banner.Position,
		&banner.SortOrder,
		&banner.IsActive,
		&banner.CreatedAt,
		&banner.UpdatedAt,
	)
	return banner, err
}

// Create inserts a new banner
func (r *bannerRepository) Create(ctx context.Context, banner *domain.Banner) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO banners (id, title, image_url, link, position, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		banner.ID,
		banner.Title,
		banner.ImageURL,
		banner.Link,
		banner.Position,
		banner.SortOrder,
		banner.IsActive,
		banner.CreatedAt,
		banner.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create banner: %w", err)
	}
	return nil
}

// Update replaces the editable fields of a banner
func (r *bannerRepository) Update(ctx context.Context, banner *domain.Banner) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE banners
		SET title = $2, image_url = $3, link = $4, position = $5,
		    sort_order = $6, is_active = $7, updated_at = $8
		WHERE id = $1
	`,
		banner.ID,
		banner.Title,
		banner.ImageURL,
		banner.Link,
		banner.Position,
		banner.SortOrder,
		banner.IsActive,
		banner.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update banner: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrBannerNotFound
	}

	return nil
}

// Delete removes a banner. Banners carry no history, so unlike products
// they are deleted outright.
func (r *bannerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete banner: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrBannerNotFound
	}

	return nil
}

// ListActive returns active banners for a storefront position, in display order.
func (r *bannerRepository) ListActive(ctx context.Context, position domain.BannerPosition) ([]*domain.Banner, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM banners
		WHERE is_active = TRUE AND position = $1
		ORDER BY sort_order ASC, created_at DESC
	`, bannerColumns)

	rows, err := r.db.QueryContext(ctx, query, position)
	if err != nil {
		return nil, fmt.Errorf("failed to list active banners: %w", err)
	}
	defer rows.Close()

	return collectBanners(rows)
}

// List returns every banner for the admin panel.
func (r *bannerRepository) List(ctx context.Context) ([]*domain.Banner, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM banners
		ORDER BY position, sort_order ASC
	`, bannerColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	defer rows.Close()

	return collectBanners(rows)
}

func collectBanners(rows *sql.Rows) ([]*domain.Banner, error) {
	banners := []*domain.Banner{}
	for rows.Next() {
		banner, err := scanBanner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan banner: %w", err)
		}
		banners = append(banners, banner)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating banners: %w", err)
	}

	return banners, nil
}
