package category

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"shophub-be/internal/apperr"
	"shophub-be/internal/db"
	"shophub-be/internal/logger"
	"shophub-be/internal/utils"

	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, filter *string) ([]*Category, error)
	Create(ctx context.Context, input NewCategoryInput) (*Category, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filter *string) ([]*Category, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
		zap.String("filter", utils.PtrString(filter)),
	)

	// ---------- BASE QUERY ----------
	query := `
		SELECT c.id, c.name, c.description, c.image, c.created_at
		FROM categories c
	`

	where := []string{}
	args := []interface{}{}

	// ---------- FILTER ----------
	if filter != nil && strings.TrimSpace(*filter) != "" {
		where = append(where, fmt.Sprintf("c.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+strings.TrimSpace(*filter)+"%")
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY c.name ASC"

	// ---------- EXECUTE ----------
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("DB query failed", zap.Error(err))
		return nil, apperr.Persistence("failed to list categories", err)
	}
	defer rows.Close()

	categories := []*Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.CreatedAt); err != nil {
			log.Error("Row scan failed", zap.Error(err))
			return nil, apperr.Persistence("failed to list categories", err)
		}
		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("failed to list categories", err)
	}

	return categories, nil
}

func (r *repository) Create(ctx context.Context, input NewCategoryInput) (*Category, error) {
	var c Category
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, description, image)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, image, created_at
	`, input.Name, input.Description, input.Image).
		Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "categories_name_key") {
			return nil, ErrCategoryExists
		}
		logger.FromCtx(ctx).Error("failed to insert category", zap.String("name", input.Name), zap.Error(err))
		return nil, apperr.Persistence("failed to create category", err)
	}

	return &c, nil
}
