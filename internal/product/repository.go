package product

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"shophub-be/internal/apperr"
	"shophub-be/internal/db"
	"shophub-be/internal/logger"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, sellerID string, input NewProductInput) (*Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, id string, input UpdateProductInput) (*Product, error)
	Deactivate(ctx context.Context, id string) error
	ListBySeller(ctx context.Context, sellerID string) ([]*Product, error)

	// AddReview stores the review and rewrites the product's rating
	// aggregate in one transaction.
	AddReview(ctx context.Context, review Review) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `p.id, p.name, p.description, p.price, p.discount_price, p.category_id,
	p.seller_id, p.stock, p.images, p.brand, p.specifications,
	p.rating_average, p.rating_count, p.is_active, p.created_at, p.updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var (
		p        Product
		discount decimal.NullDecimal
		specs    []byte
	)

	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &discount, &p.CategoryID,
		&p.SellerID, &p.Stock, pq.Array(&p.Images), &p.Brand, &specs,
		&p.Ratings.Average, &p.Ratings.Count, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if discount.Valid {
		d := discount.Decimal
		p.DiscountPrice = &d
	}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &p.Specifications); err != nil {
			return nil, fmt.Errorf("decode specifications: %w", err)
		}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	p.Reviews = []Review{}

	return &p, nil
}

func specsJSON(specs map[string]string) ([]byte, error) {
	if specs == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(specs)
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}

func (r *repository) Create(ctx context.Context, sellerID string, input NewProductInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("seller_id", sellerID),
	)

	specs, err := specsJSON(input.Specifications)
	if err != nil {
		return nil, apperr.Validation("invalid specifications")
	}

	images := input.Images
	if images == nil {
		images = []string{}
	}

	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		INSERT INTO products AS p (
			name, description, price, discount_price, category_id,
			seller_id, stock, images, brand, specifications
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+productColumns,
		input.Name, input.Description, input.Price, nullableDecimal(input.DiscountPrice), input.CategoryID,
		sellerID, input.Stock, pq.Array(images), input.Brand, specs,
	))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrCategoryNotFound
		}
		log.Error("failed to insert product", zap.Error(err))
		return nil, apperr.Persistence("failed to create product", err)
	}

	return p, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetByID"),
		zap.String("product_id", id),
	)

	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		log.Error("failed to load product", zap.Error(err))
		return nil, apperr.Persistence("failed to load product", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, user_id, name, rating, comment, created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at ASC
	`, id)
	if err != nil {
		log.Error("failed to load reviews", zap.Error(err))
		return nil, apperr.Persistence("failed to load product", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Name, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, apperr.Persistence("failed to load product", err)
		}
		p.Reviews = append(p.Reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("failed to load product", err)
	}

	return p, nil
}

func (r *repository) Update(ctx context.Context, id string, input UpdateProductInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Update"),
		zap.String("product_id", id),
	)

	// ---------- DYNAMIC SET ----------
	set := []string{}
	args := []interface{}{}

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if input.Name != nil {
		add("name", *input.Name)
	}
	if input.Description != nil {
		add("description", *input.Description)
	}
	if input.Price != nil {
		add("price", *input.Price)
	}
	if input.DiscountPrice != nil {
		add("discount_price", *input.DiscountPrice)
	}
	if input.CategoryID != nil {
		add("category_id", *input.CategoryID)
	}
	if input.Stock != nil {
		add("stock", *input.Stock)
	}
	if input.Images != nil {
		add("images", pq.Array(input.Images))
	}
	if input.Brand != nil {
		add("brand", *input.Brand)
	}
	if input.Specifications != nil {
		specs, err := specsJSON(input.Specifications)
		if err != nil {
			return nil, apperr.Validation("invalid specifications")
		}
		add("specifications", specs)
	}
	if input.IsActive != nil {
		add("is_active", *input.IsActive)
	}

	if len(set) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	set = append(set, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE products AS p SET %s WHERE p.id = $%d RETURNING %s",
		strings.Join(set, ", "), len(args), productColumns,
	)

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrCategoryNotFound
		}
		log.Error("failed to update product", zap.Error(err))
		return nil, apperr.Persistence("failed to update product", err)
	}

	return p, nil
}

func (r *repository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to deactivate product", zap.String("product_id", id), zap.Error(err))
		return apperr.Persistence("failed to delete product", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Persistence("failed to delete product", err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID string) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.seller_id = $1 ORDER BY p.created_at DESC`,
		sellerID,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list seller products", zap.String("seller_id", sellerID), zap.Error(err))
		return nil, apperr.Persistence("failed to list products", err)
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperr.Persistence("failed to list products", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("failed to list products", err)
	}

	return products, nil
}

func (r *repository) AddReview(ctx context.Context, review Review) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "AddReview"),
		zap.String("product_id", review.ProductID),
		zap.String("user_id", review.UserID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Persistence("failed to add review", err)
	}
	defer tx.Rollback()

	// Row lock serializes concurrent reviews of the same product.
	var productID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM products WHERE id = $1 AND is_active = TRUE FOR UPDATE`, review.ProductID,
	).Scan(&productID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		log.Error("failed to lock product", zap.Error(err))
		return apperr.Persistence("failed to add review", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reviews (product_id, user_id, name, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
	`, review.ProductID, review.UserID, review.Name, review.Rating, review.Comment)
	if err != nil {
		if db.IsUniqueViolation(err, "reviews_product_id_user_id_key") {
			return ErrAlreadyReviewed
		}
		log.Error("failed to insert review", zap.Error(err))
		return apperr.Persistence("failed to add review", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT rating FROM reviews WHERE product_id = $1`, review.ProductID)
	if err != nil {
		return apperr.Persistence("failed to add review", err)
	}
	ratings := []int{}
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			rows.Close()
			return apperr.Persistence("failed to add review", err)
		}
		ratings = append(ratings, rating)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return apperr.Persistence("failed to add review", err)
	}

	agg := AggregateRatings(ratings)
	_, err = tx.ExecContext(ctx, `
		UPDATE products
		SET rating_average = $1, rating_count = $2, updated_at = NOW()
		WHERE id = $3
	`, agg.Average, agg.Count, review.ProductID)
	if err != nil {
		log.Error("failed to update rating aggregate", zap.Error(err))
		return apperr.Persistence("failed to add review", err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.Persistence("failed to add review", err)
	}

	log.Info("review stored",
		zap.Float64("rating_average", agg.Average),
		zap.Int("rating_count", agg.Count),
	)
	return nil
}
