package product

import (
	"context"
	"strings"

	"shophub-be/internal/auth"
	"shophub-be/internal/logger"
	"shophub-be/internal/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, actor auth.Principal, input NewProductInput) (*Product, error)
	GetByID(ctx context.Context, id string, viewer *auth.Principal) (*Product, error)
	Update(ctx context.Context, actor auth.Principal, id string, input UpdateProductInput) (*Product, error)
	Delete(ctx context.Context, actor auth.Principal, id string) error
	ListMine(ctx context.Context, actor auth.Principal) ([]*Product, error)
	AddReview(ctx context.Context, reviewer auth.Principal, productID string, input ReviewInput) (*Product, error)
}

type service struct {
	repo    Repository
	metrics *metrics.Registry
}

func NewService(repo Repository, m *metrics.Registry) Service {
	return &service{repo: repo, metrics: m}
}

func canManage(actor auth.Principal, p *Product) bool {
	return actor.IsAdmin() || p.SellerID == actor.UserID
}

func validatePricing(price decimal.Decimal, discount *decimal.Decimal) error {
	if price.IsNegative() {
		return ErrNegativePrice
	}
	if discount != nil && (discount.IsNegative() || discount.GreaterThan(price)) {
		return ErrDiscountAbovePrice
	}
	return nil
}

func (s *service) Create(ctx context.Context, actor auth.Principal, input NewProductInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
	)

	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)

	switch {
	case input.Name == "":
		return nil, ErrNameRequired
	case input.Description == "":
		return nil, ErrDescriptionRequired
	case input.CategoryID == "":
		return nil, ErrCategoryRequired
	case input.Stock < 0:
		return nil, ErrNegativeStock
	}
	if err := validatePricing(input.Price, input.DiscountPrice); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, actor.UserID, input)
	if err != nil {
		return nil, err
	}

	log.Info("product created",
		zap.String("product_id", p.ID),
		zap.String("seller_id", p.SellerID),
	)
	return p, nil
}

// GetByID hides inactive products from everyone except their seller and
// admins.
func (s *service) GetByID(ctx context.Context, id string, viewer *auth.Principal) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !p.IsActive && (viewer == nil || !canManage(*viewer, p)) {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, actor auth.Principal, id string, input UpdateProductInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Update"),
		zap.String("product_id", id),
	)

	if input.empty() {
		return nil, ErrNoFieldsToUpdate
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, ErrNameRequired
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		return nil, ErrDescriptionRequired
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, ErrNegativeStock
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, existing) {
		log.Warn("update rejected, not owner", zap.String("actor_id", actor.UserID))
		return nil, ErrNotOwner
	}

	// The pair is checked against whatever the product ends up with.
	price := existing.Price
	if input.Price != nil {
		price = *input.Price
	}
	discount := existing.DiscountPrice
	if input.DiscountPrice != nil {
		discount = input.DiscountPrice
	}
	if err := validatePricing(price, discount); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, input)
}

func (s *service) Delete(ctx context.Context, actor auth.Principal, id string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, existing) {
		return ErrNotOwner
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("product deactivated",
		zap.String("layer", "service"),
		zap.String("product_id", id),
	)
	return nil
}

func (s *service) ListMine(ctx context.Context, actor auth.Principal) ([]*Product, error) {
	return s.repo.ListBySeller(ctx, actor.UserID)
}

func (s *service) AddReview(ctx context.Context, reviewer auth.Principal, productID string, input ReviewInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddReview"),
		zap.String("product_id", productID),
	)

	if !ValidRating(input.Rating) {
		return nil, ErrInvalidRating
	}

	name := reviewer.Name
	if name == "" {
		name = reviewer.Email
	}

	err := s.repo.AddReview(ctx, Review{
		ProductID: productID,
		UserID:    reviewer.UserID,
		Name:      name,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
	})
	if err != nil {
		log.Warn("failed to add review", zap.Error(err))
		return nil, err
	}

	s.metrics.Inc(metrics.ReviewsAdded)

	return s.repo.GetByID(ctx, productID)
}
