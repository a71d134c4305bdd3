package category

import (
	"context"
	"strings"

	"shophub-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context, filter *string) ([]*Category, error)
	Create(ctx context.Context, input NewCategoryInput) (*Category, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, filter *string) ([]*Category, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Create(ctx context.Context, input NewCategoryInput) (*Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrNameRequired
	}

	c, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("category created",
		zap.String("layer", "service"),
		zap.String("category_id", c.ID),
	)
	return c, nil
}
