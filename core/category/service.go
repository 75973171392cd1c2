package category

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound = errors.New("category not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateCategory(ctx context.Context, cat Category) (Category, error)
		QueryAllCategories(ctx context.Context) ([]Category, error)
		GetCategoryByID(ctx context.Context, id string) (Category, error)
		UpdateCategory(ctx context.Context, cat Category) (Category, error)
		DeleteCategory(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, data NewCategory) (Category, error)
		QueryAll(ctx context.Context) ([]Category, error)
		GetByID(ctx context.Context, id string) (Category, error)
		Update(ctx context.Context, id string, data UpdateCategory) (Category, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, data NewCategory) (Category, error) {
	now := nowFunc().UTC()
	cat := Category{
		Name:              data.Name,
		Description:       data.Description,
		MaxPoints:         data.MaxPoints,
		MinDuration:       data.MinDuration,
		RequiredDocuments: data.RequiredDocuments,
		Subcategories:     data.Subcategories,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return svc.repo.CreateCategory(ctx, cat)
}

func (svc *service) QueryAll(ctx context.Context) ([]Category, error) {
	return svc.repo.QueryAllCategories(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Category, error) {
	return svc.repo.GetCategoryByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, data UpdateCategory) (Category, error) {
	cat, err := svc.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return Category{}, err
	}

	if data.Name != "" {
		cat.Name = data.Name
	}
	if data.Description != nil {
		cat.Description = *data.Description
	}
	if data.MaxPoints != nil {
		cat.MaxPoints = *data.MaxPoints
	}
	if data.MinDuration != nil {
		cat.MinDuration = *data.MinDuration
	}
	if data.RequiredDocuments != nil {
		cat.RequiredDocuments = data.RequiredDocuments
	}
	if data.Subcategories != nil {
		cat.Subcategories = data.Subcategories
	}
	cat.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateCategory(ctx, cat)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCategory(ctx, id)
}
