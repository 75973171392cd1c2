package category_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/activitypoints/core/category"
	dummydb "github.com/trezcool/activitypoints/storage/dummy"
)

func setup(t *testing.T) category.Service {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return category.NewService(dummydb.NewCategoryRepository(db))
}

func TestService_Create(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	cat, err := svc.Create(ctx, category.NewCategory{
		Name:              "Paper Presentation",
		MaxPoints:         40,
		RequiredDocuments: []string{"certificate"},
		Subcategories: []category.Subcategory{
			{Name: "National", Points: 20, Level: "national"},
			{Name: "International", Points: 40, Level: "international"},
		},
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, cat.ID)
	assert.Equal(t, "Paper Presentation", cat.Name)
	assert.Len(t, cat.Subcategories, 2)
	assert.False(t, cat.CreatedAt.IsZero())
}

func TestService_QueryAll(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	all, err := svc.QueryAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 0)

	_, err = svc.Create(ctx, category.NewCategory{Name: "Sports", MaxPoints: 30})
	assert.NoError(t, err)
	_, err = svc.Create(ctx, category.NewCategory{Name: "Hackathon", MaxPoints: 50})
	assert.NoError(t, err)

	all, err = svc.QueryAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_GetByID(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, "missing")
	assert.Equal(t, category.ErrNotFound, err)

	cat, err := svc.Create(ctx, category.NewCategory{Name: "Sports", MaxPoints: 30})
	assert.NoError(t, err)

	got, err := svc.GetByID(ctx, cat.ID)
	assert.NoError(t, err)
	assert.Equal(t, cat.ID, got.ID)
	assert.Equal(t, "Sports", got.Name)
}

func TestService_Update(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", category.UpdateCategory{Name: "X"})
		assert.Equal(t, category.ErrNotFound, err)
	})

	cat, err := svc.Create(ctx, category.NewCategory{
		Name:        "Sports",
		Description: "Inter-college sports events",
		MaxPoints:   30,
	})
	assert.NoError(t, err)

	t.Run("partial patch", func(t *testing.T) {
		points := 45
		got, err := svc.Update(ctx, cat.ID, category.UpdateCategory{
			MaxPoints: &points,
			Subcategories: []category.Subcategory{
				{Name: "Zonal", Points: 15},
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, "Sports", got.Name) // untouched
		assert.Equal(t, "Inter-college sports events", got.Description)
		assert.Equal(t, 45, got.MaxPoints)
		assert.Len(t, got.Subcategories, 1)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
	})

	t.Run("clear description", func(t *testing.T) {
		empty := ""
		got, err := svc.Update(ctx, cat.ID, category.UpdateCategory{Description: &empty})
		assert.NoError(t, err)
		assert.Empty(t, got.Description)
	})
}

func TestService_Delete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	assert.Equal(t, category.ErrNotFound, svc.Delete(ctx, "missing"))

	cat, err := svc.Create(ctx, category.NewCategory{Name: "Sports", MaxPoints: 30})
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, cat.ID))

	_, err = svc.GetByID(ctx, cat.ID)
	assert.Equal(t, category.ErrNotFound, err)
}
