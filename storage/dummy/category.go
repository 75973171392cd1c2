package dummydb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/activitypoints/core/category"
)

type categoryRepository struct {
	categories *categoryTable
}

var _ category.Repository = (*categoryRepository)(nil)

func NewCategoryRepository(db *DB) category.Repository {
	return &categoryRepository{categories: db.categories}
}

func (repo *categoryRepository) CreateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	repo.categories.Lock()
	defer repo.categories.Unlock()

	cat.ID = primitive.NewObjectID().Hex()
	repo.categories.table[cat.ID] = &cat
	return cat, nil
}

func (repo *categoryRepository) QueryAllCategories(ctx context.Context) ([]category.Category, error) {
	repo.categories.RLock()
	defer repo.categories.RUnlock()

	cats := make([]category.Category, 0, len(repo.categories.table))
	for _, cat := range repo.categories.table {
		cats = append(cats, *cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (repo *categoryRepository) GetCategoryByID(ctx context.Context, id string) (category.Category, error) {
	repo.categories.RLock()
	defer repo.categories.RUnlock()

	if cat, ok := repo.categories.table[id]; ok {
		return *cat, nil
	}
	return category.Category{}, category.ErrNotFound
}

func (repo *categoryRepository) UpdateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	repo.categories.Lock()
	defer repo.categories.Unlock()

	if _, ok := repo.categories.table[cat.ID]; !ok {
		return category.Category{}, category.ErrNotFound
	}
	repo.categories.table[cat.ID] = &cat
	return cat, nil
}

func (repo *categoryRepository) DeleteCategory(ctx context.Context, id string) error {
	repo.categories.Lock()
	defer repo.categories.Unlock()

	if _, ok := repo.categories.table[id]; !ok {
		return category.ErrNotFound
	}
	delete(repo.categories.table, id)
	return nil
}
