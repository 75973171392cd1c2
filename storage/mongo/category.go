package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/activitypoints/core/category"
)

type categoryRepository struct {
	categories *mongo.Collection
}

var _ category.Repository = (*categoryRepository)(nil)

func NewCategoryRepository(db *mongo.Database) category.Repository {
	return &categoryRepository{categories: db.Collection(categoryColl)}
}

func (repo *categoryRepository) CreateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	cat.ID = primitive.NewObjectID().Hex()
	if _, err := repo.categories.InsertOne(ctx, cat); err != nil {
		return category.Category{}, errors.Wrap(err, "inserting category")
	}
	return cat, nil
}

func (repo *categoryRepository) QueryAllCategories(ctx context.Context) ([]category.Category, error) {
	cursor, err := repo.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying categories")
	}
	defer func() { _ = cursor.Close(ctx) }()

	var cats []category.Category
	if err = cursor.All(ctx, &cats); err != nil {
		return nil, errors.Wrap(err, "decoding categories")
	}
	return cats, nil
}

func (repo *categoryRepository) GetCategoryByID(ctx context.Context, id string) (category.Category, error) {
	var cat category.Category
	if err := repo.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&cat); err != nil {
		if err == mongo.ErrNoDocuments {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, errors.Wrap(err, "finding category by ID")
	}
	return cat, nil
}

func (repo *categoryRepository) UpdateCategory(ctx context.Context, cat category.Category) (category.Category, error) {
	res, err := repo.categories.ReplaceOne(ctx, bson.M{"_id": cat.ID}, cat)
	if err != nil {
		return category.Category{}, errors.Wrap(err, "updating category")
	}
	if res.MatchedCount == 0 {
		return category.Category{}, category.ErrNotFound
	}
	return cat, nil
}

func (repo *categoryRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := repo.categories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting category")
	}
	if res.DeletedCount == 0 {
		return category.ErrNotFound
	}
	return nil
}
