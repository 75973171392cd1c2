package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/activitypoints/core"
)

// collections
const (
	studentColl  = "students"
	tutorColl    = "tutors"
	categoryColl = "categories"
)

// Open connects to the configured MongoDB deployment, pings it and ensures
// the register-number unique indexes exist.
func Open(conf *core.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errors.Wrap(err, "pinging mongo")
	}

	db := client.Database(conf.Database.Name)
	if err = ensureIndexes(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func Close(ctx context.Context, db *mongo.Database) error {
	return db.Client().Disconnect(ctx)
}

// ensureIndexes enforces register-number uniqueness at the store level; the
// directory relies on it.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	regNumIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "registerNumber", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, coll := range []string{studentColl, tutorColl} {
		if _, err := db.Collection(coll).Indexes().CreateOne(ctx, regNumIdx); err != nil {
			return errors.Wrapf(err, "creating %s.registerNumber index", coll)
		}
	}
	return nil
}
