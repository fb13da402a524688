package wholesale

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	ListByProduct(ctx context.Context, productID string) ([]Rate, error)
	Create(ctx context.Context, rate Rate) error
	Delete(ctx context.Context, productID, rateID string) (bool, error)
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection("wholesale_rates")}
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("wholesale_rates").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "product_id", Value: 1}, {Key: "min_quantity", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *mongoRepository) ListByProduct(ctx context.Context, productID string) ([]Rate, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"product_id": productID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rates := []Rate{}
	if err := cursor.All(ctx, &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *mongoRepository) Create(ctx context.Context, rate Rate) error {
	_, err := r.collection.InsertOne(ctx, rate)
	return err
}

func (r *mongoRepository) Delete(ctx context.Context, productID, rateID string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"id": rateID, "product_id": productID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}
