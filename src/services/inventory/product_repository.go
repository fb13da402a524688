package inventory

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository interface {
	// DecrementStock removes quantity from stock only when enough is on hand.
	DecrementStock(ctx context.Context, productID string, quantity int) (bool, error)
	// RestockProduct adds quantity back; it fails with ErrProductNotFound when the
	// product no longer exists so a surrounding transaction aborts.
	RestockProduct(ctx context.Context, productID string, quantity int) error
	SeedProduct(ctx context.Context, product Product) error
	GetProductById(ctx context.Context, productID string) (*Product, error)
	GetProductsByIDs(ctx context.Context, productIDs []string) ([]Product, error)
	UpdateProduct(ctx context.Context, productID string, set, unset map[string]any) (bool, error)
	DeleteProduct(ctx context.Context, productID string) (bool, error)
	GetLowStockProducts(ctx context.Context, threshold int) ([]Product, error)
	CountLowStockProducts(ctx context.Context, threshold int) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
	AddProduct(ctx context.Context, product Product) error
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
}

type productRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{
		collection: db.Collection("products"),
	}
}

// EnsureProductIndexes creates the lookup indexes used by the repository.
func EnsureProductIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("products").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "stock", Value: 1}}},
	})
	return err
}

func (r *productRepository) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	filter := bson.M{"id": productID, "stock": bson.M{"$gte": quantity}}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *productRepository) RestockProduct(ctx context.Context, productID string, quantity int) error {
	filter := bson.M{"id": productID}
	update := bson.M{
		"$inc": bson.M{"stock": quantity},
		"$set": bson.M{"updated_at": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) SeedProduct(ctx context.Context, product Product) error {
	filter := bson.M{"name": product.Name}
	update := bson.M{"$setOnInsert": product}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

func (r *productRepository) GetProductById(ctx context.Context, productID string) (*Product, error) {
	var product Product
	err := r.collection.FindOne(ctx, bson.M{"id": productID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetProductsByIDs(ctx context.Context, productIDs []string) ([]Product, error) {
	return r.find(ctx, bson.M{"id": bson.M{"$in": productIDs}})
}

func (r *productRepository) UpdateProduct(ctx context.Context, productID string, set, unset map[string]any) (bool, error) {
	update := bson.M{}
	setDoc := bson.M{"updated_at": time.Now()}
	for k, v := range set {
		setDoc[k] = v
	}
	update["$set"] = setDoc
	if len(unset) > 0 {
		update["$unset"] = bson.M(unset)
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"id": productID}, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, productID string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"id": productID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

// GetLowStockProducts returns products with stock below the threshold
func (r *productRepository) GetLowStockProducts(ctx context.Context, threshold int) ([]Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "stock", Value: 1}})
	return r.find(ctx, bson.M{"stock": bson.M{"$lt": threshold}}, opts)
}

func (r *productRepository) CountLowStockProducts(ctx context.Context, threshold int) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"stock": bson.M{"$lt": threshold}})
}

func (r *productRepository) CountProducts(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *productRepository) AddProduct(ctx context.Context, product Product) error {
	_, err := r.collection.InsertOne(ctx, product)
	return err
}

func (r *productRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int64, error) {
	filter.Normalize()
	query := bson.M{}
	if filter.Query != "" {
		query["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Query), "$options": "i"}
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Featured != nil {
		query["featured"] = *filter.Featured
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "featured", Value: -1}, {Key: "name", Value: 1}}).
		SetSkip(int64((filter.Page - 1) * filter.PerPage)).
		SetLimit(int64(filter.PerPage))
	products, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]Product, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []Product{}
	for cursor.Next(ctx) {
		var product Product
		if err := cursor.Decode(&product); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, cursor.Err()
}
