package discount

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateCode = errors.New("discount code already exists")

type Repository interface {
	FindByCode(ctx context.Context, code string) (*Discount, error)
	GetByID(ctx context.Context, id string) (*Discount, error)
	List(ctx context.Context) ([]Discount, error)
	Create(ctx context.Context, d Discount) error
	Update(ctx context.Context, id string, set, unset map[string]any) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	// IncrementUsage bumps used_count unless the usage limit is already reached.
	IncrementUsage(ctx context.Context, code string) (bool, error)
}

type mongoRepository struct {
	collection *mongo.Collection
}

// Codes are compared with a strength-2 collation so lookups and the unique
// index ignore case even for rows written before codes were normalized.
var codeCollation = &options.Collation{Locale: "en", Strength: 2}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection("discounts")}
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("discounts").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(codeCollation)},
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

func (r *mongoRepository) FindByCode(ctx context.Context, code string) (*Discount, error) {
	var d Discount
	opts := options.FindOne().SetCollation(codeCollation)
	if err := r.collection.FindOne(ctx, bson.M{"code": code}, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*Discount, error) {
	var d Discount
	if err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *mongoRepository) List(ctx context.Context) ([]Discount, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	discounts := []Discount{}
	if err := cursor.All(ctx, &discounts); err != nil {
		return nil, err
	}
	return discounts, nil
}

func (r *mongoRepository) Create(ctx context.Context, d Discount) error {
	_, err := r.collection.InsertOne(ctx, d)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateCode
	}
	return err
}

func (r *mongoRepository) Update(ctx context.Context, id string, set, unset map[string]any) (bool, error) {
	setDoc := bson.M{"updated_at": time.Now()}
	for k, v := range set {
		setDoc[k] = v
	}
	update := bson.M{"$set": setDoc}
	if len(unset) > 0 {
		update["$unset"] = bson.M(unset)
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

func (r *mongoRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	filter := bson.M{
		"code": code,
		"$or": bson.A{
			bson.M{"usage_limit": bson.M{"$exists": false}},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}}},
		},
	}
	update := bson.M{"$inc": bson.M{"used_count": 1}, "$set": bson.M{"updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetCollation(codeCollation))
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}
