package persistence

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/services/order/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderRepository struct {
	collection *mongo.Collection
}

// OrderDocument is the storage model for MongoDB
type OrderDocument struct {
	ID              string              `bson:"id"`
	OrderNo         string              `bson:"order_no"`
	CustomerID      *string             `bson:"customer_id,omitempty"`
	CustomerName    string              `bson:"customer_name"`
	CustomerPhone   string              `bson:"customer_phone"`
	ShippingAddress string              `bson:"shipping_address,omitempty"`
	Status          string              `bson:"status"`
	Subtotal        float64             `bson:"subtotal"`
	DiscountCode    *string             `bson:"discount_code,omitempty"`
	DiscountAmount  float64             `bson:"discount_amount"`
	TotalAmount     float64             `bson:"total_amount"`
	Items           []OrderItemDocument `bson:"items"`
	CreatedAt       time.Time           `bson:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at"`
}

type OrderItemDocument struct {
	ProductID   string  `bson:"product_id"`
	ProductName string  `bson:"product_name"`
	Quantity    int     `bson:"quantity"`
	Price       float64 `bson:"price"`
	CostPrice   float64 `bson:"cost_price"`
}

// discount codes are stored upper-case but matched without regard to case.
var codeCollation = &options.Collation{Locale: "en", Strength: 2}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{
		collection: db.Collection("orders"),
	}
}

func EnsureOrderIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("orders").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "order_no", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "discount_code", Value: 1}, {Key: "customer_phone", Value: 1}},
			Options: options.Index().SetCollation(codeCollation),
		},
	})
	if err != nil {
		return err
	}
	_, err = db.Collection("order_events").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "replayed", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func toDocument(o domain.Order) OrderDocument {
	items := make([]OrderItemDocument, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemDocument{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			CostPrice:   item.CostPrice,
		}
	}
	return OrderDocument{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		CustomerID:      o.CustomerID,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		ShippingAddress: o.ShippingAddress,
		Status:          string(o.Status),
		Subtotal:        o.Subtotal,
		DiscountCode:    o.DiscountCode,
		DiscountAmount:  o.DiscountAmount,
		TotalAmount:     o.TotalAmount,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (d OrderDocument) toDomain() domain.Order {
	items := make([]domain.OrderItem, len(d.Items))
	for i, item := range d.Items {
		items[i] = domain.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			CostPrice:   item.CostPrice,
		}
	}
	return domain.Order{
		ID:              d.ID,
		OrderNo:         d.OrderNo,
		CustomerID:      d.CustomerID,
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.CustomerPhone,
		ShippingAddress: d.ShippingAddress,
		Status:          domain.Status(d.Status),
		Subtotal:        d.Subtotal,
		DiscountCode:    d.DiscountCode,
		DiscountAmount:  d.DiscountAmount,
		TotalAmount:     d.TotalAmount,
		Items:           items,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	_, err := r.collection.InsertOne(ctx, toDocument(order))
	return err
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *OrderRepository) GetOrderByNumber(ctx context.Context, orderNo string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"order_no": orderNo})
}

func (r *OrderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var doc OrderDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	order := doc.toDomain()
	return &order, nil
}

// UpdateStatus only matches while the order still has status from, so a
// concurrent transition makes this write a no-op and the caller aborts.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *OrderRepository) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.Query != "" {
		pattern := containsPattern(filter.Query)
		query["$or"] = bson.A{
			bson.M{"order_no": pattern},
			bson.M{"customer_name": pattern},
			bson.M{"customer_phone": pattern},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.PerPage)).
		SetLimit(int64(filter.PerPage))
	orders, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.find(ctx, bson.M{"customer_id": customerID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// CountDiscountUsage counts non-cancelled orders from phone that used code.
func (r *OrderRepository) CountDiscountUsage(ctx context.Context, code, phone string) (int64, error) {
	filter := bson.M{
		"discount_code":  code,
		"customer_phone": phone,
		"status":         bson.M{"$ne": string(domain.StatusCancelled)},
	}
	return r.collection.CountDocuments(ctx, filter, options.Count().SetCollation(codeCollation))
}

// FindSalesOrders returns non-cancelled orders created within [start, end],
// oldest first.
func (r *OrderRepository) FindSalesOrders(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	filter := bson.M{
		"status":     bson.M{"$ne": string(domain.StatusCancelled)},
		"created_at": bson.M{"$gte": start, "$lte": end},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *OrderRepository) CountByStatus(ctx context.Context, status domain.Status) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": string(status)})
}

// ListCreatedBetween returns every order created within [start, end], newest first.
func (r *OrderRepository) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	filter := bson.M{"created_at": bson.M{"$gte": start, "$lte": end}}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]domain.Order, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []domain.Order{}
	for cursor.Next(ctx) {
		var doc OrderDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		orders = append(orders, doc.toDomain())
	}
	return orders, cursor.Err()
}

func containsPattern(q string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
}
