// Package wholesale manages quantity price tiers per product.
package wholesale

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"

	"github.com/google/uuid"
)

// Rate applies Price per unit once an order line reaches MinQuantity.
type Rate struct {
	ID          string    `bson:"id" json:"id"`
	ProductID   string    `bson:"product_id" json:"productId"`
	MinQuantity int       `bson:"min_quantity" json:"minQuantity"`
	Price       float64   `bson:"price" json:"price"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

// ResolvePrice picks the rate with the highest MinQuantity not above quantity,
// falling back to base when no tier applies.
func ResolvePrice(base float64, rates []Rate, quantity int) float64 {
	price := base
	best := 0
	for _, r := range rates {
		if r.MinQuantity <= quantity && r.MinQuantity > best {
			best = r.MinQuantity
			price = r.Price
		}
	}
	return price
}

type Service interface {
	ListRates(ctx context.Context, productID string) ([]Rate, error)
	AddRate(ctx context.Context, rate Rate) (*Rate, error)
	DeleteRate(ctx context.Context, productID, rateID string) error
	UnitPrice(ctx context.Context, productID string, base float64, quantity int) (float64, error)
}

type service struct {
	logger     log.Logger
	repository Repository
}

func NewService(logger log.Logger, repository Repository) Service {
	return &service{logger: logger, repository: repository}
}

func (s *service) ListRates(ctx context.Context, productID string) ([]Rate, error) {
	rates, err := s.repository.ListByProduct(ctx, productID)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("list wholesale rates: %w", err))
	}
	sort.SliceStable(rates, func(i, j int) bool { return rates[i].MinQuantity < rates[j].MinQuantity })
	return rates, nil
}

func (s *service) AddRate(ctx context.Context, rate Rate) (*Rate, error) {
	if rate.MinQuantity <= 0 || rate.Price < 0 {
		return nil, apperror.Validation(apperror.MsgWholesaleInvalid)
	}
	rate.ID = uuid.NewString()
	rate.CreatedAt = time.Now()
	if err := s.repository.Create(ctx, rate); err != nil {
		return nil, apperror.Internal(fmt.Errorf("create wholesale rate: %w", err))
	}
	s.logger.InfoWithExtra(ctx, "Wholesale rate added", map[string]any{
		"productId": rate.ProductID, "minQuantity": rate.MinQuantity, "price": rate.Price,
	})
	return &rate, nil
}

func (s *service) DeleteRate(ctx context.Context, productID, rateID string) error {
	found, err := s.repository.Delete(ctx, productID, rateID)
	if err != nil {
		return apperror.Internal(fmt.Errorf("delete wholesale rate: %w", err))
	}
	if !found {
		return apperror.NotFound(apperror.MsgWholesaleNotFound)
	}
	return nil
}

func (s *service) UnitPrice(ctx context.Context, productID string, base float64, quantity int) (float64, error) {
	rates, err := s.repository.ListByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("load wholesale rates for %s: %w", productID, err)
	}
	return ResolvePrice(base, rates, quantity), nil
}
