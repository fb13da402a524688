package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"

	"github.com/google/uuid"
)

type inventoryService struct {
	logger            log.Logger
	productRepository ProductRepository
}

type InventoryService interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
	GetProductsByIDs(ctx context.Context, productIDs []string) ([]Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	AddProduct(ctx context.Context, product Product) (*Product, error)
	UpdateProduct(ctx context.Context, productID string, patch ProductPatch) (*Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	GetLowStockProducts(ctx context.Context, threshold int) ([]Product, error)
	CountProducts(ctx context.Context) (int64, error)
	CountLowStockProducts(ctx context.Context, threshold int) (int64, error)
	DecrementStock(ctx context.Context, productID string, quantity int) (bool, error)
	RestockProduct(ctx context.Context, productID string, quantity int) error
}

func NewInventoryService(logger log.Logger, productRepo ProductRepository) InventoryService {
	return &inventoryService{
		logger:            logger,
		productRepository: productRepo,
	}
}

func (s *inventoryService) GetProduct(ctx context.Context, productID string) (*Product, error) {
	product, err := s.productRepository.GetProductById(ctx, productID)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("get product %s: %w", productID, err))
	}
	if product == nil {
		return nil, apperror.NotFound(apperror.MsgProductNotFound)
	}
	return product, nil
}

func (s *inventoryService) GetProductsByIDs(ctx context.Context, productIDs []string) ([]Product, error) {
	return s.productRepository.GetProductsByIDs(ctx, productIDs)
}

func (s *inventoryService) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int64, error) {
	products, total, err := s.productRepository.ListProducts(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("list products: %w", err))
	}
	return products, total, nil
}

func (s *inventoryService) AddProduct(ctx context.Context, product Product) (*Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	if err := product.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	product.ID = uuid.NewString()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.productRepository.AddProduct(ctx, product); err != nil {
		return nil, apperror.Internal(fmt.Errorf("add product: %w", err))
	}
	s.logger.InfoWithExtra(ctx, "Product created", map[string]any{"productId": product.ID, "name": product.Name})
	return &product, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, productID string, patch ProductPatch) (*Product, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	set, unset := patch.Updates()
	found, err := s.productRepository.UpdateProduct(ctx, productID, set, unset)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("update product %s: %w", productID, err))
	}
	if !found {
		return nil, apperror.NotFound(apperror.MsgProductNotFound)
	}
	return s.GetProduct(ctx, productID)
}

func (s *inventoryService) DeleteProduct(ctx context.Context, productID string) error {
	found, err := s.productRepository.DeleteProduct(ctx, productID)
	if err != nil {
		return apperror.Internal(fmt.Errorf("delete product %s: %w", productID, err))
	}
	if !found {
		return apperror.NotFound(apperror.MsgProductNotFound)
	}
	s.logger.Info(ctx, "Product deleted: "+productID)
	return nil
}

// GetLowStockProducts returns products with stock below the threshold
func (s *inventoryService) GetLowStockProducts(ctx context.Context, threshold int) ([]Product, error) {
	products, err := s.productRepository.GetLowStockProducts(ctx, threshold)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("low stock products: %w", err))
	}
	return products, nil
}

func (s *inventoryService) CountProducts(ctx context.Context) (int64, error) {
	return s.productRepository.CountProducts(ctx)
}

func (s *inventoryService) CountLowStockProducts(ctx context.Context, threshold int) (int64, error) {
	return s.productRepository.CountLowStockProducts(ctx, threshold)
}

func (s *inventoryService) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	return s.productRepository.DecrementStock(ctx, productID, quantity)
}

func (s *inventoryService) RestockProduct(ctx context.Context, productID string, quantity int) error {
	return s.productRepository.RestockProduct(ctx, productID, quantity)
}
