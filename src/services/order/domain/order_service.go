package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"
	"github.com/MEE-POONG/mapoo-sub001/src/services/discount"
	"github.com/MEE-POONG/mapoo-sub001/src/services/events"
	"github.com/MEE-POONG/mapoo-sub001/src/services/inventory"

	"github.com/google/uuid"
)

// Transactor runs fn as one atomic unit. Every store call inside fn must use
// the context it receives.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order Order) error
	GetOrderByID(ctx context.Context, id string) (*Order, error)
	GetOrderByNumber(ctx context.Context, orderNo string) (*Order, error)
	// UpdateStatus writes to only while the stored status is still from.
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
}

type EventStore interface {
	StoreEventForReplay(ctx context.Context, orderID, topic string, eventData []byte) error
	GetUnreplayedEvents(ctx context.Context, limit int64) ([]StoredEvent, error)
	MarkEventAsReplaying(ctx context.Context, eventID string) error
	MarkEventAsCompleted(ctx context.Context, eventID string) error
	MarkEventAsFailed(ctx context.Context, eventID string) error
}

type Inventory interface {
	GetProductsByIDs(ctx context.Context, productIDs []string) ([]inventory.Product, error)
	DecrementStock(ctx context.Context, productID string, quantity int) (bool, error)
	RestockProduct(ctx context.Context, productID string, quantity int) error
}

type Discounts interface {
	Evaluate(ctx context.Context, req discount.Request) (*discount.Descriptor, error)
	RecordUsage(ctx context.Context, code string) error
}

type PriceResolver interface {
	UnitPrice(ctx context.Context, productID string, base float64, quantity int) (float64, error)
}

type Publisher interface {
	Publish(topic string, body []byte) error
}

type OrderService interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	ListCustomerOrders(ctx context.Context, customerID string) ([]Order, error)
	TrackOrder(ctx context.Context, orderNo, phone string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, target Status) (*Order, error)
	CancelByCustomer(ctx context.Context, id, customerID string) (*Order, error)
	ReplayFailedEvents(ctx context.Context) (*ReplayResult, error)
}

type ReplayResult struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type orderService struct {
	logger     log.Logger
	transactor Transactor
	orders     OrderRepository
	eventStore EventStore
	inventory  Inventory
	discounts  Discounts
	prices     PriceResolver
	// publisher is nil when messaging is disabled.
	publisher  Publisher
	retryDelay time.Duration
	now        func() time.Time
}

func NewOrderService(
	logger log.Logger,
	transactor Transactor,
	orders OrderRepository,
	eventStore EventStore,
	inventory Inventory,
	discounts Discounts,
	prices PriceResolver,
	publisher Publisher,
) OrderService {
	return &orderService{
		logger:     logger,
		transactor: transactor,
		orders:     orders,
		eventStore: eventStore,
		inventory:  inventory,
		discounts:  discounts,
		prices:     prices,
		publisher:  publisher,
		retryDelay: time.Second,
		now:        time.Now,
	}
}

// PlaceOrder prices the cart, applies an optional discount code and then, in
// one transaction, takes the stock, counts the code usage and stores the order.
func (s *orderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	if req.CustomerName == "" || req.CustomerPhone == "" {
		return nil, apperror.Validation(apperror.MsgMissingContact)
	}
	quantities, productIDs, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	products, err := s.inventory.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("load products: %w", err))
	}
	byID := make(map[string]inventory.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]OrderItem, 0, len(productIDs))
	var subtotal float64
	for _, id := range productIDs {
		product, ok := byID[id]
		if !ok {
			return nil, apperror.NotFound(apperror.MsgProductNotFound)
		}
		qty := quantities[id]
		price, err := s.prices.UnitPrice(ctx, id, product.Price, qty)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		item := OrderItem{
			ProductID:   id,
			ProductName: product.Name,
			Quantity:    qty,
			Price:       price,
			CostPrice:   product.CostPrice,
		}
		subtotal += item.LineTotal()
		items = append(items, item)
	}
	subtotal = round2(subtotal)

	var discountCode *string
	var discountAmount float64
	if code := strings.TrimSpace(req.DiscountCode); code != "" {
		descriptor, err := s.discounts.Evaluate(ctx, discount.Request{Code: code, Subtotal: subtotal, Phone: req.CustomerPhone})
		if err != nil {
			return nil, err
		}
		discountCode = &descriptor.Code
		discountAmount = descriptor.DiscountAmount
	}

	now := s.now()
	order := Order{
		ID:              uuid.NewString(),
		OrderNo:         NewOrderNo(now),
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		Status:          StatusPending,
		Subtotal:        subtotal,
		DiscountCode:    discountCode,
		DiscountAmount:  discountAmount,
		TotalAmount:     round2(subtotal - discountAmount),
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		for _, item := range order.Items {
			ok, err := s.inventory.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock of %s: %w", item.ProductID, err)
			}
			if !ok {
				return apperror.Validation(apperror.MsgInsufficientStock + ": " + item.ProductName)
			}
		}
		if order.DiscountCode != nil {
			if err := s.discounts.RecordUsage(ctx, *order.DiscountCode); err != nil {
				return err
			}
		}
		if err := s.orders.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.transactionError(ctx, "place order "+order.OrderNo, err)
	}

	s.logger.InfoWithExtra(ctx, "Order placed", map[string]any{
		"orderId": order.ID, "orderNo": order.OrderNo, "totalAmount": order.TotalAmount,
	})
	s.publishEvent(ctx, events.OrderPlaced, order.ID, &events.OrderPlacedEvent{
		OrderID:       order.ID,
		OrderNo:       order.OrderNo,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		TotalAmount:   order.TotalAmount,
		ItemCount:     len(order.Items),
		Version:       1,
		TimeStamp:     now,
	})
	return &order, nil
}

func mergeItems(items []ItemRequest) (map[string]int, []string, error) {
	if len(items) == 0 {
		return nil, nil, apperror.Validation(apperror.MsgEmptyOrder)
	}
	quantities := make(map[string]int, len(items))
	var ids []string
	for _, item := range items {
		id := strings.TrimSpace(item.ProductID)
		if id == "" {
			return nil, nil, apperror.Validation(apperror.MsgInvalidRequest)
		}
		if item.Quantity <= 0 {
			return nil, nil, apperror.Validation(apperror.MsgInvalidQuantity)
		}
		if _, seen := quantities[id]; !seen {
			ids = append(ids, id)
		}
		quantities[id] += item.Quantity
	}
	return quantities, ids, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*Order, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("get order %s: %w", id, err))
	}
	if order == nil {
		return nil, apperror.NotFound(apperror.MsgOrderNotFound)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperror.Validation(apperror.MsgInvalidStatus)
	}
	filter.Normalize()
	orders, total, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal(fmt.Errorf("list orders: %w", err))
	}
	return orders, total, nil
}

func (s *orderService) ListCustomerOrders(ctx context.Context, customerID string) ([]Order, error) {
	orders, err := s.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("list orders of customer %s: %w", customerID, err))
	}
	return orders, nil
}

// TrackOrder finds a guest order. A phone mismatch looks the same as a missing
// order so order numbers cannot be probed.
func (s *orderService) TrackOrder(ctx context.Context, orderNo, phone string) (*Order, error) {
	orderNo = strings.ToUpper(strings.TrimSpace(orderNo))
	phone = strings.TrimSpace(phone)
	if orderNo == "" || phone == "" {
		return nil, apperror.Validation(apperror.MsgInvalidRequest)
	}
	order, err := s.orders.GetOrderByNumber(ctx, orderNo)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("track order %s: %w", orderNo, err))
	}
	if order == nil || order.CustomerPhone != phone {
		return nil, apperror.NotFound(apperror.MsgOrderNotFound)
	}
	return order, nil
}

// UpdateStatus is the admin transition. Cancelling an order that is already
// cancelled returns it unchanged without touching stock.
func (s *orderService) UpdateStatus(ctx context.Context, id string, target Status) (*Order, error) {
	if !target.Valid() {
		return nil, apperror.Validation(apperror.MsgInvalidStatus)
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == StatusCancelled && target == StatusCancelled {
		return order, nil
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, apperror.InvalidTransition(apperror.MsgInvalidTransition)
	}
	return s.transition(ctx, order, target)
}

func (s *orderService) CancelByCustomer(ctx context.Context, id, customerID string) (*Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(customerID) {
		return nil, apperror.Forbidden(apperror.MsgOrderNotOwned)
	}
	if order.Status != StatusPending {
		return nil, apperror.InvalidTransition(apperror.MsgCannotCancel)
	}
	return s.transition(ctx, order, StatusCancelled)
}

// transition writes the new status, restocking every item first when the
// order is being cancelled. Both happen in one transaction.
func (s *orderService) transition(ctx context.Context, order *Order, target Status) (*Order, error) {
	restock := target == StatusCancelled && order.Status != StatusCancelled

	err := s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		if restock {
			for _, item := range order.Items {
				if err := s.inventory.RestockProduct(ctx, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("restock %s: %w", item.ProductID, err)
				}
			}
		}
		ok, err := s.orders.UpdateStatus(ctx, order.ID, order.Status, target)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if !ok {
			return apperror.Conflict(apperror.MsgOrderChanged)
		}
		return nil
	})
	if err != nil {
		return nil, s.transactionError(ctx, fmt.Sprintf("order %s %s -> %s", order.ID, order.Status, target), err)
	}

	from := order.Status
	updated := *order
	updated.Status = target
	updated.UpdatedAt = s.now()

	s.logger.InfoWithExtra(ctx, "Order status changed", map[string]any{
		"orderId": order.ID, "from": from, "to": target, "restocked": restock,
	})
	s.publishEvent(ctx, events.OrderStatusChanged, order.ID, &events.OrderStatusChangedEvent{
		OrderID:       order.ID,
		OrderNo:       order.OrderNo,
		CustomerPhone: order.CustomerPhone,
		From:          string(from),
		To:            string(target),
		Restocked:     restock,
		Version:       1,
		TimeStamp:     updated.UpdatedAt,
	})
	return &updated, nil
}

// transactionError keeps classified errors and hides everything else behind
// an internal error.
func (s *orderService) transactionError(ctx context.Context, op string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	s.logger.Exception(ctx, "Transaction failed: "+op, err)
	return apperror.Internal(fmt.Errorf("%s: %w", op, err))
}

type validatable interface {
	Validate() error
}

// publishEvent publishes after the state change is committed. A failed publish
// never fails the request; the event is stored for replay instead.
func (s *orderService) publishEvent(ctx context.Context, topic, orderID string, event validatable) {
	if s.publisher == nil {
		return
	}
	if err := event.Validate(); err != nil {
		s.logger.Exception(ctx, "Event validation failed for "+topic, err)
		return
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		s.logger.Exception(ctx, "failed to marshal "+topic+" event", err)
		return
	}

	const maxRetries = 2
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = s.publisher.Publish(topic, eventJSON)
		if err == nil {
			break
		}
		s.logger.Warn(ctx, fmt.Sprintf("Publish %s failed for order %s, attempt %d/%d: %v",
			topic, orderID, attempt, maxRetries, err))

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * s.retryDelay)
		}
	}
	if err == nil {
		return
	}

	s.logger.Exception(ctx, fmt.Sprintf("failed to publish %s for order %s, storing for replay", topic, orderID), err)
	if storeErr := s.eventStore.StoreEventForReplay(ctx, orderID, topic, eventJSON); storeErr != nil {
		s.logger.Exception(ctx, "failed to store event for replay", storeErr)
	}
}

// ReplayFailedEvents republishes stored events oldest first, one batch per call.
func (s *orderService) ReplayFailedEvents(ctx context.Context) (*ReplayResult, error) {
	const batchSize = 100
	const maxRetries = 3

	if s.publisher == nil {
		return nil, apperror.Internal(errors.New("event publishing is disabled"))
	}

	stored, err := s.eventStore.GetUnreplayedEvents(ctx, batchSize)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to fetch unreplayed events: %w", err))
	}

	result := &ReplayResult{Total: len(stored)}
	if len(stored) == 0 {
		s.logger.Info(ctx, "No events to replay")
		return result, nil
	}

	s.logger.Info(ctx, fmt.Sprintf("Starting replay of %d failed events", len(stored)))

	for _, evt := range stored {
		if err := s.eventStore.MarkEventAsReplaying(ctx, evt.ID); err != nil {
			s.logger.Warn(ctx, fmt.Sprintf("Failed to mark event %s as replaying: %v", evt.ID, err))
		}

		var pubErr error
		for attempt := 1; attempt <= maxRetries; attempt++ {
			pubErr = s.publisher.Publish(evt.Topic, evt.EventData)
			if pubErr == nil {
				break
			}
			s.logger.Warn(ctx, fmt.Sprintf("Replay publish failed for event %s, attempt %d/%d: %v",
				evt.ID, attempt, maxRetries, pubErr))
			if attempt < maxRetries {
				time.Sleep(time.Duration(attempt) * s.retryDelay)
			}
		}

		if pubErr != nil {
			s.logger.Exception(ctx, fmt.Sprintf("Replay failed for event %s after %d retries", evt.ID, maxRetries), pubErr)
			if err := s.eventStore.MarkEventAsFailed(ctx, evt.ID); err != nil {
				s.logger.Warn(ctx, fmt.Sprintf("Failed to mark event %s as failed: %v", evt.ID, err))
			}
			result.Failed++
			continue
		}
		if err := s.eventStore.MarkEventAsCompleted(ctx, evt.ID); err != nil {
			s.logger.Warn(ctx, fmt.Sprintf("Failed to mark event %s as completed: %v", evt.ID, err))
		}
		result.Succeeded++
	}

	s.logger.Info(ctx, fmt.Sprintf("Replay completed: %d successful, %d failed", result.Succeeded, result.Failed))
	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
