package domain

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"
	"github.com/MEE-POONG/mapoo-sub001/src/services/discount"
	"github.com/MEE-POONG/mapoo-sub001/src/services/inventory"
)

var errStore = errors.New("store unavailable")

// memoryStore backs products and orders. Its transactor snapshots both and
// restores them when the callback fails.
type memoryStore struct {
	mu       sync.Mutex
	products map[string]inventory.Product
	orders   map[string]Order

	failRestockOn    string
	staleStatusWrite bool
}

func newMemoryStore(products ...inventory.Product) *memoryStore {
	s := &memoryStore{products: map[string]inventory.Product{}, orders: map[string]Order{}}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *memoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	products := make(map[string]inventory.Product, len(s.products))
	for k, v := range s.products {
		products[k] = v
	}
	orders := make(map[string]Order, len(s.orders))
	for k, v := range s.orders {
		orders[k] = v
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.products, s.orders = products, orders
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memoryStore) stock(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memoryStore) status(id string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id].Status
}

func (s *memoryStore) GetProductsByIDs(_ context.Context, ids []string) ([]inventory.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []inventory.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memoryStore) DecrementStock(_ context.Context, id string, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	s.products[id] = p
	return true, nil
}

func (s *memoryStore) RestockProduct(_ context.Context, id string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.failRestockOn {
		return errStore
	}
	p, ok := s.products[id]
	if !ok {
		return inventory.ErrProductNotFound
	}
	p.Stock += qty
	s.products[id] = p
	return nil
}

func (s *memoryStore) CreateOrder(_ context.Context, order Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return nil
}

func (s *memoryStore) GetOrderByID(_ context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *memoryStore) GetOrderByNumber(_ context.Context, orderNo string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderNo == orderNo {
			return &o, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) UpdateStatus(_ context.Context, id string, from, to Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != from || s.staleStatusWrite {
		return false, nil
	}
	o.Status = to
	s.orders[id] = o
	return true, nil
}

func (s *memoryStore) ListOrders(_ context.Context, filter OrderFilter) ([]Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if filter.Status == "" || o.Status == filter.Status {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (s *memoryStore) ListByCustomer(_ context.Context, customerID string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.OwnedBy(customerID) {
			out = append(out, o)
		}
	}
	return out, nil
}

type memoryEvents struct {
	events []StoredEvent
}

func (m *memoryEvents) StoreEventForReplay(_ context.Context, orderID, topic string, data []byte) error {
	m.events = append(m.events, StoredEvent{ID: orderID + ":" + topic, OrderID: orderID, Topic: topic, EventData: data, Status: "failed"})
	return nil
}

func (m *memoryEvents) GetUnreplayedEvents(_ context.Context, limit int64) ([]StoredEvent, error) {
	var out []StoredEvent
	for _, e := range m.events {
		if !e.Replayed && int64(len(out)) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryEvents) mark(id, status string, replayed bool) error {
	for i := range m.events {
		if m.events[i].ID == id {
			m.events[i].Status = status
			m.events[i].Replayed = replayed
		}
	}
	return nil
}

func (m *memoryEvents) MarkEventAsReplaying(_ context.Context, id string) error {
	return m.mark(id, "replaying", false)
}

func (m *memoryEvents) MarkEventAsCompleted(_ context.Context, id string) error {
	return m.mark(id, "completed", true)
}

func (m *memoryEvents) MarkEventAsFailed(_ context.Context, id string) error {
	return m.mark(id, "failed", false)
}

type stubDiscounts struct {
	descriptor *discount.Descriptor
	err        error
	recorded   []string
}

func (d *stubDiscounts) Evaluate(_ context.Context, req discount.Request) (*discount.Descriptor, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := *d.descriptor
	out.DiscountAmount = discount.AmountFor(out.Type, out.Value, req.Subtotal)
	return &out, nil
}

func (d *stubDiscounts) RecordUsage(_ context.Context, code string) error {
	d.recorded = append(d.recorded, code)
	return nil
}

// basePrices charges the catalog price, with an optional fixed bulk price.
type basePrices struct {
	bulk map[string]float64
}

func (b basePrices) UnitPrice(_ context.Context, productID string, base float64, qty int) (float64, error) {
	if p, ok := b.bulk[productID]; ok && qty >= 10 {
		return p, nil
	}
	return base, nil
}

type topicBody struct {
	topic string
	body  []byte
}

type recordingPublisher struct {
	failures  int
	published []topicBody
}

func (p *recordingPublisher) Publish(topic string, body []byte) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unreachable")
	}
	p.published = append(p.published, topicBody{topic, body})
	return nil
}

type fixture struct {
	store     *memoryStore
	events    *memoryEvents
	discounts *stubDiscounts
	publisher *recordingPublisher
	service   *orderService
}

func newFixture(products ...inventory.Product) *fixture {
	f := &fixture{
		store:     newMemoryStore(products...),
		events:    &memoryEvents{},
		discounts: &stubDiscounts{},
		publisher: &recordingPublisher{},
	}
	svc := NewOrderService(log.NewLoggerWithOutput(io.Discard, log.InfoLevel),
		f.store, f.store, f.events, f.store, f.discounts, basePrices{}, f.publisher).(*orderService)
	svc.retryDelay = 0
	f.service = svc
	return f
}

func (f *fixture) seedOrder(o Order) Order {
	f.store.orders[o.ID] = o
	return o
}

func strPtr(s string) *string { return &s }
