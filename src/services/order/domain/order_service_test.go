package domain

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/services/discount"
	"github.com/MEE-POONG/mapoo-sub001/src/services/events"
	"github.com/MEE-POONG/mapoo-sub001/src/services/inventory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOrder(id string, customerID *string, items ...OrderItem) Order {
	return Order{
		ID:            id,
		OrderNo:       "ORD-20260301-" + strings.ToUpper(id),
		CustomerID:    customerID,
		CustomerName:  "สมชาย",
		CustomerPhone: "0812345678",
		Status:        StatusPending,
		Items:         items,
		CreatedAt:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestCancelRestocksEveryItem(t *testing.T) {
	f := newFixture(inventory.Product{ID: "P1", Stock: 5})
	f.seedOrder(pendingOrder("o1", nil, OrderItem{ProductID: "P1", Quantity: 3, Price: 100}))

	got, err := f.service.UpdateStatus(context.Background(), "o1", StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, 8, f.store.stock("P1"))
	assert.Equal(t, StatusCancelled, f.store.status("o1"))

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.OrderStatusChanged, f.publisher.published[0].topic)
	var evt events.OrderStatusChangedEvent
	require.NoError(t, json.Unmarshal(f.publisher.published[0].body, &evt))
	assert.Equal(t, "PENDING", evt.From)
	assert.Equal(t, "CANCELLED", evt.To)
	assert.True(t, evt.Restocked)
}

func TestCancelTwiceRestocksOnce(t *testing.T) {
	f := newFixture(inventory.Product{ID: "P1", Stock: 5}, inventory.Product{ID: "P2", Stock: 0})
	f.seedOrder(pendingOrder("o1", nil,
		OrderItem{ProductID: "P1", Quantity: 3},
		OrderItem{ProductID: "P2", Quantity: 4},
	))
	ctx := context.Background()

	_, err := f.service.UpdateStatus(ctx, "o1", StatusCancelled)
	require.NoError(t, err)
	again, err := f.service.UpdateStatus(ctx, "o1", StatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, again.Status)
	assert.Equal(t, 8, f.store.stock("P1"))
	assert.Equal(t, 4, f.store.stock("P2"))
	assert.Len(t, f.publisher.published, 1)
}

func TestRestockFailureLeavesNothingBehind(t *testing.T) {
	f := newFixture(inventory.Product{ID: "P1", Stock: 5}, inventory.Product{ID: "P2", Stock: 1})
	f.seedOrder(pendingOrder("o1", nil,
		OrderItem{ProductID: "P1", Quantity: 2},
		OrderItem{ProductID: "P2", Quantity: 1},
	))
	f.store.failRestockOn = "P2"

	_, err := f.service.UpdateStatus(context.Background(), "o1", StatusCancelled)
	assert.True(t, apperror.Is(err, apperror.KindInternal))
	assert.Equal(t, 5, f.store.stock("P1"))
	assert.Equal(t, 1, f.store.stock("P2"))
	assert.Equal(t, StatusPending, f.store.status("o1"))
	assert.Empty(t, f.publisher.published)
}

func TestConcurrentStatusChangeRollsBackRestock(t *testing.T) {
	f := newFixture(inventory.Product{ID: "P1", Stock: 5})
	f.seedOrder(pendingOrder("o1", nil, OrderItem{ProductID: "P1", Quantity: 3}))
	f.store.staleStatusWrite = true

	_, err := f.service.UpdateStatus(context.Background(), "o1", StatusCancelled)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, 5, f.store.stock("P1"))
}

func TestAdminTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusPending, false},
		{StatusDelivered, StatusCancelled, true},
		{StatusDelivered, StatusShipped, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			f := newFixture(inventory.Product{ID: "P1", Stock: 1})
			o := pendingOrder("o1", nil, OrderItem{ProductID: "P1", Quantity: 2})
			o.Status = tc.from
			f.seedOrder(o)

			got, err := f.service.UpdateStatus(context.Background(), "o1", tc.to)
			if !tc.ok {
				assert.True(t, apperror.Is(err, apperror.KindInvalidTransition))
				assert.Equal(t, tc.from, f.store.status("o1"))
				assert.Equal(t, 1, f.store.stock("P1"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.to, got.Status)
			if tc.to == StatusCancelled {
				assert.Equal(t, 3, f.store.stock("P1"))
			} else {
				assert.Equal(t, 1, f.store.stock("P1"))
			}
		})
	}
}

func TestAdminCancelOfDeliveredOrderRestocks(t *testing.T) {
	f := newFixture(inventory.Product{ID: "P1", Stock: 5})
	o := pendingOrder("o1", nil, OrderItem{ProductID: "P1", Quantity: 3})
	o.Status = StatusDelivered
	f.seedOrder(o)

	got, err := f.service.UpdateStatus(context.Background(), "o1", StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, StatusCancelled, f.store.status("o1"))
	assert.Equal(t, 8, f.store.stock("P1"))
}

func TestUpdateStatusRejectsUnknownTargetsAndOrders(t *testing.T) {
	f := newFixture()
	_, err := f.service.UpdateStatus(context.Background(), "o1", Status("LOST"))
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = f.service.UpdateStatus(context.Background(), "missing", StatusConfirmed)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCancelByCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("owner cancels pending order", func(t *testing.T) {
		f := newFixture(inventory.Product{ID: "P1", Stock: 5})
		f.seedOrder(pendingOrder("o1", strPtr("u1"), OrderItem{ProductID: "P1", Quantity: 3}))

		got, err := f.service.CancelByCustomer(ctx, "o1", "u1")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
		assert.Equal(t, 8, f.store.stock("P1"))
	})

	t.Run("confirmed or later is rejected", func(t *testing.T) {
		for _, st := range []Status{StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled} {
			f := newFixture(inventory.Product{ID: "P1", Stock: 5})
			o := pendingOrder("o1", strPtr("u1"), OrderItem{ProductID: "P1", Quantity: 3})
			o.Status = st
			f.seedOrder(o)

			_, err := f.service.CancelByCustomer(ctx, "o1", "u1")
			assert.True(t, apperror.Is(err, apperror.KindInvalidTransition), st)
			assert.Equal(t, 5, f.store.stock("P1"))
			assert.Equal(t, st, f.store.status("o1"))
		}
	})

	t.Run("someone else's order", func(t *testing.T) {
		f := newFixture(inventory.Product{ID: "P1", Stock: 5})
		f.seedOrder(pendingOrder("o1", strPtr("u1"), OrderItem{ProductID: "P1", Quantity: 3}))
		f.seedOrder(pendingOrder("guest", nil, OrderItem{ProductID: "P1", Quantity: 1}))

		_, err := f.service.CancelByCustomer(ctx, "o1", "u2")
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
		_, err = f.service.CancelByCustomer(ctx, "guest", "u2")
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
		assert.Equal(t, 5, f.store.stock("P1"))
	})

	t.Run("missing order", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.CancelByCustomer(ctx, "nope", "u1")
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})
}

func TestPlaceOrderTakesStockAndPricesItems(t *testing.T) {
	f := newFixture(
		inventory.Product{ID: "P1", Name: "น้ำพริกเผา", Price: 50, CostPrice: 30, Stock: 20},
		inventory.Product{ID: "P2", Name: "กุนเชียง", Price: 120, CostPrice: 80, Stock: 3},
	)
	f.service.prices = basePrices{bulk: map[string]float64{"P1": 45}}

	order, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:    strPtr("u1"),
		CustomerName:  " สมหญิง ",
		CustomerPhone: "0891112222",
		Items: []ItemRequest{
			{ProductID: "P1", Quantity: 6},
			{ProductID: "P2", Quantity: 1},
			{ProductID: "P1", Quantity: 4},
		},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{6}$`, order.OrderNo)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, "สมหญิง", order.CustomerName)
	require.Len(t, order.Items, 2)
	assert.Equal(t, OrderItem{ProductID: "P1", ProductName: "น้ำพริกเผา", Quantity: 10, Price: 45, CostPrice: 30}, order.Items[0])
	assert.Equal(t, 570.0, order.Subtotal)
	assert.Equal(t, 570.0, order.TotalAmount)
	assert.Nil(t, order.DiscountCode)

	assert.Equal(t, 10, f.store.stock("P1"))
	assert.Equal(t, 2, f.store.stock("P2"))
	stored, err := f.store.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.OrderPlaced, f.publisher.published[0].topic)
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(
		inventory.Product{ID: "P1", Name: "A", Price: 10, Stock: 5},
		inventory.Product{ID: "P2", Name: "B", Price: 10, Stock: 1},
	)
	_, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerName: "a", CustomerPhone: "1",
		Items: []ItemRequest{{ProductID: "P1", Quantity: 2}, {ProductID: "P2", Quantity: 2}},
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.Equal(t, 5, f.store.stock("P1"))
	assert.Equal(t, 1, f.store.stock("P2"))
	assert.Empty(t, f.store.orders)
}

func TestPlaceOrderAppliesDiscount(t *testing.T) {
	f := newFixture(inventory.Product{ID: "P1", Name: "A", Price: 300, Stock: 5})
	f.discounts.descriptor = &discount.Descriptor{Code: "SAVE10", Type: discount.TypePercentage, Value: 10}

	order, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerName: "a", CustomerPhone: "1", DiscountCode: "save10",
		Items: []ItemRequest{{ProductID: "P1", Quantity: 2}},
	})
	require.NoError(t, err)
	require.NotNil(t, order.DiscountCode)
	assert.Equal(t, "SAVE10", *order.DiscountCode)
	assert.Equal(t, 60.0, order.DiscountAmount)
	assert.Equal(t, 540.0, order.TotalAmount)
	assert.Equal(t, []string{"SAVE10"}, f.discounts.recorded)
}

func TestPlaceOrderPassesDiscountRejectionThrough(t *testing.T) {
	f := newFixture(inventory.Product{ID: "P1", Name: "A", Price: 300, Stock: 5})
	f.discounts.err = apperror.Validation("expired").WithReason(discount.ReasonExpired)

	_, err := f.service.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerName: "a", CustomerPhone: "1", DiscountCode: "OLD",
		Items: []ItemRequest{{ProductID: "P1", Quantity: 1}},
	})
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, discount.ReasonExpired, appErr.Reason)
	assert.Equal(t, 5, f.store.stock("P1"))
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(inventory.Product{ID: "P1", Price: 1, Stock: 5})
	ctx := context.Background()

	_, err := f.service.PlaceOrder(ctx, PlaceOrderRequest{CustomerPhone: "1", Items: []ItemRequest{{ProductID: "P1", Quantity: 1}}})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = f.service.PlaceOrder(ctx, PlaceOrderRequest{CustomerName: "a", CustomerPhone: "1"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = f.service.PlaceOrder(ctx, PlaceOrderRequest{CustomerName: "a", CustomerPhone: "1", Items: []ItemRequest{{ProductID: "P1", Quantity: 0}}})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = f.service.PlaceOrder(ctx, PlaceOrderRequest{CustomerName: "a", CustomerPhone: "1", Items: []ItemRequest{{ProductID: "P9", Quantity: 1}}})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestFailedPublishIsStoredAndReplayed(t *testing.T) {
	f := newFixture(inventory.Product{ID: "P1", Stock: 5})
	f.seedOrder(pendingOrder("o1", nil, OrderItem{ProductID: "P1", Quantity: 1}))
	f.publisher.failures = 2

	_, err := f.service.UpdateStatus(context.Background(), "o1", StatusConfirmed)
	require.NoError(t, err)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.OrderStatusChanged, f.events.events[0].Topic)

	result, err := f.service.ReplayFailedEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ReplayResult{Total: 1, Succeeded: 1}, result)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, events.OrderStatusChanged, f.publisher.published[0].topic)
	assert.True(t, f.events.events[0].Replayed)

	result, err = f.service.ReplayFailedEvents(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Total)
}

func TestReplayCountsFailures(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.events.StoreEventForReplay(context.Background(), "o1", events.OrderPlaced, []byte(`{}`)))
	f.publisher.failures = 3

	result, err := f.service.ReplayFailedEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "failed", f.events.events[0].Status)
}

func TestTrackOrderRequiresMatchingPhone(t *testing.T) {
	f := newFixture()
	o := f.seedOrder(pendingOrder("o1", nil))
	ctx := context.Background()

	got, err := f.service.TrackOrder(ctx, " "+o.OrderNo+" ", "0812345678")
	require.NoError(t, err)
	assert.Equal(t, "o1", got.ID)

	_, err = f.service.TrackOrder(ctx, o.OrderNo, "0800000000")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = f.service.TrackOrder(ctx, "", "0812345678")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestListOrdersRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	_, _, err := f.service.ListOrders(context.Background(), OrderFilter{Status: "LOST"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}
