package report

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/MEE-POONG/mapoo-sub001/src/services/order/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bangkok = mustLocation("Asia/Bangkok")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func orderAt(t time.Time, total float64, items ...domain.OrderItem) domain.Order {
	return domain.Order{ID: t.String(), Status: domain.StatusConfirmed, TotalAmount: total, Items: items, CreatedAt: t}
}

func TestRange(t *testing.T) {
	anchor := time.Date(2026, 2, 14, 15, 30, 0, 0, bangkok)

	start, end := Range(PeriodMonth, anchor, bangkok)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, bangkok), start)
	assert.Equal(t, time.Date(2026, 2, 28, 23, 59, 59, 999999999, bangkok), end)

	start, end = Range(PeriodDay, anchor, bangkok)
	assert.Equal(t, time.Date(2026, 2, 14, 0, 0, 0, 0, bangkok), start)
	assert.Equal(t, time.Date(2026, 2, 14, 23, 59, 59, 999999999, bangkok), end)

	start, end = Range(PeriodYear, anchor, bangkok)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, bangkok), start)
	assert.Equal(t, time.Date(2026, 12, 31, 23, 59, 59, 999999999, bangkok), end)
}

func TestRangeUsesConfiguredZone(t *testing.T) {
	// 20:00 UTC on Jan 31 is already Feb 1 in Bangkok.
	start, _ := Range(PeriodMonth, time.Date(2026, 1, 31, 20, 0, 0, 0, time.UTC), bangkok)
	assert.Equal(t, time.February, start.Month())
}

func TestMonthReport(t *testing.T) {
	start, end := Range(PeriodMonth, time.Date(2026, 3, 10, 0, 0, 0, 0, bangkok), bangkok)
	orders := []domain.Order{
		orderAt(time.Date(2026, 3, 1, 9, 0, 0, 0, bangkok), 100, domain.OrderItem{Quantity: 2, CostPrice: 20}),
		orderAt(time.Date(2026, 3, 15, 18, 0, 0, 0, bangkok), 200, domain.OrderItem{Quantity: 1, CostPrice: 110}),
	}

	r := BuildSalesReport(PeriodMonth, start, end, orders, bangkok)

	assert.Equal(t, 300.0, r.Summary.TotalRevenue)
	assert.Equal(t, 2, r.Summary.TotalOrders)
	assert.Equal(t, 150.0, r.Summary.TotalCost)
	assert.Equal(t, 150.0, r.Summary.TotalProfit)
	assert.Equal(t, 150.0, r.Summary.AvgOrderValue)

	require.Len(t, r.ChartData, 31)
	assert.Equal(t, Bucket{Label: "1", Revenue: 100, Orders: 1}, r.ChartData[0])
	assert.Equal(t, Bucket{Label: "15", Revenue: 200, Orders: 1}, r.ChartData[14])
	for i, b := range r.ChartData {
		if i == 0 || i == 14 {
			continue
		}
		assert.Zero(t, b.Revenue, b.Label)
		assert.Zero(t, b.Orders, b.Label)
	}
}

func TestEmptyReportHasNoDivisionByZero(t *testing.T) {
	start, end := Range(PeriodMonth, time.Date(2026, 2, 1, 0, 0, 0, 0, bangkok), bangkok)
	r := BuildSalesReport(PeriodMonth, start, end, nil, bangkok)

	assert.Zero(t, r.Summary.AvgOrderValue)
	assert.Zero(t, r.Summary.TotalRevenue)
	assert.Len(t, r.ChartData, 28)
	assert.NotNil(t, r.Orders)
}

func TestYearAndDayBuckets(t *testing.T) {
	start, end := Range(PeriodYear, time.Date(2026, 6, 1, 0, 0, 0, 0, bangkok), bangkok)
	orders := []domain.Order{
		orderAt(time.Date(2026, 1, 3, 0, 0, 0, 0, bangkok), 10),
		orderAt(time.Date(2026, 1, 20, 0, 0, 0, 0, bangkok), 15.5),
		orderAt(time.Date(2026, 12, 31, 23, 0, 0, 0, bangkok), 7),
	}
	r := BuildSalesReport(PeriodYear, start, end, orders, bangkok)
	require.Len(t, r.ChartData, 12)
	assert.Equal(t, Bucket{Label: "Jan", Revenue: 25.5, Orders: 2}, r.ChartData[0])
	assert.Equal(t, Bucket{Label: "Dec", Revenue: 7, Orders: 1}, r.ChartData[11])

	start, end = Range(PeriodDay, time.Date(2026, 6, 1, 12, 0, 0, 0, bangkok), bangkok)
	r = BuildSalesReport(PeriodDay, start, end, []domain.Order{orderAt(start.Add(time.Hour), 42)}, bangkok)
	assert.Equal(t, []Bucket{{Label: "2026-06-01", Revenue: 42, Orders: 1}}, r.ChartData)
}

func TestTopProductsIsStable(t *testing.T) {
	item := func(id string, qty int) domain.OrderItem {
		return domain.OrderItem{ProductID: id, ProductName: "name-" + id, Quantity: qty, Price: 10}
	}
	orders := []domain.Order{
		{Items: []domain.OrderItem{item("C", 2), item("A", 5)}},
		{Items: []domain.OrderItem{item("B", 2), item("D", 1), item("E", 2)}},
		{Items: []domain.OrderItem{item("F", 2), item("D", 1)}},
	}

	top := TopProducts(orders, 5)
	require.Len(t, top, 5)
	var ids []string
	for _, p := range top {
		ids = append(ids, p.ProductID)
	}
	assert.Equal(t, []string{"A", "C", "B", "D", "E"}, ids)
	assert.Equal(t, 50.0, top[0].Revenue)

	assert.Empty(t, TopProducts(nil, 5))
}

func TestParsePeriod(t *testing.T) {
	p, ok := ParsePeriod("YEAR")
	assert.True(t, ok)
	assert.Equal(t, PeriodYear, p)

	p, ok = ParsePeriod("")
	assert.True(t, ok)
	assert.Equal(t, PeriodMonth, p)

	_, ok = ParsePeriod("week")
	assert.False(t, ok)
}
