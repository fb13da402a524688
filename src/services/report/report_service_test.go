package report

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"
	"github.com/MEE-POONG/mapoo-sub001/src/services/order/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryOrders struct {
	orders []domain.Order
}

func (m *memoryOrders) FindSalesOrders(_ context.Context, start, end time.Time) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if o.Status != domain.StatusCancelled && !o.CreatedAt.Before(start) && !o.CreatedAt.After(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memoryOrders) CountByStatus(_ context.Context, status domain.Status) (int64, error) {
	var n int64
	for _, o := range m.orders {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memoryOrders) ListCreatedBetween(_ context.Context, start, end time.Time) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if !o.CreatedAt.Before(start) && !o.CreatedAt.After(end) {
			out = append(out, o)
		}
	}
	return out, nil
}

type fixedProducts struct{ total, low int64 }

func (f fixedProducts) CountProducts(context.Context) (int64, error) { return f.total, nil }
func (f fixedProducts) CountLowStockProducts(_ context.Context, threshold int) (int64, error) {
	return f.low, nil
}

func newTestReportService(orders ...domain.Order) *reportService {
	svc := NewReportService(log.NewLoggerWithOutput(io.Discard, log.InfoLevel),
		&memoryOrders{orders: orders}, fixedProducts{total: 12, low: 3}, bangkok, 10).(*reportService)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 20, 0, 0, 0, bangkok) }
	return svc
}

func TestSalesReportSkipsCancelledOrders(t *testing.T) {
	cancelled := orderAt(time.Date(2026, 3, 2, 0, 0, 0, 0, bangkok), 999)
	cancelled.Status = domain.StatusCancelled
	svc := newTestReportService(
		orderAt(time.Date(2026, 3, 1, 0, 0, 0, 0, bangkok), 100),
		cancelled,
		orderAt(time.Date(2026, 3, 15, 0, 0, 0, 0, bangkok), 200),
		orderAt(time.Date(2026, 4, 1, 0, 0, 0, 0, bangkok), 50),
	)

	r, err := svc.SalesReport(context.Background(), "month", "2026-03-20")
	require.NoError(t, err)
	assert.Equal(t, 300.0, r.Summary.TotalRevenue)
	assert.Equal(t, 2, r.Summary.TotalOrders)
	assert.Len(t, r.Orders, 2)
}

func TestSalesReportInputValidation(t *testing.T) {
	svc := newTestReportService()
	_, err := svc.SalesReport(context.Background(), "week", "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = svc.SalesReport(context.Background(), "day", "15/03/2026")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	r, err := svc.SalesReport(context.Background(), "day", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", r.ChartData[0].Label)
}

func TestDashboardStats(t *testing.T) {
	item := domain.OrderItem{ProductID: "P1", ProductName: "น้ำพริกเผา", Quantity: 2, Price: 50}
	pending := orderAt(time.Date(2026, 3, 15, 10, 0, 0, 0, bangkok), 100, item)
	pending.Status = domain.StatusPending
	old := orderAt(time.Date(2026, 1, 5, 10, 0, 0, 0, bangkok), 80, item)
	cancelledToday := orderAt(time.Date(2026, 3, 15, 11, 0, 0, 0, bangkok), 500, item)
	cancelledToday.Status = domain.StatusCancelled

	stats, err := newTestReportService(pending, old, cancelledToday).DashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 180.0, stats.TotalRevenue)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, int64(1), stats.PendingOrders)
	assert.Equal(t, int64(12), stats.TotalProducts)
	assert.Equal(t, int64(3), stats.LowStockProducts)
	assert.Len(t, stats.TodayOrders, 2)
	require.Len(t, stats.TopProducts, 1)
	assert.Equal(t, 4, stats.TopProducts[0].QuantitySold)
}
