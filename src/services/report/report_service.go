package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"
	"github.com/MEE-POONG/mapoo-sub001/src/services/order/domain"
)

type OrderSource interface {
	FindSalesOrders(ctx context.Context, start, end time.Time) ([]domain.Order, error)
	CountByStatus(ctx context.Context, status domain.Status) (int64, error)
	ListCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error)
}

type ProductCounter interface {
	CountProducts(ctx context.Context) (int64, error)
	CountLowStockProducts(ctx context.Context, threshold int) (int64, error)
}

type DashboardStats struct {
	TotalRevenue     float64        `json:"totalRevenue"`
	TotalOrders      int            `json:"totalOrders"`
	TotalProducts    int64          `json:"totalProducts"`
	PendingOrders    int64          `json:"pendingOrders"`
	LowStockProducts int64          `json:"lowStockProducts"`
	TopProducts      []TopProduct   `json:"topProducts"`
	TodayOrders      []domain.Order `json:"todayOrders"`
}

type ReportService interface {
	SalesReport(ctx context.Context, period, date string) (*SalesReport, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}

type reportService struct {
	logger            log.Logger
	orders            OrderSource
	products          ProductCounter
	location          *time.Location
	lowStockThreshold int
	now               func() time.Time
}

func NewReportService(logger log.Logger, orders OrderSource, products ProductCounter, location *time.Location, lowStockThreshold int) ReportService {
	return &reportService{
		logger:            logger,
		orders:            orders,
		products:          products,
		location:          location,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

func (s *reportService) SalesReport(ctx context.Context, period, date string) (*SalesReport, error) {
	p, ok := ParsePeriod(period)
	if !ok {
		return nil, apperror.Validation(apperror.MsgInvalidPeriod)
	}
	anchor, err := s.parseAnchor(date)
	if err != nil {
		return nil, err
	}

	start, end := Range(p, anchor, s.location)
	orders, err := s.orders.FindSalesOrders(ctx, start, end)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("load sales orders: %w", err))
	}
	report := BuildSalesReport(p, start, end, orders, s.location)
	s.logger.InfoWithExtra(ctx, "Sales report generated", map[string]any{
		"period": p, "start": start, "end": end, "orders": report.Summary.TotalOrders,
	})
	return &report, nil
}

// parseAnchor accepts a calendar date or an RFC 3339 timestamp; empty means now.
func (s *reportService) parseAnchor(date string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return s.now(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", date, s.location); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t, nil
	}
	return time.Time{}, apperror.Validation(apperror.MsgInvalidDate)
}

func (s *reportService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	now := s.now()
	sales, err := s.orders.FindSalesOrders(ctx, time.Time{}, now)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("load sales orders: %w", err))
	}
	pending, err := s.orders.CountByStatus(ctx, domain.StatusPending)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("count pending orders: %w", err))
	}
	todayStart, todayEnd := Range(PeriodDay, now, s.location)
	today, err := s.orders.ListCreatedBetween(ctx, todayStart, todayEnd)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("load today's orders: %w", err))
	}
	products, err := s.products.CountProducts(ctx)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("count products: %w", err))
	}
	lowStock, err := s.products.CountLowStockProducts(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("count low stock products: %w", err))
	}

	var revenue float64
	for _, o := range sales {
		revenue += o.TotalAmount
	}
	if today == nil {
		today = []domain.Order{}
	}
	return &DashboardStats{
		TotalRevenue:     round2(revenue),
		TotalOrders:      len(sales),
		TotalProducts:    products,
		PendingOrders:    pending,
		LowStockProducts: lowStock,
		TopProducts:      TopProducts(sales, 5),
		TodayOrders:      today,
	}, nil
}
