// Package report aggregates orders into sales reports and dashboard figures.
package report

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/services/order/domain"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func ParsePeriod(s string) (Period, bool) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodDay, PeriodMonth, PeriodYear:
		return p, true
	case "":
		return PeriodMonth, true
	default:
		return "", false
	}
}

// Range returns the inclusive bounds of the period containing anchor, in loc.
func Range(p Period, anchor time.Time, loc *time.Location) (time.Time, time.Time) {
	a := anchor.In(loc)
	var start, next time.Time
	switch p {
	case PeriodDay:
		start = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, loc)
		next = start.AddDate(0, 0, 1)
	case PeriodYear:
		start = time.Date(a.Year(), time.January, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(1, 0, 0)
	default:
		start = time.Date(a.Year(), a.Month(), 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 1, 0)
	}
	return start, next.Add(-time.Nanosecond)
}

type Summary struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalOrders   int     `json:"totalOrders"`
	TotalCost     float64 `json:"totalCost"`
	TotalProfit   float64 `json:"totalProfit"`
	AvgOrderValue float64 `json:"avgOrderValue"`
}

type Bucket struct {
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

type SalesReport struct {
	Period    Period         `json:"period"`
	StartDate time.Time      `json:"startDate"`
	EndDate   time.Time      `json:"endDate"`
	Summary   Summary        `json:"summary"`
	ChartData []Bucket       `json:"chartData"`
	Orders    []domain.Order `json:"orders"`
}

// BuildSalesReport summarises orders, which must already be the non-cancelled
// orders inside [start, end]. Buckets are summed independently of the summary.
func BuildSalesReport(p Period, start, end time.Time, orders []domain.Order, loc *time.Location) SalesReport {
	var revenue, cost float64
	for _, o := range orders {
		revenue += o.TotalAmount
		for _, item := range o.Items {
			cost += item.CostPrice * float64(item.Quantity)
		}
	}

	summary := Summary{
		TotalRevenue: round2(revenue),
		TotalOrders:  len(orders),
		TotalCost:    round2(cost),
		TotalProfit:  round2(revenue - cost),
	}
	if len(orders) > 0 {
		summary.AvgOrderValue = round2(revenue / float64(len(orders)))
	}

	if orders == nil {
		orders = []domain.Order{}
	}
	return SalesReport{
		Period:    p,
		StartDate: start,
		EndDate:   end,
		Summary:   summary,
		ChartData: buckets(p, start, orders, loc),
		Orders:    orders,
	}
}

func buckets(p Period, start time.Time, orders []domain.Order, loc *time.Location) []Bucket {
	var chart []Bucket
	var index func(t time.Time) int

	switch p {
	case PeriodDay:
		chart = []Bucket{{Label: start.Format("2006-01-02")}}
		index = func(time.Time) int { return 0 }
	case PeriodYear:
		chart = make([]Bucket, 12)
		for m := range chart {
			chart[m].Label = time.Month(m + 1).String()[:3]
		}
		index = func(t time.Time) int { return int(t.Month()) - 1 }
	default:
		days := start.AddDate(0, 1, -1).Day()
		chart = make([]Bucket, days)
		for d := range chart {
			chart[d].Label = strconv.Itoa(d + 1)
		}
		index = func(t time.Time) int { return t.Day() - 1 }
	}

	for _, o := range orders {
		i := index(o.CreatedAt.In(loc))
		if i < 0 || i >= len(chart) {
			continue
		}
		chart[i].Revenue += o.TotalAmount
		chart[i].Orders++
	}
	for i := range chart {
		chart[i].Revenue = round2(chart[i].Revenue)
	}
	return chart
}

type TopProduct struct {
	ProductID    string  `json:"productId"`
	ProductName  string  `json:"productName"`
	QuantitySold int     `json:"quantitySold"`
	Revenue      float64 `json:"revenue"`
}

// TopProducts ranks products by quantity sold. Ties keep the order in which
// products first appear in orders.
func TopProducts(orders []domain.Order, n int) []TopProduct {
	var ranked []TopProduct
	index := map[string]int{}
	for _, o := range orders {
		for _, item := range o.Items {
			i, ok := index[item.ProductID]
			if !ok {
				i = len(ranked)
				index[item.ProductID] = i
				ranked = append(ranked, TopProduct{ProductID: item.ProductID, ProductName: item.ProductName})
			}
			ranked[i].QuantitySold += item.Quantity
			ranked[i].Revenue += item.LineTotal()
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QuantitySold > ranked[j].QuantitySold
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	for i := range ranked {
		ranked[i].Revenue = round2(ranked[i].Revenue)
	}
	if ranked == nil {
		ranked = []TopProduct{}
	}
	return ranked
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
