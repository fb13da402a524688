package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {StatusCancelled},
	StatusCancelled: {},
}

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether s may move to next. Staying in the same
// status is not a transition.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends the delivery lifecycle. An admin may still
// cancel a delivered order.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type Order struct {
	ID              string      `json:"id"`
	OrderNo         string      `json:"orderNo"`
	CustomerID      *string     `json:"customerId"`
	CustomerName    string      `json:"customerName"`
	CustomerPhone   string      `json:"customerPhone"`
	ShippingAddress string      `json:"shippingAddress"`
	Status          Status      `json:"status"`
	Subtotal        float64     `json:"subtotal"`
	DiscountCode    *string     `json:"discountCode"`
	DiscountAmount  float64     `json:"discountAmount"`
	TotalAmount     float64     `json:"totalAmount"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// OrderItem is a line frozen at checkout; later product edits do not touch it.
type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	CostPrice   float64 `json:"costPrice"`
}

func (i OrderItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

func (o *Order) OwnedBy(customerID string) bool {
	return o.CustomerID != nil && *o.CustomerID == customerID
}

// NewOrderNo builds a human readable order number, ORD-YYYYMMDD-XXXXXX.
func NewOrderNo(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// PlaceOrderRequest is a checkout as submitted by the storefront.
type PlaceOrderRequest struct {
	CustomerID      *string
	CustomerName    string
	CustomerPhone   string
	ShippingAddress string
	DiscountCode    string
	Items           []ItemRequest
}

type ItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type OrderFilter struct {
	Status  Status
	Query   string
	Page    int
	PerPage int
}

func (f *OrderFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}
	f.Query = strings.TrimSpace(f.Query)
}

// StoredEvent is an outgoing event kept for replay after a failed publish.
type StoredEvent struct {
	ID         string
	OrderID    string
	Topic      string
	EventData  []byte
	CreatedAt  time.Time
	Replayed   bool
	ReplayedAt *time.Time
	Status     string
}
