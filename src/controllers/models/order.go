package models

import "github.com/MEE-POONG/mapoo-sub001/src/services/order/domain"

type CheckoutRequest struct {
	CustomerName    string               `json:"customerName"`
	CustomerPhone   string               `json:"customerPhone"`
	ShippingAddress string               `json:"shippingAddress"`
	DiscountCode    string               `json:"discountCode"`
	Items           []domain.ItemRequest `json:"items"`
}

func (r CheckoutRequest) ToDomain(customerID string) domain.PlaceOrderRequest {
	req := domain.PlaceOrderRequest{
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		ShippingAddress: r.ShippingAddress,
		DiscountCode:    r.DiscountCode,
		Items:           r.Items,
	}
	if customerID != "" {
		req.CustomerID = &customerID
	}
	return req
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type OrderList struct {
	Data    []domain.Order `json:"data"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
}

type CancelResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}
