package models

import (
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/services/discount"
)

type DiscountRequest struct {
	Code         string     `json:"code"`
	Description  string     `json:"description"`
	Type         string     `json:"type"`
	Value        float64    `json:"value"`
	MinPurchase  *float64   `json:"minPurchase"`
	UsageLimit   *int       `json:"usageLimit"`
	PerUserLimit *int       `json:"perUserLimit"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	Active       *bool      `json:"active"`
}

// ToDiscount builds a new discount; codes are active unless stated otherwise.
func (r DiscountRequest) ToDiscount() discount.Discount {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return discount.Discount{
		Code:         r.Code,
		Description:  r.Description,
		Type:         discount.Type(r.Type),
		Value:        r.Value,
		MinPurchase:  r.MinPurchase,
		UsageLimit:   r.UsageLimit,
		PerUserLimit: r.PerUserLimit,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		Active:       active,
	}
}
