package models

import (
	"github.com/MEE-POONG/mapoo-sub001/src/services/inventory"
	"github.com/MEE-POONG/mapoo-sub001/src/services/wholesale"
)

type ProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	CostPrice   float64  `json:"costPrice"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Featured    bool     `json:"featured"`
}

func (r ProductRequest) ToProduct() inventory.Product {
	return inventory.Product{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		CostPrice:   r.CostPrice,
		Stock:       r.Stock,
		Category:    r.Category,
		Tags:        r.Tags,
		Featured:    r.Featured,
	}
}

type ProductList struct {
	Data    []inventory.Product `json:"data"`
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"perPage"`
}

type WholesaleRateRequest struct {
	MinQuantity int     `json:"minQuantity"`
	Price       float64 `json:"price"`
}

func (r WholesaleRateRequest) ToRate(productID string) wholesale.Rate {
	return wholesale.Rate{ProductID: productID, MinQuantity: r.MinQuantity, Price: r.Price}
}

type MessageResponse struct {
	Message string `json:"message"`
}
