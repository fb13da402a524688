package inventory

import (
	"strings"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/services/patch"
)

type Product struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64   `bson:"price" json:"price"`
	CostPrice   float64   `bson:"cost_price" json:"costPrice"`
	Stock       int       `bson:"stock" json:"stock"`
	Category    string    `bson:"category,omitempty" json:"category,omitempty"`
	Tags        []string  `bson:"tags,omitempty" json:"tags,omitempty"`
	Featured    bool      `bson:"featured" json:"featured"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.Validation(apperror.MsgProductName)
	}
	if p.Price < 0 || p.CostPrice < 0 || p.Stock < 0 {
		return apperror.Validation(apperror.MsgNegativeValue)
	}
	return nil
}

// ProductPatch is a partial update. Absent fields are left untouched; only the
// optional text fields may be cleared with null.
type ProductPatch struct {
	Name        patch.Optional[string]   `json:"name"`
	Description patch.Optional[string]   `json:"description"`
	Price       patch.Optional[float64]  `json:"price"`
	CostPrice   patch.Optional[float64]  `json:"costPrice"`
	Stock       patch.Optional[int]      `json:"stock"`
	Category    patch.Optional[string]   `json:"category"`
	Tags        patch.Optional[[]string] `json:"tags"`
	Featured    patch.Optional[bool]     `json:"featured"`
}

func (p ProductPatch) Validate() error {
	if p.Name.Set && strings.TrimSpace(p.Name.Value) == "" {
		return apperror.Validation(apperror.MsgProductName)
	}
	if (p.Price.Present() && p.Price.Value < 0) ||
		(p.CostPrice.Present() && p.CostPrice.Value < 0) ||
		(p.Stock.Present() && p.Stock.Value < 0) {
		return apperror.Validation(apperror.MsgNegativeValue)
	}
	return nil
}

// Updates splits the patch into $set and $unset documents.
func (p ProductPatch) Updates() (map[string]any, map[string]any) {
	set, unset := map[string]any{}, map[string]any{}
	if p.Name.Present() {
		set["name"] = strings.TrimSpace(p.Name.Value)
	}
	p.Description.Apply("description", set, unset, true)
	p.Price.Apply("price", set, unset, false)
	p.CostPrice.Apply("cost_price", set, unset, false)
	p.Stock.Apply("stock", set, unset, false)
	p.Category.Apply("category", set, unset, true)
	p.Tags.Apply("tags", set, unset, true)
	p.Featured.Apply("featured", set, unset, false)
	return set, unset
}

type ProductFilter struct {
	Query    string
	Category string
	Featured *bool
	Page     int
	PerPage  int
}

func (f *ProductFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 200 {
		f.PerPage = 20
	}
}
