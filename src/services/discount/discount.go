package discount

import (
	"math"
	"strings"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/services/patch"
)

type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

func (t Type) Valid() bool {
	return t == TypePercentage || t == TypeFixed
}

// Rejection reasons, evaluated in this order.
const (
	ReasonNotFound            = "NOT_FOUND"
	ReasonDisabled            = "DISABLED"
	ReasonBelowMinimum        = "BELOW_MINIMUM"
	ReasonGlobalLimitReached  = "GLOBAL_LIMIT_REACHED"
	ReasonPerUserLimitReached = "PER_USER_LIMIT_REACHED"
	ReasonNotYetActive        = "NOT_YET_ACTIVE"
	ReasonExpired             = "EXPIRED"
)

type Discount struct {
	ID           string     `bson:"id" json:"id"`
	Code         string     `bson:"code" json:"code"`
	Description  string     `bson:"description,omitempty" json:"description,omitempty"`
	Type         Type       `bson:"type" json:"type"`
	Value        float64    `bson:"value" json:"value"`
	MinPurchase  *float64   `bson:"min_purchase,omitempty" json:"minPurchase,omitempty"`
	UsageLimit   *int       `bson:"usage_limit,omitempty" json:"usageLimit,omitempty"`
	UsedCount    int        `bson:"used_count" json:"usedCount"`
	PerUserLimit *int       `bson:"per_user_limit,omitempty" json:"perUserLimit,omitempty"`
	StartDate    *time.Time `bson:"start_date,omitempty" json:"startDate,omitempty"`
	EndDate      *time.Time `bson:"end_date,omitempty" json:"endDate,omitempty"`
	Active       bool       `bson:"active" json:"active"`
	CreatedAt    time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updatedAt"`
}

// NormalizeCode trims and upper-cases a code; codes compare case-insensitively.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AmountFor returns the money taken off subtotal, never more than subtotal.
func AmountFor(t Type, value, subtotal float64) float64 {
	var amount float64
	switch t {
	case TypePercentage:
		amount = subtotal * value / 100
	case TypeFixed:
		amount = value
	}
	amount = math.Round(amount*100) / 100
	if amount > subtotal {
		return subtotal
	}
	if amount < 0 {
		return 0
	}
	return amount
}

func (d *Discount) Validate() error {
	invalid := apperror.Validation(apperror.MsgDiscountInvalid)
	switch {
	case d.Code == "":
		return invalid
	case !d.Type.Valid():
		return invalid
	case d.Value <= 0:
		return invalid
	case d.Type == TypePercentage && d.Value > 100:
		return invalid
	case d.MinPurchase != nil && *d.MinPurchase < 0:
		return invalid
	case d.UsageLimit != nil && *d.UsageLimit <= 0:
		return invalid
	case d.PerUserLimit != nil && *d.PerUserLimit <= 0:
		return invalid
	case d.StartDate != nil && d.EndDate != nil && d.EndDate.Before(*d.StartDate):
		return invalid
	}
	return nil
}

// Request is the purchase context a code is checked against.
type Request struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
	Phone    string  `json:"phone"`
}

// Descriptor is what callers learn about a valid code. Usage counters and the
// internal id stay private.
type Descriptor struct {
	Code           string   `json:"code"`
	Type           Type     `json:"discountType"`
	Value          float64  `json:"discountValue"`
	Description    string   `json:"description,omitempty"`
	MinPurchase    *float64 `json:"minPurchase,omitempty"`
	PerUserLimit   *int     `json:"perUserLimit,omitempty"`
	DiscountAmount float64  `json:"discountAmount"`
}

// Patch updates a discount. The code itself is immutable.
type Patch struct {
	Description  patch.Optional[string]    `json:"description"`
	Type         patch.Optional[Type]      `json:"type"`
	Value        patch.Optional[float64]   `json:"value"`
	MinPurchase  patch.Optional[float64]   `json:"minPurchase"`
	UsageLimit   patch.Optional[int]       `json:"usageLimit"`
	PerUserLimit patch.Optional[int]       `json:"perUserLimit"`
	StartDate    patch.Optional[time.Time] `json:"startDate"`
	EndDate      patch.Optional[time.Time] `json:"endDate"`
	Active       patch.Optional[bool]      `json:"active"`
}

// ApplyTo returns a copy of d with the patch applied, used to validate the
// result before anything is written.
func (p Patch) ApplyTo(d Discount) Discount {
	if p.Description.Set {
		d.Description = p.Description.Value
	}
	if p.Type.Present() {
		d.Type = p.Type.Value
	}
	if p.Value.Present() {
		d.Value = p.Value.Value
	}
	d.MinPurchase = applyPtr(p.MinPurchase, d.MinPurchase)
	d.UsageLimit = applyPtr(p.UsageLimit, d.UsageLimit)
	d.PerUserLimit = applyPtr(p.PerUserLimit, d.PerUserLimit)
	d.StartDate = applyPtr(p.StartDate, d.StartDate)
	d.EndDate = applyPtr(p.EndDate, d.EndDate)
	if p.Active.Present() {
		d.Active = p.Active.Value
	}
	return d
}

func (p Patch) Updates() (map[string]any, map[string]any) {
	set, unset := map[string]any{}, map[string]any{}
	p.Description.Apply("description", set, unset, true)
	p.Type.Apply("type", set, unset, false)
	p.Value.Apply("value", set, unset, false)
	p.MinPurchase.Apply("min_purchase", set, unset, true)
	p.UsageLimit.Apply("usage_limit", set, unset, true)
	p.PerUserLimit.Apply("per_user_limit", set, unset, true)
	p.StartDate.Apply("start_date", set, unset, true)
	p.EndDate.Apply("end_date", set, unset, true)
	p.Active.Apply("active", set, unset, false)
	return set, unset
}

func applyPtr[T any](o patch.Optional[T], current *T) *T {
	switch {
	case !o.Set:
		return current
	case o.Null:
		return nil
	default:
		v := o.Value
		return &v
	}
}
