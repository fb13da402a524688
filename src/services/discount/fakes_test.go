package discount

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu        sync.Mutex
	discounts map[string]*Discount
}

func newMemoryRepository(ds ...Discount) *memoryRepository {
	r := &memoryRepository{discounts: map[string]*Discount{}}
	for i := range ds {
		d := ds[i]
		r.discounts[d.ID] = &d
	}
	return r
}

func (r *memoryRepository) FindByCode(_ context.Context, code string) (*Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.discounts {
		if NormalizeCode(d.Code) == NormalizeCode(code) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.discounts[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryRepository) List(_ context.Context) ([]Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Discount{}
	for _, d := range r.discounts {
		out = append(out, *d)
	}
	return out, nil
}

func (r *memoryRepository) Create(ctx context.Context, d Discount) error {
	if existing, _ := r.FindByCode(ctx, d.Code); existing != nil {
		return ErrDuplicateCode
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discounts[d.ID] = &d
	return nil
}

// Update applies the patch through ApplyTo-equivalent field names used by the
// Mongo repository.
func (r *memoryRepository) Update(_ context.Context, id string, set, unset map[string]any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.discounts[id]
	if !ok {
		return false, nil
	}
	for k, v := range set {
		switch k {
		case "value":
			d.Value = v.(float64)
		case "active":
			d.Active = v.(bool)
		case "usage_limit":
			n := v.(int)
			d.UsageLimit = &n
		case "description":
			d.Description = v.(string)
		}
	}
	for k := range unset {
		switch k {
		case "usage_limit":
			d.UsageLimit = nil
		case "min_purchase":
			d.MinPurchase = nil
		}
	}
	return true, nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.discounts[id]; !ok {
		return false, nil
	}
	delete(r.discounts, id)
	return true, nil
}

func (r *memoryRepository) IncrementUsage(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.discounts {
		if NormalizeCode(d.Code) == NormalizeCode(code) {
			if d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit {
				return false, nil
			}
			d.UsedCount++
			return true, nil
		}
	}
	return false, nil
}

type fixedUsage struct {
	count int64
	calls int
}

func (f *fixedUsage) CountDiscountUsage(_ context.Context, _, _ string) (int64, error) {
	f.calls++
	return f.count, nil
}

func ptr[T any](v T) *T { return &v }
