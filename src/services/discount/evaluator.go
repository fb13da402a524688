package discount

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
)

// UsageCounter counts earlier non-cancelled orders that used code from phone.
type UsageCounter interface {
	CountDiscountUsage(ctx context.Context, code, phone string) (int64, error)
}

type Evaluator struct {
	repository Repository
	usage      UsageCounter
	now        func() time.Time
}

func NewEvaluator(repository Repository, usage UsageCounter) *Evaluator {
	return &Evaluator{repository: repository, usage: usage, now: time.Now}
}

// Evaluate checks req against the stored discount. The first failing check
// decides the rejection.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Descriptor, error) {
	code := NormalizeCode(req.Code)
	if code == "" {
		return nil, reject(apperror.KindNotFound, ReasonNotFound, apperror.MsgDiscountNotFound)
	}

	d, err := e.repository.FindByCode(ctx, code)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("find discount %s: %w", code, err))
	}
	if d == nil {
		return nil, reject(apperror.KindNotFound, ReasonNotFound, apperror.MsgDiscountNotFound)
	}
	if !d.Active {
		return nil, reject(apperror.KindValidation, ReasonDisabled, apperror.MsgDiscountDisabled)
	}
	if d.MinPurchase != nil && req.Subtotal < *d.MinPurchase {
		return nil, reject(apperror.KindValidation, ReasonBelowMinimum,
			fmt.Sprintf(apperror.MsgDiscountBelowMin, *d.MinPurchase, req.Subtotal))
	}
	if d.UsageLimit != nil && d.UsedCount >= *d.UsageLimit {
		return nil, reject(apperror.KindValidation, ReasonGlobalLimitReached, apperror.MsgDiscountUsedUp)
	}
	if phone := strings.TrimSpace(req.Phone); d.PerUserLimit != nil && phone != "" {
		used, err := e.usage.CountDiscountUsage(ctx, d.Code, phone)
		if err != nil {
			return nil, apperror.Internal(fmt.Errorf("count usage of %s: %w", d.Code, err))
		}
		if used >= int64(*d.PerUserLimit) {
			return nil, reject(apperror.KindValidation, ReasonPerUserLimitReached, apperror.MsgDiscountUserLimit)
		}
	}
	now := e.now()
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return nil, reject(apperror.KindValidation, ReasonNotYetActive, apperror.MsgDiscountNotYet)
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return nil, reject(apperror.KindValidation, ReasonExpired, apperror.MsgDiscountExpired)
	}

	return &Descriptor{
		Code:           d.Code,
		Type:           d.Type,
		Value:          d.Value,
		Description:    d.Description,
		MinPurchase:    d.MinPurchase,
		PerUserLimit:   d.PerUserLimit,
		DiscountAmount: AmountFor(d.Type, d.Value, req.Subtotal),
	}, nil
}

func reject(kind apperror.Kind, reason, message string) error {
	return apperror.New(kind, message).WithReason(reason)
}
