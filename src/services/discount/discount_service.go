package discount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"

	"github.com/google/uuid"
)

type DiscountService interface {
	Evaluate(ctx context.Context, req Request) (*Descriptor, error)
	// RecordUsage counts one redemption of code. Call it inside the checkout
	// transaction so a failed checkout does not consume usage.
	RecordUsage(ctx context.Context, code string) error
	Create(ctx context.Context, d Discount) (*Discount, error)
	List(ctx context.Context) ([]Discount, error)
	Get(ctx context.Context, id string) (*Discount, error)
	Update(ctx context.Context, id string, p Patch) (*Discount, error)
	Delete(ctx context.Context, id string) error
}

type discountService struct {
	logger     log.Logger
	repository Repository
	evaluator  *Evaluator
}

func NewDiscountService(logger log.Logger, repository Repository, usage UsageCounter) DiscountService {
	return &discountService{
		logger:     logger,
		repository: repository,
		evaluator:  NewEvaluator(repository, usage),
	}
}

func (s *discountService) Evaluate(ctx context.Context, req Request) (*Descriptor, error) {
	return s.evaluator.Evaluate(ctx, req)
}

func (s *discountService) RecordUsage(ctx context.Context, code string) error {
	ok, err := s.repository.IncrementUsage(ctx, NormalizeCode(code))
	if err != nil {
		return apperror.Internal(fmt.Errorf("increment usage of %s: %w", code, err))
	}
	if !ok {
		return reject(apperror.KindValidation, ReasonGlobalLimitReached, apperror.MsgDiscountUsedUp)
	}
	return nil
}

func (s *discountService) Create(ctx context.Context, d Discount) (*Discount, error) {
	d.Code = NormalizeCode(d.Code)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	d.ID = uuid.NewString()
	d.UsedCount = 0
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := s.repository.Create(ctx, d); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return nil, apperror.Conflict(apperror.MsgDiscountCodeTaken)
		}
		return nil, apperror.Internal(fmt.Errorf("create discount: %w", err))
	}
	s.logger.InfoWithExtra(ctx, "Discount created", map[string]any{"code": d.Code, "type": d.Type, "value": d.Value})
	return &d, nil
}

func (s *discountService) List(ctx context.Context) ([]Discount, error) {
	discounts, err := s.repository.List(ctx)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("list discounts: %w", err))
	}
	return discounts, nil
}

func (s *discountService) Get(ctx context.Context, id string) (*Discount, error) {
	d, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("get discount %s: %w", id, err))
	}
	if d == nil {
		return nil, apperror.NotFound(apperror.MsgDiscountNotFound)
	}
	return d, nil
}

func (s *discountService) Update(ctx context.Context, id string, p Patch) (*Discount, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := p.ApplyTo(*current)
	if err := next.Validate(); err != nil {
		return nil, err
	}

	set, unset := p.Updates()
	found, err := s.repository.Update(ctx, id, set, unset)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("update discount %s: %w", id, err))
	}
	if !found {
		return nil, apperror.NotFound(apperror.MsgDiscountNotFound)
	}
	return s.Get(ctx, id)
}

func (s *discountService) Delete(ctx context.Context, id string) error {
	found, err := s.repository.Delete(ctx, id)
	if err != nil {
		return apperror.Internal(fmt.Errorf("delete discount %s: %w", id, err))
	}
	if !found {
		return apperror.NotFound(apperror.MsgDiscountNotFound)
	}
	s.logger.Info(ctx, "Discount deleted: "+id)
	return nil
}
