package wholesale

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	rates []Rate
	err   error
}

func (m *memoryRepository) ListByProduct(_ context.Context, productID string) ([]Rate, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []Rate
	for _, r := range m.rates {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRepository) Create(_ context.Context, rate Rate) error {
	m.rates = append(m.rates, rate)
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, productID, rateID string) (bool, error) {
	for i, r := range m.rates {
		if r.ID == rateID && r.ProductID == productID {
			m.rates = append(m.rates[:i], m.rates[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func TestResolvePrice(t *testing.T) {
	rates := []Rate{
		{MinQuantity: 50, Price: 70},
		{MinQuantity: 10, Price: 85},
		{MinQuantity: 100, Price: 60},
	}
	cases := []struct {
		qty  int
		want float64
	}{
		{1, 100},
		{9, 100},
		{10, 85},
		{49, 85},
		{50, 70},
		{250, 60},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ResolvePrice(100, rates, c.qty), "qty=%d", c.qty)
	}
	assert.Equal(t, 100.0, ResolvePrice(100, nil, 500))
}

func TestServiceRates(t *testing.T) {
	repo := &memoryRepository{}
	svc := NewService(log.NewLoggerWithOutput(&bytes.Buffer{}, log.InfoLevel), repo)
	ctx := context.Background()

	_, err := svc.AddRate(ctx, Rate{ProductID: "p1", MinQuantity: 0, Price: 10})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	big, err := svc.AddRate(ctx, Rate{ProductID: "p1", MinQuantity: 20, Price: 40})
	require.NoError(t, err)
	_, err = svc.AddRate(ctx, Rate{ProductID: "p1", MinQuantity: 5, Price: 45})
	require.NoError(t, err)

	rates, err := svc.ListRates(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, 5, rates[0].MinQuantity)

	price, err := svc.UnitPrice(ctx, "p1", 50, 7)
	require.NoError(t, err)
	assert.Equal(t, 45.0, price)

	require.NoError(t, svc.DeleteRate(ctx, "p1", big.ID))
	assert.True(t, apperror.Is(svc.DeleteRate(ctx, "p1", big.ID), apperror.KindNotFound))
}

func TestUnitPricePropagatesStoreErrors(t *testing.T) {
	svc := NewService(log.NewLoggerWithOutput(&bytes.Buffer{}, log.InfoLevel), &memoryRepository{err: errors.New("down")})
	_, err := svc.UnitPrice(context.Background(), "p1", 10, 1)
	assert.Error(t, err)
}
