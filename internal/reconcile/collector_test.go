package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

func TestCollectAll_ConcatenatesPagesInOrder(t *testing.T) {
	src := &fakeSource{pages: map[int]domain.TransactionPage{
		1: page(1, 3, domain.Transaction{ID: "a"}, domain.Transaction{ID: "b"}),
		2: page(2, 3, domain.Transaction{ID: "c"}),
		3: page(3, 3, domain.Transaction{ID: "d"}),
	}}
	c := NewCollector(src, CollectorConfig{PageSize: 2}, discardLogger())

	got, err := c.CollectAll(context.Background(), domain.AllTransactions())
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, tx := range got {
		ids[i] = tx.ID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	assert.Equal(t, []int{1, 2, 3}, src.calls)
}

func TestCollectAll_StopsOnEmptyPage(t *testing.T) {
	src := &fakeSource{pages: map[int]domain.TransactionPage{
		1: page(1, 10, domain.Transaction{ID: "a"}),
		2: page(2, 10),
	}}
	c := NewCollector(src, CollectorConfig{}, discardLogger())

	got, err := c.CollectAll(context.Background(), domain.ByMerchant("m1"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, []int{1, 2}, src.calls)
}

func TestCollectAll_SinglePageWithZeroTotal(t *testing.T) {
	src := &fakeSource{pages: map[int]domain.TransactionPage{
		1: page(1, 0),
	}}
	c := NewCollector(src, CollectorConfig{}, discardLogger())

	got, err := c.CollectAll(context.Background(), domain.AllTransactions())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []int{1}, src.calls)
}

func TestCollectAll_PageFailureDiscardsPartialResult(t *testing.T) {
	cause := errors.New("connection reset")
	src := &fakeSource{
		pages: map[int]domain.TransactionPage{
			1: page(1, 3, domain.Transaction{ID: "a"}),
		},
		failAt: 2,
		err:    cause,
	}
	c := NewCollector(src, CollectorConfig{}, discardLogger())

	got, err := c.CollectAll(context.Background(), domain.ByTerminal("T1"))
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "terminal:T1 page 2")
}

func TestCollectAll_MaxPagesGuard(t *testing.T) {
	pages := map[int]domain.TransactionPage{}
	for i := 1; i <= 5; i++ {
		// total never reached
		pages[i] = page(i, 100, domain.Transaction{ID: "x"})
	}
	src := &fakeSource{pages: pages}
	c := NewCollector(src, CollectorConfig{MaxPages: 3}, discardLogger())

	_, err := c.CollectAll(context.Background(), domain.AllTransactions())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Equal(t, []int{1, 2, 3}, src.calls)
}
