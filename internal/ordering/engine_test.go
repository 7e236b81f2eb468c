package ordering

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/domain"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/identity"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/keyed"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/kv"
)

func newTestEngine(t *testing.T) (*Engine, *kv.Memory) {
	medium := kv.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(keyed.NewStore(medium, logger), language.Spanish, logger), medium
}

var user = identity.Authenticated("user123")

var testProducts = []domain.Product{
	{ID: 1, Name: "Leche", Category: "Lacteos"},
	{ID: 2, Name: "Manzanas", Category: "Frutas"},
	{ID: 3, Name: "Pan", Category: "Panaderia"},
	{ID: 4, Name: "Yogur", Category: "Lacteos"},
}

func ids(products []domain.Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestSort_EmptyMapFallsBackToCategory(t *testing.T) {
	sut, _ := newTestEngine(t)

	sorted := sut.Sort(user, testProducts)
	assert.Equal(t, []int64{2, 1, 4, 3}, ids(sorted), "Frutas, Lacteos (Leche, Yogur), Panaderia")
	assert.False(t, sut.HasCustomOrder(user))
}

func TestSort_SameCategoryKeepsInputOrder(t *testing.T) {
	sut, _ := newTestEngine(t)

	sorted := sut.Sort(user, []domain.Product{
		{ID: 4, Name: "Yogur", Category: "Lacteos"},
		{ID: 1, Name: "Leche", Category: "Lacteos"},
	})
	assert.Equal(t, []int64{4, 1}, ids(sorted), "stable sort must not reorder within a category")
}

func TestReorderAll_SortReturnsExactSequence(t *testing.T) {
	sut, _ := newTestEngine(t)

	sut.ReorderAll(user, []int64{3, 1, 4, 2})

	assert.True(t, sut.HasCustomOrder(user))
	assert.Equal(t, []int64{3, 1, 4, 2}, ids(sut.Sort(user, testProducts)))
}

func TestSort_UnindexedAfterIndexed(t *testing.T) {
	sut, _ := newTestEngine(t)

	// Only two of four products get an index.
	sut.ReorderAll(user, []int64{3, 4})

	sorted := ids(sut.Sort(user, testProducts))
	assert.Equal(t, []int64{3, 4}, sorted[:2])
	// The rest follow in category fallback order: Frutas before Lacteos.
	assert.Equal(t, []int64{2, 1}, sorted[2:])
}

func TestMoveSingle_LeavesOtherEntriesAlone(t *testing.T) {
	sut, _ := newTestEngine(t)

	sut.ReorderAll(user, []int64{1, 2, 3, 4})
	sut.MoveSingle(user, 4, -1) // pull Yogur to the front

	assert.Equal(t, []int64{4, 1, 2, 3}, ids(sut.Sort(user, testProducts)))
}

func TestReset_RevertsToFallbackAndDeletesRecord(t *testing.T) {
	sut, medium := newTestEngine(t)

	sut.ReorderAll(user, []int64{3, 1, 4, 2})
	sut.Reset(user)

	assert.False(t, sut.HasCustomOrder(user))
	assert.Equal(t, []int64{2, 1, 4, 3}, ids(sut.Sort(user, testProducts)))

	_, err := medium.Get("orden_productos_user123")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestPersistedOrderSurvivesRestart(t *testing.T) {
	sut, medium := newTestEngine(t)
	sut.ReorderAll(user, []int64{4, 3, 2, 1})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fresh := NewEngine(keyed.NewStore(medium, logger), language.Spanish, logger)

	assert.True(t, fresh.HasCustomOrder(user))
	assert.Equal(t, []int64{4, 3, 2, 1}, ids(fresh.Sort(user, testProducts)))
}

func TestIdentitiesNeverShareOrder(t *testing.T) {
	sut, medium := newTestEngine(t)
	userA := identity.Authenticated("user-a")
	userB := identity.Authenticated("user-b")

	_ = sut.Sort(userB, testProducts)
	sut.ReorderAll(userA, []int64{4, 3, 2, 1})

	assert.False(t, sut.HasCustomOrder(userB), "user-b must not inherit user-a's order")
	assert.True(t, sut.HasCustomOrder(userA))

	_, err := medium.Get("orden_productos_user-a")
	require.NoError(t, err)
	_, err = medium.Get("orden_productos_user-b")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	sut, _ := newTestEngine(t)
	sut.ReorderAll(user, []int64{4, 3, 2, 1})

	input := make([]domain.Product, len(testProducts))
	copy(input, testProducts)
	sut.Sort(user, input)

	require.Equal(t, testProducts, input)
}
