package cart

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/domain"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/identity"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/keyed"
	"github.com/Bazamus/lista-compra-inteligente-sub000/internal/kv"
)

func newTestEngine(t *testing.T) (*Engine, *kv.Memory) {
	medium := kv.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(keyed.NewStore(medium, logger), logger), medium
}

func milk() domain.Product {
	return domain.Product{ID: 1, Name: "Leche entera", Category: "Lacteos", SaleFormatPrice: 2.50}
}

func bread() domain.Product {
	return domain.Product{ID: 2, Name: "Pan de molde", Category: "Panaderia", SaleFormatPrice: 1.20}
}

var user = identity.Authenticated("user123")

func TestAddProduct_MergesSameProduct(t *testing.T) {
	sut, _ := newTestEngine(t)

	sut.AddProduct(user, milk(), 2)
	sut.AddProduct(user, milk(), 3)

	cart := sut.Cart(user)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 5, cart.TotalItems)
}

func TestAddProduct_TotalsRecomputed(t *testing.T) {
	sut, _ := newTestEngine(t)

	sut.AddProduct(user, milk(), 2)
	cart := sut.Cart(user)
	assert.Equal(t, 2, cart.TotalItems)
	assert.InDelta(t, 5.00, cart.TotalPrice, 1e-9)

	sut.AddProduct(user, milk(), 1)
	cart = sut.Cart(user)
	assert.Equal(t, 3, cart.TotalItems)
	assert.InDelta(t, 7.50, cart.TotalPrice, 1e-9)
}

func TestAddProduct_NonPositiveQuantityDefaultsToOne(t *testing.T) {
	sut, _ := newTestEngine(t)

	sut.AddProduct(user, milk(), 0)
	assert.Equal(t, 1, sut.QuantityOf(user, 1))
}

func TestDecrement_ToZeroRemovesItemAndRecord(t *testing.T) {
	sut, medium := newTestEngine(t)

	sut.AddProduct(user, milk(), 2)
	sut.AddProduct(user, milk(), 1)
	sut.Decrement(user, 1)
	sut.Decrement(user, 1)
	sut.Decrement(user, 1)

	cart := sut.Cart(user)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalItems)
	assert.Zero(t, cart.TotalPrice)

	_, err := medium.Get("carrito_user123")
	assert.ErrorIs(t, err, kv.ErrNotFound, "empty cart must delete the persisted record")
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	sut, _ := newTestEngine(t)

	sut.AddProduct(user, milk(), 3)
	sut.UpdateQuantity(user, 1, 0)
	assert.False(t, sut.Contains(user, 1))

	sut.AddProduct(user, milk(), 3)
	sut.UpdateQuantity(user, 1, -2)
	assert.False(t, sut.Contains(user, 1))
}

func TestUpdateQuantity_Replaces(t *testing.T) {
	sut, _ := newTestEngine(t)

	sut.AddProduct(user, milk(), 3)
	sut.UpdateQuantity(user, 1, 7)
	assert.Equal(t, 7, sut.QuantityOf(user, 1))
}

func TestIncrementDecrement(t *testing.T) {
	sut, _ := newTestEngine(t)

	sut.AddProduct(user, milk(), 1)
	sut.Increment(user, 1)
	assert.Equal(t, 2, sut.QuantityOf(user, 1))

	sut.Decrement(user, 1)
	assert.Equal(t, 1, sut.QuantityOf(user, 1))
}

func TestNoItemEverHasNonPositiveQuantity(t *testing.T) {
	sut, _ := newTestEngine(t)

	sut.AddProduct(user, milk(), 1)
	sut.AddProduct(user, bread(), 2)
	sut.Decrement(user, 1)
	sut.Decrement(user, 1) // already gone
	sut.UpdateQuantity(user, 2, -5)
	sut.Decrement(user, 99) // never existed

	for _, item := range sut.Cart(user).Items {
		assert.GreaterOrEqual(t, item.Quantity, 1)
	}
}

func TestPersistedCartSurvivesRestart(t *testing.T) {
	sut, medium := newTestEngine(t)
	sut.AddProduct(user, milk(), 2)
	sut.AddProduct(user, bread(), 1)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fresh := NewEngine(keyed.NewStore(medium, logger), logger)

	cart := fresh.Cart(user)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.TotalItems)
	assert.InDelta(t, 6.20, cart.TotalPrice, 1e-9)
}

func TestIdentitiesNeverShareState(t *testing.T) {
	sut, medium := newTestEngine(t)
	userA := identity.Authenticated("user-a")
	userB := identity.Authenticated("user-b")

	// Interleaved operations for two identities: each write must land in
	// its own namespace regardless of what the engine touched last.
	_ = sut.Cart(userA)
	_ = sut.Cart(userB)
	sut.AddProduct(userA, milk(), 2)

	assert.Empty(t, sut.Cart(userB).Items, "user-b must not see user-a's cart")
	assert.Equal(t, 2, sut.QuantityOf(userA, 1))

	value, err := medium.Get("carrito_user-a")
	require.NoError(t, err, "user-a's write must persist under user-a's key")
	assert.Contains(t, value, `"id":1`)
	_, err = medium.Get("carrito_user-b")
	assert.ErrorIs(t, err, kv.ErrNotFound, "nothing may be written to user-b's key")
}

func TestConcurrentIdentitiesStayIsolated(t *testing.T) {
	sut, _ := newTestEngine(t)
	userA := identity.Authenticated("user-a")
	userB := identity.Authenticated("user-b")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sut.Increment(userA, 1)
			sut.AddProduct(userA, milk(), 1)
		}()
		go func() {
			defer wg.Done()
			sut.AddProduct(userB, bread(), 1)
		}()
	}
	wg.Wait()

	cartA := sut.Cart(userA)
	require.Len(t, cartA.Items, 1)
	assert.Equal(t, int64(1), cartA.Items[0].Product.ID)

	cartB := sut.Cart(userB)
	require.Len(t, cartB.Items, 1)
	assert.Equal(t, int64(2), cartB.Items[0].Product.ID)
	assert.Equal(t, 50, cartB.Items[0].Quantity)
}

func TestOperationWithoutIdentityIsDropped(t *testing.T) {
	sut, medium := newTestEngine(t)

	sut.AddProduct(identity.Identity{}, milk(), 2)

	assert.Empty(t, sut.Cart(identity.Identity{}).Items)
	_, err := medium.Get("carrito_")
	assert.ErrorIs(t, err, kv.ErrNotFound, "nothing may be written to a default namespace")
}

func TestClearFor_DropsSessionAndRecord(t *testing.T) {
	sut, medium := newTestEngine(t)
	sut.AddProduct(user, milk(), 2)

	sut.ClearFor("user123")

	assert.Empty(t, sut.Cart(user).Items)
	_, err := medium.Get("carrito_user123")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestClearFor_OtherIdentityLeavesStateAlone(t *testing.T) {
	sut, _ := newTestEngine(t)
	userA := identity.Authenticated("user-a")
	sut.AddProduct(userA, milk(), 2)

	sut.ClearFor("user-b")

	assert.Equal(t, 2, sut.QuantityOf(userA, 1))
}

func TestQueriesArePure(t *testing.T) {
	sut, medium := newTestEngine(t)
	sut.AddProduct(user, milk(), 2)

	before, err := medium.Get("carrito_user123")
	require.NoError(t, err)

	_ = sut.QuantityOf(user, 1)
	_ = sut.Contains(user, 2)
	_ = sut.Cart(user)

	after, err := medium.Get("carrito_user123")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
