package catalog

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"mercato/core/state"
	storagepkg "mercato/storage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(state.NewManager(storagepkg.NewMemDB()))
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestRegisterAndLookup(t *testing.T) {
	e := newTestEngine(t)
	addr := newTestAddress(0x01)

	account, err := e.Register(addr, "alice", Capabilities{CanBuy: true}, false)
	require.NoError(t, err)
	require.Equal(t, "alice", account.Username)

	loaded, ok, err := e.Account(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, loaded.Caps.CanBuy)
	require.False(t, loaded.Caps.CanSell)
	require.False(t, loaded.Arbiter)

	_, err = e.Register(addr, "alice-again", Capabilities{CanSell: true}, false)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Register(newTestAddress(0x02), "  ", Capabilities{CanBuy: true}, false)
	require.ErrorIs(t, err, ErrUsernameRequired)

	_, err = e.Register(newTestAddress(0x03), "bob", Capabilities{}, false)
	require.ErrorIs(t, err, ErrInvalidRole)

	// Pure arbiters need no trading capability.
	account, err := e.Register(newTestAddress(0x04), "judge", Capabilities{}, true)
	require.NoError(t, err)
	require.True(t, account.Arbiter)
}

func TestCapabilityReassignment(t *testing.T) {
	e := newTestEngine(t)
	addr := newTestAddress(0x05)

	_, err := e.Register(addr, "carol", Capabilities{CanBuy: true}, false)
	require.NoError(t, err)

	// Single role up to the combined set.
	account, err := e.SetCapabilities(addr, Capabilities{CanBuy: true, CanSell: true})
	require.NoError(t, err)
	require.True(t, account.Caps.CanSell)

	// Combined set back down to a single role.
	account, err = e.SetCapabilities(addr, Capabilities{CanSell: true})
	require.NoError(t, err)
	require.False(t, account.Caps.CanBuy)

	// Same-role reassignment is rejected.
	_, err = e.SetCapabilities(addr, Capabilities{CanSell: true})
	require.ErrorIs(t, err, ErrSameRole)

	_, err = e.SetCapabilities(addr, Capabilities{})
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = e.SetCapabilities(newTestAddress(0x06), Capabilities{CanBuy: true})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestAddProductAndNameIndex(t *testing.T) {
	e := newTestEngine(t)

	product, err := e.AddProduct("Widget", "a fine widget", "tools")
	require.NoError(t, err)
	require.Equal(t, uint64(1), product.ID)

	_, err = e.AddProduct("  widget ", "duplicate by case", "tools")
	require.ErrorIs(t, err, ErrProductExists)

	loaded, ok, err := e.ProductByName("WIDGET")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, product.ID, loaded.ID)

	_, ok, err = e.ProductByName("missing")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = e.AddProduct("", "no name", "tools")
	require.ErrorIs(t, err, ErrInvalidProduct)
}

func TestPublishRequiresSellerRole(t *testing.T) {
	e := newTestEngine(t)
	buyer := newTestAddress(0x07)
	seller := newTestAddress(0x08)

	_, err := e.Register(buyer, "dave", Capabilities{CanBuy: true}, false)
	require.NoError(t, err)
	_, err = e.Register(seller, "erin", Capabilities{CanSell: true}, false)
	require.NoError(t, err)

	product, err := e.AddProduct("gizmo", "", "gadgets")
	require.NoError(t, err)

	_, err = e.Publish(buyer, product.ID, big.NewInt(100), 5)
	require.ErrorIs(t, err, ErrWrongRole)

	_, err = e.Publish(seller, product.ID+1, big.NewInt(100), 5)
	require.ErrorIs(t, err, ErrProductNotFound)

	_, err = e.Publish(seller, product.ID, big.NewInt(0), 5)
	require.ErrorIs(t, err, ErrInvalidPublication)

	pub, err := e.Publish(seller, product.ID, big.NewInt(200), 10)
	require.NoError(t, err)
	require.Equal(t, uint64(1), pub.ID)
	require.Equal(t, uint64(10), pub.Stock)
}

func TestStockMovement(t *testing.T) {
	e := newTestEngine(t)
	seller := newTestAddress(0x09)

	_, err := e.Register(seller, "frank", Capabilities{CanSell: true}, false)
	require.NoError(t, err)
	product, err := e.AddProduct("sprocket", "", "parts")
	require.NoError(t, err)
	pub, err := e.Publish(seller, product.ID, big.NewInt(50), 3)
	require.NoError(t, err)

	require.NoError(t, e.DebitStock(pub.ID, 2))
	err = e.DebitStock(pub.ID, 2)
	require.ErrorIs(t, err, ErrInsufficientStock)

	loaded, ok, err := e.Publication(pub.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1), loaded.Stock)

	require.NoError(t, e.CreditStock(pub.ID, 4))
	loaded, _, err = e.Publication(pub.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(5), loaded.Stock)

	err = e.DebitStock(pub.ID+1, 1)
	require.ErrorIs(t, err, ErrPublicationNotFound)
}

func TestDepositMovement(t *testing.T) {
	e := newTestEngine(t)
	seller := newTestAddress(0x0A)

	count, err := e.Deposit(seller, 1)
	require.NoError(t, err)
	require.Zero(t, count)

	count, err = e.CreditDeposit(seller, 1, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(10), count)

	count, err = e.DebitDeposit(seller, 1, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(6), count)

	_, err = e.DebitDeposit(seller, 1, 7)
	require.ErrorIs(t, err, ErrInsufficientDeposit)
}
