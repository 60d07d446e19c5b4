package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"mercato/core/state"
	storagepkg "mercato/storage"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(state.NewManager(storagepkg.NewMemDB()))
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func maxBalance() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return max.Sub(max, big.NewInt(1))
}

func TestBalanceDefaultsToZero(t *testing.T) {
	l := newTestLedger(t)

	balance, err := l.BalanceOf(newTestAddress(0x01))
	require.NoError(t, err)
	require.Zero(t, balance.Sign())
}

func TestCreditAndDebit(t *testing.T) {
	l := newTestLedger(t)
	addr := newTestAddress(0x02)

	balance, err := l.Credit(addr, big.NewInt(1000))
	require.NoError(t, err)
	require.Equal(t, int64(1000), balance.Int64())

	balance, err = l.Debit(addr, big.NewInt(400))
	require.NoError(t, err)
	require.Equal(t, int64(600), balance.Int64())
}

func TestDebitInsufficientBalance(t *testing.T) {
	l := newTestLedger(t)
	addr := newTestAddress(0x03)

	_, err := l.Credit(addr, big.NewInt(100))
	require.NoError(t, err)

	_, err = l.Debit(addr, big.NewInt(101))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	balance, err := l.BalanceOf(addr)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance.Int64())
}

func TestZeroAmountRejected(t *testing.T) {
	l := newTestLedger(t)
	addr := newTestAddress(0x04)

	_, err := l.Credit(addr, big.NewInt(0))
	require.ErrorIs(t, err, ErrInsufficientAmount)

	_, err = l.Debit(addr, nil)
	require.ErrorIs(t, err, ErrInsufficientAmount)
}

func TestCreditOverflowLeavesBalanceUntouched(t *testing.T) {
	l := newTestLedger(t)
	addr := newTestAddress(0x05)

	_, err := l.Credit(addr, maxBalance())
	require.NoError(t, err)

	_, err = l.Credit(addr, big.NewInt(1))
	require.ErrorIs(t, err, ErrOverflow)

	balance, err := l.BalanceOf(addr)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(maxBalance()))
}

func TestCreditAmountBeyondRange(t *testing.T) {
	l := newTestLedger(t)
	addr := newTestAddress(0x06)

	tooLarge := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err := l.Credit(addr, tooLarge)
	require.ErrorIs(t, err, ErrOverflow)
}
