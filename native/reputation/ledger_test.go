package reputation

import (
	"math"
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

func TestAverageDefaultsToZero(t *testing.T) {
	l := newTestLedger(t)

	avg, err := l.Average(newTestAddress(0x01), RoleSeller)
	require.NoError(t, err)
	require.Zero(t, avg)
}

func TestAverageFloors(t *testing.T) {
	l := newTestLedger(t)
	addr := newTestAddress(0x02)

	_, err := l.Add(addr, RoleSeller, 4)
	require.NoError(t, err)
	_, err = l.Add(addr, RoleSeller, 5)
	require.NoError(t, err)

	avg, err := l.Average(addr, RoleSeller)
	require.NoError(t, err)
	require.Equal(t, uint64(4), avg)
}

func TestRolesTrackedSeparately(t *testing.T) {
	l := newTestLedger(t)
	addr := newTestAddress(0x03)

	_, err := l.Add(addr, RoleSeller, 5)
	require.NoError(t, err)
	_, err = l.Add(addr, RoleBuyer, 1)
	require.NoError(t, err)

	sellerAvg, err := l.Average(addr, RoleSeller)
	require.NoError(t, err)
	require.Equal(t, uint64(5), sellerAvg)

	buyerAvg, err := l.Average(addr, RoleBuyer)
	require.NoError(t, err)
	require.Equal(t, uint64(1), buyerAvg)
}

func TestInvalidRoleRejected(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Average(newTestAddress(0x04), Role(9))
	require.Error(t, err)
}

func TestSaturatingAdd(t *testing.T) {
	require.Equal(t, uint64(math.MaxUint64), saturatingAdd(math.MaxUint64, 1))
	require.Equal(t, uint64(math.MaxUint64), saturatingAdd(math.MaxUint64-2, 5))
	require.Equal(t, uint64(7), saturatingAdd(3, 4))
}
