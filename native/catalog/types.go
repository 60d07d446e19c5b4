package catalog

import "math/big"

// Capabilities is the explicit capability set an account holds on the
// marketplace. The combined buyer+seller case is just both flags set, so role
// checks never special-case it.
type Capabilities struct {
	CanBuy  bool
	CanSell bool
}

// Empty reports whether the set grants no marketplace capability.
func (c Capabilities) Empty() bool { return !c.CanBuy && !c.CanSell }

// Account is a registered marketplace participant. The arbiter flag is
// deliberately separate from the trading capabilities: arbiters rule on
// escalated disputes and need no buy or sell rights to do so.
type Account struct {
	Address  [20]byte
	Username string
	Caps     Capabilities
	Arbiter  bool
}

// Product describes a sellable good, independent of any concrete listing.
type Product struct {
	ID          uint64
	Name        string
	Description string
	Category    string
}

// Publication is a seller's listing of a product: the advertised price and
// the sellable stock. The seller's deposit inventory is tracked separately.
type Publication struct {
	ID        uint64
	ProductID uint64
	Seller    [20]byte
	Price     *big.Int
	Stock     uint64
}

// Clone returns a deep copy of the publication so callers can safely mutate
// the copy without affecting the stored instance.
func (p *Publication) Clone() *Publication {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Price != nil {
		clone.Price = new(big.Int).Set(p.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return &clone
}
