package core

import (
	"math/big"
	"sync"

	"mercato/core/events"
	"mercato/core/state"
	"mercato/core/types"
	"mercato/native/catalog"
	"mercato/native/escrow"
	"mercato/native/ledger"
	"mercato/native/orders"
	"mercato/native/reputation"
	"mercato/storage"
)

// eventLogCap bounds the in-memory event log kept for RPC consumers.
const eventLogCap = 1024

// Node is the central controller, wiring the state manager and the native
// engines together. Every operation runs under a single mutex: the
// marketplace core is a single-writer system and the engines rely on that for
// their read-modify-write sequences.
type Node struct {
	db      storage.Database
	manager *state.Manager

	stateMu sync.Mutex

	emitter events.Emitter
	events  []*types.Event
}

// NewNode creates a node operating on the provided database.
func NewNode(db storage.Database) *Node {
	n := &Node{
		db:      db,
		manager: state.NewManager(db),
	}
	return n
}

// SetEmitter forwards engine events to an external subscriber in addition to
// the node's own event log.
func (n *Node) SetEmitter(emitter events.Emitter) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	n.emitter = emitter
}

// Events returns a snapshot of the recent event log, oldest first.
func (n *Node) Events() []*types.Event {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	out := make([]*types.Event, len(n.events))
	copy(out, n.events)
	return out
}

// nodeEmitter records engine events on the node. It runs inside operations
// that already hold the state mutex.
type nodeEmitter struct {
	node *Node
}

func (e nodeEmitter) Emit(evt events.Event) {
	carrier, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	payload := carrier.Event()
	if payload == nil {
		return
	}
	n := e.node
	n.events = append(n.events, payload)
	if len(n.events) > eventLogCap {
		n.events = n.events[len(n.events)-eventLogCap:]
	}
	if n.emitter != nil {
		n.emitter.Emit(evt)
	}
}

func (n *Node) newCatalogEngine() *catalog.Engine {
	return catalog.NewEngine(n.manager)
}

func (n *Node) newLedger() *ledger.Ledger {
	return ledger.NewLedger(n.manager)
}

func (n *Node) newVault() *escrow.Vault {
	vault := escrow.NewVault(n.manager, n.newLedger())
	vault.SetEmitter(nodeEmitter{node: n})
	return vault
}

func (n *Node) newReputationLedger() *reputation.Ledger {
	return reputation.NewLedger(n.manager)
}

func (n *Node) newOrderEngine() *orders.Engine {
	engine := orders.NewEngine()
	engine.SetState(n.manager)
	engine.SetCatalog(n.newCatalogEngine())
	engine.SetVault(n.newVault())
	engine.SetRatings(n.newReputationLedger())
	engine.SetEmitter(nodeEmitter{node: n})
	return engine
}

func (n *Node) newDisputeEngine() *orders.DisputeEngine {
	return orders.NewDisputeEngine(n.newOrderEngine())
}

// --- Catalog operations ---

func (n *Node) Register(addr [20]byte, username string, caps catalog.Capabilities, arbiter bool) (*catalog.Account, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newCatalogEngine().Register(addr, username, caps, arbiter)
}

func (n *Node) SetCapabilities(addr [20]byte, caps catalog.Capabilities) (*catalog.Account, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newCatalogEngine().SetCapabilities(addr, caps)
}

func (n *Node) GetAccount(addr [20]byte) (*catalog.Account, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	account, ok, err := n.newCatalogEngine().Account(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, catalog.ErrUserNotFound
	}
	return account, nil
}

func (n *Node) AddProduct(name, description, category string) (*catalog.Product, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newCatalogEngine().AddProduct(name, description, category)
}

func (n *Node) GetProduct(id uint64) (*catalog.Product, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	product, ok, err := n.newCatalogEngine().Product(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return product, nil
}

func (n *Node) GetProductByName(name string) (*catalog.Product, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	product, ok, err := n.newCatalogEngine().ProductByName(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return product, nil
}

func (n *Node) Publish(seller [20]byte, productID uint64, price *big.Int, stock uint64) (*catalog.Publication, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newCatalogEngine().Publish(seller, productID, price, stock)
}

func (n *Node) GetPublication(id uint64) (*catalog.Publication, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	pub, ok, err := n.newCatalogEngine().Publication(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, catalog.ErrPublicationNotFound
	}
	return pub, nil
}

func (n *Node) CreditDeposit(seller [20]byte, productID, quantity uint64) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newCatalogEngine().CreditDeposit(seller, productID, quantity)
}

func (n *Node) GetDeposit(seller [20]byte, productID uint64) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newCatalogEngine().Deposit(seller, productID)
}

// --- Ledger operations ---

// requireAccount gates balance movement on marketplace registration. Called
// with the state mutex held.
func (n *Node) requireAccount(addr [20]byte) error {
	_, ok, err := n.newCatalogEngine().Account(addr)
	if err != nil {
		return err
	}
	if !ok {
		return catalog.ErrUserNotFound
	}
	return nil
}

func (n *Node) Credit(addr [20]byte, amount *big.Int) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if err := n.requireAccount(addr); err != nil {
		return nil, err
	}
	return n.newLedger().Credit(addr, amount)
}

func (n *Node) Debit(addr [20]byte, amount *big.Int) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	if err := n.requireAccount(addr); err != nil {
		return nil, err
	}
	return n.newLedger().Debit(addr, amount)
}

func (n *Node) Balance(addr [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newLedger().BalanceOf(addr)
}

// --- Order operations ---

func (n *Node) PlaceOrder(buyer [20]byte, publicationID, quantity uint64, payment orders.Payment) (*orders.Order, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newOrderEngine().Place(buyer, publicationID, quantity, payment)
}

func (n *Node) GetOrder(id uint64) (*orders.Order, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newOrderEngine().Get(id)
}

func (n *Node) MarkShipped(caller [20]byte, id uint64) (*orders.Order, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newOrderEngine().MarkShipped(caller, id)
}

func (n *Node) MarkReceived(caller [20]byte, id uint64) (*orders.Order, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newOrderEngine().MarkReceived(caller, id)
}

func (n *Node) ManageCancellation(caller [20]byte, id uint64) (*orders.Order, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newOrderEngine().ManageCancellation(caller, id)
}

func (n *Node) RateOrder(caller [20]byte, id uint64, score uint8) (*orders.Order, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newOrderEngine().Rate(caller, id, score)
}

// --- Dispute operations ---

func (n *Node) OpenDispute(caller [20]byte, id uint64, reason orders.Reason) (*orders.Order, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newDisputeEngine().Open(caller, id, reason)
}

func (n *Node) ResolveDispute(caller [20]byte, id uint64, resolution orders.Resolution, decision orders.Decision) (*orders.Order, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newDisputeEngine().Resolve(caller, id, resolution, decision)
}

func (n *Node) ResolveDisputeArbiter(caller [20]byte, id uint64, resolution orders.Resolution, decision orders.Decision) (*orders.Order, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newDisputeEngine().ResolveArbiter(caller, id, resolution, decision)
}

func (n *Node) DisputeOutcome(id uint64) (orders.Reason, orders.Resolution, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newDisputeEngine().Outcome(id)
}

// --- Reputation operations ---

func (n *Node) SellerReputation(addr [20]byte) (*reputation.Record, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newReputationLedger().Record(addr, reputation.RoleSeller)
}

func (n *Node) BuyerReputation(addr [20]byte) (*reputation.Record, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.newReputationLedger().Record(addr, reputation.RoleBuyer)
}
