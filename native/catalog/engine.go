package catalog

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// storage abstracts the subset of state manager functionality required by the
// catalog engine.
type storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	CounterNext(name string) (uint64, error)
}

var (
	accountPrefix     = []byte("catalog/account/")
	productPrefix     = []byte("catalog/product/")
	productNamePrefix = []byte("catalog/product-name/")
	publicationPrefix = []byte("catalog/publication/")
	depositPrefix     = []byte("catalog/deposit/")
)

const (
	productCounter     = "catalog.product"
	publicationCounter = "catalog.publication"
)

func accountKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", accountPrefix, addr))
}

func productKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", productPrefix, id))
}

func productNameKey(name string) []byte {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return nil
	}
	digest := ethcrypto.Keccak256([]byte(normalized))
	return []byte(fmt.Sprintf("%s%x", productNamePrefix, digest))
}

func publicationKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", publicationPrefix, id))
}

func depositKey(seller [20]byte, productID uint64) []byte {
	return []byte(fmt.Sprintf("%s%x/%d", depositPrefix, seller, productID))
}

type storedAccount struct {
	Username string
	CanBuy   bool
	CanSell  bool
	Arbiter  bool
}

type storedPublication struct {
	ProductID uint64
	Seller    [20]byte
	Price     *big.Int
	Stock     uint64
}

// Engine owns the CRUD collaborators around the order core: registered users
// and their capability sets, the product catalog, seller publications and
// seller deposit inventory.
type Engine struct {
	store storage
}

// NewEngine constructs a catalog engine bound to the provided storage backend.
func NewEngine(store storage) *Engine {
	return &Engine{store: store}
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil {
		return errors.New("catalog: storage unavailable")
	}
	return nil
}

// Register creates a marketplace account. The capability set must grant at
// least one of buy/sell unless the account is an arbiter.
func (e *Engine) Register(addr [20]byte, username string, caps Capabilities, arbiter bool) (*Account, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return nil, ErrUsernameRequired
	}
	if caps.Empty() && !arbiter {
		return nil, ErrInvalidRole
	}
	var existing storedAccount
	ok, err := e.store.KVGet(accountKey(addr), &existing)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, ErrUserExists
	}
	stored := storedAccount{
		Username: trimmed,
		CanBuy:   caps.CanBuy,
		CanSell:  caps.CanSell,
		Arbiter:  arbiter,
	}
	if err := e.store.KVPut(accountKey(addr), &stored); err != nil {
		return nil, err
	}
	return &Account{Address: addr, Username: trimmed, Caps: caps, Arbiter: arbiter}, nil
}

// Account loads the registered account for the address.
func (e *Engine) Account(addr [20]byte) (*Account, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	var stored storedAccount
	ok, err := e.store.KVGet(accountKey(addr), &stored)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	account := &Account{
		Address:  addr,
		Username: stored.Username,
		Caps:     Capabilities{CanBuy: stored.CanBuy, CanSell: stored.CanSell},
		Arbiter:  stored.Arbiter,
	}
	return account, true, nil
}

// SetCapabilities reassigns the trading capability set. Reassigning the set
// the account already holds is rejected; any genuine change (single role to
// combined, combined down to a single role, one single role to the other) is
// legal.
func (e *Engine) SetCapabilities(addr [20]byte, caps Capabilities) (*Account, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if caps.Empty() {
		return nil, ErrInvalidRole
	}
	var stored storedAccount
	ok, err := e.store.KVGet(accountKey(addr), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	if stored.CanBuy == caps.CanBuy && stored.CanSell == caps.CanSell {
		return nil, ErrSameRole
	}
	stored.CanBuy = caps.CanBuy
	stored.CanSell = caps.CanSell
	if err := e.store.KVPut(accountKey(addr), &stored); err != nil {
		return nil, err
	}
	return &Account{Address: addr, Username: stored.Username, Caps: caps, Arbiter: stored.Arbiter}, nil
}

// AddProduct registers a product under a unique (case-insensitive) name.
func (e *Engine) AddProduct(name, description, category string) (*Product, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	trimmedName := strings.TrimSpace(name)
	trimmedCategory := strings.TrimSpace(category)
	if trimmedName == "" || trimmedCategory == "" {
		return nil, ErrInvalidProduct
	}
	nameKey := productNameKey(trimmedName)
	var existingID uint64
	ok, err := e.store.KVGet(nameKey, &existingID)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, ErrProductExists
	}
	id, err := e.store.CounterNext(productCounter)
	if err != nil {
		return nil, err
	}
	product := &Product{
		ID:          id,
		Name:        trimmedName,
		Description: strings.TrimSpace(description),
		Category:    trimmedCategory,
	}
	if err := e.store.KVPut(productKey(id), product); err != nil {
		return nil, err
	}
	if err := e.store.KVPut(nameKey, id); err != nil {
		return nil, err
	}
	return product, nil
}

// Product loads a product by id.
func (e *Engine) Product(id uint64) (*Product, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	product := &Product{}
	ok, err := e.store.KVGet(productKey(id), product)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return product, true, nil
}

// ProductByName resolves a product through the name index.
func (e *Engine) ProductByName(name string) (*Product, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	nameKey := productNameKey(name)
	if nameKey == nil {
		return nil, false, nil
	}
	var id uint64
	ok, err := e.store.KVGet(nameKey, &id)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return e.Product(id)
}

// Publish creates a listing for the product with the advertised price and
// sellable stock. The seller needs the sell capability.
func (e *Engine) Publish(seller [20]byte, productID uint64, price *big.Int, stock uint64) (*Publication, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	account, ok, err := e.Account(seller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	if !account.Caps.CanSell {
		return nil, ErrWrongRole
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPublication
	}
	if _, ok, err := e.Product(productID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrProductNotFound
	}
	id, err := e.store.CounterNext(publicationCounter)
	if err != nil {
		return nil, err
	}
	stored := storedPublication{
		ProductID: productID,
		Seller:    seller,
		Price:     new(big.Int).Set(price),
		Stock:     stock,
	}
	if err := e.store.KVPut(publicationKey(id), &stored); err != nil {
		return nil, err
	}
	return &Publication{ID: id, ProductID: productID, Seller: seller, Price: stored.Price, Stock: stock}, nil
}

// Publication loads a listing by id.
func (e *Engine) Publication(id uint64) (*Publication, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	var stored storedPublication
	ok, err := e.store.KVGet(publicationKey(id), &stored)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	price := stored.Price
	if price == nil {
		price = big.NewInt(0)
	}
	pub := &Publication{
		ID:        id,
		ProductID: stored.ProductID,
		Seller:    stored.Seller,
		Price:     new(big.Int).Set(price),
		Stock:     stored.Stock,
	}
	return pub, true, nil
}

// DebitStock removes quantity units from the publication's sellable stock.
func (e *Engine) DebitStock(id uint64, quantity uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	var stored storedPublication
	ok, err := e.store.KVGet(publicationKey(id), &stored)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPublicationNotFound
	}
	if stored.Stock < quantity {
		return ErrInsufficientStock
	}
	stored.Stock -= quantity
	return e.store.KVPut(publicationKey(id), &stored)
}

// CreditStock restocks a publication, saturation-checked.
func (e *Engine) CreditStock(id uint64, quantity uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	var stored storedPublication
	ok, err := e.store.KVGet(publicationKey(id), &stored)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPublicationNotFound
	}
	if stored.Stock > math.MaxUint64-quantity {
		return ErrStockOverflow
	}
	stored.Stock += quantity
	return e.store.KVPut(publicationKey(id), &stored)
}

// Deposit returns the seller's inventory count for the product.
func (e *Engine) Deposit(seller [20]byte, productID uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	var count uint64
	if _, err := e.store.KVGet(depositKey(seller, productID), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// CreditDeposit adds quantity units to the seller's inventory for the
// product, overflow checked.
func (e *Engine) CreditDeposit(seller [20]byte, productID uint64, quantity uint64) (uint64, error) {
	count, err := e.Deposit(seller, productID)
	if err != nil {
		return 0, err
	}
	if count > math.MaxUint64-quantity {
		return 0, ErrStockOverflow
	}
	count += quantity
	if err := e.store.KVPut(depositKey(seller, productID), count); err != nil {
		return 0, err
	}
	return count, nil
}

// DebitDeposit removes quantity units from the seller's inventory for the
// product.
func (e *Engine) DebitDeposit(seller [20]byte, productID uint64, quantity uint64) (uint64, error) {
	count, err := e.Deposit(seller, productID)
	if err != nil {
		return 0, err
	}
	if count < quantity {
		return 0, ErrInsufficientDeposit
	}
	count -= quantity
	if err := e.store.KVPut(depositKey(seller, productID), count); err != nil {
		return 0, err
	}
	return count, nil
}
