package orders

import (
	"fmt"
	"math/big"
)

// engineState abstracts the subset of state manager functionality required by
// the order book.
type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	CounterNext(name string) (uint64, error)
}

var orderPrefix = []byte("orders/order/")

const orderCounter = "orders.order"

func orderKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%d", orderPrefix, id))
}

// storedOrder is the RLP-friendly persistence shape of an order. Timestamps
// are widened to uint64 because RLP has no signed integers.
type storedOrder struct {
	ID            uint64
	Buyer         [20]byte
	Seller        [20]byte
	ProductID     uint64
	PublicationID uint64
	Quantity      uint64
	Total         *big.Int
	Payment       uint8
	Status        uint8
	CreatedAt     uint64

	CancellationPending     bool
	CancellationRequestedBy uint8

	RatedByBuyer  bool
	RatedBySeller bool
	SellerRating  uint8
	BuyerRating   uint8

	ReasonKind   uint8
	ReasonDetail string
	Resolution   uint8
	Arbiter      [20]byte
}

func toStored(o *Order) *storedOrder {
	total := o.Total
	if total == nil {
		total = big.NewInt(0)
	}
	return &storedOrder{
		ID:                      o.ID,
		Buyer:                   o.Buyer,
		Seller:                  o.Seller,
		ProductID:               o.ProductID,
		PublicationID:           o.PublicationID,
		Quantity:                o.Quantity,
		Total:                   new(big.Int).Set(total),
		Payment:                 uint8(o.Payment),
		Status:                  uint8(o.Status),
		CreatedAt:               uint64(o.CreatedAt),
		CancellationPending:     o.CancellationPending,
		CancellationRequestedBy: uint8(o.CancellationRequestedBy),
		RatedByBuyer:            o.RatedByBuyer,
		RatedBySeller:           o.RatedBySeller,
		SellerRating:            o.SellerRating,
		BuyerRating:             o.BuyerRating,
		ReasonKind:              uint8(o.DisputeReason.Kind),
		ReasonDetail:            o.DisputeReason.Detail,
		Resolution:              uint8(o.Resolution),
		Arbiter:                 o.Arbiter,
	}
}

func fromStored(s *storedOrder) *Order {
	total := s.Total
	if total == nil {
		total = big.NewInt(0)
	}
	return &Order{
		ID:                      s.ID,
		Buyer:                   s.Buyer,
		Seller:                  s.Seller,
		ProductID:               s.ProductID,
		PublicationID:           s.PublicationID,
		Quantity:                s.Quantity,
		Total:                   new(big.Int).Set(total),
		Payment:                 PaymentKind(s.Payment),
		Status:                  Status(s.Status),
		CreatedAt:               int64(s.CreatedAt),
		CancellationPending:     s.CancellationPending,
		CancellationRequestedBy: Party(s.CancellationRequestedBy),
		RatedByBuyer:            s.RatedByBuyer,
		RatedBySeller:           s.RatedBySeller,
		SellerRating:            s.SellerRating,
		BuyerRating:             s.BuyerRating,
		DisputeReason:           Reason{Kind: ReasonKind(s.ReasonKind), Detail: s.ReasonDetail},
		Resolution:              Resolution(s.Resolution),
		Arbiter:                 s.Arbiter,
	}
}
