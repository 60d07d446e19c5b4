package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"mercato/native/catalog"
	"mercato/native/orders"
	"mercato/native/reputation"
)

// decodeParams unmarshals the single positional params object every method
// expects.
func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one params object")
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

// parseAddress decodes a 20-byte hex address, with or without 0x prefix.
func parseAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", value, err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("invalid address %q: expected %d bytes", value, len(addr))
	}
	copy(addr[:], decoded)
	return addr, nil
}

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// parseAmount decodes a non-negative base-10 amount string.
func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func parsePaymentKind(value string) (orders.PaymentKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "cash":
		return orders.PaymentCash, nil
	case "balance":
		return orders.PaymentBalance, nil
	default:
		return 0, fmt.Errorf("unknown payment kind %q", value)
	}
}

func parseReasonKind(value string) (orders.ReasonKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "not_delivered":
		return orders.ReasonNotDelivered, nil
	case "defective":
		return orders.ReasonDefective, nil
	case "wrong_product":
		return orders.ReasonWrongProduct, nil
	case "other":
		return orders.ReasonOther, nil
	default:
		return orders.ReasonNone, fmt.Errorf("unknown dispute reason %q", value)
	}
}

func parseResolution(value string) (orders.Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return orders.ResolutionNone, nil
	case "resend":
		return orders.ResolutionResend, nil
	case "exchange":
		return orders.ResolutionExchange, nil
	case "refund":
		return orders.ResolutionRefund, nil
	case "other":
		return orders.ResolutionOther, nil
	default:
		return orders.ResolutionNone, fmt.Errorf("unknown resolution %q", value)
	}
}

func parseDecision(value string) (orders.Decision, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "valid":
		return orders.DecisionValid, nil
	case "invalid":
		return orders.DecisionInvalid, nil
	default:
		return 0, fmt.Errorf("unknown decision %q", value)
	}
}

type orderJSON struct {
	ID                      uint64 `json:"id"`
	Buyer                   string `json:"buyer"`
	Seller                  string `json:"seller"`
	ProductID               uint64 `json:"productId"`
	PublicationID           uint64 `json:"publicationId"`
	Quantity                uint64 `json:"quantity"`
	Total                   string `json:"total"`
	Payment                 string `json:"payment"`
	Status                  string `json:"status"`
	CreatedAt               int64  `json:"createdAt"`
	CancellationPending     bool   `json:"cancellationPending"`
	CancellationRequestedBy string `json:"cancellationRequestedBy,omitempty"`
	RatedByBuyer            bool   `json:"ratedByBuyer"`
	RatedBySeller           bool   `json:"ratedBySeller"`
	SellerRating            uint8  `json:"sellerRating,omitempty"`
	BuyerRating             uint8  `json:"buyerRating,omitempty"`
	DisputeReason           string `json:"disputeReason,omitempty"`
	DisputeDetail           string `json:"disputeDetail,omitempty"`
	Resolution              string `json:"resolution,omitempty"`
	Arbiter                 string `json:"arbiter,omitempty"`
}

func newOrderJSON(o *orders.Order) *orderJSON {
	out := &orderJSON{
		ID:                  o.ID,
		Buyer:               formatAddress(o.Buyer),
		Seller:              formatAddress(o.Seller),
		ProductID:           o.ProductID,
		PublicationID:       o.PublicationID,
		Quantity:            o.Quantity,
		Total:               o.Total.String(),
		Payment:             o.Payment.String(),
		Status:              o.Status.String(),
		CreatedAt:           o.CreatedAt,
		CancellationPending: o.CancellationPending,
		RatedByBuyer:        o.RatedByBuyer,
		RatedBySeller:       o.RatedBySeller,
		SellerRating:        o.SellerRating,
		BuyerRating:         o.BuyerRating,
	}
	if o.CancellationRequestedBy != orders.PartyNone {
		out.CancellationRequestedBy = o.CancellationRequestedBy.String()
	}
	if o.DisputeReason.Kind != orders.ReasonNone {
		out.DisputeReason = o.DisputeReason.Kind.String()
		out.DisputeDetail = o.DisputeReason.Detail
	}
	if o.Resolution != orders.ResolutionNone {
		out.Resolution = o.Resolution.String()
	}
	if o.Arbiter != ([20]byte{}) {
		out.Arbiter = formatAddress(o.Arbiter)
	}
	return out
}

type accountJSON struct {
	Address  string `json:"address"`
	Username string `json:"username"`
	CanBuy   bool   `json:"canBuy"`
	CanSell  bool   `json:"canSell"`
	Arbiter  bool   `json:"arbiter"`
}

func newAccountJSON(a *catalog.Account) *accountJSON {
	return &accountJSON{
		Address:  formatAddress(a.Address),
		Username: a.Username,
		CanBuy:   a.Caps.CanBuy,
		CanSell:  a.Caps.CanSell,
		Arbiter:  a.Arbiter,
	}
}

type productJSON struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
}

func newProductJSON(p *catalog.Product) *productJSON {
	return &productJSON{ID: p.ID, Name: p.Name, Description: p.Description, Category: p.Category}
}

type publicationJSON struct {
	ID        uint64 `json:"id"`
	ProductID uint64 `json:"productId"`
	Seller    string `json:"seller"`
	Price     string `json:"price"`
	Stock     uint64 `json:"stock"`
}

func newPublicationJSON(p *catalog.Publication) *publicationJSON {
	return &publicationJSON{
		ID:        p.ID,
		ProductID: p.ProductID,
		Seller:    formatAddress(p.Seller),
		Price:     p.Price.String(),
		Stock:     p.Stock,
	}
}

type balanceJSON struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type reputationJSON struct {
	Address string `json:"address"`
	Role    string `json:"role"`
	Sum     uint64 `json:"sum"`
	Count   uint64 `json:"count"`
	Average uint64 `json:"average"`
}

func newReputationJSON(addr [20]byte, role reputation.Role, record *reputation.Record) *reputationJSON {
	return &reputationJSON{
		Address: formatAddress(addr),
		Role:    role.String(),
		Sum:     record.Sum,
		Count:   record.Count,
		Average: record.Average(),
	}
}

type outcomeJSON struct {
	OrderID    uint64 `json:"orderId"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail,omitempty"`
	Resolution string `json:"resolution"`
}
