package rpc

import (
	"errors"
	"net/http"

	"mercato/native/catalog"
	"mercato/native/escrow"
	"mercato/native/ledger"
	"mercato/native/orders"
)

const (
	codeMarketInvalidParams = -32031
	codeMarketNotFound      = -32032
	codeMarketForbidden     = -32033
	codeMarketConflict      = -32034
	codeMarketInternal      = -32035
)

func writeMarketError(w http.ResponseWriter, id interface{}, err error) {
	if err == nil {
		return
	}
	status := http.StatusInternalServerError
	code := codeMarketInternal
	message := "internal_error"
	switch {
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrPublicationNotFound),
		errors.Is(err, orders.ErrUserNotFound),
		errors.Is(err, catalog.ErrUserNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrPublicationNotFound):
		status = http.StatusNotFound
		code = codeMarketNotFound
		message = "not_found"
	case errors.Is(err, orders.ErrNotSeller),
		errors.Is(err, orders.ErrNotBuyer),
		errors.Is(err, orders.ErrNotAuthorized),
		errors.Is(err, orders.ErrNotArbiter),
		errors.Is(err, orders.ErrWrongRole),
		errors.Is(err, catalog.ErrWrongRole):
		status = http.StatusForbidden
		code = codeMarketForbidden
		message = "forbidden"
	case errors.Is(err, orders.ErrWrongState),
		errors.Is(err, orders.ErrOrderCancelled),
		errors.Is(err, orders.ErrCancellationPending),
		errors.Is(err, orders.ErrAlreadyRated),
		errors.Is(err, orders.ErrNotInDispute),
		errors.Is(err, orders.ErrNotPendingArbiter),
		errors.Is(err, orders.ErrDisputeNotResolved),
		errors.Is(err, orders.ErrOverflow),
		errors.Is(err, escrow.ErrFundsAlreadyHeld),
		errors.Is(err, escrow.ErrFundsNotHeld),
		errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, catalog.ErrInsufficientDeposit),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrOverflow):
		status = http.StatusConflict
		code = codeMarketConflict
		message = "conflict"
	case errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrInvalidPayment),
		errors.Is(err, orders.ErrInvalidReason),
		errors.Is(err, orders.ErrInvalidResolution),
		errors.Is(err, orders.ErrInvalidDecision),
		errors.Is(err, orders.ErrRatingOutOfRange),
		errors.Is(err, orders.ErrInsufficientAmount),
		errors.Is(err, ledger.ErrInsufficientAmount):
		status = http.StatusBadRequest
		code = codeMarketInvalidParams
		message = "invalid_params"
	}
	writeError(w, status, id, code, message, err.Error())
}

type placeOrderParams struct {
	Buyer         string `json:"buyer"`
	PublicationID uint64 `json:"publicationId"`
	Quantity      uint64 `json:"quantity"`
	Payment       string `json:"payment"`
	Declared      string `json:"declared,omitempty"`
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, req *RPCRequest) {
	var params placeOrderParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := parseAddress(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	kind, err := parsePaymentKind(params.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	payment := orders.Payment{Kind: kind}
	if params.Declared != "" {
		declared, err := parseAmount(params.Declared)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		payment.Declared = declared
	}
	order, err := s.node.PlaceOrder(buyer, params.PublicationID, params.Quantity, payment)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newOrderJSON(order))
}

type orderIDParams struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleGetOrder(w http.ResponseWriter, req *RPCRequest) {
	var params orderIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	order, err := s.node.GetOrder(params.ID)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newOrderJSON(order))
}

type orderActorParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

func (s *Server) handleMarkShipped(w http.ResponseWriter, req *RPCRequest) {
	s.handleOrderTransition(w, req, s.node.MarkShipped)
}

func (s *Server) handleMarkReceived(w http.ResponseWriter, req *RPCRequest) {
	s.handleOrderTransition(w, req, s.node.MarkReceived)
}

func (s *Server) handleCancel(w http.ResponseWriter, req *RPCRequest) {
	s.handleOrderTransition(w, req, s.node.ManageCancellation)
}

func (s *Server) handleOrderTransition(w http.ResponseWriter, req *RPCRequest, op func([20]byte, uint64) (*orders.Order, error)) {
	var params orderActorParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	order, err := op(caller, params.ID)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newOrderJSON(order))
}

type rateParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
	Score  uint8  `json:"score"`
}

func (s *Server) handleRate(w http.ResponseWriter, req *RPCRequest) {
	var params rateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	order, err := s.node.RateOrder(caller, params.ID, params.Score)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newOrderJSON(order))
}

type openDisputeParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) handleOpenDispute(w http.ResponseWriter, req *RPCRequest) {
	var params openDisputeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	kind, err := parseReasonKind(params.Reason)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	order, err := s.node.OpenDispute(caller, params.ID, orders.Reason{Kind: kind, Detail: params.Detail})
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newOrderJSON(order))
}

type resolveDisputeParams struct {
	Caller     string `json:"caller"`
	ID         uint64 `json:"id"`
	Resolution string `json:"resolution"`
	Decision   string `json:"decision"`
}

func (s *Server) handleResolveDispute(w http.ResponseWriter, req *RPCRequest) {
	s.handleDisputeResolution(w, req, s.node.ResolveDispute)
}

func (s *Server) handleResolveDisputeArbiter(w http.ResponseWriter, req *RPCRequest) {
	s.handleDisputeResolution(w, req, s.node.ResolveDisputeArbiter)
}

func (s *Server) handleDisputeResolution(w http.ResponseWriter, req *RPCRequest, op func([20]byte, uint64, orders.Resolution, orders.Decision) (*orders.Order, error)) {
	var params resolveDisputeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	resolution, err := parseResolution(params.Resolution)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	decision, err := parseDecision(params.Decision)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	order, err := op(caller, params.ID, resolution, decision)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newOrderJSON(order))
}

func (s *Server) handleGetDisputeOutcome(w http.ResponseWriter, req *RPCRequest) {
	var params orderIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	reason, resolution, err := s.node.DisputeOutcome(params.ID)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &outcomeJSON{
		OrderID:    params.ID,
		Reason:     reason.Kind.String(),
		Detail:     reason.Detail,
		Resolution: resolution.String(),
	})
}
