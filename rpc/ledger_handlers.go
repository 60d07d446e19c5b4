package rpc

import (
	"math/big"
	"net/http"

	"mercato/native/reputation"
)

type ledgerMoveParams struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

func (s *Server) handleLedgerCredit(w http.ResponseWriter, req *RPCRequest) {
	s.handleLedgerMove(w, req, s.node.Credit)
}

func (s *Server) handleLedgerDebit(w http.ResponseWriter, req *RPCRequest) {
	s.handleLedgerMove(w, req, s.node.Debit)
}

func (s *Server) handleLedgerMove(w http.ResponseWriter, req *RPCRequest, op func([20]byte, *big.Int) (*big.Int, error)) {
	var params ledgerMoveParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := op(addr, amount)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &balanceJSON{Address: formatAddress(addr), Balance: balance.String()})
}

type addressParams struct {
	Address string `json:"address"`
}

func (s *Server) handleLedgerGetBalance(w http.ResponseWriter, req *RPCRequest) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.Balance(addr)
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &balanceJSON{Address: formatAddress(addr), Balance: balance.String()})
}

func (s *Server) handleGetSellerReputation(w http.ResponseWriter, req *RPCRequest) {
	s.handleGetReputation(w, req, reputation.RoleSeller)
}

func (s *Server) handleGetBuyerReputation(w http.ResponseWriter, req *RPCRequest) {
	s.handleGetReputation(w, req, reputation.RoleBuyer)
}

func (s *Server) handleGetReputation(w http.ResponseWriter, req *RPCRequest, role reputation.Role) {
	var params addressParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	var record *reputation.Record
	if role == reputation.RoleSeller {
		record, err = s.node.SellerReputation(addr)
	} else {
		record, err = s.node.BuyerReputation(addr)
	}
	if err != nil {
		writeMarketError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newReputationJSON(addr, role, record))
}
