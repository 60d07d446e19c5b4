package rpc

import (
	"errors"
	"net/http"

	"mercato/native/catalog"
)

func writeCatalogError(w http.ResponseWriter, id interface{}, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, catalog.ErrUsernameRequired),
		errors.Is(err, catalog.ErrInvalidRole),
		errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, catalog.ErrInvalidPublication):
		writeError(w, http.StatusBadRequest, id, codeMarketInvalidParams, "invalid_params", err.Error())
	case errors.Is(err, catalog.ErrUserExists),
		errors.Is(err, catalog.ErrProductExists),
		errors.Is(err, catalog.ErrSameRole),
		errors.Is(err, catalog.ErrStockOverflow):
		writeError(w, http.StatusConflict, id, codeMarketConflict, "conflict", err.Error())
	default:
		writeMarketError(w, id, err)
	}
}

type registerParams struct {
	Address  string `json:"address"`
	Username string `json:"username"`
	CanBuy   bool   `json:"canBuy"`
	CanSell  bool   `json:"canSell"`
	Arbiter  bool   `json:"arbiter"`
}

func (s *Server) handleCatalogRegister(w http.ResponseWriter, req *RPCRequest) {
	var params registerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caps := catalog.Capabilities{CanBuy: params.CanBuy, CanSell: params.CanSell}
	account, err := s.node.Register(addr, params.Username, caps, params.Arbiter)
	if err != nil {
		writeCatalogError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newAccountJSON(account))
}

type setRoleParams struct {
	Address string `json:"address"`
	CanBuy  bool   `json:"canBuy"`
	CanSell bool   `json:"canSell"`
}

func (s *Server) handleCatalogSetRole(w http.ResponseWriter, req *RPCRequest) {
	var params setRoleParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := s.node.SetCapabilities(addr, catalog.Capabilities{CanBuy: params.CanBuy, CanSell: params.CanSell})
	if err != nil {
		writeCatalogError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newAccountJSON(account))
}

func (s *Server) handleCatalogGetAccount(w http.ResponseWriter, req *RPCRequest) {
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
	account, err := s.node.GetAccount(addr)
	if err != nil {
		writeCatalogError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newAccountJSON(account))
}

type addProductParams struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
}

func (s *Server) handleCatalogAddProduct(w http.ResponseWriter, req *RPCRequest) {
	var params addProductParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	product, err := s.node.AddProduct(params.Name, params.Description, params.Category)
	if err != nil {
		writeCatalogError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newProductJSON(product))
}

type publishParams struct {
	Seller    string `json:"seller"`
	ProductID uint64 `json:"productId"`
	Price     string `json:"price"`
	Stock     uint64 `json:"stock"`
}

func (s *Server) handleCatalogPublish(w http.ResponseWriter, req *RPCRequest) {
	var params publishParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	seller, err := parseAddress(params.Seller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pub, err := s.node.Publish(seller, params.ProductID, price, params.Stock)
	if err != nil {
		writeCatalogError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newPublicationJSON(pub))
}

type depositParams struct {
	Seller    string `json:"seller"`
	ProductID uint64 `json:"productId"`
	Quantity  uint64 `json:"quantity"`
}

type depositJSON struct {
	Seller    string `json:"seller"`
	ProductID uint64 `json:"productId"`
	Count     uint64 `json:"count"`
}

func (s *Server) handleCatalogDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params depositParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	seller, err := parseAddress(params.Seller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	count, err := s.node.CreditDeposit(seller, params.ProductID, params.Quantity)
	if err != nil {
		writeCatalogError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, &depositJSON{Seller: formatAddress(seller), ProductID: params.ProductID, Count: count})
}

type publicationIDParams struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleCatalogGetPublication(w http.ResponseWriter, req *RPCRequest) {
	var params publicationIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pub, err := s.node.GetPublication(params.ID)
	if err != nil {
		writeCatalogError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newPublicationJSON(pub))
}
