package catalog

import "errors"

var (
	ErrUserNotFound        = errors.New("catalog: user not found")
	ErrUserExists          = errors.New("catalog: user already registered")
	ErrUsernameRequired    = errors.New("catalog: username required")
	ErrInvalidRole         = errors.New("catalog: capability set must not be empty")
	ErrSameRole            = errors.New("catalog: role already assigned")
	ErrWrongRole           = errors.New("catalog: account lacks required role")
	ErrProductNotFound     = errors.New("catalog: product not found")
	ErrProductExists       = errors.New("catalog: product name already registered")
	ErrInvalidProduct      = errors.New("catalog: invalid product definition")
	ErrPublicationNotFound = errors.New("catalog: publication not found")
	ErrInvalidPublication  = errors.New("catalog: invalid publication definition")
	ErrInsufficientStock   = errors.New("catalog: insufficient publication stock")
	ErrInsufficientDeposit = errors.New("catalog: insufficient deposit stock")
	ErrStockOverflow       = errors.New("catalog: stock counter overflow")
)
