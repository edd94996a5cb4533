package ledger

import "errors"

var (
	ErrNotFound  = errors.New("ledger entry not found")
	ErrDuplicate = errors.New("content already recorded in ledger")
)
