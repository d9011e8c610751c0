package interfaces

import "context"

// TxRunner runs fn with a querier bound to a database transaction that is
// committed when fn returns nil and rolled back otherwise.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(querier DBTX) error) error
}
