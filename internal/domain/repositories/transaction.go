package repositories

import "context"

// TxFn runs inside a transaction; a non-nil return rolls the transaction back.
type TxFn func(ctx context.Context) error

// TransactionManager opens a transaction, stores it in the context via
// SetTx, and runs fn with that context.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
