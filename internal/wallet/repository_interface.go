package wallet

import "context"

type Repository interface {
	GetOrCreateWallet(ctx context.Context, memberID string) (*Wallet, error)
	AddTransaction(ctx context.Context, memberID string, amountPaise int64, txType, description string) (*Transaction, error)
	TopUp(ctx context.Context, memberID string, amountPaise int64) (*Transaction, error)
	GetTransactions(ctx context.Context, memberID string, limit, offset int) ([]Transaction, error)
}
