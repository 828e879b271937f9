package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("top up amount must be positive")
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	walletSelect = `id, member_id, balance_paise, currency, created_at, updated_at`

	// ensureWallet is a no-op when the member already has a wallet, so two
	// first operations racing for the same member both succeed.
	ensureWallet = `INSERT INTO wallets (member_id) VALUES ($1) ON CONFLICT (member_id) DO NOTHING`
)

func (r *PostgresRepository) GetOrCreateWallet(ctx context.Context, memberID string) (*Wallet, error) {
	w := &Wallet{}
	query := `SELECT ` + walletSelect + ` FROM wallets WHERE member_id = $1`
	err := r.db.GetContext(ctx, w, query, memberID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx, ensureWallet, memberID); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, w, query, memberID); err != nil {
		return nil, err
	}
	return w, nil
}

// AddTransaction applies a signed amount under a row lock. A debit that
// would take the balance below zero fails with ErrInsufficientBalance.
func (r *PostgresRepository) AddTransaction(ctx context.Context, memberID string, amountPaise int64, txType, description string) (*Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, ensureWallet, memberID); err != nil {
		return nil, err
	}

	var w Wallet
	err = tx.QueryRowxContext(ctx,
		`SELECT `+walletSelect+`
		 FROM wallets
		 WHERE member_id = $1
		 FOR UPDATE`,
		memberID,
	).StructScan(&w)
	if err != nil {
		return nil, err
	}

	newBalance := w.BalancePaise + amountPaise
	if newBalance < 0 {
		return nil, ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets
		 SET balance_paise = $1, updated_at = NOW()
		 WHERE id = $2`,
		newBalance, w.ID,
	)
	if err != nil {
		return nil, err
	}

	var t Transaction
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO wallet_transactions (wallet_id, amount_paise, type, description, balance_after)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, wallet_id, amount_paise, type, description, balance_after, created_at`,
		w.ID, amountPaise, txType, description, newBalance,
	).StructScan(&t)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresRepository) TopUp(ctx context.Context, memberID string, amountPaise int64) (*Transaction, error) {
	if amountPaise <= 0 {
		return nil, ErrInvalidAmount
	}
	return r.AddTransaction(ctx, memberID, amountPaise, TxTopUp, "wallet top up")
}

func (r *PostgresRepository) GetTransactions(ctx context.Context, memberID string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var walletID int
	err := r.db.GetContext(ctx, &walletID, `SELECT id FROM wallets WHERE member_id = $1`, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []Transaction{}, nil
		}
		return nil, err
	}

	txs := []Transaction{}
	err = r.db.SelectContext(ctx, &txs, `
		SELECT id, wallet_id, amount_paise, type, description, balance_after, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, walletID, limit, offset)
	if err != nil {
		return nil, err
	}
	return txs, nil
}
