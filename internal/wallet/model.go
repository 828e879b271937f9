package wallet

import "time"

const (
	TxTopUp             = "topup"
	TxMembershipPayment = "membership_payment"
	TxRefund            = "refund"
)

type Wallet struct {
	ID           int       `db:"id" json:"id"`
	MemberID     string    `db:"member_id" json:"member_id"`
	BalancePaise int64     `db:"balance_paise" json:"balance_paise"`
	Currency     string    `db:"currency" json:"currency"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Transaction struct {
	ID           int       `db:"id" json:"id"`
	WalletID     int       `db:"wallet_id" json:"wallet_id"`
	AmountPaise  int64     `db:"amount_paise" json:"amount_paise"`
	Type         string    `db:"type" json:"type"`
	Description  string    `db:"description" json:"description"`
	BalanceAfter int64     `db:"balance_after" json:"balance_after"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
