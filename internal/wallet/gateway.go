package wallet

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"triplea/internal/membership"
)

// Gateway charges membership purchases to the member's prepaid wallet.
type Gateway struct {
	repo Repository
}

func NewGateway(repo Repository) *Gateway {
	return &Gateway{repo: repo}
}

func (g *Gateway) Charge(ctx context.Context, memberID string, amountPaise int64, description string) (membership.PaymentResult, error) {
	t, err := g.repo.AddTransaction(ctx, memberID, -amountPaise, TxMembershipPayment, description)
	if errors.Is(err, ErrInsufficientBalance) {
		return membership.PaymentResult{Status: membership.PaymentFailed, Method: membership.MethodWallet}, nil
	}
	if err != nil {
		return membership.PaymentResult{}, fmt.Errorf("wallet charge: %w: %w", membership.ErrGatewayUnavailable, err)
	}
	return membership.PaymentResult{
		Status:    membership.PaymentCompleted,
		Method:    membership.MethodWallet,
		Reference: strconv.Itoa(t.ID),
	}, nil
}

func (g *Gateway) Refund(ctx context.Context, memberID string, amountPaise int64, description string) error {
	if _, err := g.repo.AddTransaction(ctx, memberID, amountPaise, TxRefund, description); err != nil {
		return fmt.Errorf("wallet refund: %w", err)
	}
	return nil
}
