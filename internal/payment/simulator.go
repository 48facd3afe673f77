package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ChargeInput struct {
	//金額（セント）
	Amount        int64
	OrderID       string
	CustomerEmail string
	CustomerName  string
}

type ChargeResult struct {
	TransactionID string
	Message       string
}

// 決済の約束。実装差し替え用。
type Gateway interface {
	Charge(ctx context.Context, in ChargeInput) (ChargeResult, error)
}

// Simulator は常に成功する決済スタブ。
// 本物のオーソリ判断はしない。本番の決済経路ではない。
type Simulator struct {
	log *zap.Logger
}

func NewSimulator(log *zap.Logger) *Simulator {
	return &Simulator{log: log}
}

func (s *Simulator) Charge(ctx context.Context, in ChargeInput) (ChargeResult, error) {
	if in.Amount <= 0 {
		return ChargeResult{}, errors.New("invalid amount")
	}
	if in.OrderID == "" {
		return ChargeResult{}, errors.New("order id required")
	}

	txnID := "sim_" + uuid.NewString()

	s.log.Info("payment simulated",
		zap.String("order_id", in.OrderID),
		zap.Int64("amount", in.Amount),
		zap.String("transaction_id", txnID),
	)

	return ChargeResult{
		TransactionID: txnID,
		Message:       "Payment processed successfully",
	}, nil
}
