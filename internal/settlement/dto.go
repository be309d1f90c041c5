package settlement

import (
	"time"

	"github.com/triply/tripledger/internal/money"
)

// ConfirmRequest identifies which side of the transfer is confirming
type ConfirmRequest struct {
	Role string `json:"role" example:"payer"`
}

// Response is a settlement row with the amount rendered as a decimal string
type Response struct {
	TripID            int64      `json:"trip_id" example:"1"`
	Idx               int        `json:"idx" example:"0"`
	FromUserID        int64      `json:"from_user_id" example:"2"`
	ToUserID          int64      `json:"to_user_id" example:"3"`
	Amount            string     `json:"amount" example:"25.50"`
	DueAt             time.Time  `json:"due_at"`
	Status            string     `json:"status" example:"pending"`
	PayerConfirmed    bool       `json:"payer_confirmed" example:"false"`
	ReceiverConfirmed bool       `json:"receiver_confirmed" example:"false"`
	SettledAt         *time.Time `json:"settled_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// BalanceResponse is one participant's net position for the trip
type BalanceResponse struct {
	UserID int64  `json:"user_id" example:"2"`
	Net    string `json:"net" example:"-25.50"`
}

// ToResponse converts a settlement to its API representation
func ToResponse(s *Settlement) *Response {
	return &Response{
		TripID:            s.TripID,
		Idx:               s.Idx,
		FromUserID:        s.FromUserID,
		ToUserID:          s.ToUserID,
		Amount:            money.FromCents(s.AmountCents).StringFixed(2),
		DueAt:             s.DueAt,
		Status:            string(s.Status()),
		PayerConfirmed:    s.PayerConfirmed,
		ReceiverConfirmed: s.ReceiverConfirmed,
		SettledAt:         s.SettledAt,
		CreatedAt:         s.CreatedAt,
	}
}

// ToResponseList converts a settlement batch to its API representation
func ToResponseList(batch []*Settlement) []*Response {
	out := make([]*Response, 0, len(batch))
	for _, s := range batch {
		out = append(out, ToResponse(s))
	}
	return out
}

// ToBalanceResponseList converts net balances to their API representation
func ToBalanceResponseList(balances []Balance) []*BalanceResponse {
	out := make([]*BalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, &BalanceResponse{
			UserID: b.UserID,
			Net:    money.FromCents(b.NetCents).StringFixed(2),
		})
	}
	return out
}
