package interfaces

import (
	"context"

	"ClubVote/internal/model"
)

// ChainGateway 链上投票活动登记处（由 chain.Client 实现）
type ChainGateway interface {
	Connect(ctx context.Context) error
	IsConnected(ctx context.Context) bool
	EventCount(ctx context.Context) (uint64, error)
	ListEvents(ctx context.Context) ([]*model.ChainEvent, error)
	CreateEvent(ctx context.Context, name, description, startDate, endDate string) (*model.TransactionHandle, error)
	FinalizeEvent(ctx context.Context, eventID uint64, winner string) (*model.TransactionHandle, error)
}
