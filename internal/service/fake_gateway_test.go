package service

import (
	"context"
	"fmt"
	"sync"

	"ClubVote/internal/model"
)

type createCall struct {
	name, description, start, end string
}

type finalizeCall struct {
	id     uint64
	winner string
}

// fakeGateway 记录转发到链上的调用
type fakeGateway struct {
	mu         sync.Mutex
	connected  bool
	connectErr error
	txErr      error
	events     []*model.ChainEvent
	created    []createCall
	finalized  []finalizeCall
}

func (g *fakeGateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.connectErr != nil {
		return g.connectErr
	}
	g.connected = true
	return nil
}

func (g *fakeGateway) IsConnected(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

func (g *fakeGateway) EventCount(ctx context.Context) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return uint64(len(g.events)), nil
}

func (g *fakeGateway) ListEvents(ctx context.Context) ([]*model.ChainEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*model.ChainEvent(nil), g.events...), nil
}

func (g *fakeGateway) CreateEvent(ctx context.Context, name, description, startDate, endDate string) (*model.TransactionHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.txErr != nil {
		return nil, g.txErr
	}
	g.created = append(g.created, createCall{name, description, startDate, endDate})
	g.events = append(g.events, &model.ChainEvent{ID: uint64(len(g.events) + 1), Name: name, Description: description})
	return &model.TransactionHandle{Hash: fmt.Sprintf("0x%064x", len(g.created))}, nil
}

func (g *fakeGateway) FinalizeEvent(ctx context.Context, eventID uint64, winner string) (*model.TransactionHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.txErr != nil {
		return nil, g.txErr
	}
	g.finalized = append(g.finalized, finalizeCall{eventID, winner})
	return &model.TransactionHandle{Hash: fmt.Sprintf("0x%064x", 100+len(g.finalized))}, nil
}
