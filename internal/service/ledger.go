package service

import (
	"context"
	"strings"
	"time"

	"ClubVote/internal/model"

	"github.com/sirupsen/logrus"
)

// 链上登记处与本地 EventStore 相互独立，这里显式暴露两侧操作，不做合并

// ChainEventView 链上活动 + 状态
type ChainEventView struct {
	*model.ChainEvent
	Status model.ChainEventStatus `json:"status"`
}

func (s *EventService) gateway() error {
	if s.chain == nil {
		return ErrChainDisabled
	}
	return nil
}

// ChainEnabled 是否配置了链上功能
func (s *EventService) ChainEnabled() bool { return s.chain != nil }

// ConnectWallet 发起钱包连接（已连接时幂等）
func (s *EventService) ConnectWallet(ctx context.Context) error {
	if err := s.gateway(); err != nil {
		return err
	}
	return s.chain.Connect(ctx)
}

// WalletConnected 不弹授权的连接状态查询；未启用链上功能时为 false
func (s *EventService) WalletConnected(ctx context.Context) bool {
	if s.chain == nil {
		return false
	}
	return s.chain.IsConnected(ctx)
}

// ListChainEvents 链上活动列表；无法解析的条目已被跳过
func (s *EventService) ListChainEvents(ctx context.Context) ([]ChainEventView, error) {
	if err := s.gateway(); err != nil {
		return nil, err
	}
	events, err := s.chain.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]ChainEventView, 0, len(events))
	for _, ev := range events {
		views = append(views, ChainEventView{ChainEvent: ev, Status: ev.Status()})
	}
	return views, nil
}

// CreateChainEvent 在合约上创建活动（不含名单），等待确认后返回交易回执
func (s *EventService) CreateChainEvent(ctx context.Context, draft model.EventDraft) (*model.TransactionHandle, error) {
	if err := s.gateway(); err != nil {
		return nil, err
	}
	name, _, _, err := validateDraft(draft)
	if err != nil {
		return nil, err
	}
	handle, err := s.chain.CreateEvent(ctx, name, draft.Description, draft.StartDate, draft.EndDate)
	if err != nil {
		s.logger.WithError(err).WithField("name", name).Error("链上创建活动失败")
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"name": name, "tx": handle.Hash}).Info("链上活动已创建")
	return handle, nil
}

// FinalizeChainEvent 公布结果；重复 finalize 交由合约自身规则处理
func (s *EventService) FinalizeChainEvent(ctx context.Context, eventID uint64, winner string) (*model.TransactionHandle, error) {
	if err := s.gateway(); err != nil {
		return nil, err
	}
	winner = strings.TrimSpace(winner)
	if winner == "" {
		return nil, &ValidationError{Missing: []string{"winner"}}
	}
	handle, err := s.chain.FinalizeEvent(ctx, eventID, winner)
	if err != nil {
		s.logger.WithError(err).WithField("chain_event_id", eventID).Error("链上公布结果失败")
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"chain_event_id": eventID, "winner": winner, "tx": handle.Hash}).Info("链上活动已公布结果")
	return handle, nil
}

// PublishEvent 将本地活动的名称、描述与时间窗口登记到链上；不记录两者关联
func (s *EventService) PublishEvent(ctx context.Context, localID uint64) (*model.TransactionHandle, error) {
	if err := s.gateway(); err != nil {
		return nil, err
	}
	ev, err := s.events.Get(ctx, localID)
	if err != nil {
		return nil, err
	}
	return s.CreateChainEvent(ctx, model.EventDraft{
		Name:        ev.Name,
		Description: ev.Description,
		StartDate:   ev.StartDate.UTC().Format(time.RFC3339),
		EndDate:     ev.EndDate.UTC().Format(time.RFC3339),
	})
}
