package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"ClubVote/internal/interfaces"
	"ClubVote/internal/metrics"
	"ClubVote/internal/model"
	"ClubVote/internal/repository"
	"ClubVote/internal/utils/dateparse"

	"github.com/sirupsen/logrus"
)

// Options 活动编辑规则
type Options struct {
	UniqueLineItems bool             // 同一活动内 club+position 至多一条
	Now             func() time.Time // 测试可注入时钟
}

// EventService 选举活动生命周期：本地活动、名单编辑、状态派生与链上登记
type EventService struct {
	events     repository.EventStore
	clubs      repository.ClubStore
	candidates repository.CandidateStore
	chain      interfaces.ChainGateway
	logger     *logrus.Logger
	metrics    *metrics.Recorder
	opts       Options

	editMu sync.Mutex // 串行化 读-改-写 的名单编辑
}

// NewEventService chain 为 nil 时链上操作返回 ErrChainDisabled
func NewEventService(stores *repository.Stores, chain interfaces.ChainGateway, logger *logrus.Logger, rec *metrics.Recorder, opts Options) *EventService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EventService{
		events:     stores.Events,
		clubs:      stores.Clubs,
		candidates: stores.Candidates,
		chain:      chain,
		logger:     logger,
		metrics:    rec,
		opts:       opts,
	}
}

// EventView 本地活动 + 派生状态
type EventView struct {
	*model.Event
	Status model.EventStatus `json:"status"`
}

// View 按当前时间计算状态
func (s *EventService) View(ev *model.Event) EventView {
	return EventView{Event: ev, Status: DeriveStatus(ev, s.opts.Now())}
}

// CreateEvent 校验表单后写入 EventStore
func (s *EventService) CreateEvent(ctx context.Context, draft model.EventDraft) (*model.Event, error) {
	ev, err := s.buildEvent(ctx, draft)
	if err != nil {
		return nil, err
	}
	created, err := s.events.Create(ctx, ev)
	if err != nil {
		return nil, err
	}
	s.metrics.EventCreated()
	s.logger.WithFields(logrus.Fields{"event_id": created.ID, "name": created.Name}).Info("选举活动已创建")
	return created, nil
}

// UpdateEvent 编辑弹窗保存：校验规则与创建相同，整体覆盖字段与名单
func (s *EventService) UpdateEvent(ctx context.Context, id uint64, draft model.EventDraft) (*model.Event, error) {
	ev, err := s.buildEvent(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.editMu.Lock()
	defer s.editMu.Unlock()
	updated, err := s.events.Update(ctx, id, model.EventPatch{
		Name:        &ev.Name,
		Description: &ev.Description,
		StartDate:   &ev.StartDate,
		EndDate:     &ev.EndDate,
		LineItems:   &ev.LineItems,
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithField("event_id", id).Info("选举活动已更新")
	return updated, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint64) (*model.Event, error) {
	return s.events.Get(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context) ([]*model.Event, error) {
	return s.events.List(ctx)
}

// DeleteEvent 删除本地活动；不存在时同样返回成功
func (s *EventService) DeleteEvent(ctx context.Context, id uint64) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.EventDeleted()
	s.logger.WithField("event_id", id).Info("选举活动已删除")
	return nil
}

// Ongoing 当前进行中的本地活动
func (s *EventService) Ongoing(ctx context.Context) ([]*model.Event, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	return ListOngoing(events, s.opts.Now()), nil
}

// EditEvent 对已保存活动执行一次名单编辑并写回；edit 返回错误时不落库
func (s *EventService) EditEvent(ctx context.Context, id uint64, edit func(ev *model.Event) error) (*model.Event, error) {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	ev, err := s.events.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := edit(ev); err != nil {
		return nil, err
	}
	return s.events.Update(ctx, id, model.EventPatch{LineItems: &ev.LineItems})
}

// buildEvent 先校验全部字段，再构造待写入的活动
func (s *EventService) buildEvent(ctx context.Context, draft model.EventDraft) (*model.Event, error) {
	name, start, end, err := validateDraft(draft)
	if err != nil {
		return nil, err
	}
	items := model.CloneLineItems(draft.LineItems)
	if err := s.validateLineItems(ctx, items); err != nil {
		return nil, err
	}
	return &model.Event{
		Name:        name,
		Description: draft.Description,
		StartDate:   start,
		EndDate:     end,
		LineItems:   items,
	}, nil
}

// validateDraft 名称与起止日期必填，日期可解析且 start <= end
func validateDraft(draft model.EventDraft) (string, time.Time, time.Time, error) {
	name := strings.TrimSpace(draft.Name)
	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(draft.StartDate) == "" {
		missing = append(missing, "start_date")
	}
	if strings.TrimSpace(draft.EndDate) == "" {
		missing = append(missing, "end_date")
	}
	if len(missing) > 0 {
		return "", time.Time{}, time.Time{}, &ValidationError{Missing: missing}
	}
	start, end, err := dateparse.Window(draft.StartDate, draft.EndDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return "", time.Time{}, time.Time{}, invalid("start_date must not be after end_date")
	}
	return name, start, end, nil
}

// validateLineItems 校验社团存在、职位合法、候选人匹配；重复的候选人 id 按集合语义去重
func (s *EventService) validateLineItems(ctx context.Context, items []model.LineItem) error {
	type slot struct {
		club     uint64
		position string
	}
	seen := make(map[slot]bool, len(items))
	for i := range items {
		item := &items[i]
		club, err := s.clubs.Get(ctx, item.ClubID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid("line item %d: club %d not found", i, item.ClubID)
			}
			return err
		}
		if item.Position == "" {
			if len(item.CandidateIDs) > 0 {
				return invalid("line item %d: candidates require a position", i)
			}
			continue
		}
		if !club.HasPosition(item.Position) {
			return invalid("line item %d: %v", i, ErrInvalidPosition)
		}
		if s.opts.UniqueLineItems {
			key := slot{item.ClubID, item.Position}
			if seen[key] {
				return invalid("line item %d: %v", i, ErrDuplicateLineItem)
			}
			seen[key] = true
		}
		ids := make([]uint64, 0, len(item.CandidateIDs))
		dedup := make(map[uint64]bool, len(item.CandidateIDs))
		for _, cid := range item.CandidateIDs {
			if dedup[cid] {
				continue
			}
			dedup[cid] = true
			cand, err := s.candidates.Get(ctx, cid)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return invalid("line item %d: candidate %d not found", i, cid)
				}
				return err
			}
			if !cand.Matches(item.ClubID, item.Position) {
				return invalid("line item %d: %v", i, ErrCandidateMismatch)
			}
			ids = append(ids, cid)
		}
		item.CandidateIDs = ids
	}
	return nil
}

// DeriveStatus 纯函数：now < start 为 upcoming，start <= now <= end 为 ongoing，其余为 past
func DeriveStatus(ev *model.Event, now time.Time) model.EventStatus {
	switch {
	case now.Before(ev.StartDate):
		return model.EventUpcoming
	case now.After(ev.EndDate):
		return model.EventPast
	default:
		return model.EventOngoing
	}
}

// ListOngoing 过滤出 start <= now <= end 的活动，保持原顺序
func ListOngoing(events []*model.Event, now time.Time) []*model.Event {
	out := make([]*model.Event, 0, len(events))
	for _, ev := range events {
		if DeriveStatus(ev, now) == model.EventOngoing {
			out = append(out, ev)
		}
	}
	return out
}
