package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ClubVote/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventStore 本地选举活动存储：纯键值集合，不做任何业务校验
type EventStore interface {
	Create(ctx context.Context, ev *model.Event) (*model.Event, error)
	// List 返回副本，保持插入顺序
	List(ctx context.Context) ([]*model.Event, error)
	Get(ctx context.Context, id uint64) (*model.Event, error)
	// Update 浅合并，LineItems 整体替换；不存在返回 ErrNotFound
	Update(ctx context.Context, id uint64, patch model.EventPatch) (*model.Event, error)
	// Delete 幂等，不存在也返回 nil
	Delete(ctx context.Context, id uint64) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建基于 PostgreSQL 的活动存储，ID 由自增序列分配
func NewEventRepository(db *gorm.DB) EventStore {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, ev *model.Event) (*model.Event, error) {
	row := ev.Clone()
	row.ID = 0
	if err := encodeLineItems(row); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("保存Event失败: %w, name: %s", err, ev.Name)
	}
	return row, nil
}

func (r *eventRepository) List(ctx context.Context) ([]*model.Event, error) {
	var list []*model.Event
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	for _, ev := range list {
		if err := decodeLineItems(ev); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *eventRepository) Get(ctx context.Context, id uint64) (*model.Event, error) {
	var ev model.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ev).Error; err != nil {
		return nil, translate(err)
	}
	if err := decodeLineItems(&ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Update 事务内 SELECT ... FOR UPDATE 后合并，避免并发编辑互相覆盖
func (r *eventRepository) Update(ctx context.Context, id uint64, patch model.EventPatch) (*model.Event, error) {
	var out *model.Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev model.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&ev).Error; err != nil {
			return translate(err)
		}
		if err := decodeLineItems(&ev); err != nil {
			return err
		}
		patch.Apply(&ev)
		if err := encodeLineItems(&ev); err != nil {
			return err
		}
		ev.UpdatedAt = time.Now()
		if err := tx.Model(&model.Event{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name":        ev.Name,
			"description": ev.Description,
			"start_date":  ev.StartDate,
			"end_date":    ev.EndDate,
			"line_items":  ev.LineItemsRaw,
			"updated_at":  ev.UpdatedAt,
		}).Error; err != nil {
			return fmt.Errorf("更新Event失败: %w, id: %d", err, id)
		}
		out = &ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Event{}).Error
}

func encodeLineItems(ev *model.Event) error {
	items := ev.LineItems
	if items == nil {
		items = []model.LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("序列化 line_items 失败: %w", err)
	}
	ev.LineItemsRaw = raw
	return nil
}

func decodeLineItems(ev *model.Event) error {
	ev.LineItems = []model.LineItem{}
	if len(ev.LineItemsRaw) == 0 {
		return nil
	}
	if err := json.Unmarshal(ev.LineItemsRaw, &ev.LineItems); err != nil {
		return fmt.Errorf("解析 line_items 失败 event_id=%d: %w", ev.ID, err)
	}
	if ev.LineItems == nil {
		ev.LineItems = []model.LineItem{}
	}
	return nil
}

type memoryEventStore struct {
	events *collection[model.Event]
}

// NewMemoryEventStore 创建进程内活动存储
func NewMemoryEventStore() EventStore {
	return &memoryEventStore{
		events: newCollection(
			func(e *model.Event, id uint64) { e.ID = id },
			(*model.Event).Clone,
		),
	}
}

func (s *memoryEventStore) Create(_ context.Context, ev *model.Event) (*model.Event, error) {
	row := ev.Clone()
	now := time.Now()
	row.CreatedAt, row.UpdatedAt = now, now
	return s.events.insert(row), nil
}

func (s *memoryEventStore) List(_ context.Context) ([]*model.Event, error) {
	return s.events.list(), nil
}

func (s *memoryEventStore) Get(_ context.Context, id uint64) (*model.Event, error) {
	ev, ok := s.events.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return ev, nil
}

func (s *memoryEventStore) Update(_ context.Context, id uint64, patch model.EventPatch) (*model.Event, error) {
	ev, ok := s.events.update(id, func(e *model.Event) {
		patch.Apply(e)
		e.UpdatedAt = time.Now()
	})
	if !ok {
		return nil, ErrNotFound
	}
	return ev, nil
}

func (s *memoryEventStore) Delete(_ context.Context, id uint64) error {
	s.events.remove(id)
	return nil
}
