package model

import (
	"time"

	"gorm.io/datatypes"
)

// Event 本地选举活动（含 club × position × 候选人 名单）
type Event struct {
	ID          uint64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	Name        string     `gorm:"column:name;type:varchar(256);not null;comment:活动名称" json:"name"`
	Description string     `gorm:"column:description;type:text;comment:活动描述" json:"description"`
	StartDate   time.Time  `gorm:"column:start_date;type:timestamp;not null;comment:开始时间" json:"start_date"`
	EndDate     time.Time  `gorm:"column:end_date;type:timestamp;not null;comment:结束时间" json:"end_date"`
	LineItems   []LineItem `gorm:"-" json:"line_items"`
	// LineItemsRaw 仅用于落库（jsonb），由 repository 负责与 LineItems 互转
	LineItemsRaw datatypes.JSON `gorm:"column:line_items;type:jsonb;not null;comment:候选名单" json:"-"`
	CreatedAt    time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间" json:"updated_at"`
}

func (Event) TableName() string { return "events" }

// LineItem 活动中的一条（社团, 职位, 候选人集合）
// Position 为空表示尚未选择职位
type LineItem struct {
	ClubID       uint64   `json:"club_id"`
	Position     string   `json:"position"`
	CandidateIDs []uint64 `json:"candidate_ids"`
}

// HasCandidate 判断候选人是否已在该条目中
func (li LineItem) HasCandidate(candidateID uint64) bool {
	for _, id := range li.CandidateIDs {
		if id == candidateID {
			return true
		}
	}
	return false
}

// Clone 深拷贝，store 返回的都是副本
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	cp := *e
	cp.LineItems = CloneLineItems(e.LineItems)
	if e.LineItemsRaw != nil {
		cp.LineItemsRaw = append(datatypes.JSON(nil), e.LineItemsRaw...)
	}
	return &cp
}

// CloneLineItems 拷贝名单，nil 归一为空切片
func CloneLineItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, li := range items {
		out[i] = LineItem{
			ClubID:       li.ClubID,
			Position:     li.Position,
			CandidateIDs: append([]uint64{}, li.CandidateIDs...),
		}
	}
	return out
}

// EventDraft 创建/编辑表单提交的原始输入，日期为日历字符串（2025-04-01 或 RFC3339）
type EventDraft struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	LineItems   []LineItem `json:"line_items"`
}

// EventPatch 浅合并补丁：nil 字段保持原值，LineItems 整体替换
type EventPatch struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	LineItems   *[]LineItem
}

// Apply 将补丁合并到事件上
func (p EventPatch) Apply(e *Event) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.StartDate != nil {
		e.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		e.EndDate = *p.EndDate
	}
	if p.LineItems != nil {
		e.LineItems = CloneLineItems(*p.LineItems)
	}
}

// EventStatus 本地活动的派生状态（不落库，按当前时间实时计算）
type EventStatus string

const (
	EventUpcoming EventStatus = "upcoming"
	EventOngoing  EventStatus = "ongoing"
	EventPast     EventStatus = "past"
)

// Rank 状态顺序 Upcoming < Ongoing < Past
func (s EventStatus) Rank() int {
	switch s {
	case EventUpcoming:
		return 0
	case EventOngoing:
		return 1
	case EventPast:
		return 2
	}
	return -1
}
