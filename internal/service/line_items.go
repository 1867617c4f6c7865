package service

import (
	"context"
	"fmt"

	"ClubVote/internal/model"
)

// 以下操作直接修改传入的活动（编辑缓冲区），校验通过后才改动；落库由 UpdateEvent / EditEvent 完成

// AddLineItem 追加 {clubID, "", []}；允许重复社团
func (s *EventService) AddLineItem(ctx context.Context, ev *model.Event, clubID uint64) error {
	if _, err := s.clubs.Get(ctx, clubID); err != nil {
		return err
	}
	ev.LineItems = append(ev.LineItems, model.LineItem{ClubID: clubID, Position: "", CandidateIDs: []uint64{}})
	return nil
}

// SetLineItemPosition 修改职位并清空候选人
func (s *EventService) SetLineItemPosition(ctx context.Context, ev *model.Event, index int, position string) error {
	item, err := lineItemAt(ev, index)
	if err != nil {
		return err
	}
	if position != "" {
		club, err := s.clubs.Get(ctx, item.ClubID)
		if err != nil {
			return err
		}
		if !club.HasPosition(position) {
			return fmt.Errorf("%w: %q", ErrInvalidPosition, position)
		}
		if s.opts.UniqueLineItems {
			for i, other := range ev.LineItems {
				if i != index && other.ClubID == item.ClubID && other.Position == position {
					return fmt.Errorf("%w: line item %d", ErrDuplicateLineItem, i)
				}
			}
		}
	}
	item.Position = position
	item.CandidateIDs = []uint64{}
	return nil
}

// ToggleCandidate 集合对称差：已存在则移除，否则校验匹配后加入
func (s *EventService) ToggleCandidate(ctx context.Context, ev *model.Event, index int, candidateID uint64) error {
	item, err := lineItemAt(ev, index)
	if err != nil {
		return err
	}
	for i, id := range item.CandidateIDs {
		if id == candidateID {
			ids := make([]uint64, 0, len(item.CandidateIDs)-1)
			ids = append(ids, item.CandidateIDs[:i]...)
			item.CandidateIDs = append(ids, item.CandidateIDs[i+1:]...)
			return nil
		}
	}
	cand, err := s.candidates.Get(ctx, candidateID)
	if err != nil {
		return err
	}
	if !cand.Matches(item.ClubID, item.Position) {
		return ErrCandidateMismatch
	}
	item.CandidateIDs = append(item.CandidateIDs, candidateID)
	return nil
}

// RemoveLineItem 删除指定下标的条目
func (s *EventService) RemoveLineItem(ev *model.Event, index int) error {
	if _, err := lineItemAt(ev, index); err != nil {
		return err
	}
	items := make([]model.LineItem, 0, len(ev.LineItems)-1)
	items = append(items, ev.LineItems[:index]...)
	ev.LineItems = append(items, ev.LineItems[index+1:]...)
	return nil
}

// CandidateOptions 条目可选的候选人（社团与职位均匹配）；未选职位时为空
func (s *EventService) CandidateOptions(ctx context.Context, item model.LineItem) ([]*model.Candidate, error) {
	if item.Position == "" {
		return []*model.Candidate{}, nil
	}
	return s.candidates.ListByClubPosition(ctx, item.ClubID, item.Position)
}

func lineItemAt(ev *model.Event, index int) (*model.LineItem, error) {
	if index < 0 || index >= len(ev.LineItems) {
		return nil, fmt.Errorf("%w: %d", ErrLineItemIndex, index)
	}
	return &ev.LineItems[index], nil
}
