package service

import (
	"context"

	"ClubVote/internal/model"
)

// Dashboard 首页统计
type Dashboard struct {
	ClubCount      int            `json:"club_count"`
	CandidateCount int            `json:"candidate_count"`
	OngoingEvents  []*model.Event `json:"ongoing_events"`
}

func (s *EventService) Dashboard(ctx context.Context) (*Dashboard, error) {
	clubs, err := s.clubs.List(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := s.candidates.List(ctx)
	if err != nil {
		return nil, err
	}
	ongoing, err := s.Ongoing(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{ClubCount: len(clubs), CandidateCount: len(candidates), OngoingEvents: ongoing}, nil
}
