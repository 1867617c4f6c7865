package repository

import (
	"context"
	"time"

	"ClubVote/internal/model"

	"github.com/lib/pq"
)

// Seed 写入演示数据：两个社团、两名候选人、两份待审批申请、一个选举活动
func Seed(ctx context.Context, s *Stores) error {
	clubs := []*model.Club{
		{Name: "Chess Club", Description: "A club for chess enthusiasts.", Positions: pq.StringArray{"President", "Vice President", "Secretary"}, IsActive: true},
		{Name: "Drama Club", Description: "Theater and performance arts club.", Positions: pq.StringArray{"Director", "Actor", "Stage Manager"}, IsActive: false},
	}
	var created []*model.Club
	for _, c := range clubs {
		club, err := s.Clubs.Create(ctx, c)
		if err != nil {
			return err
		}
		created = append(created, club)
	}
	chess, drama := created[0], created[1]

	alice, err := s.Candidates.Create(ctx, &model.Candidate{Name: "Alice", ClubID: chess.ID, Position: "President", Votes: 10})
	if err != nil {
		return err
	}
	if _, err := s.Candidates.Create(ctx, &model.Candidate{Name: "Bob", ClubID: drama.ID, Position: "Director", Votes: 7}); err != nil {
		return err
	}

	apps := []*model.Application{
		{Name: "Charlie", ClubID: chess.ID, Position: "Secretary", Status: model.ApplicationPending},
		{Name: "Diana", ClubID: drama.ID, Position: "Actor", Status: model.ApplicationPending},
	}
	for _, a := range apps {
		if _, err := s.Applications.Create(ctx, a); err != nil {
			return err
		}
	}

	_, err = s.Events.Create(ctx, &model.Event{
		Name:        "Spring 2025 Elections",
		Description: "Elections for all clubs in Spring 2025 semester",
		StartDate:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
		LineItems: []model.LineItem{
			{ClubID: chess.ID, Position: "President", CandidateIDs: []uint64{alice.ID}},
		},
	})
	return err
}
