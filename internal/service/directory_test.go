package service

import (
	"context"
	"errors"
	"testing"

	"ClubVote/internal/model"
	"ClubVote/internal/repository"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDirectoryService(t *testing.T) {
	ctx := context.Background()

	Convey("社团、候选人与申请", t, func() {
		stores := repository.NewMemoryStores()
		So(repository.Seed(ctx, stores), ShouldBeNil)
		dir := NewDirectoryService(stores, quietLogger())

		Convey("创建社团时校验名称与职位", func() {
			_, err := dir.CreateClub(ctx, ClubInput{Positions: []string{"Captain"}})
			var ve *ValidationError
			So(errors.As(err, &ve), ShouldBeTrue)

			_, err = dir.CreateClub(ctx, ClubInput{Name: "Robotics", Positions: []string{"Captain", " Captain "}})
			So(errors.As(err, &ve), ShouldBeTrue)

			club, err := dir.CreateClub(ctx, ClubInput{Name: " Robotics ", Positions: []string{"Captain", "Treasurer"}})
			So(err, ShouldBeNil)
			So(club.Name, ShouldEqual, "Robotics")
			So(club.IsActive, ShouldBeTrue)
			So([]string(club.Positions), ShouldResemble, []string{"Captain", "Treasurer"})
		})

		Convey("更新社团职位", func() {
			positions := []string{"President", "Treasurer"}
			club, err := dir.UpdateClub(ctx, 1, model.ClubPatch{Positions: &positions})
			So(err, ShouldBeNil)
			So(club.HasPosition("Treasurer"), ShouldBeTrue)
			So(club.Name, ShouldEqual, "Chess Club")
		})

		Convey("候选人职位必须属于社团", func() {
			_, err := dir.CreateCandidate(ctx, CandidateInput{Name: "Eve", ClubID: 1, Position: "Director"})
			var ve *ValidationError
			So(errors.As(err, &ve), ShouldBeTrue)

			_, err = dir.CreateCandidate(ctx, CandidateInput{Name: "Eve", ClubID: 9, Position: "President"})
			So(errors.As(err, &ve), ShouldBeTrue)

			cand, err := dir.CreateCandidate(ctx, CandidateInput{Name: "Eve", ClubID: 1, Position: "Secretary"})
			So(err, ShouldBeNil)
			So(cand.Votes, ShouldEqual, 0)

			Convey("修改社团后职位也需匹配", func() {
				club := uint64(2)
				_, err := dir.UpdateCandidate(ctx, cand.ID, model.CandidatePatch{ClubID: &club})
				So(errors.As(err, &ve), ShouldBeTrue)

				pos := "Actor"
				updated, err := dir.UpdateCandidate(ctx, cand.ID, model.CandidatePatch{ClubID: &club, Position: &pos})
				So(err, ShouldBeNil)
				So(updated.ClubID, ShouldEqual, 2)
				So(updated.Position, ShouldEqual, "Actor")
			})
		})

		Convey("通过申请生成候选人", func() {
			before, _ := dir.SearchCandidates(ctx, CandidateFilter{})
			cand, err := dir.ApproveApplication(ctx, 1)
			So(err, ShouldBeNil)
			So(cand.Name, ShouldEqual, "Charlie")
			So(cand.Position, ShouldEqual, "Secretary")
			So(cand.Votes, ShouldEqual, 0)

			after, _ := dir.SearchCandidates(ctx, CandidateFilter{})
			So(len(after), ShouldEqual, len(before)+1)

			apps, _ := dir.ListApplications(ctx)
			So(apps[0].Status, ShouldEqual, model.ApplicationApproved)

			_, err = dir.ApproveApplication(ctx, 1)
			So(errors.Is(err, ErrApplicationDecided), ShouldBeTrue)
			_, err = dir.RejectApplication(ctx, 1)
			So(errors.Is(err, ErrApplicationDecided), ShouldBeTrue)
		})

		Convey("申请状态写入失败时撤回候选人", func() {
			failing := *stores
			failing.Applications = stuckApplications{stores.Applications}
			broken := NewDirectoryService(&failing, quietLogger())

			before, _ := dir.SearchCandidates(ctx, CandidateFilter{})
			_, err := broken.ApproveApplication(ctx, 1)
			So(errors.Is(err, errStuck), ShouldBeTrue)
			after, _ := dir.SearchCandidates(ctx, CandidateFilter{})
			So(len(after), ShouldEqual, len(before))

			app, _ := stores.Applications.Get(ctx, 1)
			So(app.Status, ShouldEqual, model.ApplicationPending)

			cand, err := dir.ApproveApplication(ctx, 1)
			So(err, ShouldBeNil)
			So(cand.Name, ShouldEqual, "Charlie")
			after, _ = dir.SearchCandidates(ctx, CandidateFilter{})
			So(len(after), ShouldEqual, len(before)+1)
		})

		Convey("拒绝申请不生成候选人", func() {
			before, _ := dir.SearchCandidates(ctx, CandidateFilter{})
			app, err := dir.RejectApplication(ctx, 2)
			So(err, ShouldBeNil)
			So(app.Status, ShouldEqual, model.ApplicationRejected)
			after, _ := dir.SearchCandidates(ctx, CandidateFilter{})
			So(len(after), ShouldEqual, len(before))
		})

		Convey("提交新申请为 pending", func() {
			app, err := dir.SubmitApplication(ctx, CandidateInput{Name: "Frank", ClubID: 2, Position: "Actor"})
			So(err, ShouldBeNil)
			So(app.Status, ShouldEqual, model.ApplicationPending)

			_, err = dir.ApproveApplication(ctx, 99)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

var errStuck = errors.New("application store unavailable")

// stuckApplications 更新总是失败
type stuckApplications struct {
	repository.ApplicationStore
}

func (stuckApplications) Update(context.Context, uint64, model.ApplicationPatch) (*model.Application, error) {
	return nil, errStuck
}

func TestDashboard(t *testing.T) {
	Convey("首页统计", t, func() {
		svc, _ := newSeededService(Options{}, nil)
		d, err := svc.Dashboard(context.Background())
		So(err, ShouldBeNil)
		So(d.ClubCount, ShouldEqual, 2)
		So(d.CandidateCount, ShouldEqual, 2)
		So(len(d.OngoingEvents), ShouldEqual, 1)
		So(d.OngoingEvents[0].Name, ShouldEqual, "Spring 2025 Elections")
	})
}
