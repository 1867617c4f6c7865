package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"ClubVote/internal/model"
	"ClubVote/internal/repository"

	"github.com/sirupsen/logrus"
)

// DirectoryService 社团、候选人与竞选申请的维护
type DirectoryService struct {
	clubs        repository.ClubStore
	candidates   repository.CandidateStore
	applications repository.ApplicationStore
	logger       *logrus.Logger

	decideMu sync.Mutex // 审批串行，避免同一申请重复生成候选人
}

func NewDirectoryService(stores *repository.Stores, logger *logrus.Logger) *DirectoryService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DirectoryService{
		clubs:        stores.Clubs,
		candidates:   stores.Candidates,
		applications: stores.Applications,
		logger:       logger,
	}
}

// ClubInput 创建社团的表单
type ClubInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Positions   []string `json:"positions"`
	IsActive    *bool    `json:"is_active"`
}

func (s *DirectoryService) ListClubs(ctx context.Context) ([]*model.Club, error) {
	return s.clubs.List(ctx)
}

func (s *DirectoryService) GetClub(ctx context.Context, id uint64) (*model.Club, error) {
	return s.clubs.Get(ctx, id)
}

func (s *DirectoryService) CreateClub(ctx context.Context, in ClubInput) (*model.Club, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &ValidationError{Missing: []string{"name"}}
	}
	positions, err := normalizePositions(in.Positions)
	if err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	club, err := s.clubs.Create(ctx, &model.Club{
		Name:        name,
		Description: in.Description,
		Positions:   positions,
		IsActive:    active,
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"club_id": club.ID, "name": club.Name}).Info("社团已创建")
	return club, nil
}

func (s *DirectoryService) UpdateClub(ctx context.Context, id uint64, patch model.ClubPatch) (*model.Club, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, &ValidationError{Missing: []string{"name"}}
		}
		patch.Name = &name
	}
	if patch.Positions != nil {
		positions, err := normalizePositions(*patch.Positions)
		if err != nil {
			return nil, err
		}
		patch.Positions = &positions
	}
	return s.clubs.Update(ctx, id, patch)
}

func (s *DirectoryService) DeleteClub(ctx context.Context, id uint64) error {
	return s.clubs.Delete(ctx, id)
}

// normalizePositions 去除首尾空白，职位不能为空且不能重复
func normalizePositions(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, invalid("positions must not contain empty values")
		}
		if seen[p] {
			return nil, invalid("duplicate position %q", p)
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

// CandidateInput 候选人 / 申请的表单
type CandidateInput struct {
	Name     string `json:"name"`
	ClubID   uint64 `json:"club_id"`
	Position string `json:"position"`
}

// CandidateFilter 候选人筛选条件；零值字段不参与过滤
type CandidateFilter struct {
	Name     string
	ClubID   uint64
	Position string
}

// SearchCandidates 按社团、职位精确匹配，按姓名忽略大小写包含匹配
func (s *DirectoryService) SearchCandidates(ctx context.Context, f CandidateFilter) ([]*model.Candidate, error) {
	var (
		cands []*model.Candidate
		err   error
	)
	if f.ClubID != 0 && f.Position != "" {
		cands, err = s.candidates.ListByClubPosition(ctx, f.ClubID, f.Position)
	} else {
		cands, err = s.candidates.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	name := strings.ToLower(strings.TrimSpace(f.Name))
	out := make([]*model.Candidate, 0, len(cands))
	for _, c := range cands {
		if f.ClubID != 0 && c.ClubID != f.ClubID {
			continue
		}
		if f.Position != "" && c.Position != f.Position {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(c.Name), name) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *DirectoryService) GetCandidate(ctx context.Context, id uint64) (*model.Candidate, error) {
	return s.candidates.Get(ctx, id)
}

func (s *DirectoryService) CreateCandidate(ctx context.Context, in CandidateInput) (*model.Candidate, error) {
	name, err := s.validateCandidate(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.candidates.Create(ctx, &model.Candidate{Name: name, ClubID: in.ClubID, Position: in.Position})
}

// UpdateCandidate 合并后的社团/职位组合仍需合法
func (s *DirectoryService) UpdateCandidate(ctx context.Context, id uint64, patch model.CandidatePatch) (*model.Candidate, error) {
	current, err := s.candidates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := *current
	patch.Apply(&merged)
	name, err := s.validateCandidate(ctx, CandidateInput{Name: merged.Name, ClubID: merged.ClubID, Position: merged.Position})
	if err != nil {
		return nil, err
	}
	patch.Name = &name
	return s.candidates.Update(ctx, id, patch)
}

func (s *DirectoryService) DeleteCandidate(ctx context.Context, id uint64) error {
	return s.candidates.Delete(ctx, id)
}

func (s *DirectoryService) validateCandidate(ctx context.Context, in CandidateInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if in.ClubID == 0 {
		missing = append(missing, "club_id")
	}
	if strings.TrimSpace(in.Position) == "" {
		missing = append(missing, "position")
	}
	if len(missing) > 0 {
		return "", &ValidationError{Missing: missing}
	}
	club, err := s.clubs.Get(ctx, in.ClubID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", invalid("club %d not found", in.ClubID)
		}
		return "", err
	}
	if !club.HasPosition(in.Position) {
		return "", invalid("%v: %q", ErrInvalidPosition, in.Position)
	}
	return name, nil
}

func (s *DirectoryService) ListApplications(ctx context.Context) ([]*model.Application, error) {
	return s.applications.List(ctx)
}

// SubmitApplication 新申请一律为 pending
func (s *DirectoryService) SubmitApplication(ctx context.Context, in CandidateInput) (*model.Application, error) {
	name, err := s.validateCandidate(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.applications.Create(ctx, &model.Application{
		Name:     name,
		ClubID:   in.ClubID,
		Position: in.Position,
		Status:   model.ApplicationPending,
	})
}

// ApproveApplication 通过申请并生成得票为 0 的候选人
func (s *DirectoryService) ApproveApplication(ctx context.Context, id uint64) (*model.Candidate, error) {
	s.decideMu.Lock()
	defer s.decideMu.Unlock()
	app, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	cand, err := s.candidates.Create(ctx, &model.Candidate{Name: app.Name, ClubID: app.ClubID, Position: app.Position})
	if err != nil {
		return nil, err
	}
	status := model.ApplicationApproved
	if _, err := s.applications.Update(ctx, id, model.ApplicationPatch{Status: &status}); err != nil {
		// 申请仍为 pending，撤回刚生成的候选人以便重试
		if delErr := s.candidates.Delete(context.WithoutCancel(ctx), cand.ID); delErr != nil {
			s.logger.WithError(delErr).WithField("candidate_id", cand.ID).Error("撤回候选人失败")
		}
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"application_id": id, "candidate_id": cand.ID}).Info("申请已通过")
	return cand, nil
}

func (s *DirectoryService) RejectApplication(ctx context.Context, id uint64) (*model.Application, error) {
	s.decideMu.Lock()
	defer s.decideMu.Unlock()
	if _, err := s.pending(ctx, id); err != nil {
		return nil, err
	}
	status := model.ApplicationRejected
	app, err := s.applications.Update(ctx, id, model.ApplicationPatch{Status: &status})
	if err != nil {
		return nil, err
	}
	s.logger.WithField("application_id", id).Info("申请已拒绝")
	return app, nil
}

func (s *DirectoryService) DeleteApplication(ctx context.Context, id uint64) error {
	return s.applications.Delete(ctx, id)
}

func (s *DirectoryService) pending(ctx context.Context, id uint64) (*model.Application, error) {
	app, err := s.applications.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != model.ApplicationPending {
		return nil, ErrApplicationDecided
	}
	return app, nil
}
