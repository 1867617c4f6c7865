package repository

import (
	"context"
	"fmt"
	"time"

	"ClubVote/internal/model"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClubStore 社团存储
type ClubStore interface {
	Create(ctx context.Context, club *model.Club) (*model.Club, error)
	List(ctx context.Context) ([]*model.Club, error)
	Get(ctx context.Context, id uint64) (*model.Club, error)
	Update(ctx context.Context, id uint64, patch model.ClubPatch) (*model.Club, error)
	Delete(ctx context.Context, id uint64) error
}

// CandidateStore 候选人存储
type CandidateStore interface {
	Create(ctx context.Context, cand *model.Candidate) (*model.Candidate, error)
	List(ctx context.Context) ([]*model.Candidate, error)
	Get(ctx context.Context, id uint64) (*model.Candidate, error)
	// ListByClubPosition 查询某社团某职位下的候选人
	ListByClubPosition(ctx context.Context, clubID uint64, position string) ([]*model.Candidate, error)
	Update(ctx context.Context, id uint64, patch model.CandidatePatch) (*model.Candidate, error)
	Delete(ctx context.Context, id uint64) error
}

// ApplicationStore 竞选申请存储
type ApplicationStore interface {
	Create(ctx context.Context, app *model.Application) (*model.Application, error)
	List(ctx context.Context) ([]*model.Application, error)
	Get(ctx context.Context, id uint64) (*model.Application, error)
	Update(ctx context.Context, id uint64, patch model.ApplicationPatch) (*model.Application, error)
	Delete(ctx context.Context, id uint64) error
}

// Stores 一次构造的全部存储，由 main 持有并注入 service
type Stores struct {
	Events       EventStore
	Clubs        ClubStore
	Candidates   CandidateStore
	Applications ApplicationStore
}

// NewPostgresStores 基于 GORM 构造全部存储
func NewPostgresStores(db *gorm.DB) *Stores {
	return &Stores{
		Events:       NewEventRepository(db),
		Clubs:        &clubRepository{db: db},
		Candidates:   &candidateRepository{db: db},
		Applications: &applicationRepository{db: db},
	}
}

// NewMemoryStores 构造进程内存储
func NewMemoryStores() *Stores {
	return &Stores{
		Events: NewMemoryEventStore(),
		Clubs: &memoryClubStore{items: newCollection(
			func(c *model.Club, id uint64) { c.ID = id },
			func(c *model.Club) *model.Club {
				cp := *c
				cp.Positions = append(pq.StringArray{}, c.Positions...)
				return &cp
			},
		)},
		Candidates: &memoryCandidateStore{items: newCollection(
			func(c *model.Candidate, id uint64) { c.ID = id },
			func(c *model.Candidate) *model.Candidate { cp := *c; return &cp },
		)},
		Applications: &memoryApplicationStore{items: newCollection(
			func(a *model.Application, id uint64) { a.ID = id },
			func(a *model.Application) *model.Application { cp := *a; return &cp },
		)},
	}
}

// ========== PostgreSQL ==========

type clubRepository struct{ db *gorm.DB }

func (r *clubRepository) Create(ctx context.Context, club *model.Club) (*model.Club, error) {
	row := *club
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("保存Club失败: %w, name: %s", err, club.Name)
	}
	return &row, nil
}

func (r *clubRepository) List(ctx context.Context) ([]*model.Club, error) {
	var list []*model.Club
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *clubRepository) Get(ctx context.Context, id uint64) (*model.Club, error) {
	var c model.Club
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *clubRepository) Update(ctx context.Context, id uint64, patch model.ClubPatch) (*model.Club, error) {
	var c model.Club
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&c).Error; err != nil {
			return translate(err)
		}
		patch.Apply(&c)
		c.UpdatedAt = time.Now()
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clubRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Club{}).Error
}

type candidateRepository struct{ db *gorm.DB }

func (r *candidateRepository) Create(ctx context.Context, cand *model.Candidate) (*model.Candidate, error) {
	row := *cand
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("保存Candidate失败: %w, name: %s", err, cand.Name)
	}
	return &row, nil
}

func (r *candidateRepository) List(ctx context.Context) ([]*model.Candidate, error) {
	var list []*model.Candidate
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *candidateRepository) Get(ctx context.Context, id uint64) (*model.Candidate, error) {
	var c model.Candidate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *candidateRepository) ListByClubPosition(ctx context.Context, clubID uint64, position string) ([]*model.Candidate, error) {
	var list []*model.Candidate
	if err := r.db.WithContext(ctx).
		Where("club_id = ? AND position = ?", clubID, position).
		Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *candidateRepository) Update(ctx context.Context, id uint64, patch model.CandidatePatch) (*model.Candidate, error) {
	var c model.Candidate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&c).Error; err != nil {
			return translate(err)
		}
		patch.Apply(&c)
		c.UpdatedAt = time.Now()
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *candidateRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Candidate{}).Error
}

type applicationRepository struct{ db *gorm.DB }

func (r *applicationRepository) Create(ctx context.Context, app *model.Application) (*model.Application, error) {
	row := *app
	row.ID = 0
	if row.Status == "" {
		row.Status = model.ApplicationPending
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("保存Application失败: %w, name: %s", err, app.Name)
	}
	return &row, nil
}

func (r *applicationRepository) List(ctx context.Context) ([]*model.Application, error) {
	var list []*model.Application
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *applicationRepository) Get(ctx context.Context, id uint64) (*model.Application, error) {
	var a model.Application
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *applicationRepository) Update(ctx context.Context, id uint64, patch model.ApplicationPatch) (*model.Application, error) {
	var a model.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&a).Error; err != nil {
			return translate(err)
		}
		patch.Apply(&a)
		a.UpdatedAt = time.Now()
		return tx.Save(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Application{}).Error
}

// ========== 内存 ==========

type memoryClubStore struct{ items *collection[model.Club] }

func (s *memoryClubStore) Create(_ context.Context, club *model.Club) (*model.Club, error) {
	row := *club
	row.CreatedAt, row.UpdatedAt = time.Now(), time.Now()
	return s.items.insert(&row), nil
}

func (s *memoryClubStore) List(_ context.Context) ([]*model.Club, error) {
	return s.items.list(), nil
}

func (s *memoryClubStore) Get(_ context.Context, id uint64) (*model.Club, error) {
	c, ok := s.items.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *memoryClubStore) Update(_ context.Context, id uint64, patch model.ClubPatch) (*model.Club, error) {
	c, ok := s.items.update(id, func(c *model.Club) {
		patch.Apply(c)
		c.UpdatedAt = time.Now()
	})
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *memoryClubStore) Delete(_ context.Context, id uint64) error {
	s.items.remove(id)
	return nil
}

type memoryCandidateStore struct{ items *collection[model.Candidate] }

func (s *memoryCandidateStore) Create(_ context.Context, cand *model.Candidate) (*model.Candidate, error) {
	row := *cand
	row.CreatedAt, row.UpdatedAt = time.Now(), time.Now()
	return s.items.insert(&row), nil
}

func (s *memoryCandidateStore) List(_ context.Context) ([]*model.Candidate, error) {
	return s.items.list(), nil
}

func (s *memoryCandidateStore) Get(_ context.Context, id uint64) (*model.Candidate, error) {
	c, ok := s.items.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *memoryCandidateStore) ListByClubPosition(_ context.Context, clubID uint64, position string) ([]*model.Candidate, error) {
	var out []*model.Candidate
	for _, c := range s.items.list() {
		if c.Matches(clubID, position) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memoryCandidateStore) Update(_ context.Context, id uint64, patch model.CandidatePatch) (*model.Candidate, error) {
	c, ok := s.items.update(id, func(c *model.Candidate) {
		patch.Apply(c)
		c.UpdatedAt = time.Now()
	})
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *memoryCandidateStore) Delete(_ context.Context, id uint64) error {
	s.items.remove(id)
	return nil
}

type memoryApplicationStore struct {
	items *collection[model.Application]
}

func (s *memoryApplicationStore) Create(_ context.Context, app *model.Application) (*model.Application, error) {
	row := *app
	if row.Status == "" {
		row.Status = model.ApplicationPending
	}
	row.CreatedAt, row.UpdatedAt = time.Now(), time.Now()
	return s.items.insert(&row), nil
}

func (s *memoryApplicationStore) List(_ context.Context) ([]*model.Application, error) {
	return s.items.list(), nil
}

func (s *memoryApplicationStore) Get(_ context.Context, id uint64) (*model.Application, error) {
	a, ok := s.items.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *memoryApplicationStore) Update(_ context.Context, id uint64, patch model.ApplicationPatch) (*model.Application, error) {
	a, ok := s.items.update(id, func(a *model.Application) {
		patch.Apply(a)
		a.UpdatedAt = time.Now()
	})
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *memoryApplicationStore) Delete(_ context.Context, id uint64) error {
	s.items.remove(id)
	return nil
}
