package model

import (
	"time"

	"github.com/lib/pq"
)

// Club 社团
type Club struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	Name        string         `gorm:"column:name;type:varchar(128);not null;comment:社团名称" json:"name"`
	Description string         `gorm:"column:description;type:text;comment:社团描述" json:"description"`
	Positions   pq.StringArray `gorm:"column:positions;type:text[];comment:可竞选职位（有序、不重复）" json:"positions"`
	IsActive    bool           `gorm:"column:is_active;type:boolean;not null;default:false;comment:是否活跃" json:"is_active"`
	CreatedAt   time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间" json:"updated_at"`
}

// HasPosition 职位是否属于该社团
func (c *Club) HasPosition(position string) bool {
	for _, p := range c.Positions {
		if p == position {
			return true
		}
	}
	return false
}

// Candidate 候选人（由申请审批通过后生成）
type Candidate struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(128);not null;comment:姓名" json:"name"`
	ClubID    uint64    `gorm:"column:club_id;type:bigint;not null;index;comment:所属社团" json:"club_id"`
	Position  string    `gorm:"column:position;type:varchar(64);not null;comment:竞选职位" json:"position"`
	Votes     uint64    `gorm:"column:votes;type:bigint;default:0;comment:得票数" json:"votes"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间" json:"updated_at"`
}

// Matches 候选人的社团与职位是否与名单条目一致
func (c *Candidate) Matches(clubID uint64, position string) bool {
	return c.ClubID == clubID && c.Position == position
}

// ApplicationStatus 入会/竞选申请状态
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application 竞选申请
type Application struct {
	ID        uint64            `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	Name      string            `gorm:"column:name;type:varchar(128);not null;comment:申请人" json:"name"`
	ClubID    uint64            `gorm:"column:club_id;type:bigint;not null;index;comment:申请社团" json:"club_id"`
	Position  string            `gorm:"column:position;type:varchar(64);not null;comment:申请职位" json:"position"`
	Status    ApplicationStatus `gorm:"column:status;type:varchar(16);default:pending;comment:状态：pending/approved/rejected" json:"status"`
	CreatedAt time.Time         `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间" json:"created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间" json:"updated_at"`
}

func (Club) TableName() string        { return "clubs" }
func (Candidate) TableName() string   { return "candidates" }
func (Application) TableName() string { return "applications" }

// ClubPatch 社团浅合并补丁
type ClubPatch struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Positions   *[]string `json:"positions"`
	IsActive    *bool     `json:"is_active"`
}

// CandidatePatch 候选人浅合并补丁
type CandidatePatch struct {
	Name     *string `json:"name"`
	ClubID   *uint64 `json:"club_id"`
	Position *string `json:"position"`
	Votes    *uint64 `json:"votes"`
}

// ApplicationPatch 申请浅合并补丁
type ApplicationPatch struct {
	Status *ApplicationStatus `json:"status"`
}

func (p ClubPatch) Apply(c *Club) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Positions != nil {
		c.Positions = append(pq.StringArray{}, (*p.Positions)...)
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
}

func (p CandidatePatch) Apply(c *Candidate) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.ClubID != nil {
		c.ClubID = *p.ClubID
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
	if p.Votes != nil {
		c.Votes = *p.Votes
	}
}

func (p ApplicationPatch) Apply(a *Application) {
	if p.Status != nil {
		a.Status = *p.Status
	}
}
