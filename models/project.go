package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

type ProjectStatus string

const (
	StatusPlanned   ProjectStatus = "planned"
	StatusPending   ProjectStatus = "pending"
	StatusOngoing   ProjectStatus = "ongoing"
	StatusCompleted ProjectStatus = "completed"
	StatusOnHold    ProjectStatus = "on_hold"
	StatusCancelled ProjectStatus = "cancelled"
)

func (s ProjectStatus) IsValid() bool {
	switch s {
	case StatusPlanned, StatusPending, StatusOngoing, StatusCompleted, StatusOnHold, StatusCancelled:
		return true
	default:
		return false
	}
}

// AcceptsMembers reports whether new members may join or be invited.
func (s ProjectStatus) AcceptsMembers() bool {
	return s != StatusCompleted && s != StatusCancelled
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

const (
	DefaultMaxMembers = 5
	MinMaxMembers     = 2
	MaxMaxMembers     = 10
)

type Member struct {
	User     primitive.ObjectID `bson:"user" json:"user"`
	JoinedAt time.Time          `bson:"joinedAt" json:"joinedAt"`
	Role     MemberRole         `bson:"role" json:"role"`
}

// Project keeps the owner as members[0] with RoleOwner, so the owner always
// takes one of the MaxMembers slots.
type Project struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	Tags           []string           `bson:"tags" json:"tags"`
	RequiredSkills []string           `bson:"requiredSkills" json:"requiredSkills"`
	Status         ProjectStatus      `bson:"status" json:"status"`
	Owner          primitive.ObjectID `bson:"owner" json:"owner"`
	Members        []Member           `bson:"members" json:"members"`
	MaxMembers     int                `bson:"maxMembers" json:"maxMembers"`
	Deadline       *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Visibility     Visibility         `bson:"visibility" json:"visibility"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (p *Project) IsOwner(userID primitive.ObjectID) bool {
	return p.Owner == userID
}

func (p *Project) IsMember(userID primitive.ObjectID) bool {
	return slices.ContainsFunc(p.Members, func(m Member) bool { return m.User == userID })
}

func (p *Project) IsFull() bool {
	return len(p.Members) >= p.MaxMembers
}

func (p *Project) MemberIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(p.Members))
	for _, m := range p.Members {
		ids = append(ids, m.User)
	}
	return ids
}

// VisibleTo reports whether viewer may read the project. A nil viewer is anonymous.
func (p *Project) VisibleTo(viewer *primitive.ObjectID) bool {
	if !p.IsActive {
		return false
	}
	if p.Visibility != VisibilityPrivate {
		return true
	}
	return viewer != nil && p.IsMember(*viewer)
}

// ProjectUpdate is an owner patch; nil fields are left untouched.
type ProjectUpdate struct {
	Title          *string
	Description    *string
	Tags           []string
	RequiredSkills []string
	Status         *ProjectStatus
	MaxMembers     *int
	Deadline       *time.Time
	Visibility     *Visibility
}

func (u ProjectUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Tags == nil && u.RequiredSkills == nil &&
		u.Status == nil && u.MaxMembers == nil && u.Deadline == nil && u.Visibility == nil
}

func (u ProjectUpdate) Apply(p *Project) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Tags != nil {
		p.Tags = append([]string(nil), u.Tags...)
	}
	if u.RequiredSkills != nil {
		p.RequiredSkills = append([]string(nil), u.RequiredSkills...)
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.MaxMembers != nil {
		p.MaxMembers = *u.MaxMembers
	}
	if u.Deadline != nil {
		d := *u.Deadline
		p.Deadline = &d
	}
	if u.Visibility != nil {
		p.Visibility = *u.Visibility
	}
}

type MemberView struct {
	User     UserSummary `json:"user"`
	JoinedAt time.Time   `json:"joinedAt"`
	Role     MemberRole  `json:"role"`
}

type ProjectSummary struct {
	ID     primitive.ObjectID `json:"id"`
	Title  string             `json:"title"`
	Status ProjectStatus      `json:"status"`
}

func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{ID: p.ID, Title: p.Title, Status: p.Status}
}
