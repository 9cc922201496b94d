package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SocialLinks struct {
	GitHub   string `bson:"github,omitempty" json:"github,omitempty"`
	LinkedIn string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	Website  string `bson:"website,omitempty" json:"website,omitempty"`
}

type User struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Fullname    string               `bson:"fullname" json:"fullname"`
	Email       string               `bson:"email" json:"email"`
	Password    string               `bson:"password" json:"-"`
	Bio         string               `bson:"bio" json:"bio"`
	Skills      []string             `bson:"skills" json:"skills"`
	University  string               `bson:"university" json:"university"`
	Department  string               `bson:"department" json:"department"`
	SocialLinks SocialLinks          `bson:"socialLinks" json:"socialLinks"`
	AvatarURL   string               `bson:"avatarUrl" json:"avatarUrl"`
	Projects    []primitive.ObjectID `bson:"projects" json:"projects"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// UserSummary is the public slice of a user embedded in other responses.
type UserSummary struct {
	ID        primitive.ObjectID `json:"id"`
	Fullname  string             `json:"fullname"`
	Email     string             `json:"email"`
	AvatarURL string             `json:"avatarUrl"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Fullname:  u.Fullname,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}

// ProfileUpdate is a partial profile patch; nil fields are left untouched.
type ProfileUpdate struct {
	Fullname    *string
	Bio         *string
	Skills      []string
	University  *string
	Department  *string
	SocialLinks *SocialLinks
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Fullname == nil && p.Bio == nil && p.Skills == nil &&
		p.University == nil && p.Department == nil && p.SocialLinks == nil
}

// Apply copies the set fields onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.Fullname != nil {
		u.Fullname = *p.Fullname
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Skills != nil {
		u.Skills = append([]string(nil), p.Skills...)
	}
	if p.University != nil {
		u.University = *p.University
	}
	if p.Department != nil {
		u.Department = *p.Department
	}
	if p.SocialLinks != nil {
		u.SocialLinks = *p.SocialLinks
	}
}
