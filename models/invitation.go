package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

func (s InvitationStatus) IsValid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationDeclined:
		return true
	default:
		return false
	}
}

func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationAccepted || s == InvitationDeclined
}

const (
	// MaxInviteMessageLength is what the API accepts.
	MaxInviteMessageLength = 100
	// MaxStoredInviteMessageLength is the persisted field limit.
	MaxStoredInviteMessageLength = 500
)

type Invitation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Project     primitive.ObjectID `bson:"project" json:"project"`
	Sender      primitive.ObjectID `bson:"sender" json:"sender"`
	Receiver    primitive.ObjectID `bson:"receiver" json:"receiver"`
	Status      InvitationStatus   `bson:"status" json:"status"`
	Message     string             `bson:"message" json:"message"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	RespondedAt *time.Time         `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

// InvitationView is an invitation with its project and counterparts resolved.
type InvitationView struct {
	Invitation
	ProjectInfo  *ProjectSummary `json:"projectInfo,omitempty"`
	SenderInfo   *UserSummary    `json:"senderInfo,omitempty"`
	ReceiverInfo *UserSummary    `json:"receiverInfo,omitempty"`
}
