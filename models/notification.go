package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotifInviteSent     NotificationType = "invite_sent"
	NotifInviteAccepted NotificationType = "invite_accepted"
	NotifInviteDeclined NotificationType = "invite_declined"
	NotifProjectUpdate  NotificationType = "project_update"
	NotifMemberJoined   NotificationType = "member_joined"
	NotifMemberLeft     NotificationType = "member_left"
	NotifNewMessage     NotificationType = "new_message"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotifInviteSent, NotifInviteAccepted, NotifInviteDeclined, NotifProjectUpdate,
		NotifMemberJoined, NotifMemberLeft, NotifNewMessage:
		return true
	default:
		return false
	}
}

const (
	MaxNotificationTitleLength   = 100
	MaxNotificationMessageLength = 500
)

type Notification struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	User           primitive.ObjectID  `bson:"user" json:"user"`
	Type           NotificationType    `bson:"type" json:"type"`
	Title          string              `bson:"title" json:"title"`
	Message        string              `bson:"message" json:"message"`
	IsRead         bool                `bson:"isRead" json:"isRead"`
	RelatedProject *primitive.ObjectID `bson:"relatedProject,omitempty" json:"relatedProject,omitempty"`
	RelatedUser    *primitive.ObjectID `bson:"relatedUser,omitempty" json:"relatedUser,omitempty"`
	RelatedInvite  *primitive.ObjectID `bson:"relatedInvite,omitempty" json:"relatedInvite,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
}
