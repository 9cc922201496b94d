package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityType string

const (
	ActivityProjectCreated  ActivityType = "ProjectCreated"
	ActivityProjectUpdated  ActivityType = "ProjectUpdated"
	ActivityProjectDeleted  ActivityType = "ProjectDeleted"
	ActivityAddMember       ActivityType = "AddMember"
	ActivityRemoveMember    ActivityType = "RemoveMember"
	ActivityInviteSent      ActivityType = "InviteSent"
	ActivityInviteResponded ActivityType = "InviteResponded"
)

type ProjectActivity struct {
	ProjectID    primitive.ObjectID  `json:"projectId"`
	ActivityType ActivityType        `json:"activityType"`
	ActorID      primitive.ObjectID  `json:"actorId"`
	MemberID     *primitive.ObjectID `json:"memberId,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
	Details      string              `json:"details"`
}
