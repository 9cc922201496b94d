package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")

	// ErrConditionFailed is returned by conditional updates whose guard did not match.
	ErrConditionFailed = errors.New("update condition not met")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Search(ctx context.Context, query string, exclude primitive.ObjectID, limit int) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, patch models.ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateAvatar(ctx context.Context, id primitive.ObjectID, url string) error
	AddProject(ctx context.Context, userID, projectID primitive.ObjectID) error
	RemoveProject(ctx context.Context, userID, projectID primitive.ObjectID) error
	RemoveProjectFromAll(ctx context.Context, projectID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ProjectFilter struct {
	Status string
	Tags   []string
	Search string
	Page   int
	Limit  int
}

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	// List returns public, active projects matching filter, newest first, and the total count.
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error)
	ListByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error)
	ListOwnedBy(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.ProjectUpdate) (*models.Project, error)
	// AddMember appends member only if the project is active, the user is not
	// already listed and len(members) < maxMembers. ErrConditionFailed otherwise.
	AddMember(ctx context.Context, projectID primitive.ObjectID, member models.Member) (*models.Project, error)
	// RemoveMember pulls a non-owner membership. It reports whether anything was removed.
	RemoveMember(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error)
	RemoveMemberFromAll(ctx context.Context, userID primitive.ObjectID) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Invitation, error)
	FindPending(ctx context.Context, projectID, receiverID primitive.ObjectID) (*models.Invitation, error)
	ListByReceiver(ctx context.Context, receiverID primitive.ObjectID, status models.InvitationStatus) ([]models.Invitation, error)
	ListBySender(ctx context.Context, senderID primitive.ObjectID, status models.InvitationStatus) ([]models.Invitation, error)
	// Transition moves the invitation from one status to another. ErrConditionFailed
	// if the stored status is not from.
	Transition(ctx context.Context, id primitive.ObjectID, from, to models.InvitationStatus, at time.Time) (*models.Invitation, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error
}

// NotificationRepository scopes every read and write to the recipient.
// Accessing another user's notification yields ErrNotFound.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, userID, id primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, userID, id primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

type ChatRepository interface {
	FindOrCreate(ctx context.Context, a, b primitive.ObjectID, at time.Time) (*models.Chat, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	ListByParticipant(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error)
	Touch(ctx context.Context, chatID, lastMessage primitive.ObjectID, at time.Time) error
	SetLastMessage(ctx context.Context, chatID primitive.ObjectID, lastMessage *primitive.ObjectID) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	// ListByChat pages newest first.
	ListByChat(ctx context.Context, chatID primitive.ObjectID, page, limit int) ([]models.Message, int64, error)
	Latest(ctx context.Context, chatID primitive.ObjectID) (*models.Message, error)
	UpdateContent(ctx context.Context, id primitive.ObjectID, content string, edited models.EditInfo) (*models.Message, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	MarkChatRead(ctx context.Context, chatID, reader primitive.ObjectID) (int64, error)
	CountUnread(ctx context.Context, chatIDs []primitive.ObjectID, reader primitive.ObjectID) (int64, error)
}
