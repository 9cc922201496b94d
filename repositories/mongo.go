package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/logging"
	"github.com/Mel4sa/WORKNEST-sub000/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	CollectionUsers         = "users"
	CollectionProjects      = "projects"
	CollectionInvitations   = "invitations"
	CollectionNotifications = "notifications"
	CollectionChats         = "chats"
	CollectionMessages      = "messages"
)

func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// MongoPinger adapts a client to the health check.
type MongoPinger struct {
	Client *mongo.Client
}

func (p MongoPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes the repositories rely on. The unique
// indexes on users.email, chats.pairKey and pending (project, receiver)
// invitations back ErrDuplicate handling.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionProjects: {
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "visibility", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "members.user", Value: 1}}},
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		CollectionInvitations: {
			{Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "project", Value: 1}, {Key: "receiver", Value: 1}, {Key: "status", Value: 1}}},
			{
				Keys:    bson.D{{Key: "project", Value: 1}, {Key: "receiver", Value: 1}},
				Options: options.Index().
					SetName("project_receiver_pending_unique").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": models.InvitationPending}),
			},
		},
		CollectionNotifications: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "isRead", Value: 1}}},
		},
		CollectionChats: {
			{Keys: bson.D{{Key: "pairKey", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "lastActivity", Value: -1}}},
		},
		CollectionMessages: {
			{Keys: bson.D{{Key: "chat", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for name, specs := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
		logging.Logger.Debugf("Event ID: DB_INDEXES_READY, Description: Indexes ensured on collection %s", name)
	}
	return nil
}

func skipFor(page, limit int) int64 {
	return int64((page - 1) * limit)
}
