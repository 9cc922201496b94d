package repositories

import (
	"context"
	"fmt"

	"github.com/Mel4sa/WORKNEST-sub000/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoNotificationRepository struct {
	NotificationsCollection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{NotificationsCollection: db.Collection(CollectionNotifications)}
}

func (r *MongoNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	if _, err := r.NotificationsCollection.InsertOne(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]models.Notification, int64, error) {
	filter := bson.M{"user": userID}
	total, err := r.NotificationsCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skipFor(page, limit)).
		SetLimit(int64(limit))
	cursor, err := r.NotificationsCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, total, nil
}

func (r *MongoNotificationRepository) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := r.NotificationsCollection.CountDocuments(ctx, bson.M{"user": userID, "isRead": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *MongoNotificationRepository) MarkRead(ctx context.Context, userID, id primitive.ObjectID) error {
	result, err := r.NotificationsCollection.UpdateOne(ctx,
		bson.M{"_id": id, "user": userID},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoNotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	result, err := r.NotificationsCollection.UpdateMany(ctx,
		bson.M{"user": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoNotificationRepository) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	result, err := r.NotificationsCollection.DeleteOne(ctx, bson.M{"_id": id, "user": userID})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoNotificationRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := r.NotificationsCollection.DeleteMany(ctx, bson.M{"user": userID}); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}
