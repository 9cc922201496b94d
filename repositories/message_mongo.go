package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mel4sa/WORKNEST-sub000/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoMessageRepository struct {
	MessagesCollection *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{MessagesCollection: db.Collection(CollectionMessages)}
}

func (r *MongoMessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.ID.IsZero() {
		message.ID = primitive.NewObjectID()
	}
	if message.ReadBy == nil {
		message.ReadBy = []primitive.ObjectID{}
	}
	if _, err := r.MessagesCollection.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *MongoMessageRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.Message, error) {
	var message models.Message
	if err := r.MessagesCollection.FindOne(ctx, filter, opts...).Decode(&message); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching message: %w", err)
	}
	return &message, nil
}

func (r *MongoMessageRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoMessageRepository) ListByChat(ctx context.Context, chatID primitive.ObjectID, page, limit int) ([]models.Message, int64, error) {
	filter := bson.M{"chat": chatID}
	total, err := r.MessagesCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skipFor(page, limit)).
		SetLimit(int64(limit))
	cursor, err := r.MessagesCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, 0, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, total, nil
}

func (r *MongoMessageRepository) Latest(ctx context.Context, chatID primitive.ObjectID) (*models.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.findOne(ctx, bson.M{"chat": chatID}, opts)
}

func (r *MongoMessageRepository) UpdateContent(ctx context.Context, id primitive.ObjectID, content string, edited models.EditInfo) (*models.Message, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"content": content, "edited": edited}}

	var message models.Message
	if err := r.MessagesCollection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&message); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	return &message, nil
}

func (r *MongoMessageRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.MessagesCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkChatRead marks every message in the chat not sent by reader as read.
func (r *MongoMessageRepository) MarkChatRead(ctx context.Context, chatID, reader primitive.ObjectID) (int64, error) {
	filter := bson.M{"chat": chatID, "sender": bson.M{"$ne": reader}, "isRead": false}
	update := bson.M{
		"$set":      bson.M{"isRead": true},
		"$addToSet": bson.M{"readBy": reader},
	}
	result, err := r.MessagesCollection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages as read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoMessageRepository) CountUnread(ctx context.Context, chatIDs []primitive.ObjectID, reader primitive.ObjectID) (int64, error) {
	if len(chatIDs) == 0 {
		return 0, nil
	}
	filter := bson.M{
		"chat":   bson.M{"$in": chatIDs},
		"sender": bson.M{"$ne": reader},
		"isRead": false,
	}
	count, err := r.MessagesCollection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
