package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoChatRepository struct {
	ChatsCollection *mongo.Collection
}

func NewMongoChatRepository(db *mongo.Database) *MongoChatRepository {
	return &MongoChatRepository{ChatsCollection: db.Collection(CollectionChats)}
}

// FindOrCreate upserts on the unique pair key. Two concurrent upserts can
// both miss and race on insert; the loser sees a duplicate key error and
// reads the winner's document.
func (r *MongoChatRepository) FindOrCreate(ctx context.Context, a, b primitive.ObjectID, at time.Time) (*models.Chat, error) {
	lo, hi := models.SortedPair(a, b)
	key := models.PairKey(a, b)

	update := bson.M{"$setOnInsert": bson.M{
		"participants": bson.A{lo, hi},
		"pairKey":      key,
		"lastMessage":  nil,
		"lastActivity": at,
		"createdAt":    at,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var chat models.Chat
	err := r.ChatsCollection.FindOneAndUpdate(ctx, bson.M{"pairKey": key}, update, opts).Decode(&chat)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.findOne(ctx, bson.M{"pairKey": key})
		}
		return nil, fmt.Errorf("failed to open chat: %w", err)
	}
	return &chat, nil
}

func (r *MongoChatRepository) findOne(ctx context.Context, filter bson.M) (*models.Chat, error) {
	var chat models.Chat
	if err := r.ChatsCollection.FindOne(ctx, filter).Decode(&chat); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching chat: %w", err)
	}
	return &chat, nil
}

func (r *MongoChatRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoChatRepository) ListByParticipant(ctx context.Context, userID primitive.ObjectID) ([]models.Chat, error) {
	opts := options.Find().SetSort(bson.D{{Key: "lastActivity", Value: -1}})
	cursor, err := r.ChatsCollection.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching chats: %w", err)
	}
	defer cursor.Close(ctx)

	chats := []models.Chat{}
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("error decoding chats: %w", err)
	}
	return chats, nil
}

func (r *MongoChatRepository) Touch(ctx context.Context, chatID, lastMessage primitive.ObjectID, at time.Time) error {
	result, err := r.ChatsCollection.UpdateOne(ctx, bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"lastMessage": lastMessage, "lastActivity": at}})
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoChatRepository) SetLastMessage(ctx context.Context, chatID primitive.ObjectID, lastMessage *primitive.ObjectID) error {
	result, err := r.ChatsCollection.UpdateOne(ctx, bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"lastMessage": lastMessage}})
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
