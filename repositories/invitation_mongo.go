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

type MongoInvitationRepository struct {
	InvitationsCollection *mongo.Collection
}

func NewMongoInvitationRepository(db *mongo.Database) *MongoInvitationRepository {
	return &MongoInvitationRepository{InvitationsCollection: db.Collection(CollectionInvitations)}
}

func (r *MongoInvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	if invitation.ID.IsZero() {
		invitation.ID = primitive.NewObjectID()
	}
	if _, err := r.InvitationsCollection.InsertOne(ctx, invitation); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (r *MongoInvitationRepository) findOne(ctx context.Context, filter bson.M) (*models.Invitation, error) {
	var invitation models.Invitation
	if err := r.InvitationsCollection.FindOne(ctx, filter).Decode(&invitation); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching invitation: %w", err)
	}
	return &invitation, nil
}

func (r *MongoInvitationRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Invitation, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoInvitationRepository) FindPending(ctx context.Context, projectID, receiverID primitive.ObjectID) (*models.Invitation, error) {
	return r.findOne(ctx, bson.M{
		"project":  projectID,
		"receiver": receiverID,
		"status":   models.InvitationPending,
	})
}

func (r *MongoInvitationRepository) list(ctx context.Context, filter bson.M, status models.InvitationStatus) ([]models.Invitation, error) {
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.InvitationsCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching invitations: %w", err)
	}
	defer cursor.Close(ctx)

	invitations := []models.Invitation{}
	if err := cursor.All(ctx, &invitations); err != nil {
		return nil, fmt.Errorf("error decoding invitations: %w", err)
	}
	return invitations, nil
}

func (r *MongoInvitationRepository) ListByReceiver(ctx context.Context, receiverID primitive.ObjectID, status models.InvitationStatus) ([]models.Invitation, error) {
	return r.list(ctx, bson.M{"receiver": receiverID}, status)
}

func (r *MongoInvitationRepository) ListBySender(ctx context.Context, senderID primitive.ObjectID, status models.InvitationStatus) ([]models.Invitation, error) {
	return r.list(ctx, bson.M{"sender": senderID}, status)
}

func (r *MongoInvitationRepository) Transition(ctx context.Context, id primitive.ObjectID, from, to models.InvitationStatus, at time.Time) (*models.Invitation, error) {
	update := bson.M{"$set": bson.M{"status": to, "respondedAt": at}}
	if to == models.InvitationPending {
		update = bson.M{
			"$set":   bson.M{"status": to},
			"$unset": bson.M{"respondedAt": ""},
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var invitation models.Invitation
	err := r.InvitationsCollection.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update, opts).Decode(&invitation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrConditionFailed
		}
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}
	return &invitation, nil
}

func (r *MongoInvitationRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	filter := bson.M{"$or": bson.A{bson.M{"sender": userID}, bson.M{"receiver": userID}}}
	if _, err := r.InvitationsCollection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete invitations: %w", err)
	}
	return nil
}

func (r *MongoInvitationRepository) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	if _, err := r.InvitationsCollection.DeleteMany(ctx, bson.M{"project": projectID}); err != nil {
		return fmt.Errorf("failed to delete invitations: %w", err)
	}
	return nil
}
