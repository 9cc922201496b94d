package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoProjectRepository struct {
	ProjectsCollection *mongo.Collection
}

func NewMongoProjectRepository(db *mongo.Database) *MongoProjectRepository {
	return &MongoProjectRepository{ProjectsCollection: db.Collection(CollectionProjects)}
}

func (r *MongoProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	if _, err := r.ProjectsCollection.InsertOne(ctx, project); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *MongoProjectRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	if err := r.ProjectsCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&project); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching project: %w", err)
	}
	return &project, nil
}

func (r *MongoProjectRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Project, error) {
	cursor, err := r.ProjectsCollection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("unsuccessful procurement of projects: %w", err)
	}
	defer cursor.Close(ctx)

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("unsuccessful decoding of projects: %w", err)
	}
	return projects, nil
}

func (r *MongoProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error) {
	query := bson.M{
		"isActive":   true,
		"visibility": models.VisibilityPublic,
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if len(filter.Tags) > 0 {
		query["tags"] = bson.M{"$in": filter.Tags}
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"tags": pattern},
		}
	}

	total, err := r.ProjectsCollection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skipFor(filter.Page, filter.Limit)).
		SetLimit(int64(filter.Limit))
	projects, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (r *MongoProjectRepository) ListByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	return r.find(ctx, bson.M{"members.user": userID, "isActive": true}, opts)
}

func (r *MongoProjectRepository) ListOwnedBy(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	return r.find(ctx, bson.M{"owner": userID})
}

func (r *MongoProjectRepository) Update(ctx context.Context, id primitive.ObjectID, patch models.ProjectUpdate) (*models.Project, error) {
	set := bson.M{"updatedAt": time.Now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Tags != nil {
		set["tags"] = patch.Tags
	}
	if patch.RequiredSkills != nil {
		set["requiredSkills"] = patch.RequiredSkills
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.MaxMembers != nil {
		set["maxMembers"] = *patch.MaxMembers
	}
	if patch.Deadline != nil {
		set["deadline"] = *patch.Deadline
	}
	if patch.Visibility != nil {
		set["visibility"] = *patch.Visibility
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var project models.Project
	err := r.ProjectsCollection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return &project, nil
}

// AddMember guards the push with the capacity check in the same document
// update, so concurrent admissions cannot exceed maxMembers.
func (r *MongoProjectRepository) AddMember(ctx context.Context, projectID primitive.ObjectID, member models.Member) (*models.Project, error) {
	filter := bson.M{
		"_id":          projectID,
		"isActive":     true,
		"members.user": bson.M{"$ne": member.User},
		"$expr": bson.M{
			"$lt": bson.A{bson.M{"$size": "$members"}, "$maxMembers"},
		},
	}
	update := bson.M{
		"$push": bson.M{"members": member},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var project models.Project
	err := r.ProjectsCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrConditionFailed
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return &project, nil
}

func (r *MongoProjectRepository) RemoveMember(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	update := bson.M{
		"$pull": bson.M{"members": bson.M{"user": userID, "role": bson.M{"$ne": models.RoleOwner}}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	result, err := r.ProjectsCollection.UpdateOne(ctx, bson.M{"_id": projectID, "members.user": userID}, update)
	if err != nil {
		return false, fmt.Errorf("failed to remove member from project: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *MongoProjectRepository) RemoveMemberFromAll(ctx context.Context, userID primitive.ObjectID) error {
	update := bson.M{"$pull": bson.M{"members": bson.M{"user": userID, "role": bson.M{"$ne": models.RoleOwner}}}}
	if _, err := r.ProjectsCollection.UpdateMany(ctx, bson.M{"members.user": userID}, update); err != nil {
		return fmt.Errorf("failed to remove member from projects: %w", err)
	}
	return nil
}

func (r *MongoProjectRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	result, err := r.ProjectsCollection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProjectRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.ProjectsCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
