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

type MongoUserRepository struct {
	UsersCollection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{UsersCollection: db.Collection(CollectionUsers)}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Projects == nil {
		user.Projects = []primitive.ObjectID{}
	}
	if user.Skills == nil {
		user.Skills = []string{}
	}
	if _, err := r.UsersCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.UsersCollection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	return &user, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	cursor, err := r.UsersCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("error fetching users: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("error decoding users: %w", err)
	}
	return users, nil
}

func (r *MongoUserRepository) Search(ctx context.Context, query string, exclude primitive.ObjectID, limit int) ([]models.User, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{
		"_id": bson.M{"$ne": exclude},
		"$or": bson.A{
			bson.M{"fullname": pattern},
			bson.M{"email": pattern},
			bson.M{"skills": pattern},
		},
	}
	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{{Key: "fullname", Value: 1}})

	cursor, err := r.UsersCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error searching users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("error decoding users: %w", err)
	}
	return users, nil
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, patch models.ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	if patch.Fullname != nil {
		set["fullname"] = *patch.Fullname
	}
	if patch.Bio != nil {
		set["bio"] = *patch.Bio
	}
	if patch.Skills != nil {
		set["skills"] = patch.Skills
	}
	if patch.University != nil {
		set["university"] = *patch.University
	}
	if patch.Department != nil {
		set["department"] = *patch.Department
	}
	if patch.SocialLinks != nil {
		set["socialLinks"] = *patch.SocialLinks
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.UsersCollection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &user, nil
}

func (r *MongoUserRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	result, err := r.UsersCollection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now()}})
}

func (r *MongoUserRepository) UpdateAvatar(ctx context.Context, id primitive.ObjectID, url string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"avatarUrl": url, "updatedAt": time.Now()}})
}

func (r *MongoUserRepository) AddProject(ctx context.Context, userID, projectID primitive.ObjectID) error {
	return r.updateOne(ctx, userID, bson.M{"$addToSet": bson.M{"projects": projectID}})
}

func (r *MongoUserRepository) RemoveProject(ctx context.Context, userID, projectID primitive.ObjectID) error {
	return r.updateOne(ctx, userID, bson.M{"$pull": bson.M{"projects": projectID}})
}

func (r *MongoUserRepository) RemoveProjectFromAll(ctx context.Context, projectID primitive.ObjectID) error {
	_, err := r.UsersCollection.UpdateMany(ctx, bson.M{"projects": projectID}, bson.M{"$pull": bson.M{"projects": projectID}})
	if err != nil {
		return fmt.Errorf("failed to detach project from users: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.UsersCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
