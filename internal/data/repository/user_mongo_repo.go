package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"account-service/internal/data/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const usersCollection = "users"

// emailCollation is shared by the unique email index and email lookups; the
// two must agree for the index to be used.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

// userDocument is the BSON shape of entity.User. IDs are stored as their string form.
type userDocument struct {
	ID             string    `bson:"_id"`
	Username       string    `bson:"username"`
	Email          string    `bson:"email"`
	PasswordHash   string    `bson:"password"`
	Phone          string    `bson:"phone"`
	Identification string    `bson:"identification"`
	Active         bool      `bson:"active"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func newUserDocument(u *entity.User) userDocument {
	return userDocument{
		ID:             u.ID.String(),
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Phone:          u.Phone,
		Identification: u.Identification,
		Active:         u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (d userDocument) toEntity() (*entity.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", d.ID, err)
	}
	return &entity.User{
		Base: entity.Base{
			ID:        id,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		Username:       d.Username,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		Phone:          d.Phone,
		Identification: d.Identification,
		IsActive:       d.Active,
	}, nil
}

type userMongoRepository struct {
	coll *mongo.Collection
	log  *zap.Logger
}

func newUserMongoRepository(db *mongo.Database, log *zap.Logger) *userMongoRepository {
	return &userMongoRepository{
		coll: db.Collection(usersCollection),
		log:  log.With(zap.String("repository", "user_mongo")),
	}
}

// EnsureIndexes creates the unique email index the postgres schema also enforces.
func (r *userMongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(emailCollation),
		},
		{
			Keys: bson.D{{Key: "active", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *userMongoRepository) Create(ctx context.Context, user *entity.User) error {
	_, err := r.coll.InsertOne(ctx, newUserDocument(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user %s: %w", user.Email, ErrDuplicate)
		}
		r.log.Error("Failed to create user", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}
	return nil
}

func (r *userMongoRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String(), "active": true}, nil)
}

func (r *userMongoRepository) FindActiveByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx,
		bson.M{"email": email, "active": true},
		options.FindOne().SetCollation(emailCollation),
	)
}

func (r *userMongoRepository) FindAllActive(ctx context.Context) ([]*entity.User, error) {
	return r.find(ctx, bson.M{"active": true})
}

func (r *userMongoRepository) SearchActiveByEmail(ctx context.Context, pattern string) ([]*entity.User, error) {
	return r.find(ctx, bson.M{"email": containsInsensitive(pattern), "active": true})
}

func (r *userMongoRepository) SearchActiveByUsername(ctx context.Context, pattern string) ([]*entity.User, error) {
	return r.find(ctx, bson.M{"username": containsInsensitive(pattern), "active": true})
}

func (r *userMongoRepository) Update(ctx context.Context, user *entity.User) error {
	set := bson.M{
		"username":       user.Username,
		"password":       user.PasswordHash,
		"phone":          user.Phone,
		"identification": user.Identification,
		"updated_at":     user.UpdatedAt,
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": user.ID.String(), "active": true},
		bson.M{"$set": set},
	)
	if err != nil {
		r.log.Error("Failed to update user", zap.Error(err), zap.String("user_id", user.ID.String()))
		return fmt.Errorf("update user %s: %w", user.ID.String(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update user %s: %w", user.ID.String(), ErrNotFound)
	}
	return nil
}

func (r *userMongoRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String(), "active": true},
		bson.M{"$set": bson.M{"active": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		r.log.Error("Failed to deactivate user", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("deactivate user %s: %w", id.String(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("deactivate user %s: %w", id.String(), ErrNotFound)
	}

	r.log.Info("User deactivated", zap.String("id", id.String()))
	return nil
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*entity.User, error) {
	if opts == nil {
		opts = options.FindOne()
	}

	var doc userDocument
	err := r.coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find user", zap.Error(err))
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toEntity()
}

func (r *userMongoRepository) find(ctx context.Context, filter bson.M) ([]*entity.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		r.log.Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("find users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.log.Error("Failed to decode users", zap.Error(err))
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*entity.User, 0, len(docs))
	for _, doc := range docs {
		user, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// containsInsensitive builds a case-insensitive regex that matches s literally.
func containsInsensitive(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
