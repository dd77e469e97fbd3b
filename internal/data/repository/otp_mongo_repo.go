package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-service/internal/data/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const otpsCollection = "otps"

type otpDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Email     string    `bson:"email"`
	OTPCode   string    `bson:"otp_code"`
	OTPType   string    `bson:"otp_type"`
	ExpiresAt time.Time `bson:"expires_at"`
	IsUsed    bool      `bson:"is_used"`
	Attempts  int       `bson:"attempts"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d otpDocument) toEntity() (*entity.OTP, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse otp id %q: %w", d.ID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse otp user id %q: %w", d.UserID, err)
	}
	return &entity.OTP{
		BaseSimple: entity.BaseSimple{ID: id, CreatedAt: d.CreatedAt},
		UserID:     userID,
		Email:      d.Email,
		OTPCode:    d.OTPCode,
		OTPType:    entity.OTPType(d.OTPType),
		ExpiresAt:  d.ExpiresAt,
		IsUsed:     d.IsUsed,
		Attempts:   d.Attempts,
	}, nil
}

type otpMongoRepository struct {
	coll *mongo.Collection
	log  *zap.Logger
	now  func() time.Time
}

func NewOTPMongoRepository(db *mongo.Database, log *zap.Logger) OTPRepository {
	return &otpMongoRepository{
		coll: db.Collection(otpsCollection),
		log:  log.With(zap.String("repository", "otp_mongo")),
		now:  time.Now,
	}
}

func (r *otpMongoRepository) Create(ctx context.Context, otp *entity.OTP) error {
	doc := otpDocument{
		ID:        otp.ID.String(),
		UserID:    otp.UserID.String(),
		Email:     otp.Email,
		OTPCode:   otp.OTPCode,
		OTPType:   string(otp.OTPType),
		ExpiresAt: otp.ExpiresAt,
		IsUsed:    otp.IsUsed,
		Attempts:  otp.Attempts,
		CreatedAt: otp.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		r.log.Error("Failed to create OTP",
			zap.Error(err),
			zap.String("email", otp.Email),
			zap.String("otp_type", string(otp.OTPType)),
		)
		return fmt.Errorf("create OTP for %s: %w", otp.Email, err)
	}
	return nil
}

func (r *otpMongoRepository) FindActiveOTP(ctx context.Context, email, otpType string) (*entity.OTP, error) {
	filter := bson.M{
		"email":      email,
		"otp_type":   otpType,
		"is_used":    false,
		"expires_at": bson.M{"$gt": r.now()},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var doc otpDocument
	err := r.coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active OTP",
			zap.Error(err),
			zap.String("email", email),
			zap.String("otp_type", otpType),
		)
		return nil, fmt.Errorf("find active OTP for %s type %s: %w", email, otpType, err)
	}
	return doc.toEntity()
}

func (r *otpMongoRepository) IncrementAttempts(ctx context.Context, otpID uuid.UUID) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc otpDocument
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": otpID.String(), "is_used": false},
		bson.M{"$inc": bson.M{"attempts": 1}},
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("increment OTP %s attempts: %w", otpID.String(), ErrNotFound)
	}
	if err != nil {
		r.log.Error("Failed to increment OTP attempts", zap.Error(err), zap.String("otp_id", otpID.String()))
		return 0, fmt.Errorf("increment OTP %s attempts: %w", otpID.String(), err)
	}
	return doc.Attempts, nil
}

func (r *otpMongoRepository) MarkAsUsed(ctx context.Context, otpID uuid.UUID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": otpID.String(), "is_used": false},
		bson.M{"$set": bson.M{"is_used": true}},
	)
	if err != nil {
		r.log.Error("Failed to mark OTP as used", zap.Error(err), zap.String("otp_id", otpID.String()))
		return fmt.Errorf("mark OTP %s as used: %w", otpID.String(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mark OTP %s as used: %w", otpID.String(), ErrNotFound)
	}
	return nil
}

func (r *otpMongoRepository) InvalidateForUser(ctx context.Context, userID uuid.UUID, otpType string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"user_id": userID.String(), "otp_type": otpType, "is_used": false},
		bson.M{"$set": bson.M{"is_used": true}},
	)
	if err != nil {
		r.log.Error("Failed to invalidate OTPs", zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("invalidate OTPs for %s: %w", userID.String(), err)
	}
	return nil
}
