package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const UserColName = "users"

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title,omitempty" json:"title,omitempty"`
	FirstName string             `bson:"first_name" json:"first_name" validate:"required"`
	LastName  string             `bson:"last_name" json:"last_name" validate:"required"`
	Username  string             `bson:"username" json:"username" validate:"required,min=3"`
	Email     string             `bson:"email" json:"email" validate:"required,email"`
	Phone     string             `bson:"phone" json:"phone" validate:"required"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	CreatedAt time.Time          `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// FullName is the display name embedded into booking customer snapshots.
func (u *User) FullName() string {
	if u.Title != "" {
		return u.Title + " " + u.FirstName + " " + u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// Snapshot freezes the contact info a booking keeps forever.
func (u *User) Snapshot() CustomerSnapshot {
	return CustomerSnapshot{
		CustomerID: u.ID,
		Name:       u.FullName(),
		Phone:      u.Phone,
		Email:      u.Email,
	}
}

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

func (mdb *MongodbRepo) CreateUser(ctx context.Context, user *User) (*User, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, UserColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = "customer"
	}

	if _, err := col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: username, email or phone already in use", ErrInvalidArgument)
		}
		return nil, fmt.Errorf("error inserting user: %v", err)
	}
	return user, nil
}

func (mdb *MongodbRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, UserColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var user User
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("error finding user: %v", err)
	}
	return &user, nil
}

func (mdb *MongodbRepo) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	col, err := mdb.GetCollection(ctx, CateringDbName, UserColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var user User
	err = col.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("error finding user: %v", err)
	}
	return &user, nil
}
