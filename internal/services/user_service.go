package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Phoomss/ChaiCharoen-Catering/internal/helpers"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/models"
)

const accessTokenTTL = 24 * time.Hour

type UserService struct {
	userRepo  models.UserRepo
	jwtSecret string
}

func NewUserService(userRepo models.UserRepo, jwtSecret string) *UserService {
	return &UserService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

func (us *UserService) Register(ctx context.Context, user *models.User, password string) (*models.User, error) {
	if err := models.Validate.Struct(user); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidArgument, err)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", models.ErrInvalidArgument)
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}
	user.Password = hash
	user.Role = "customer"

	return us.userRepo.CreateUser(ctx, user)
}

// Authenticate verifies credentials and issues an HS256 access token.
func (us *UserService) Authenticate(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := us.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: invalid username or password", models.ErrInvalidArgument)
		}
		return "", nil, err
	}
	if !helpers.VerifyPassword(user.Password, password) {
		return "", nil, fmt.Errorf("%w: invalid username or password", models.ErrInvalidArgument)
	}

	token, err := helpers.NewAccessToken(us.jwtSecret, user.ID.Hex(), user.Role, user.FullName(), accessTokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %v", err)
	}
	return token, user, nil
}

func (us *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: invalid user ID", models.ErrInvalidArgument)
	}
	return us.userRepo.GetUserByID(ctx, id)
}
