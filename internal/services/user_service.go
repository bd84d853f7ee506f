package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/models"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 255
	maxEmailLength    = 255
)

type UserService struct {
	db core.DbClient
}

func NewUserService(db core.DbClient) *UserService {
	return &UserService{db: db}
}

// Create registers a user. Usernames are unique; a taken one fails with
// core.ErrConflict.
func (s *UserService) Create(ctx context.Context, username, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if n := len([]rune(username)); n < minUsernameLength || n > maxUsernameLength {
		return nil, fmt.Errorf("%w: username must be %d-%d characters", core.ErrValidation, minUsernameLength, maxUsernameLength)
	}
	if len([]rune(email)) > maxEmailLength {
		return nil, fmt.Errorf("%w: email exceeds %d characters", core.ErrValidation, maxEmailLength)
	}
	if email != "" && !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email is not valid", core.ErrValidation)
	}

	u := &models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.db.GetUser(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.db.ListUsers(ctx)
}
