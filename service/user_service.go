package service

import (
	"database/sql"

	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/repository"
)

// UserService handles registration and authentication business logic.
type UserService struct {
	userRepo repository.IUserRepository
}

func NewUserService(userRepo repository.IUserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// RegisterUser creates a new user with a bcrypt-hashed credential. The email
// must not already be registered.
func (s *UserService) RegisterUser(username, email, password string) (*model.User, error) {
	if _, err := s.userRepo.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered")
	return user, nil
}

// Login verifies the credentials and issues an access token for the user.
func (s *UserService) Login(email, password string) (string, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !CheckPasswordHash(password, user.Password) {
		return "", ErrInvalidCredentials
	}

	return GenerateJWT(user.ID)
}

// GetUserByID returns the user record for an authenticated principal.
func (s *UserService) GetUserByID(userID int) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}
