package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/chirp/internal/domain"
	"github.com/ErlanBelekov/chirp/internal/repository"
	"github.com/ErlanBelekov/chirp/internal/storage"
)

// codeRequester lets user creation trigger the login-code flow without
// depending on the whole AuthUsecase.
type codeRequester interface {
	RequestLoginCode(ctx context.Context, email, clientIP string) error
}

type UserUsecase struct {
	users  repository.UserRepository
	tweets repository.TweetRepository
	files  storage.FileStore
	auth   codeRequester
}

func NewUserUsecase(users repository.UserRepository, tweets repository.TweetRepository, files storage.FileStore, auth codeRequester) *UserUsecase {
	return &UserUsecase{
		users:  users,
		tweets: tweets,
		files:  files,
		auth:   auth,
	}
}

type CreateUserInput struct {
	Email    string
	Name     string
	Username string
}

const newUserBio = "Hello, I'm new on Twitter"

// CreateUser registers a user and immediately issues a login code so the
// account can be signed into. A pre-existing email is domain.ErrEmailTaken;
// losing a registration race on insert is domain.ErrDuplicateUser.
func (u *UserUsecase) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	_, err := u.users.FindByEmail(ctx, input.Email)
	if err == nil {
		return nil, domain.ErrEmailTaken
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	bio := newUserBio
	created, err := u.users.Create(ctx, &domain.User{
		Email:    input.Email,
		Name:     &input.Name,
		Username: &input.Username,
		Bio:      &bio,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			return nil, domain.ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := u.auth.RequestLoginCode(ctx, created.Email, ""); err != nil {
		return nil, fmt.Errorf("issue login code: %w", err)
	}
	return created, nil
}

func (u *UserUsecase) GetByID(ctx context.Context, id int64) (*domain.User, []*domain.Tweet, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	tweets, err := u.tweets.ListByUser(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list user tweets: %w", err)
	}
	return user, tweets, nil
}

func (u *UserUsecase) List(ctx context.Context) ([]*domain.User, error) {
	users, err := u.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (u *UserUsecase) Update(ctx context.Context, input repository.UpdateUserInput) (*domain.User, error) {
	user, err := u.users.Update(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (u *UserUsecase) Delete(ctx context.Context, id int64) error {
	if err := u.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// UpdateProfilePicture uploads the new picture, points the user row at it and
// then removes the previous object.
func (u *UserUsecase) UpdateProfilePicture(ctx context.Context, user *domain.User, data []byte, filename, contentType string) (*domain.User, error) {
	id, err := u.files.Upload(ctx, data, filename, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload profile picture: %w", err)
	}

	updated, err := u.users.UpdateImage(ctx, user.ID, id)
	if err != nil {
		return nil, fmt.Errorf("set profile picture: %w", err)
	}

	if user.Image != nil && *user.Image != "" {
		if err := u.files.Delete(ctx, *user.Image); err != nil {
			return nil, fmt.Errorf("delete old profile picture: %w", err)
		}
	}
	return updated, nil
}
