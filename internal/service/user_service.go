package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shinyyama/mercado-backend/internal/logging"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNameLen = 120

// ProfileSource looks users up in the identity provider.
type ProfileSource interface {
	Profile(ctx context.Context, uid string) (*model.User, error)
}

// ProfileInput holds the editable profile fields; nil leaves a field as is.
type ProfileInput struct {
	Name      *string
	AvatarURL *string
	Location  *string
	Latitude  *float64
	Longitude *float64
}

type UserService interface {
	Me(ctx context.Context, uid string) (*model.User, error)
	UpdateMe(ctx context.Context, uid string, in ProfileInput) (*model.User, error)
	Public(ctx context.Context, uid string) (*model.User, error)
}

type userService struct {
	users   repository.UserRepository
	profile ProfileSource
	log     *zap.Logger
}

// NewUserService accepts a nil ProfileSource when no identity provider is configured.
func NewUserService(users repository.UserRepository, profile ProfileSource, log *zap.Logger) UserService {
	return &userService{users: users, profile: profile, log: log}
}

func (s *userService) Me(ctx context.Context, uid string) (*model.User, error) {
	if uid == "" {
		return nil, ErrForbidden
	}
	u, err := s.users.FirstOrCreate(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u.Name != "" || s.profile == nil {
		return u, nil
	}
	remote, err := s.profile.Profile(ctx, uid)
	if err != nil {
		logging.FromContext(ctx, s.log).Debug("identity profile lookup failed", zap.Error(err))
		return u, nil
	}
	u.Name = remote.Name
	u.Email = remote.Email
	if u.AvatarURL == "" {
		u.AvatarURL = remote.AvatarURL
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) UpdateMe(ctx context.Context, uid string, in ProfileInput) (*model.User, error) {
	u, err := s.Me(ctx, uid)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || utf8.RuneCountInString(name) > maxNameLen {
			return nil, invalid("name must be 1-%d characters", maxNameLen)
		}
		u.Name = name
	}
	if in.AvatarURL != nil {
		avatar := strings.TrimSpace(*in.AvatarURL)
		if strings.HasPrefix(avatar, "data:") {
			return nil, invalid("avatarUrl must be a URL, not data URI")
		}
		u.AvatarURL = avatar
	}
	if in.Location != nil {
		u.Location = strings.TrimSpace(*in.Location)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, invalid("latitude and longitude go together")
	}
	if in.Latitude != nil {
		u.Latitude = in.Latitude
		u.Longitude = in.Longitude
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Public(ctx context.Context, uid string) (*model.User, error) {
	u, err := s.users.FindByUID(ctx, uid)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if s.profile == nil {
		return nil, ErrNotFound
	}
	remote, err := s.profile.Profile(ctx, uid)
	if err != nil {
		return nil, ErrNotFound
	}
	return remote, nil
}
