package directory

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	users UserRepository
}

func NewService(users UserRepository) *Service {
	return &Service{users: users}
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// GetProfile returns the public profile of a user. Messaging uses this to
// populate sender and participant fields.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

// ListUsers returns active users, optionally filtered by role. This backs
// the contact picker on the portal UI.
func (s *Service) ListUsers(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, role, limit, offset)
}
