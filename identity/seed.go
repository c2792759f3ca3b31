package identity

import (
	"context"
	"errors"
)

// SeedDefaults makes sure the administrator account exists and holds the
// Administrator role. Existing accounts keep their password.
func SeedDefaults(ctx context.Context, s *Service, password string) (string, error) {
	u, err := s.store.ByUserName(ctx, AdministratorUserName)
	switch {
	case errors.Is(err, ErrNotFound):
		id, err := s.CreateUser(ctx, AdministratorUserName, password)
		if err != nil {
			return "", err
		}
		return id, s.AddToRole(ctx, id, RoleAdministrator)
	case err != nil:
		return "", err
	}
	return u.ID, s.AddToRole(ctx, u.ID, RoleAdministrator)
}
