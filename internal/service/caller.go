package service

import (
	"context"
	"errors"

	"github.com/watizat/connect/internal/apperror"
	"github.com/watizat/connect/internal/model"
	"github.com/watizat/connect/internal/repository"
)

// lookupCaller loads the account behind an authenticated request. A token
// can outlive its account (an admin deleted it), so a missing row means the
// caller is no longer authenticated rather than that some resource is
// missing.
func lookupCaller(ctx context.Context, users repository.UserRepository, id string) (*model.User, error) {
	u, err := users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("account no longer exists")
		}
		return nil, err
	}
	return u, nil
}
