package services

import (
	"errors"

	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}

func isRepoConflict(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsConflict()
	}
	return false
}

// translateRepoError maps a repository failure onto the caller's sentinel
// errors. Unknown failures become the unavailable sentinel.
func translateRepoError(err error, notFound, conflict, unavailable error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return notFound
		case repoErr.IsConflict():
			return conflict
		case repoErr.IsUnavailable():
			return unavailable
		}
	}
	return unavailable
}
