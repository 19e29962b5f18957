package auth

import "errors"

var ErrForbidden = errors.New("user is not authorized")

// RequireOwner allows a mutation only when the authenticated actor owns the resource.
func RequireOwner(actorID, ownerID string) error {
	if actorID == "" || ownerID == "" || actorID != ownerID {
		return ErrForbidden
	}

	return nil
}
