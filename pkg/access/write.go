package access

import (
	"fmt"

	"blogsphere/pkg/apperrors"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// WriteRequest carries everything needed to decide a post mutation.
//
// Post is the target of update and delete (nil when it does not exist).
// Requester and ExistingPostCount are only consulted for create: Requester is
// the resolved user row (nil when the id does not resolve) and
// ExistingPostCount counts the requester's posts of any visibility.
type WriteRequest struct {
	RequesterID       string
	Action            Action
	Post              *Post
	Requester         *User
	ExistingPostCount int
}

// AuthorizeWrite returns nil when the mutation is allowed, otherwise the
// reason it is refused.
func AuthorizeWrite(req WriteRequest) error {
	if req.RequesterID == "" {
		return apperrors.ErrUnauthenticated
	}

	switch req.Action {
	case ActionCreate:
		if req.Requester == nil || req.Requester.ID != req.RequesterID {
			return fmt.Errorf("%w: requester has no account", apperrors.ErrNotFound)
		}
		if !CanCreatePost(*req.Requester, req.ExistingPostCount) {
			return apperrors.ErrQuotaExceeded
		}
		return nil
	case ActionUpdate, ActionDelete:
		if req.Post == nil {
			return apperrors.ErrNotFound
		}
		if req.Post.AuthorID != req.RequesterID {
			return apperrors.ErrForbidden
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", apperrors.ErrValidation, req.Action)
	}
}

func CanWrite(req WriteRequest) bool {
	return AuthorizeWrite(req) == nil
}

// ConcealDenial turns a refusal on a post the requester cannot read into
// NotFound, so private posts never leak their existence to non-owners.
func ConcealDenial(requesterID string, post Post, err error) error {
	if err == nil || CanRead(requesterID, post) {
		return err
	}
	return apperrors.ErrNotFound
}
