// Package policy decides whether a principal may perform an operation on a
// resource.  It is a pure function of its inputs and knows nothing about
// HTTP or storage.
package policy

import (
	"fmt"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// Operation is the verb being attempted.
type Operation string

const (
	OpList     Operation = "list"
	OpRetrieve Operation = "retrieve"
	OpCreate   Operation = "create"
	OpUpdate   Operation = "update"
	OpDelete   Operation = "delete"
)

// IsRead reports whether the operation only reads.
func (o Operation) IsRead() bool { return o == OpList || o == OpRetrieve }

// Kind is the resource type being addressed.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindGenre  Kind = "genre"
	KindReview Kind = "review"
	KindRating Kind = "rating"
)

// Owned is implemented by resources that belong to a user.
type Owned interface {
	OwnerID() uint64
}

// Permit reports whether p may perform op on a resource of the given kind.
// res is the addressed instance for update and delete of owned kinds and
// may be nil otherwise.
func Permit(p model.Principal, op Operation, kind Kind, res Owned) bool {
	return Check(p, op, kind, res) == nil
}

// Check is Permit with the reason for a refusal.  It returns nil,
// model.ErrUnauthorized when a principal is required but missing, or
// model.ErrForbidden when the principal lacks the right.
//
// Rules, in order:
//  1. reads are open to everyone
//  2. movie and genre writes need an admin
//  3. review and rating creation needs any authenticated user
//  4. review and rating update/delete need the author or an admin
func Check(p model.Principal, op Operation, kind Kind, res Owned) error {
	if op.IsRead() {
		return nil
	}
	if p.IsAnonymous() {
		return fmt.Errorf("%w: %s %s", model.ErrUnauthorized, op, kind)
	}
	switch kind {
	case KindMovie, KindGenre:
		if p.IsAdmin {
			return nil
		}
		return fmt.Errorf("%w: only admins may %s a %s", model.ErrForbidden, op, kind)
	case KindReview, KindRating:
		if op == OpCreate || p.IsAdmin {
			return nil
		}
		if res != nil && res.OwnerID() == p.UserID {
			return nil
		}
		return fmt.Errorf("%w: only the author or an admin may %s this %s", model.ErrForbidden, op, kind)
	}
	return fmt.Errorf("%w: unknown resource kind %q", model.ErrForbidden, kind)
}
