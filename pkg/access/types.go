// Package access holds the read, write, quota and entitlement rules for posts
// and users. Every function is a pure computation over values the caller has
// already loaded; nothing here touches the database, the cache or the ledger.
//
// A requester id of "" means an anonymous (unauthenticated) requester.
package access

import (
	"fmt"
	"strings"

	"blogsphere/pkg/apperrors"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ListableVisibility is the store filter listing endpoints apply for
// non-owners. Results must still pass CanRead.
const ListableVisibility = VisibilityPublic

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// ParseVisibility accepts "public" or "private" in any case. An empty string
// yields the default, public.
func ParseVisibility(s string) (Visibility, error) {
	if s == "" {
		return VisibilityPublic, nil
	}
	v := Visibility(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("%w: unknown visibility %q", apperrors.ErrValidation, s)
	}
	return v, nil
}

// Post is the part of a post the rules look at. The body is never inspected.
type Post struct {
	ID         string
	AuthorID   string
	Visibility Visibility
}

// User is the part of a user the rules look at.
type User struct {
	ID        string
	IsPremium bool
}

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

func TierOf(u User) Tier {
	if u.IsPremium {
		return TierPremium
	}
	return TierFree
}

type ChargeStatus string

const (
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargeFailed    ChargeStatus = "failed"
	ChargePending   ChargeStatus = "pending"
)

// Charge is a ledger record. Amount is in minor currency units, Created in
// epoch seconds.
type Charge struct {
	ID       string
	Amount   int64
	Currency string
	Status   ChargeStatus
	Created  int64
	UserID   string
}
