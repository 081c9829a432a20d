package cart

import (
	"strings"

	"github.com/google/uuid"
)

// Shopper identifies whose cart a request touches. GuestID is the cart session
// issued to the browser; UserID is set once the bearer token verified.
type Shopper struct {
	GuestID string
	UserID  uuid.UUID
}

// Authenticated reports whether the durable tier is authoritative.
func (s Shopper) Authenticated() bool {
	return s.UserID != uuid.Nil
}

func (s Shopper) guestOwner() string {
	if strings.TrimSpace(s.GuestID) == "" {
		return ""
	}
	return "guest:" + s.GuestID
}

func (s Shopper) userOwner() string {
	return "user:" + s.UserID.String()
}

// owner is the local tier key for the authoritative cart.
func (s Shopper) owner() string {
	if s.Authenticated() {
		return s.userOwner()
	}
	return s.guestOwner()
}

// State is the tier layout of a cart.
type State interface {
	Authoritative() Items
}

// Anonymous carts live only in the local tier.
type Anonymous struct {
	Local Items
}

// Authoritative returns the local lines.
func (a Anonymous) Authoritative() Items { return a.Local }

// Authenticated carts are owned by the durable tier; Mirror is the local copy.
type Authenticated struct {
	Durable Items
	Mirror  Items
}

// Authoritative returns the durable lines.
func (a Authenticated) Authoritative() Items { return a.Durable }

// MergeOnLogin folds a guest cart into the durable cart. Lines present in both
// add their quantities and take the guest attributes. It returns the resulting
// state and the lines that must be upserted into the durable tier.
func MergeOnLogin(local, durable Items) (Authenticated, Items) {
	merged := append(Items(nil), durable...)
	upserts := make(Items, 0, len(local))
	for _, item := range local {
		merged = merged.Add(item)
	}
	for _, item := range local {
		final, _ := merged.Find(item.Key())
		if _, seen := upserts.Find(item.Key()); !seen {
			upserts = append(upserts, final)
		}
	}
	return Authenticated{Durable: merged, Mirror: merged}, upserts
}
