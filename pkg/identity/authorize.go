package identity

import (
	"crypto/subtle"
)

// Ownable is any content item the deletion gate can rule on.
type Ownable interface {
	// OwnerID returns the registered author's id, 0 for anonymous items.
	OwnerID() int64
	// DeletionToken returns the item's deletion secret, empty for
	// registered-owned items.
	DeletionToken() string
}

// CanDelete decides whether actor may delete item. Registered actors
// pass on author match or the admin override. Anonymous items may also
// be deleted by whoever presents the exact deletion token. Everything
// else is denied.
func CanDelete(item Ownable, actor Actor, suppliedToken string) bool {
	if actor.IsRegistered() {
		if item.OwnerID() != 0 && item.OwnerID() == actor.UserID {
			return true
		}
		if actor.IsAdmin {
			return true
		}
	}

	if item.OwnerID() == 0 && suppliedToken != "" {
		return subtle.ConstantTimeCompare([]byte(suppliedToken), []byte(item.DeletionToken())) == 1
	}

	return false
}
