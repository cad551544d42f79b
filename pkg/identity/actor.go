package identity

import (
	"strconv"

	"anonforum/pkg/common"
	"anonforum/pkg/session"
)

// Actor is the resolved identity of a requester for one operation.
// Exactly one of UserID/AnonID is meaningful: a registered actor has
// UserID > 0 and an empty AnonID, an anonymous actor the reverse.
type Actor struct {
	UserID  int64
	IsAdmin bool
	AnonID  string
}

func Registered(userID int64, isAdmin bool) Actor {
	return Actor{UserID: userID, IsAdmin: isAdmin}
}

func Anonymous(anonID string) Actor {
	return Actor{AnonID: anonID}
}

func (a Actor) IsRegistered() bool {
	return a.UserID != 0
}

// VoterID renders the actor as a vote-set member: the registered user
// id in base 10, or the client-supplied anonymous id.
func (a Actor) VoterID() string {
	if a.IsRegistered() {
		return strconv.FormatInt(a.UserID, 10)
	}

	return a.AnonID
}

// Resolve maps an optional verified session plus an optional
// client-supplied anonymous id to an Actor. It never fails: a nil
// session (absent or unverifiable credential) degrades to anonymous.
// No id is minted here; an anonymous actor with an empty AnonID means
// the caller decides whether to mint one.
func Resolve(sess *session.Session, clientAnonID string) Actor {
	if sess != nil && sess.User != nil {
		return Registered(sess.User.ID, sess.User.IsAdmin)
	}

	return Anonymous(clientAnonID)
}

// RequireRegistered is the fail-closed counterpart of Resolve for
// operations that must see a verified registered identity.
func RequireRegistered(sess *session.Session) (Actor, error) {
	if sess == nil || sess.User == nil {
		return Actor{}, common.ErrForbidden
	}

	return Registered(sess.User.ID, sess.User.IsAdmin), nil
}
