package remote

import (
	"strconv"
	"strings"
)

// EntityRef identifies a record in the remote system. The ID token is
// opaque, of the form "<CollectionPath>:<N>"; two refs are equal iff their
// full tokens are equal.
type EntityRef struct {
	ID string `json:"id"`
}

// InstanceID extracts the numeric instance identifier from the token. A
// token with no ":" or a non-numeric suffix yields 0; that is a tolerated
// degraded case, not an error.
func (e EntityRef) InstanceID() int {
	idx := strings.LastIndex(e.ID, ":")
	if idx < 0 {
		return 0
	}
	id, err := strconv.Atoi(e.ID[idx+1:])
	if err != nil {
		return 0
	}
	return id
}

// IsZero reports whether the ref carries no token
func (e EntityRef) IsZero() bool {
	return e.ID == ""
}

// Ref builds an EntityRef from a token string
func Ref(token string) EntityRef {
	return EntityRef{ID: token}
}
