package ids

import (
	"strings"

	"github.com/google/uuid"
)

// shortLen is the number of hex characters kept from a random uuid.
// The first 12 hex digits of a v4 uuid are all random bits.
const shortLen = 12

// New returns a short opaque identifier for a stored entity
func New() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:shortLen]
}

// NewToken returns a full random uuid for use as a session token
func NewToken() string {
	return uuid.New().String()
}
