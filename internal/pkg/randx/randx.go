/*
Package randx generates the identifiers used across the service:
UUIDs for connections and chat messages, ULIDs for commits.
*/
package randx

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ConnectionID returns a UUID v4 identifying one live connection.
func ConnectionID() string {
	return uuid.New().String()
}

// MessageID returns a UUID v4 identifying one chat message.
func MessageID() string {
	return uuid.New().String()
}

// CommitID returns a ULID. Commit IDs sort lexically by creation time,
// which keeps the commit log naturally ordered in storage listings.
func CommitID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), rand.Reader).String()
}
