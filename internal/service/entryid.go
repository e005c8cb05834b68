package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidEntryID = errors.New("entry id is not a UUID")
	ErrEntryIDVersion = errors.New("entry id must be a version 7 UUID")
	// ErrEntryIDFuture means the id's embedded creation time is ahead of the server clock
	ErrEntryIDFuture = errors.New("entry id was created in the future")
)

// entryIDClockSkew is how far ahead of the server a client clock may run
const entryIDClockSkew = time.Minute

// NewEntryID returns a fresh UUIDv7 entry id
func NewEntryID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate entry id: %w", err)
	}
	return id.String(), nil
}

// ValidateEntryID checks a client-generated entry id against now. Offline
// clients create ids ahead of saving, so only ids from the future are rejected.
func ValidateEntryID(id string, now time.Time) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntryID, err)
	}
	if parsed.Version() != 7 {
		return fmt.Errorf("%w: got version %d", ErrEntryIDVersion, parsed.Version())
	}
	if created := entryIDTime(parsed); created.After(now.Add(entryIDClockSkew)) {
		return fmt.Errorf("%w: %s", ErrEntryIDFuture, created.UTC().Format(time.RFC3339))
	}
	return nil
}

// EntryIDTime returns the creation time embedded in a UUIDv7 entry id, or
// the zero time when id is not a UUIDv7
func EntryIDTime(id string) time.Time {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.Version() != 7 {
		return time.Time{}
	}
	return entryIDTime(parsed)
}

func entryIDTime(id uuid.UUID) time.Time {
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec).UTC()
}
