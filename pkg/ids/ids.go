// Package ids generates instance identifiers.
package ids

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// UUIDv7 issues time-ordered identifiers, so ids sort by creation time.
type UUIDv7 struct{}

func (UUIDv7) NewInstanceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}

	return id.String()
}

// Sequence issues predictable ids for tests and fixtures.
type Sequence struct {
	Prefix string

	mu   sync.Mutex
	next int
}

func (s *Sequence) NewInstanceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++

	return s.Prefix + strconv.Itoa(s.next)
}
