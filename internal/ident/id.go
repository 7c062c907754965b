// Package ident mints identifiers used for log correlation across the
// application manager's load pipeline.
package ident

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewCorrelationID returns a UUID used to tie together the log lines of a
// single start request, from manifest resolution through relocation and
// task spawn.
func NewCorrelationID() string {
	return uuid.NewString()
}

// NewHexID generates a short random hex identifier for cases that do not
// need the full UUID format (e.g. test fixtures).
func NewHexID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
