package store

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	ticketIDAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ticketIDSuffixLen = 9
)

// NewTicketID builds an id of the form TKT-<unix-millis>-<9 random
// uppercase alphanumerics>. Collision probability is treated as
// negligible; the primary-key constraint is the backstop.
func NewTicketID(now time.Time) (string, error) {
	suffix, err := gonanoid.Generate(ticketIDAlphabet, ticketIDSuffixLen)
	if err != nil {
		return "", fmt.Errorf("generate ticket id: %w", err)
	}
	return fmt.Sprintf("TKT-%d-%s", now.UnixMilli(), suffix), nil
}
