package bid

import (
	"errors"
	"strings"
)

// Status is a bid status as stored in the `bids` table.
// A countered bid is recorded as REJECTED; the counter offer itself is a new
// PENDING bid referencing the original through parent_bid_id.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

var ErrInvalidStatus = errors.New("invalid bid status")

// ParseStatus normalizes (uppercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed bid status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// Terminal indicates whether the bid can no longer change state.
func (status Status) Terminal() bool {
	return status == StatusAccepted || status == StatusRejected
}
