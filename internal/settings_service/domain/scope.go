package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ScopeType is the addressing granularity of a settings change.
type ScopeType string

const (
	ScopeBusiness ScopeType = "business"
	ScopePhone    ScopeType = "phone"
)

// BusinessScopeKey derives the business-wide channel name. Publishers and
// subscribers agree on addressing through these two functions alone; there is
// no channel registry.
func BusinessScopeKey(businessID uuid.UUID) (string, error) {
	if businessID == uuid.Nil {
		return "", fmt.Errorf("%w: business id is empty", ErrInvalidScope)
	}
	return fmt.Sprintf("business:%s", businessID), nil
}

// PhoneScopeKey derives the phone-specific channel name.
func PhoneScopeKey(phoneID uuid.UUID) (string, error) {
	if phoneID == uuid.Nil {
		return "", fmt.Errorf("%w: phone id is empty", ErrInvalidScope)
	}
	return fmt.Sprintf("phone:%s", phoneID), nil
}
