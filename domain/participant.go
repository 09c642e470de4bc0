// Package domain contains core concepts of the chat system.
// This file defines participant naming rules.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"fmt"
	"roomhub/errors"
	"strings"
)

const MaxDisplayNameLength = 64

type participant struct {
	DisplayName string `validate:"required,max=64"`
}

// ValidateDisplayName rejects names that can't be used as a membership key.
func ValidateDisplayName(displayName string) error {
	if err := validate.Struct(participant{DisplayName: displayName}); err != nil {
		return fmt.Errorf("%w: %q", errors.ErrInvalidDisplayName, displayName)
	}
	if strings.TrimSpace(displayName) != displayName {
		return fmt.Errorf("%w: %q has surrounding spaces", errors.ErrInvalidDisplayName, displayName)
	}
	if displayName == SystemSender {
		return fmt.Errorf("%w: %q is reserved", errors.ErrInvalidDisplayName, displayName)
	}
	return nil
}
