package news

import (
	"fmt"
	"strings"
)

const genericDescription = "No description available."

// PlaceholderDescription is the filler text used when a provider ships no
// description for a record.
func PlaceholderDescription(domain string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return genericDescription
	}
	return fmt.Sprintf("Read the full story at %s.", domain)
}

// IsPlaceholderDescription reports whether description carries no content of
// its own.
func IsPlaceholderDescription(description string) bool {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" || trimmed == genericDescription {
		return true
	}
	return strings.HasPrefix(trimmed, "Read the full story at ")
}
