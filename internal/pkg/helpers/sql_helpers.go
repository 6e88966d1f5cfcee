package helpers

import "strings"

// NullIfBlank returns nil for an empty or whitespace-only string so that it
// is stored as SQL NULL, and a pointer to the trimmed value otherwise.
func NullIfBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// TrimPtr trims the value behind p, keeping nil as nil
func TrimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
