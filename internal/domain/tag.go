package domain

import (
	"strings"
	"time"
)

// Tag is a named, optionally colored label shared between tasks.
type Tag struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTag creates a Tag and validates it.
func NewTag(name, color, description string) (*Tag, error) {
	now := time.Now().UTC()
	t := &Tag{
		Name:        strings.TrimSpace(name),
		Color:       strings.TrimSpace(color),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the name length, color format and description length.
func (t *Tag) Validate() error {
	if err := checkLength("name", t.Name, 2, 50); err != nil {
		return err
	}
	if t.Color != "" && !IsHexColor(t.Color) {
		return NewValidationError("color", "must be a hex color such as #3B82F6", nil)
	}
	return checkOptionalLength("description", t.Description, 0, 255)
}

// NormalizeTagNames trims names and drops empties and duplicates, keeping
// first-seen order.
func NormalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
