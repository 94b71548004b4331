// Package slug provides the validated identifier value type used for
// organization and workspace URL names.
package slug

import (
	"regexp"
	"strings"

	"tenant-control-plane/backend/internal/platform/domainerr"
)

const (
	// MinLength and MaxLength bound the normalized slug.
	MinLength = 2
	MaxLength = 100
)

var pattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Slug is a normalized, URL-safe identifier. The zero value is invalid;
// construct via Parse. Equality on the normalized string value.
type Slug string

// Parse normalizes text (trim, lowercase) and validates it as a slug.
// It rejects empty input, out-of-range length, characters outside
// [a-z0-9-], and a leading or trailing hyphen.
func Parse(text string) (Slug, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return "", domainerr.Validation("slug", "value", "must not be empty")
	}
	if len(normalized) < MinLength || len(normalized) > MaxLength {
		return "", &domainerr.Error{
			Kind:   domainerr.KindValidation,
			Entity: "slug",
			Field:  "value",
			Value:  normalized,
			Msg:    "length must be between 2 and 100",
		}
	}
	if strings.HasPrefix(normalized, "-") || strings.HasSuffix(normalized, "-") {
		return "", &domainerr.Error{
			Kind:   domainerr.KindValidation,
			Entity: "slug",
			Field:  "value",
			Value:  normalized,
			Msg:    "must not start or end with a hyphen",
		}
	}
	if !pattern.MatchString(normalized) {
		return "", &domainerr.Error{
			Kind:   domainerr.KindValidation,
			Entity: "slug",
			Field:  "value",
			Value:  normalized,
			Msg:    "must contain only lowercase letters, digits, and hyphens",
		}
	}
	return Slug(normalized), nil
}

func (s Slug) String() string { return string(s) }
