package domain

import "github.com/samber/lo"

// AllowedTags is the fixed vocabulary parties may be labeled with.
var AllowedTags = []string{
	"action",
	"animation",
	"comedy",
	"documentary",
	"drama",
	"fantasy",
	"horror",
	"romance",
	"sci-fi",
	"thriller",
}

func IsAllowedTag(tag string) bool {
	return lo.Contains(AllowedTags, tag)
}

// MergeTags adds the requested tags to the existing set, duplicate-free,
// preserving the order tags first appeared. The whole batch fails on the
// first tag outside the vocabulary; existing is returned unchanged then.
func MergeTags(existing, requested []string) ([]string, error) {
	for _, t := range requested {
		if !IsAllowedTag(t) {
			return existing, ErrInvalidTag
		}
	}
	return lo.Uniq(append(append([]string{}, existing...), requested...)), nil
}

// FilterTags removes the requested tags from the existing set. Removing a
// tag that is not present is a no-op.
func FilterTags(existing, requested []string) []string {
	return lo.Filter(existing, func(t string, _ int) bool {
		return !lo.Contains(requested, t)
	})
}
