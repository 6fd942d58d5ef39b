package models

import (
	"strings"
	"time"
	"unicode"
)

// Validate checks the subreddit fields
func (s *Subreddit) Validate() error {
	return validate.Struct(s)
}

// BeforeCreate normalizes the slug and stamps the creation time
func (s *Subreddit) BeforeCreate() {
	s.Title = strings.TrimSpace(s.Title)
	if strings.TrimSpace(s.Slug) == "" {
		s.Slug = Slugify(s.Title)
	} else {
		s.Slug = Slugify(s.Slug)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
}

// Slugify lowercases s and collapses every run of non-alphanumerics into a single dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Matches reports a case-insensitive substring match on title or slug.
func (s *Subreddit) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.Title), q) || strings.Contains(s.Slug, q)
}
