package models

import "time"

// Validate checks the user fields
func (u *User) Validate() error {
	return validate.Struct(u)
}

// BeforeCreate defaults the username to the subject and stamps the join time
func (u *User) BeforeCreate() {
	if u.Username == "" {
		u.Username = u.ID
	}
	if u.JoinedAt.IsZero() {
		u.JoinedAt = time.Now()
	}
}

// ApplyProfile copies profile fields from a fresh session. It reports whether anything changed.
func (u *User) ApplyProfile(p User) bool {
	changed := false
	if p.Username != "" && p.Username != u.Username {
		u.Username = p.Username
		changed = true
	}
	if p.Email != u.Email {
		u.Email = p.Email
		changed = true
	}
	if p.ImageURL != u.ImageURL {
		u.ImageURL = p.ImageURL
		changed = true
	}
	return changed
}
