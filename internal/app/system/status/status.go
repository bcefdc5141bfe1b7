// Package status defines the lifecycle states shared by users, Edirs and
// Edir requests.
package status

import "strings"

const (
	Active    = "active"
	Pending   = "pending"
	Disabled  = "disabled"
	Rejected  = "rejected"
	Suspended = "suspended"
	Approved  = "approved"
)

// IsValidUser reports whether s is a valid user status.
func IsValidUser(s string) bool {
	switch s {
	case Active, Pending, Disabled, Rejected:
		return true
	}
	return false
}

// IsValidEdir reports whether s is a valid Edir status.
func IsValidEdir(s string) bool {
	return s == Active || s == Suspended
}

// Normalize lowercases and trims a status value.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
