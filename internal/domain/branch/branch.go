// Package branch defines the fixed inventory locations.
package branch

import (
	"tradebook/internal/core/apperror"
)

// Branch is one of the four fixed inventory locations. Each carries an
// independent stock counter per product.
type Branch string

const (
	Main    Branch = "main"
	Branch1 Branch = "branch1"
	Branch2 Branch = "branch2"
	Branch3 Branch = "branch3"
)

// All returns the branches in display order.
func All() []Branch {
	return []Branch{Main, Branch1, Branch2, Branch3}
}

// Valid reports whether b names a known location.
func (b Branch) Valid() bool {
	switch b {
	case Main, Branch1, Branch2, Branch3:
		return true
	}
	return false
}

func (b Branch) String() string {
	return string(b)
}

// Parse validates a branch name coming from a request.
func Parse(s string) (Branch, error) {
	b := Branch(s)
	if !b.Valid() {
		return "", apperror.NewValidation("unknown branch").WithDetail("branch", s)
	}
	return b, nil
}
