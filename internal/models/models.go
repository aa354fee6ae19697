// Package models holds the persisted entities shared by the storage and
// handler layers. Entities carry plain foreign-key ids; display fields such
// as AuthorName are populated by joins, never by object back-references.
package models

import "time"

// Role is the access level attached to a user account.
type Role string

const (
	RoleReader Role = "reader"
	RoleAdmin  Role = "admin"
)

// IsAdmin reports whether the role grants post authorship.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool { return r == RoleReader || r == RoleAdmin }

type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

type Post struct {
	ID       int64
	AuthorID int64
	Title    string
	Subtitle string
	Body     string
	ImageURL string
	// Date is the human-readable publication date ("January 2, 2006"),
	// stamped when the post is created.
	Date      string
	CreatedAt time.Time

	// AuthorName is filled by join queries for display.
	AuthorName string
}

type Comment struct {
	ID        int64
	PostID    int64
	AuthorID  int64
	Body      string
	CreatedAt time.Time

	AuthorName string
}
