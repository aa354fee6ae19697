// Package authz is the single decision point for who may do what.
// Handlers never inspect roles directly; they ask this package and act on
// the answer. Every check takes the caller explicitly, with nil standing
// for an anonymous visitor.
package authz

import "blog/internal/models"

// Decision is a guard verdict. Forbidden means the caller is known but not
// entitled; RedirectToLogin means the action is open to any signed-in user
// and the caller has none.
type Decision int

const (
	Allowed Decision = iota
	Forbidden
	RedirectToLogin
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Forbidden:
		return "forbidden"
	case RedirectToLogin:
		return "redirect_to_login"
	default:
		return "unknown"
	}
}

// CanCreatePost reports whether caller may author a new post.
func CanCreatePost(caller *models.User) bool {
	return caller != nil && caller.Role.IsAdmin()
}

// CanEditPost reports whether caller may edit post. The decision depends
// only on the caller's role; authorship of the post does not grant access.
func CanEditPost(caller *models.User, post *models.Post) bool {
	return caller != nil && caller.Role.IsAdmin()
}

// CanDeletePost reports whether caller may delete post.
func CanDeletePost(caller *models.User, post *models.Post) bool {
	return caller != nil && caller.Role.IsAdmin()
}

// CanComment reports whether caller may comment. Any signed-in user may;
// anonymous visitors may not.
func CanComment(caller *models.User) bool {
	return caller != nil
}

// CanViewPost reports whether caller may read posts. Reading is public.
func CanViewPost(caller *models.User, post *models.Post) bool {
	return true
}

// PostMutation decides create, edit, and delete attempts on posts.
// Non-admins are refused outright rather than sent to the login page:
// signing in would not help a reader, and the route should look closed
// to probing.
func PostMutation(caller *models.User) Decision {
	if CanCreatePost(caller) {
		return Allowed
	}
	return Forbidden
}

// Commenting decides comment attempts. Anonymous visitors are sent to the
// login page, since signing in is exactly what they are missing.
func Commenting(caller *models.User) Decision {
	if CanComment(caller) {
		return Allowed
	}
	return RedirectToLogin
}
