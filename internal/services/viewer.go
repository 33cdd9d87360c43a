package services

import "github.com/anonto42/usf-event/backend/internal/models"

// Viewer is the caller of an operation. It is built once per request by the
// session middleware and passed explicitly to every service call.
type Viewer struct {
	Authenticated bool
	User          *models.User
	// Profile is nil for identities without a profile (e.g. operator accounts).
	Profile *models.Profile
}

// Anonymous is the viewer for requests without a valid session.
func Anonymous() Viewer {
	return Viewer{}
}

func Authenticated(user *models.User, profile *models.Profile) Viewer {
	return Viewer{Authenticated: true, User: user, Profile: profile}
}

// HasProfile reports whether the viewer can act as a profile.
func (v Viewer) HasProfile() bool {
	return v.Authenticated && v.Profile != nil
}
