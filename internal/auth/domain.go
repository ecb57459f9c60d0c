// Package auth owns the persisted login session and the credential checks.
package auth

// KeySession is the storage key of the persisted Session.
const KeySession = "@auth_session"

// Session is the persisted login state. UserEmail is nil when logged out.
type Session struct {
	IsLoggedIn bool    `json:"isLoggedIn"`
	UserEmail  *string `json:"userEmail"`
}

// Active reports whether the session names a logged in user.
func (s Session) Active() bool {
	return s.IsLoggedIn && s.UserEmail != nil && *s.UserEmail != ""
}

// Email returns the session email or "" when logged out.
func (s Session) Email() string {
	if s.UserEmail == nil {
		return ""
	}
	return *s.UserEmail
}

func loggedIn(email string) Session {
	return Session{IsLoggedIn: true, UserEmail: &email}
}

func loggedOut() Session {
	return Session{}
}
