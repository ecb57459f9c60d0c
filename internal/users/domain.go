package users

import "github.com/betterfly/betterfly/internal/shared"

// User is the persisted account record. JSON names are the stored field names.
type User struct {
	Username               string   `json:"username"`
	Email                  string   `json:"email"`
	Password               string   `json:"password"`
	Role                   string   `json:"role"`
	Streak                 int      `json:"streak"`
	LongestStreak          int      `json:"longestStreak"`
	TotalSessions          int      `json:"totalSessions"`
	TotalMinutes           float64  `json:"totalMinutes"`
	SleepCompleted         int      `json:"sleepCompleted"`
	RelaxationCompleted    int      `json:"relaxationCompleted"`
	SelfAwarenessCompleted int      `json:"selfAwarenessCompleted"`
	Betterflies            int      `json:"betterflies"`
	LastLessonDate         *string  `json:"lastLessonDate"`
	Achievements           []string `json:"achievements"`
}

// New returns a zero-initialised record with the user role.
func New(username, email, password string) User {
	return User{
		Username:     username,
		Email:        email,
		Password:     password,
		Role:         shared.RoleUser,
		Achievements: []string{},
	}
}

// IsAdmin reports whether the record carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == shared.RoleAdmin
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (u User) Clone() User {
	out := u
	if u.LastLessonDate != nil {
		date := *u.LastLessonDate
		out.LastLessonDate = &date
	}
	if u.Achievements != nil {
		out.Achievements = append([]string{}, u.Achievements...)
	}
	return out
}

// PublicUser is the response view of a User. It has no password field.
type PublicUser struct {
	Username               string   `json:"username"`
	Email                  string   `json:"email"`
	Role                   string   `json:"role"`
	Streak                 int      `json:"streak"`
	LongestStreak          int      `json:"longestStreak"`
	TotalSessions          int      `json:"totalSessions"`
	TotalMinutes           float64  `json:"totalMinutes"`
	SleepCompleted         int      `json:"sleepCompleted"`
	RelaxationCompleted    int      `json:"relaxationCompleted"`
	SelfAwarenessCompleted int      `json:"selfAwarenessCompleted"`
	Betterflies            int      `json:"betterflies"`
	LastLessonDate         *string  `json:"lastLessonDate"`
	Achievements           []string `json:"achievements"`
}

// Public returns the record without its password.
func (u User) Public() PublicUser {
	c := u.Clone()
	return PublicUser{
		Username:               c.Username,
		Email:                  c.Email,
		Role:                   c.Role,
		Streak:                 c.Streak,
		LongestStreak:          c.LongestStreak,
		TotalSessions:          c.TotalSessions,
		TotalMinutes:           c.TotalMinutes,
		SleepCompleted:         c.SleepCompleted,
		RelaxationCompleted:    c.RelaxationCompleted,
		SelfAwarenessCompleted: c.SelfAwarenessCompleted,
		Betterflies:            c.Betterflies,
		LastLessonDate:         c.LastLessonDate,
		Achievements:           c.Achievements,
	}
}

// ProfileUpdate carries optional profile edits.
type ProfileUpdate struct {
	Username *string
	Password *string
}

// Stats summarises stored data for the admin screen.
type Stats struct {
	TotalUsers   int     `json:"totalUsers"`
	TotalLessons int     `json:"totalLessons"`
	CurrentUser  *string `json:"currentUser"`
}
