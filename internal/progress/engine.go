// Package progress computes streaks, totals and betterfly rewards for
// completed lessons.
package progress

import (
	"math"
	"time"

	"github.com/betterfly/betterfly/internal/catalog"
	"github.com/betterfly/betterfly/internal/platform/clock"
	"github.com/betterfly/betterfly/internal/shared"
	"github.com/betterfly/betterfly/internal/users"
)

const millisPerDay = 24 * 60 * 60 * 1000

// Favorite is the category a user completed most often.
type Favorite struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Count int    `json:"count"`
}

// CompleteLesson applies one completed lesson to user and returns the updated
// record with the betterflies earned. today is YYYY-MM-DD. user is not
// modified.
func CompleteLesson(user users.User, minutes float64, categoryID, today string) (users.User, int, error) {
	if _, err := parseDate(today); err != nil {
		return users.User{}, 0, err
	}
	minutesRounded := Round2(minutes)

	newStreak := user.Streak
	if user.LastLessonDate == nil {
		newStreak = 1
	} else {
		days, err := DaysBetween(*user.LastLessonDate, today)
		if err != nil {
			return users.User{}, 0, err
		}
		switch {
		case days == 1:
			newStreak = user.Streak + 1
		case days >= 2:
			newStreak = 1
		}
	}

	earned := Reward(minutesRounded, newStreak)

	out := user.Clone()
	switch categoryID {
	case catalog.CategorySleep:
		out.SleepCompleted++
	case catalog.CategoryRelaxation:
		out.RelaxationCompleted++
	case catalog.CategorySelfAwareness:
		out.SelfAwarenessCompleted++
	}
	out.TotalSessions++
	out.TotalMinutes = Round2(user.TotalMinutes + minutesRounded)
	out.Streak = newStreak
	if newStreak > out.LongestStreak {
		out.LongestStreak = newStreak
	}
	out.Betterflies += earned
	date := today
	out.LastLessonDate = &date
	return out, earned, nil
}

// Reward is floor(minutes)*2 + floor(streak/3) + 1.
func Reward(minutesRounded float64, streak int) int {
	return int(math.Floor(minutesRounded))*2 + streak/3 + 1
}

// FavoriteCategory returns the category with the highest counter. Ties go to
// sleep, then relaxation, then selfawareness. ok is false when every counter
// is zero.
func FavoriteCategory(user users.User) (Favorite, bool) {
	candidates := []Favorite{
		{ID: catalog.CategorySleep, Name: "Sueño", Icon: "😴", Count: user.SleepCompleted},
		{ID: catalog.CategoryRelaxation, Name: "Relajación", Icon: "🧘", Count: user.RelaxationCompleted},
		{ID: catalog.CategorySelfAwareness, Name: "Autoconciencia", Icon: "🌸", Count: user.SelfAwarenessCompleted},
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Count > best.Count {
			best = c
		}
	}
	if best.Count == 0 {
		return Favorite{}, false
	}
	return best, true
}

// CheckStreak zeroes the streak when two or more days have passed since the
// last lesson. Other fields are untouched. changed reports whether the
// streak was reset.
func CheckStreak(user users.User, today string) (users.User, bool, error) {
	if user.LastLessonDate == nil {
		return user, false, nil
	}
	days, err := DaysBetween(*user.LastLessonDate, today)
	if err != nil {
		return user, false, err
	}
	if days < 2 || user.Streak == 0 {
		return user, false, nil
	}
	out := user.Clone()
	out.Streak = 0
	return out, true, nil
}

// DaysBetween is the ceiling of the absolute millisecond difference between
// two dates divided by one day. Plain dates are midnight UTC. Timestamps
// with a time of day are accepted, so 23:00 on one day and 01:00 on the next
// are 1 day apart while 01:00 and 23:00 on the same day are also 1 day apart.
// A timestamp without an offset ("2006-01-02T15:04:05") is read as UTC, not
// as local time; dates written by the clock never carry a time of day.
func DaysBetween(from, to string) (int, error) {
	a, err := parseDate(from)
	if err != nil {
		return 0, err
	}
	b, err := parseDate(to)
	if err != nil {
		return 0, err
	}
	diff := b.UnixMilli() - a.UnixMilli()
	if diff < 0 {
		diff = -diff
	}
	return int((diff + millisPerDay - 1) / millisPerDay), nil
}

// Round2 rounds to two decimals, half up.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(clock.DateLayout, value); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z07:00", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, shared.ValidationError("invalid date %q", value)
}
