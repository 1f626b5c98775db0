package utils

import (
	"time"
	_ "time/tzdata"
)

var london = func() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// FormatLondon renders t as "Jan 02, 15:04" in UK local time.
func FormatLondon(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(london).Format("Jan 02, 15:04")
}

func London() *time.Location {
	return london
}
