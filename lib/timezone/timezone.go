package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Ljubljana")
	if err != nil {
		panic(err)
	}
}

// force the timezone to match the campus because the servers don't
// always run in the same region and the exported worksheets carry
// wall-clock times with no offset.
func Now() time.Time {
	return time.Now().In(Location)
}

// ParseLocal parses a wall-clock string from the worksheet in the
// portal's timezone and returns the instant in UTC.
func ParseLocal(layout, value string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, value, Location)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
