package model

import (
	"fmt"
	"regexp"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the layout of dates prefixed to post file names, e.g. 2021-06-02-example.md.
const DateLayout = "2006-01-02"

var datedNameRE = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)$`)

// splitDatedName splits a file name stem like 2021-06-02-example into its date and name.
func splitDatedName(stem string) (date, name string, ok bool) {
	match := datedNameRE.FindStringSubmatch(stem)
	if match == nil {
		return "", stem, false
	}

	return match[1], match[2], true
}

// parseDate accepts most common date formats, values without zone are interpreted in loc.
func parseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := dateparse.ParseIn(value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %s", ErrInvalidDate, value, err.Error())
	}

	return t, nil
}

func parseFilenameDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w in file name %q: %s", ErrInvalidDate, value, err.Error())
	}

	return t, nil
}
