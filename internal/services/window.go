package services

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultWindowDays is used when no window is requested
const DefaultWindowDays = 7

// AllowedWindows lists the supported window sizes in days
var AllowedWindows = []int{1, 7, 15, 30}

var ErrInvalidWindow = errors.New("invalid activity window")

// ParseWindowDays validates a raw "days" parameter. An empty value selects
// DefaultWindowDays.
func ParseWindowDays(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultWindowDays, nil
	}

	days, err := strconv.Atoi(raw)
	if err != nil || !slices.Contains(AllowedWindows, days) {
		return 0, fmt.Errorf("%w: days must be one of %s", ErrInvalidWindow, joinInts(AllowedWindows))
	}
	return days, nil
}

// ParseAllBranches reports whether raw requests all-branches mode
func ParseAllBranches(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
