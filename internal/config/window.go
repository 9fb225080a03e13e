package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var windowRegex = regexp.MustCompile(`^(\d+)([smh]?)$`)

// ParseWindow converts window/age settings into a time.Duration. A bare
// number is taken as minutes, matching the flag surface; "30s", "15m" and
// "2h" work as expected. "0" in any spelling means disabled.
func ParseWindow(s string) (time.Duration, error) {
	matches := windowRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if matches == nil {
		return 0, fmt.Errorf("invalid duration %q (use e.g. 15, 15m, 900s or 2h)", s)
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q: %w", matches[1], err)
	}

	switch matches[2] {
	case "s":
		return time.Duration(value) * time.Second, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	default: // bare numbers and "m" are minutes
		return time.Duration(value) * time.Minute, nil
	}
}
