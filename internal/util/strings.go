// Package util holds small string helpers for user-facing messages.
package util

import (
	"strconv"
	"strings"
)

// JoinOrNone joins names with ", " or returns "(none)" for an empty list,
// e.g. the decoders or generators a setting accepts.
func JoinOrNone(items []string) string {
	return JoinOrDefault(items, "(none)")
}

// JoinOrDefault joins strings with ", " or returns def for empty slices.
func JoinOrDefault(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}

// Pluralize returns singular if count is 1, otherwise plural.
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// Count formats count with the matching noun: "1 message", "3 messages".
func Count(count int, singular, plural string) string {
	return strings.Join([]string{strconv.Itoa(count), Pluralize(count, singular, plural)}, " ")
}
