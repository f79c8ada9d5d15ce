package ticket

import (
	"fmt"
	"strconv"
	"strings"
)

// OrderIncrement separates consecutive siblings so that a ticket can later be
// dropped between two neighbours without renumbering.
const OrderIncrement = 1024.0

// NextOrder returns the order key for a new sibling: the last sibling's order
// plus OrderIncrement, or the creation time in milliseconds when there is none.
func NextOrder(lastSiblingOrder *float64, createdAtMillis int64) float64 {
	if lastSiblingOrder != nil {
		return *lastSiblingOrder + OrderIncrement
	}
	return float64(createdAtMillis)
}

// FormatKey renders the human-readable ticket key, e.g. "AP-12".
func FormatKey(prefix string, number int) string {
	return fmt.Sprintf("%s-%d", prefix, number)
}

// ParseKey extracts the prefix and number from a key like "AP-12".
// Returns ok=false if the key format is invalid.
func ParseKey(key string) (prefix string, number int, ok bool) {
	idx := strings.LastIndex(key, "-")
	if idx <= 0 || idx == len(key)-1 {
		return "", 0, false
	}
	prefix = key[:idx]
	for _, r := range prefix {
		if r < 'A' || r > 'Z' {
			return "", 0, false
		}
	}
	n, err := strconv.Atoi(key[idx+1:])
	if err != nil || n <= 0 {
		return "", 0, false
	}
	return prefix, n, true
}
