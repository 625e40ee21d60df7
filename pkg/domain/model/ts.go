package model

import (
	"strconv"
	"strings"
)

// CompareTS orders Slack timestamps ("seconds.micros"). Timestamps that do
// not parse fall back to lexical order.
func CompareTS(a, b string) int {
	as, af, okA := splitTS(a)
	bs, bf, okB := splitTS(b)
	if !okA || !okB {
		return strings.Compare(a, b)
	}
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	return 0
}

func splitTS(ts string) (int64, int64, bool) {
	sec, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if frac == "" {
		return s, 0, true
	}
	// right-pad so "1.5" and "1.500000" compare equal
	for len(frac) < 6 {
		frac += "0"
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return s, f, true
}
