package config

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// isoDurationPattern accepts PnDTnHnMn.nS with an optional leading sign and
// an optional sign on every component. Calendar units (Y, M before T, W) are
// not part of the grammar.
var isoDurationPattern = regexp.MustCompile(`(?i)^([-+]?)P(?:([-+]?[0-9]+)D)?(T(?:([-+]?[0-9]+)H)?(?:([-+]?[0-9]+)M)?(?:([-+]?[0-9]+)(?:[.,]([0-9]{0,9}))?S)?)?$`)

var (
	nanosPerSecond = big.NewInt(int64(time.Second))
	nanosPerMinute = big.NewInt(int64(time.Minute))
	nanosPerHour   = big.NewInt(int64(time.Hour))
	nanosPerDay    = big.NewInt(int64(24 * time.Hour))
)

func parseISODuration(raw string) (time.Duration, error) {
	m := isoDurationPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", raw)
	}
	days, timePart, hours, minutes, seconds, fraction := m[2], m[3], m[4], m[5], m[6], m[7]
	if strings.EqualFold(timePart, "T") || (days == "" && hours == "" && minutes == "" && seconds == "") {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q: no components", raw)
	}

	total := new(big.Int)
	for _, part := range []struct {
		text string
		unit *big.Int
	}{
		{days, nanosPerDay},
		{hours, nanosPerHour},
		{minutes, nanosPerMinute},
		{seconds, nanosPerSecond},
	} {
		if part.text == "" {
			continue
		}
		n, ok := new(big.Int).SetString(part.text, 10)
		if !ok {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q", raw)
		}
		total.Add(total, n.Mul(n, part.unit))
	}

	if fraction != "" {
		nanos, err := strconv.ParseInt((fraction + "000000000")[:9], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", raw, err)
		}
		// The fraction carries the sign of its seconds component, including "-0".
		if strings.HasPrefix(seconds, "-") {
			nanos = -nanos
		}
		total.Add(total, big.NewInt(nanos))
	}

	if m[1] == "-" {
		total.Neg(total)
	}
	if !total.IsInt64() {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q: out of range", raw)
	}
	return time.Duration(total.Int64()), nil
}

// formatISODuration renders d with hour, minute and second fields only,
// e.g. PT24H, PT1M30S, PT-1M-30S, PT0S.
func formatISODuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}

	totalSecs := int64(d / time.Second)
	nanos := int64(d % time.Second)
	hours := totalSecs / 3600
	minutes := (totalSecs % 3600) / 60
	secs := totalSecs % 60

	var b strings.Builder
	b.WriteString("PT")
	if hours != 0 {
		b.WriteString(strconv.FormatInt(hours, 10))
		b.WriteByte('H')
	}
	if minutes != 0 {
		b.WriteString(strconv.FormatInt(minutes, 10))
		b.WriteByte('M')
	}
	if secs == 0 && nanos == 0 {
		return b.String()
	}

	if nanos < 0 && secs == 0 {
		b.WriteString("-0")
	} else {
		b.WriteString(strconv.FormatInt(secs, 10))
	}
	if nanos != 0 {
		if nanos < 0 {
			nanos = -nanos
		}
		digits := strings.TrimRight(fmt.Sprintf("%09d", nanos), "0")
		b.WriteByte('.')
		b.WriteString(digits)
	}
	b.WriteByte('S')
	return b.String()
}
