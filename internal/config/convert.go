package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/api/resource"
)

// Converter turns a raw setting value into T and renders T back for
// diagnostics. With RecordRaw set, a value found in the environment or the
// file is recorded as written instead of through Format.
type Converter[T any] struct {
	Parse     func(raw string) (T, error)
	Format    func(value T) string
	RecordRaw bool
}

// String passes raw values through untouched.
var String = Converter[string]{
	Parse:  func(raw string) (string, error) { return raw, nil },
	Format: func(value string) string { return value },
}

// Bool treats a value as true only when it spells "true" in any case.
// Every other value, including the empty string, is false.
var Bool = Converter[bool]{
	Parse: func(raw string) (bool, error) {
		return strings.EqualFold(raw, "true"), nil
	},
	Format: strconv.FormatBool,
}

// Int parses a base-10 integer in the signed 32-bit range.
var Int = Converter[int]{
	Parse: func(raw string) (int, error) {
		value, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", raw)
		}
		return int(value), nil
	},
	Format: strconv.Itoa,
}

// Duration parses ISO-8601 day-time durations such as PT1M, P1DT2H or
// PT-1.5S, case-insensitively. Years, months and weeks are rejected.
var Duration = Converter[time.Duration]{
	Parse:  parseISODuration,
	Format: formatISODuration,
}

// Path drops repeated and trailing separators. "." and ".." elements are
// kept as written.
var Path = Converter[string]{
	Parse: func(raw string) (string, error) {
		if strings.ContainsRune(raw, 0) {
			return "", fmt.Errorf("invalid path %q: contains NUL byte", raw)
		}
		return normalizePath(raw), nil
	},
	Format: func(value string) string { return value },
}

// Quantity parses Kubernetes resource quantities such as 1Ki or 500M.
var Quantity = Converter[resource.Quantity]{
	Parse: func(raw string) (resource.Quantity, error) {
		q, err := resource.ParseQuantity(raw)
		if err != nil {
			return resource.Quantity{}, fmt.Errorf("invalid quantity %q: %w", raw, err)
		}
		return q, nil
	},
	Format:    func(value resource.Quantity) string { return value.String() },
	RecordRaw: true,
}

func normalizePath(raw string) string {
	if raw == "" {
		return raw
	}
	sep := string(filepath.Separator)
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == filepath.Separator })
	joined := strings.Join(parts, sep)
	if strings.HasPrefix(raw, sep) {
		return sep + joined
	}
	return joined
}
