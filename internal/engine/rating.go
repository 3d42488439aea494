package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrRatingSyntax = errors.New("rating is not a number")
	ErrRatingRange  = errors.New("rating outside [0,5]")
)

// ParseError reports a rating cell that could not be reduced to a number.
type ParseError struct {
	Row    int // 1-based data row, 0 when unknown
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: column %q: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
	}
	return fmt.Sprintf("column %q: cannot parse %q: %v", e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RatingPolicy decides what the loader does with a rating ParseError.
type RatingPolicy string

const (
	// RatingAbsent keeps the record and marks its rating absent.
	RatingAbsent RatingPolicy = "absent"
	// RatingDrop drops the record.
	RatingDrop RatingPolicy = "drop"
	// RatingStrict aborts the load.
	RatingStrict RatingPolicy = "strict"
)

func ParseRatingPolicy(s string) (RatingPolicy, error) {
	switch p := RatingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return RatingAbsent, nil
	case RatingAbsent, RatingDrop, RatingStrict:
		return p, nil
	}
	return "", fmt.Errorf("unknown rating policy %q", s)
}

// NormalizeRating turns "4.1/5" into 4.1. Empty and "nan" cells are absent
// (present == false) and not an error. The scale after "/" is ignored, but
// the value itself must lie in [0,5]: "8/10" is a ParseError wrapping
// ErrRatingRange rather than 8. This is stricter than taking the numerator
// as is.
func NormalizeRating(raw string) (value float64, present bool, err error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false, nil
	}
	head, _, _ := strings.Cut(s, "/")
	v, perr := strconv.ParseFloat(strings.TrimSpace(head), 64)
	if perr != nil {
		return 0, false, &ParseError{Column: ColRating, Value: raw, Err: ErrRatingSyntax}
	}
	if v < 0 || v > 5 {
		return 0, false, &ParseError{Column: ColRating, Value: raw, Err: ErrRatingRange}
	}
	return v, true, nil
}
