package cursor

import (
	"cmp"
	"fmt"
	"math/big"
	"time"

	"github.com/araddon/dateparse"
)

// MismatchError reports two cursor values that cannot be ordered against
// each other without a date tolerance.
type MismatchError struct {
	A, B Kind
}

func (e *MismatchError) Error() string {
	if e.A == e.B {
		return fmt.Sprintf("cursor values of kind %s are not ordered", e.A)
	}
	return fmt.Sprintf("cannot compare cursor values of kind %s and %s", e.A, e.B)
}

// ParseError reports a cursor value that could not be read as a date while
// a date tolerance is configured.
type ParseError struct {
	Value Value
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cursor value %s is not a date", e.Value)
	}
	return fmt.Sprintf("cursor value %s is not a date: %v", e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

const day = 24 * time.Hour

// AtOrBefore reports whether a <= b + toleranceDays.
//
// With zero tolerance both values must share a kind. With a positive
// tolerance both are coerced to time: dates pass through, numbers are epoch
// milliseconds and strings are parsed leniently in UTC. A value that cannot
// be coerced is a *ParseError.
func AtOrBefore(a, b Value, toleranceDays int) (bool, error) {
	if toleranceDays < 0 {
		return false, fmt.Errorf("negative tolerance %d", toleranceDays)
	}
	if toleranceDays == 0 {
		c, err := Compare(a, b)
		if err != nil {
			return false, err
		}
		return c <= 0, nil
	}

	ta, err := ToTime(a)
	if err != nil {
		return false, err
	}
	tb, err := ToTime(b)
	if err != nil {
		return false, err
	}
	return !ta.After(tb.Add(time.Duration(toleranceDays) * day)), nil
}

// Compare orders two values of the same kind. It returns -1, 0 or +1.
func Compare(a, b Value) (int, error) {
	if a.kind != b.kind {
		return 0, &MismatchError{A: a.kind, B: b.kind}
	}
	switch a.kind {
	case KindString:
		return cmp.Compare(a.lit, b.lit), nil
	case KindNumber:
		return a.num.Cmp(b.num), nil
	case KindTime:
		return a.t.Compare(b.t), nil
	case KindBool:
		return boolIndex(a.b) - boolIndex(b.b), nil
	default:
		return 0, &MismatchError{A: a.kind, B: b.kind}
	}
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ToTime coerces v to a point in time.
func ToTime(v Value) (time.Time, error) {
	switch v.kind {
	case KindTime:
		return v.t, nil
	case KindNumber:
		t, err := epochMillis(v.num)
		if err != nil {
			return time.Time{}, &ParseError{Value: v, Err: err}
		}
		return t, nil
	case KindString:
		t, err := ParseDate(v.lit)
		if err != nil {
			return time.Time{}, &ParseError{Value: v, Err: err}
		}
		return t, nil
	default:
		return time.Time{}, &ParseError{Value: v}
	}
}

// ParseDate parses a date string in any common layout. Values without a
// zone are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	return dateparse.ParseIn(s, time.UTC)
}

// Epoch seconds of 0001-01-01 and 9999-12-31T23:59:59Z.
var (
	minEpochSeconds = big.NewInt(-62135596800)
	maxEpochSeconds = big.NewInt(253402300799)
)

func epochMillis(ms *big.Rat) (time.Time, error) {
	nanos := new(big.Rat).Mul(ms, big.NewRat(int64(time.Millisecond), 1))
	q := new(big.Int).Quo(nanos.Num(), nanos.Denom())
	sec, rem := new(big.Int).QuoRem(q, big.NewInt(int64(time.Second)), new(big.Int))
	if sec.Cmp(minEpochSeconds) < 0 || sec.Cmp(maxEpochSeconds) > 0 {
		return time.Time{}, fmt.Errorf("epoch milliseconds %s out of date range", ms.RatString())
	}
	return time.Unix(sec.Int64(), rem.Int64()).UTC(), nil
}
