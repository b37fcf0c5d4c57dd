package shared

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the format of HTML date inputs.
const DateLayout = "2006-01-02"

// DateTimeLayout is the format of HTML datetime-local inputs.
const DateTimeLayout = "2006-01-02T15:04"

// ErrInvalidNumber is returned for malformed numeric form values.
var ErrInvalidNumber = errors.New("invalid number")

// ParseOptionalDate parses a date input; blank yields nil.
func ParseOptionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseDateTime parses a datetime-local input in the server time zone.
func ParseDateTime(raw string) (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, strings.TrimSpace(raw), time.Local)
}

// ParseOptionalID parses a select value; blank or "0" yields nil.
func ParseOptionalID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return nil, ErrInvalidNumber
	}
	return &id, nil
}

// ParseID parses a required positive identifier.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidNumber
	}
	return id, nil
}

// ParseMoney accepts "1234.56", "1234,56" and "R$ 1.234,56".
func ParseMoney(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, ErrInvalidNumber
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidNumber
	}
	return v, nil
}

// Int64Ptr is a helper for optional identifiers.
func Int64Ptr(v int64) *int64 { return &v }
