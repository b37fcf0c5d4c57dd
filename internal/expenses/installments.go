package expenses

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Installment is one slice of a split payment.
type Installment struct {
	Number int
	Value  decimal.Decimal
	Date   time.Time
}

// SplitInstallments divides total into n installments one month apart. The
// split is done in cents and the remainder goes to the first installment, so
// the parts always add up to the total.
func SplitInstallments(total decimal.Decimal, n int, first time.Time) []Installment {
	if n < 1 {
		n = 1
	}
	cents := total.Round(2).Shift(2).IntPart()
	base := cents / int64(n)
	remainder := cents - base*int64(n)

	out := make([]Installment, n)
	for i := 0; i < n; i++ {
		part := base
		if i == 0 {
			part += remainder
		}
		out[i] = Installment{
			Number: i + 1,
			Value:  decimal.New(part, -2),
			Date:   addMonths(first, i),
		}
	}
	return out
}

// addMonths moves t forward by months, clamping the day to the end of the
// target month (31/01 + 1 month = 28/02 or 29/02).
func addMonths(t time.Time, months int) time.Time {
	if months == 0 {
		return t
	}
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return firstOfTarget.AddDate(0, 0, d-1)
}

func itoa(v int) string { return strconv.Itoa(v) }
