package access

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const paymentTimeLayout = "1/2/2006, 3:04:05 PM"

type PaymentRow struct {
	ID        string `json:"id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	Succeeded bool   `json:"succeeded"`
}

// FormatPaymentHistory projects charges onto display rows in input order.
// A nil loc renders timestamps in UTC.
func FormatPaymentHistory(charges []Charge, loc *time.Location) []PaymentRow {
	if loc == nil {
		loc = time.UTC
	}

	rows := make([]PaymentRow, len(charges))
	for i, c := range charges {
		rows[i] = PaymentRow{
			ID:        c.ID,
			Amount:    formatMinorUnits(c.Amount),
			Currency:  strings.ToUpper(c.Currency),
			Status:    capitalize(string(c.Status)),
			CreatedAt: time.Unix(c.Created, 0).In(loc).Format(paymentTimeLayout),
			Succeeded: c.Status == ChargeSucceeded,
		}
	}
	return rows
}

// formatMinorUnits renders amount/100 with exactly two decimals without going
// through floating point.
func formatMinorUnits(amount int64) string {
	sign := ""
	u := uint64(amount)
	if amount < 0 {
		sign = "-"
		u = uint64(-(amount + 1)) + 1
	}
	return fmt.Sprintf("%s%d.%02d", sign, u/100, u%100)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
