package zagweb

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"zagweb-backend/lib/textutil"
)

type CardState string

const (
	CardStateActive CardState = "active"
	CardStateFrozen CardState = "frozen"
)

// Frozen reports whether the card is disabled for purchases.
func (s CardState) Frozen() bool {
	return s == CardStateFrozen
}

// the p_freeze form field value the portal expects
func (s CardState) freezeFormValue() string {
	if s == CardStateFrozen {
		return "1"
	}
	return "0"
}

type TransactionType string

const (
	TransactionSale    TransactionType = "sale"
	TransactionDeposit TransactionType = "deposit"
	TransactionReturn  TransactionType = "return"
)

func parseTransactionType(token string) (TransactionType, bool) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(token))); t {
	case TransactionSale, TransactionDeposit, TransactionReturn:
		return t, true
	}
	return "", false
}

// Balance is a monetary amount with both a numeric and a raw string
// view. The raw view keeps exactly what the portal printed, minus
// currency noise.
type Balance struct {
	value float64
	raw   string
}

// ParseBalance builds a Balance from the portal's display string,
// stripping the currency symbol, whitespace and thousands separators.
func ParseBalance(raw string) (Balance, bool) {
	stripped := textutil.StripChars(raw, "$, \t\n\r ")
	value, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return Balance{}, false
	}
	return Balance{value: value, raw: stripped}, true
}

func (b Balance) Value() float64 {
	return b.value
}

func (b Balance) Raw() string {
	return b.raw
}

// Pretty renders the balance as a currency string, eg. "$1,204.56".
func (b Balance) Pretty() string {
	return "$" + groupThousands(fmt.Sprintf("%.2f", b.value))
}

// Short keeps the whole dollars only, for very tight displays.
func (b Balance) Short() string {
	return strings.SplitN(b.raw, ".", 2)[0]
}

func groupThousands(s string) string {
	intPart := s
	rest := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, rest = s[:idx], s[idx:]
	}
	if len(intPart) <= 3 {
		return intPart + rest
	}
	var out strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		out.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if out.Len() > 0 {
			out.WriteByte(',')
		}
		out.WriteString(intPart[i : i+3])
	}
	return out.String() + rest
}

const transactionTimeLayout = "01/02/2006 03:04:05 PM"

type Transaction struct {
	Date  time.Time
	Venue string
	// always non-negative, the direction lives in Type
	Amount float64
	Type   TransactionType
}

// parseTransaction builds a Transaction out of raw ledger row fields.
// Amounts wrapped in parentheses are refunds; the parentheses are
// dropped, the direction is carried by the type column instead.
func parseTransaction(date, venue, amount, typeToken string, venuePrefixes []string) (Transaction, bool) {
	parsedDate, err := time.Parse(transactionTimeLayout, strings.TrimSpace(date))
	if err != nil {
		return Transaction{}, false
	}
	parsedType, ok := parseTransactionType(typeToken)
	if !ok {
		return Transaction{}, false
	}
	stripped := textutil.StripChars(amount, "$() \t\n\r ")
	value, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return Transaction{}, false
	}
	return Transaction{
		Date:   parsedDate,
		Venue:  textutil.StripPrefixes(strings.TrimSpace(venue), venuePrefixes),
		Amount: math.Abs(value),
		Type:   parsedType,
	}, true
}

// PrettyAmount derives its sign from the transaction type: sales
// display negative, deposits and returns positive.
func (t Transaction) PrettyAmount() string {
	if t.Type == TransactionSale {
		return fmt.Sprintf("-$%.2f", t.Amount)
	}
	return fmt.Sprintf("+$%.2f", t.Amount)
}

// Day drops the time of day, for grouping the ledger into daily
// sections.
func (t Transaction) Day() time.Time {
	return time.Date(t.Date.Year(), t.Date.Month(), t.Date.Day(), 0, 0, 0, 0, t.Date.Location())
}

type DaySection struct {
	Day          time.Time
	Transactions []Transaction
}

// GroupByDay sections the ledger by calendar day, newest day first.
// In-day ordering is whatever the input order was.
func GroupByDay(transactions []Transaction) []DaySection {
	grouped := map[time.Time][]Transaction{}
	var days []time.Time
	for _, t := range transactions {
		day := t.Day()
		if _, ok := grouped[day]; !ok {
			days = append(days, day)
		}
		grouped[day] = append(grouped[day], t)
	}
	slices.SortFunc(days, func(a, b time.Time) int {
		return b.Compare(a)
	})
	sections := make([]DaySection, len(days))
	for i, day := range days {
		sections[i] = DaySection{Day: day, Transactions: grouped[day]}
	}
	return sections
}

// PerWeek spreads the remaining balance over the whole weeks left
// until the given date, for a "that's $12.50 left per week" readout.
// ok=false when the date has already passed.
func PerWeek(b Balance, now, until time.Time) (float64, bool) {
	weeks := int(until.Sub(now).Hours() / (24 * 7))
	if weeks <= 0 {
		return 0, false
	}
	return b.Value() / float64(weeks), true
}

// Status is the full composed result of one portal fetch. It is a
// plain value, callers may cache or discard it freely.
type Status struct {
	Balance         Balance
	Transactions    []Transaction
	CardState       CardState
	SwipesRemaining string
}
