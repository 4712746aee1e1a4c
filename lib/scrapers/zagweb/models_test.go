package zagweb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCardStateFrozen(t *testing.T) {
	require.True(t, CardStateFrozen.Frozen())
	require.False(t, CardStateActive.Frozen())
}

func TestParseBalance(t *testing.T) {
	testCases := []struct {
		raw   string
		ok    bool
		value float64
		strip string
	}{
		{raw: "$235.32", ok: true, value: 235.32, strip: "235.32"},
		{raw: " $ 1,234.56 ", ok: true, value: 1234.56, strip: "1234.56"},
		{raw: "$12", ok: true, value: 12, strip: "12"},
		{raw: "0.01", ok: true, value: 0.01, strip: "0.01"},
		{raw: "$", ok: false},
		{raw: "", ok: false},
		{raw: "no balance here", ok: false},
		{raw: "$12.34.56", ok: false},
	}

	for _, test := range testCases {
		balance, ok := ParseBalance(test.raw)
		require.Equal(t, test.ok, ok, "raw input %q", test.raw)
		if !test.ok {
			continue
		}
		require.Equal(t, test.value, balance.Value(), "raw input %q", test.raw)
		require.Equal(t, test.strip, balance.Raw(), "raw input %q", test.raw)
	}
}

func TestBalanceFormatting(t *testing.T) {
	balance, ok := ParseBalance("$1,204.56")
	require.True(t, ok)
	require.Equal(t, "$1,204.56", balance.Pretty())
	require.Equal(t, "1204", balance.Short())

	balance, ok = ParseBalance("$35.2")
	require.True(t, ok)
	require.Equal(t, "$35.20", balance.Pretty())
	require.Equal(t, "35", balance.Short())
}

func TestParseTransaction(t *testing.T) {
	txn, ok := parseTransaction(
		"09/02/2017 12:24:06 PM",
		"Dining-THE COG",
		"$3.50",
		"Sale",
		defaultVenuePrefixes,
	)
	require.True(t, ok)
	require.Equal(t, time.Date(2017, 9, 2, 12, 24, 6, 0, time.UTC), txn.Date)
	require.Equal(t, "THE COG", txn.Venue)
	require.Equal(t, 3.50, txn.Amount)
	require.Equal(t, TransactionSale, txn.Type)

	// parenthesized refund amounts lose the parens, not the magnitude
	txn, ok = parseTransaction(
		"09/03/2017 08:00:00 AM",
		"BOOKSTORE",
		"($12.00)",
		"Return",
		defaultVenuePrefixes,
	)
	require.True(t, ok)
	require.Equal(t, 12.00, txn.Amount)
	require.Equal(t, TransactionReturn, txn.Type)

	_, ok = parseTransaction("not a date", "VENUE", "$1.00", "sale", nil)
	require.False(t, ok)

	_, ok = parseTransaction("09/02/2017 12:24:06 PM", "VENUE", "$1.00", "transfer", nil)
	require.False(t, ok)

	_, ok = parseTransaction("09/02/2017 12:24:06 PM", "VENUE", "one dollar", "sale", nil)
	require.False(t, ok)
}

func TestPrettyAmountSignFollowsType(t *testing.T) {
	testCases := []struct {
		txnType  TransactionType
		expected string
	}{
		{txnType: TransactionSale, expected: "-$12.50"},
		{txnType: TransactionDeposit, expected: "+$12.50"},
		{txnType: TransactionReturn, expected: "+$12.50"},
	}

	for _, test := range testCases {
		txn := Transaction{Amount: 12.50, Type: test.txnType}
		require.Equal(t, test.expected, txn.PrettyAmount())
	}
}

func TestGroupByDay(t *testing.T) {
	day1 := time.Date(2017, 9, 2, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2017, 9, 3, 0, 0, 0, 0, time.UTC)

	transactions := []Transaction{
		{Date: day1.Add(time.Hour * 12), Venue: "A", Amount: 1, Type: TransactionSale},
		{Date: day2.Add(time.Hour * 8), Venue: "B", Amount: 2, Type: TransactionSale},
		{Date: day1.Add(time.Hour * 18), Venue: "C", Amount: 3, Type: TransactionDeposit},
	}

	sections := GroupByDay(transactions)
	require.Len(t, sections, 2)

	// newest day first
	require.Equal(t, day2, sections[0].Day)
	require.Equal(t, day1, sections[1].Day)

	// in-day order preserved
	require.Len(t, sections[1].Transactions, 2)
	require.Equal(t, "A", sections[1].Transactions[0].Venue)
	require.Equal(t, "C", sections[1].Transactions[1].Venue)
}

func TestPerWeek(t *testing.T) {
	balance, ok := ParseBalance("$100.00")
	require.True(t, ok)

	now := time.Date(2017, 9, 1, 0, 0, 0, 0, time.UTC)

	perWeek, ok := PerWeek(balance, now, now.AddDate(0, 0, 28))
	require.True(t, ok)
	require.Equal(t, 25.0, perWeek)

	_, ok = PerWeek(balance, now, now.AddDate(0, 0, -7))
	require.False(t, ok)

	// less than a whole week left
	_, ok = PerWeek(balance, now, now.AddDate(0, 0, 3))
	require.False(t, ok)
}
