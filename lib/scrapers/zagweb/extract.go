package zagweb

import (
	"strings"
	"zagweb-backend/lib/htmlutil"
	"zagweb-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Extractors are pure functions over a parsed document: no network, no
// session state. Each one isolates a single markup heuristic so that a
// portal redesign breaks one focused test instead of silently skewing
// every derived value.

// covers both standard cells and the portal's nonstandard pllabel
// elements
const cellSelector = "td, pllabel"

const transactionTableMarker = "Transaction Date"
const transactionFieldCount = 7

// extractBalance returns the text of the first cell in document order
// containing a dollar sign, with whitespace and the sign stripped. The
// first dollar amount on the page is always the remaining balance.
func extractBalance(doc *goquery.Document) (string, bool) {
	out := ""
	doc.Find(cellSelector).EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := htmlutil.GetText(cell.Nodes[0])
		if !strings.Contains(text, "$") {
			return true
		}
		out = textutil.StripChars(text, "$ \t\n\r ")
		return false
	})
	return out, out != ""
}

// extractCardState keys off the presence of the freeze offer in the
// page body: the portal only offers to freeze a card that is currently
// usable. Never fails, absence of the phrase reads as frozen.
func extractCardState(doc *goquery.Document, freezePhrase string) CardState {
	if textutil.ContainsFold(doc.Text(), freezePhrase) {
		return CardStateActive
	}
	return CardStateFrozen
}

// extractTransactions collects the ledger rows out of every table
// containing the "Transaction Date" header. A row counts only when it
// splits into exactly 7 fragments, isn't the header row itself, and
// its (date, venue, amount, type) fields parse. Rows that don't match
// are skipped rather than failing the whole ledger. Returns ok=false
// only when no valid row was found anywhere.
func extractTransactions(doc *goquery.Document, venuePrefixes []string) ([]Transaction, bool) {
	var transactions []Transaction
	// layout tables may nest the ledger table, so the same row can be
	// reached through more than one matching table
	seen := map[*html.Node]bool{}

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if !strings.Contains(table.Text(), transactionTableMarker) {
			return
		}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			node := row.Nodes[0]
			if seen[node] {
				return
			}
			seen[node] = true

			fields := htmlutil.SplitRowText(htmlutil.GetText(node))
			if len(fields) != transactionFieldCount {
				return
			}
			if fields[0] == transactionTableMarker {
				return
			}
			txn, ok := parseTransaction(fields[0], fields[1], fields[3], fields[6], venuePrefixes)
			if !ok {
				return
			}
			transactions = append(transactions, txn)
		})
	})

	return transactions, len(transactions) > 0
}

// extractSwipes returns the text of the cell following the dining
// swipes label.
func extractSwipes(doc *goquery.Document) (string, bool) {
	out := ""
	cells := doc.Find(cellSelector)
	cells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if !textutil.ContainsFold(cell.Text(), "swipes") {
			return true
		}
		next := cells.Eq(i + 1)
		if len(next.Nodes) > 0 {
			out = htmlutil.CompactText(next.Nodes[0])
		}
		return false
	})
	return out, out != ""
}
