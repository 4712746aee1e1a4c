// Package zagweb implements a scraping client for the Zagweb
// card-services portal. The portal has no API, only server-rendered
// pages behind a cookie session, so everything here is built out of a
// login protocol (with the portal's infamous first-attempt failure
// quirk baked in) and a handful of HTML extraction heuristics.
package zagweb

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultBaseUrl = "https://zagweb.gonzaga.edu/pls/gonz"

	// link text the portal shows only while the card is usable; its
	// absence means the card is already frozen
	DefaultFreezePhrase = "freeze my card"

	loginLandingPath = "/twbkwbis.P_WWWLogin"
	loginSubmitPath  = "/twbkwbis.P_ValLogin"
	transactionsPath = "/hwgwcard.transactions"
	logoutPath       = "/twbkwbis.P_Logout"
)

// site-code noise the portal prepends to venue names in the ledger
var defaultVenuePrefixes = []string{"Dining-", "Vending-", "CC-"}

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// overrides the marker phrase used to decide card state,
	// defaults to DefaultFreezePhrase
	FreezePhrase string
	// venue prefixes stripped off transaction venues, nil means the
	// default set (an explicit empty slice disables stripping)
	VenuePrefixes []string
	// per-request timeout, defaults to 30s
	Timeout time.Duration
}

// Client is safe for concurrent use: every operation runs on its own
// session with its own cookie jar, nothing is shared between calls.
type Client struct {
	baseUrl       *url.URL
	freezePhrase  string
	venuePrefixes []string
	timeout       time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if opts.FreezePhrase == "" {
		opts.FreezePhrase = DefaultFreezePhrase
	}
	if opts.VenuePrefixes == nil {
		opts.VenuePrefixes = defaultVenuePrefixes
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	return &Client{
		baseUrl:       baseUrl,
		freezePhrase:  opts.FreezePhrase,
		venuePrefixes: opts.VenuePrefixes,
		timeout:       opts.Timeout,
	}, nil
}

// Authenticate validates credentials against the portal without
// fetching any data. It runs the same warm-up/submit sequence as a
// full fetch, including the single silent retry.
func (c *Client) Authenticate(ctx context.Context, studentId, pin string) error {
	ctx, span := tracer.Start(ctx, "client:Authenticate")
	defer span.End()

	s, err := c.newSession()
	if err != nil {
		return err
	}
	err = s.login(ctx, studentId, pin)
	if err != nil {
		span.SetStatus(codes.Error, "login failed")
		return err
	}
	s.logout(ctx)
	return nil
}

// FetchStatus logs in, downloads the transactions page and extracts
// the card balance, the transaction ledger, the card freeze state and
// the remaining dining swipes out of it. The server-side session is
// released afterwards on a best-effort basis.
func (c *Client) FetchStatus(ctx context.Context, studentId, pin string) (Status, error) {
	ctx, span := tracer.Start(ctx, "client:FetchStatus")
	defer span.End()

	s, err := c.newSession()
	if err != nil {
		return Status{}, err
	}
	err = s.login(ctx, studentId, pin)
	if err != nil {
		span.SetStatus(codes.Error, "login failed")
		return Status{}, err
	}
	defer s.logout(ctx)

	res, err := s.http.R().
		SetContext(ctx).
		Post(transactionsPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch transactions page")
		return Status{}, &TransportError{Op: "fetch transactions", Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse transactions page")
		return Status{}, fmt.Errorf("%w: %s", ErrHtmlParse, err)
	}

	rawBalance, ok := extractBalance(doc)
	if !ok {
		span.SetStatus(codes.Error, "no balance cell on page")
		return Status{}, fmt.Errorf("%w: no balance cell found", ErrHtmlParse)
	}
	balance, ok := ParseBalance(rawBalance)
	if !ok {
		span.SetStatus(codes.Error, "balance cell is not a number")
		return Status{}, fmt.Errorf("%w: unparseable balance %q", ErrHtmlParse, rawBalance)
	}

	// a page that yields a balance but no ledger rows is a ledger with
	// no activity, not a parse failure
	transactions, _ := extractTransactions(doc, c.venuePrefixes)

	swipes, ok := extractSwipes(doc)
	if !ok {
		swipes = "0"
	}

	return Status{
		Balance:         balance,
		Transactions:    transactions,
		CardState:       extractCardState(doc, c.freezePhrase),
		SwipesRemaining: swipes,
	}, nil
}

// SetCardState freezes or unfreezes the card. The portal gives no
// structured confirmation, so success means only that the request went
// through.
func (c *Client) SetCardState(ctx context.Context, studentId, pin string, desired CardState) error {
	ctx, span := tracer.Start(ctx, "client:SetCardState")
	defer span.End()

	s, err := c.newSession()
	if err != nil {
		return err
	}
	err = s.login(ctx, studentId, pin)
	if err != nil {
		span.SetStatus(codes.Error, "login failed")
		return err
	}
	defer s.logout(ctx)

	_, err = s.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"p_freeze": desired.freezeFormValue()}).
		Post(transactionsPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to post freeze state")
		return &TransportError{Op: "set card state", Err: err}
	}
	return nil
}

// Logout releases a server-side session. Each client operation already
// logs itself out, this exists for callers that want an explicit
// best-effort cleanup call.
func (c *Client) Logout(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Logout")
	defer span.End()

	s, err := c.newSession()
	if err != nil {
		return err
	}
	_, err = s.http.R().
		SetContext(ctx).
		Post(logoutPath)
	if err != nil {
		span.SetStatus(codes.Error, "logout failed")
		return &TransportError{Op: "logout", Err: err}
	}
	return nil
}
