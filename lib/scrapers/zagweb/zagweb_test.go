package zagweb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"zagweb-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const statusPage = `<html><body>
<table>
<tr>
<td>Bulldog Bucks Remaining</td>
<td> $235.32 </td>
</tr>
<tr>
<td>Dining Swipes Remaining</td>
<td> 42 </td>
</tr>
</table>
<a href="#">Click here to Freeze My Card</a>
` + ledgerTable + `
</body></html>`

const ledgerTable = `<table>
<tr>
<td>Transaction Date</td>
<td>Venue</td>
<td>Card</td>
<td>Amount</td>
<td>Tax</td>
<td>Balance</td>
<td>Type</td>
</tr>
<tr>
<td>09/02/2017 12:24:06 PM</td>
<td>Dining-THE COG</td>
<td>1234</td>
<td>$3.50</td>
<td>$0.00</td>
<td>$231.82</td>
<td>Sale</td>
</tr>
</table>`

const emptyLedgerPage = `<html><body>
<table>
<tr>
<td>Bulldog Bucks Remaining</td>
<td> $235.32 </td>
</tr>
<tr>
<td>Dining Swipes Remaining</td>
<td> 42 </td>
</tr>
</table>
<a href="#">Click here to Freeze My Card</a>
<table>
<tr>
<td>Transaction Date</td>
<td>Venue</td>
<td>Card</td>
<td>Amount</td>
<td>Tax</td>
<td>Balance</td>
<td>Type</td>
</tr>
</table>
</body></html>`

const noSwipesPage = `<html><body>
<table>
<tr>
<td>Bulldog Bucks Remaining</td>
<td> $235.32 </td>
</tr>
</table>
<a href="#">Click here to Freeze My Card</a>
` + ledgerTable + `
</body></html>`

// fakePortal mimics the portal's cookie behavior, including rejecting
// the first N login submissions the way the real portal drops the
// first one.
type fakePortal struct {
	mu            sync.Mutex
	rejectLogins  int
	noCookies     bool
	dropWarmUps   bool
	dropLogins    bool
	warmUps       int
	loginAttempts int
	logouts       int
	freezeBodies  []string
	page          string
}

// dropConnection kills the TCP connection mid-request, which the
// client sees as a transport failure rather than an HTTP response.
func dropConnection(w http.ResponseWriter) {
	conn, _, err := w.(http.Hijacker).Hijack()
	if err == nil {
		conn.Close()
	}
}

func (p *fakePortal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+loginLandingPath, func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.warmUps++
		p.mu.Unlock()
		if p.dropWarmUps {
			dropConnection(w)
			return
		}
		if !p.noCookies {
			http.SetCookie(w, &http.Cookie{Name: "TESTID", Value: "baseline", Path: "/"})
		}
	})
	mux.HandleFunc("POST "+loginSubmitPath, func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.loginAttempts++
		rejected := p.loginAttempts <= p.rejectLogins
		p.mu.Unlock()
		if p.dropLogins {
			dropConnection(w)
			return
		}
		if rejected {
			// redirect-and-drop, no session cookie
			return
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "abc123", Path: "/"})
	})
	mux.HandleFunc("POST "+transactionsPath, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if freeze := r.FormValue("p_freeze"); freeze != "" {
			p.mu.Lock()
			p.freezeBodies = append(p.freezeBodies, "p_freeze="+freeze)
			p.mu.Unlock()
			return
		}
		w.Write([]byte(p.page))
	})
	mux.HandleFunc("POST "+logoutPath, func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.logouts++
		p.mu.Unlock()
	})
	return mux
}

func setupPortal(t *testing.T, portal *fakePortal) *Client {
	server := httptest.NewServer(portal.handler())
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)
	return client
}

func TestAuthenticateRetriesOnceOnFirstRejection(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/zagweb")
	defer cleanup()

	portal := &fakePortal{rejectLogins: 1}
	client := setupPortal(t, portal)

	err := client.Authenticate(context.Background(), "903000000", "1234")
	require.NoError(t, err)
	require.Equal(t, 2, portal.warmUps)
	require.Equal(t, 2, portal.loginAttempts)
}

func TestAuthenticateRejectedAfterExactlyTwoAttempts(t *testing.T) {
	portal := &fakePortal{rejectLogins: 10}
	client := setupPortal(t, portal)

	err := client.Authenticate(context.Background(), "903000000", "0000")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, 2, portal.warmUps)
	require.Equal(t, 2, portal.loginAttempts)
}

func TestAuthenticateNoSessionCookie(t *testing.T) {
	portal := &fakePortal{rejectLogins: 10, noCookies: true}
	client := setupPortal(t, portal)

	err := client.Authenticate(context.Background(), "903000000", "1234")
	require.ErrorIs(t, err, ErrNoSessionCookie)
	require.Equal(t, 2, portal.loginAttempts)
}

func TestAuthenticateTransportFailureAtWarmUpNotRetried(t *testing.T) {
	portal := &fakePortal{dropWarmUps: true}
	client := setupPortal(t, portal)

	err := client.Authenticate(context.Background(), "903000000", "1234")
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, 1, portal.warmUps)
	require.Equal(t, 0, portal.loginAttempts)
}

func TestAuthenticateTransportFailureAtSubmitNotRetried(t *testing.T) {
	portal := &fakePortal{dropLogins: true}
	client := setupPortal(t, portal)

	err := client.Authenticate(context.Background(), "903000000", "1234")
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, 1, portal.warmUps)
	require.Equal(t, 1, portal.loginAttempts)
}

func TestFetchStatus(t *testing.T) {
	portal := &fakePortal{page: statusPage}
	client := setupPortal(t, portal)

	status, err := client.FetchStatus(context.Background(), "903000000", "1234")
	require.NoError(t, err)

	require.Equal(t, "235.32", status.Balance.Raw())
	require.Equal(t, "$235.32", status.Balance.Pretty())
	require.Equal(t, CardStateActive, status.CardState)
	require.Equal(t, "42", status.SwipesRemaining)

	require.Len(t, status.Transactions, 1)
	require.Equal(t, "THE COG", status.Transactions[0].Venue)
	require.Equal(t, "-$3.50", status.Transactions[0].PrettyAmount())

	// the fetch releases its server-side session
	require.Equal(t, 1, portal.logouts)
}

func TestFetchStatusEmptyLedger(t *testing.T) {
	portal := &fakePortal{page: emptyLedgerPage}
	client := setupPortal(t, portal)

	status, err := client.FetchStatus(context.Background(), "903000000", "1234")
	require.NoError(t, err)
	require.Empty(t, status.Transactions)
	require.Equal(t, "235.32", status.Balance.Raw())
}

func TestFetchStatusNoSwipesCell(t *testing.T) {
	portal := &fakePortal{page: noSwipesPage}
	client := setupPortal(t, portal)

	status, err := client.FetchStatus(context.Background(), "903000000", "1234")
	require.NoError(t, err)
	require.Equal(t, "0", status.SwipesRemaining)
}

func TestFetchStatusUnparseablePage(t *testing.T) {
	portal := &fakePortal{page: "<html><body>scheduled maintenance</body></html>"}
	client := setupPortal(t, portal)

	_, err := client.FetchStatus(context.Background(), "903000000", "1234")
	require.ErrorIs(t, err, ErrHtmlParse)
}

func TestSetCardState(t *testing.T) {
	portal := &fakePortal{page: statusPage}
	client := setupPortal(t, portal)

	err := client.SetCardState(context.Background(), "903000000", "1234", CardStateFrozen)
	require.NoError(t, err)
	err = client.SetCardState(context.Background(), "903000000", "1234", CardStateActive)
	require.NoError(t, err)

	require.Equal(t, []string{"p_freeze=1", "p_freeze=0"}, portal.freezeBodies)
}

func TestLogout(t *testing.T) {
	portal := &fakePortal{}
	client := setupPortal(t, portal)

	err := client.Logout(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, portal.logouts)
}
