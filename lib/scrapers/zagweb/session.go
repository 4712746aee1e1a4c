package zagweb

import (
	"context"
	"errors"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"zagweb-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const sessionCookieName = "SESSID"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// session is one logical login -> fetch -> logout sequence against the
// portal. It owns its cookie jar, so concurrent sessions never step on
// each other's cookies.
type session struct {
	http   *resty.Client
	jarUrl *url.URL
}

func (c *Client) newSession() (*session, error) {
	client := resty.New()
	client.SetBaseURL(c.baseUrl.String())
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(c.baseUrl.Hostname()))
	client.SetTimeout(c.timeout)

	restyutil.InstrumentClient(client, "scrapers/zagweb/http", restyInstrumentOutput)

	return &session{http: client, jarUrl: c.baseUrl}, nil
}

// login runs the warm-up + credential submission sequence. A rejection
// on the first pass is inconclusive: the portal routinely drops the
// very first credential post even when the credentials are good, so
// exactly one silent warm-up + submit retry happens before the failure
// is surfaced. Transport failures are never retried, and neither is a
// second rejection, since repeated submissions against a real
// credential-guarded portal risk an account lockout.
func (s *session) login(ctx context.Context, studentId, pin string) error {
	ctx, span := tracer.Start(ctx, "session:login")
	defer span.End()

	err := s.attempt(ctx, studentId, pin)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrInvalidCredentials) && !errors.Is(err, ErrNoSessionCookie) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return err
	}

	slog.DebugContext(ctx, "first login attempt rejected, retrying once", "err", err)
	err = s.attempt(ctx, studentId, pin)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login rejected after retry")
	}
	return err
}

func (s *session) attempt(ctx context.Context, studentId, pin string) error {
	err := s.warmUp(ctx)
	if err != nil {
		return err
	}
	return s.submitLogin(ctx, studentId, pin)
}

// warmUp fetches the login landing page so the portal hands out its
// baseline cookies before credentials are submitted.
func (s *session) warmUp(ctx context.Context) error {
	_, err := s.http.R().
		SetContext(ctx).
		Get(loginLandingPath)
	if err != nil {
		return &TransportError{Op: "warm-up", Err: err}
	}
	return nil
}

// submitLogin posts the credentials and then inspects the cookie jar:
// a SESSID cookie with a non-empty value is the only success signal
// the portal gives.
func (s *session) submitLogin(ctx context.Context, studentId, pin string) error {
	_, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"sid": studentId,
			"PIN": pin,
		}).
		Post(loginSubmitPath)
	if err != nil {
		return &TransportError{Op: "login submit", Err: err}
	}

	cookies := s.http.GetClient().Jar.Cookies(s.jarUrl)
	if len(cookies) == 0 {
		return ErrNoSessionCookie
	}
	for _, cookie := range cookies {
		if cookie.Name == sessionCookieName && cookie.Value != "" {
			return nil
		}
	}
	return ErrInvalidCredentials
}

// logout releases the server-side session. Best-effort: a failure here
// never fails the operation that triggered it.
func (s *session) logout(ctx context.Context) {
	_, err := s.http.R().
		SetContext(ctx).
		Post(logoutPath)
	if err != nil {
		slog.WarnContext(ctx, "portal logout failed", "err", err)
	}
}
