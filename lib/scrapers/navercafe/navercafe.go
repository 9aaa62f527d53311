// Package navercafe scrapes posts from a Naver Cafe board behind an
// authenticated session. the cafe is addressed by its human-readable url
// name; the internal numeric club id the listing endpoint requires is
// resolved at runtime from the cafe's main page.
package navercafe

import (
	"errors"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/navercafe")

var (
	// ErrLogin is returned when the session could not be authenticated.
	// this is terminal, the caller must abort the run.
	ErrLogin = errors.New("failed to login to naver")
	// ErrDeviceConfirmation is returned when naver demands a device
	// confirmation for the new login. wraps ErrLogin.
	ErrDeviceConfirmation = errors.New("naver requires device confirmation for this login, use cookie auth instead")
	// ErrClubIDResolution is returned when the numeric club id cannot
	// be extracted from the cafe's main page. terminal, non-retryable.
	ErrClubIDResolution = errors.New("could not resolve numeric club id")
	// ErrContentExtraction is returned when none of the content
	// selector strategies matched an article page.
	ErrContentExtraction = errors.New("no content could be extracted")
)

// PostStub is a lightweight listing record without body content.
type PostStub struct {
	ID        int64
	Title     string
	Author    string
	WrittenAt string
	URL       string
}

// Post is a fully fetched article.
type Post struct {
	ID        int64
	Title     string
	Author    string
	WrittenAt string
	URL       string
	Content   string
}

// Credential is either a pre-obtained cookie triple or an id/password
// pair, dispatched once at Login.
type Credential interface {
	credential()
}

// CookieCredential holds a raw cookie header in the form
// "NID_AUT=xxx;NID_SES=yyy;NID_JKL=zzz", copied from a browser session.
type CookieCredential struct {
	Raw string
}

func (CookieCredential) credential() {}

// PasswordCredential drives an interactive login. naver blocks headless
// id/password logins from new machines with a device confirmation
// challenge, so this mostly works for local first-time setup.
type PasswordCredential struct {
	Username string
	Password string
}

func (PasswordCredential) credential() {}
