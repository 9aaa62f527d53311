package navercafe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"mimiecho/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Login authenticates the client's session. a cookie credential is
// injected directly and considered valid without a login flow; an
// id/password credential drives the login form and fails with ErrLogin
// (or ErrDeviceConfirmation) when rejected.
func (c *Client) Login(ctx context.Context, cred Credential) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	var err error
	switch cred := cred.(type) {
	case CookieCredential:
		err = c.loginWithCookies(cred.Raw)
	case PasswordCredential:
		err = c.loginWithPassword(ctx, cred.Username, cred.Password)
	default:
		err = fmt.Errorf("%w: unknown credential type %T", ErrLogin, cred)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
	}
	return err
}

func (c *Client) loginWithCookies(raw string) error {
	var cookies []*http.Cookie
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		name, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:   strings.TrimSpace(name),
			Value:  strings.TrimSpace(value),
			Domain: ".naver.com",
			Path:   "/",
		})
	}
	if len(cookies) == 0 {
		return fmt.Errorf("%w: cookie credential contains no valid key=value pairs", ErrLogin)
	}

	c.Http.SetCookies(cookies)
	slog.Info("using cookie-based auth, skipping login form", "cookies", len(cookies))
	return nil
}

var loginErrorSelectors = []string{
	".login_error",
	".error_message",
	"#err_common",
}

func (c *Client) loginWithPassword(ctx context.Context, username, password string) error {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(c.LoginUrl)
	if err != nil {
		return fmt.Errorf("%w: fetch login form: %v", ErrLogin, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return fmt.Errorf("%w: parse login form: %v", ErrLogin, err)
	}

	form := map[string]string{}
	doc.Find("form input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name != "" {
			form[name] = input.AttrOr("value", "")
		}
	})
	form["id"] = username
	form["pw"] = password
	// keep the session signed in so cookies survive the run
	form["nvlong"] = "on"

	action := doc.Find("form").AttrOr("action", c.LoginUrl)
	submitUrl, err := resolveUrl(c.LoginUrl, action)
	if err != nil {
		return fmt.Errorf("%w: bad form action %q: %v", ErrLogin, action, err)
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(submitUrl)
	if err != nil {
		return fmt.Errorf("%w: submit login form: %v", ErrLogin, err)
	}

	finalUrl := res.RawResponse.Request.URL.String()
	slog.Debug("post-login url", "url", finalUrl)

	// a device confirmation challenge means this machine has never
	// logged in before, which cannot be automated
	if strings.Contains(finalUrl, "deviceConfirm") || strings.Contains(finalUrl, "device_confirm") {
		return fmt.Errorf("%w (%w)", ErrDeviceConfirmation, ErrLogin)
	}

	// still on the login form = rejected credentials
	if strings.Contains(finalUrl, "nidlogin") {
		doc, parseErr := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
		detail := ""
		if parseErr == nil {
			for _, sel := range loginErrorSelectors {
				detail = textutil.CleanText(doc.Find(sel).First().Text())
				if detail != "" {
					break
				}
			}
		}
		if detail == "" {
			detail = "wrong credentials?"
		}
		return fmt.Errorf("%w: %s", ErrLogin, detail)
	}

	slog.Info("naver login successful", "url", finalUrl)
	return nil
}

func resolveUrl(base, ref string) (string, error) {
	baseUrl, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refUrl, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseUrl.ResolveReference(refUrl).String(), nil
}
