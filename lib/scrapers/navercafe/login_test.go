package navercafe

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoginWithCookies(t *testing.T) {
	var seen []*http.Cookie
	mux := http.NewServeMux()
	mux.HandleFunc("/check", func(w http.ResponseWriter, r *http.Request) {
		seen = r.Cookies()
	})
	client, server := newTestClient(t, mux)

	err := client.Login(context.Background(), CookieCredential{
		Raw: "NID_AUT=auth-token; NID_SES=session-token;NID_JKL=jkl-token",
	})
	require.NoError(t, err)

	// the injected cookies ride along on subsequent requests
	_, err = client.Http.R().Get(server.URL + "/check")
	require.NoError(t, err)

	values := map[string]string{}
	for _, cookie := range seen {
		values[cookie.Name] = cookie.Value
	}
	require.Equal(t, map[string]string{
		"NID_AUT": "auth-token",
		"NID_SES": "session-token",
		"NID_JKL": "jkl-token",
	}, values)
}

func TestLoginWithCookiesRejectsGarbage(t *testing.T) {
	client, _ := newTestClient(t, http.NewServeMux())

	err := client.Login(context.Background(), CookieCredential{Raw: "not cookies at all"})
	require.ErrorIs(t, err, ErrLogin)
}

const loginFormPage = `<html><body>
<form action="/login/submit" method="post">
	<input type="hidden" name="dynamicKey" value="dk-12345"/>
	<input type="hidden" name="encpw" value=""/>
	<input type="text" name="id"/>
	<input type="password" name="pw"/>
</form>
</body></html>`

// loginMux simulates the naver login flow: serve the form, accept the
// submission and redirect according to `redirectTo`.
func loginMux(t *testing.T, redirectTo string, submitted *map[string]string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/nidlogin.login", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("error") != "" {
			fmt.Fprint(w, `<html><body><div class="login_error">아이디 또는 비밀번호를 다시 확인해주세요.</div></body></html>`)
			return
		}
		fmt.Fprint(w, loginFormPage)
	})
	mux.HandleFunc("/login/submit", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if submitted != nil {
			*submitted = map[string]string{}
			for key := range r.PostForm {
				(*submitted)[key] = r.PostForm.Get(key)
			}
		}
		http.Redirect(w, r, redirectTo, http.StatusFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>네이버 메인</body></html>")
	})
	mux.HandleFunc("/deviceConfirm", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>새로운 기기 확인</body></html>")
	})
	return mux
}

func TestLoginWithPassword(t *testing.T) {
	var submitted map[string]string
	client, _ := newTestClient(t, loginMux(t, "/", &submitted))

	err := client.Login(context.Background(), PasswordCredential{
		Username: "testuser",
		Password: "testpass",
	})
	require.NoError(t, err)

	require.Equal(t, "testuser", submitted["id"])
	require.Equal(t, "testpass", submitted["pw"])
	require.Equal(t, "on", submitted["nvlong"])
	// hidden form fields are carried through
	require.Equal(t, "dk-12345", submitted["dynamicKey"])
}

func TestLoginWithPasswordDeviceConfirmation(t *testing.T) {
	client, _ := newTestClient(t, loginMux(t, "/deviceConfirm", nil))

	err := client.Login(context.Background(), PasswordCredential{
		Username: "testuser",
		Password: "testpass",
	})
	require.ErrorIs(t, err, ErrDeviceConfirmation)
	require.ErrorIs(t, err, ErrLogin)
}

func TestLoginWithPasswordRejected(t *testing.T) {
	client, _ := newTestClient(t, loginMux(t, "/nidlogin.login?error=true", nil))

	err := client.Login(context.Background(), PasswordCredential{
		Username: "testuser",
		Password: "wrongpass",
	})
	require.ErrorIs(t, err, ErrLogin)
	require.NotErrorIs(t, err, ErrDeviceConfirmation)
	// the on-page error message is surfaced
	require.Contains(t, err.Error(), "아이디 또는 비밀번호")
}
