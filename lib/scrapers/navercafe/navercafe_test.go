package navercafe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mimiecho/lib/telemetry"

	"github.com/stretchr/testify/require"
)

// newTestClient points a client at a local test server for both the cafe
// pages and the login flow.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	t.Cleanup(telemetry.SetupForTesting(t, "test:scrapers/navercafe"))

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{
		BaseUrl:  server.URL,
		LoginUrl: server.URL + "/nidlogin.login",
	})
	require.NoError(t, err)
	return client, server
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(ClientOptions{})
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, client.BaseUrl.String())
	require.Equal(t, DefaultLoginURL, client.LoginUrl)
}
