package mock

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func doGet(t *testing.T, tr *Transport, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, body
}

func TestTokenEndpoint(t *testing.T) {
	tr := NewTransport()
	resp, body := doGet(t, tr, "https://login.microsoftonline.com/tenant/oauth2/v2.0/token")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tok map[string]any
	require.NoError(t, json.Unmarshal(body, &tok))
	require.Equal(t, "mock-token", tok["access_token"])
}

func TestMailboxListing(t *testing.T) {
	tr := NewTransport()
	resp, body := doGet(t, tr, "https://graph.microsoft.com/v1.0/users/alice@contoso.example/mailFolders/inbox/messages")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Value []map[string]any `json:"value"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Value, 2)
}

func TestGuestHasNoMailbox(t *testing.T) {
	tr := NewTransport()

	// The guest resolves as a user...
	resp, _ := doGet(t, tr, "https://graph.microsoft.com/v1.0/users/u-003")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// ...but the mailbox path is a 404, like a real unprovisioned guest.
	resp, _ = doGet(t, tr, "https://graph.microsoft.com/v1.0/users/u-003/mailFolders/inbox/messages")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownResource404(t *testing.T) {
	tr := NewTransport()
	resp, body := doGet(t, tr, "https://graph.microsoft.com/v1.0/sites/root")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var e struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &e))
	require.Equal(t, "ResourceNotFound", e.Error.Code)
}

func TestSearchFiltersBySubject(t *testing.T) {
	tr := NewTransport()
	_, body := doGet(t, tr, `https://graph.microsoft.com/v1.0/users/alice@contoso.example/messages?$search=%22quarterly%22`)

	var list struct {
		Value []map[string]any `json:"value"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Value, 1)
	require.Contains(t, list.Value[0]["subject"], "Quarterly")
}
