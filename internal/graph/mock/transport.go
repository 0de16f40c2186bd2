// Package mock provides an in-process Graph and identity-provider backend
// for development and tests. It is selected by configuration and injected as
// the shared HTTP client's transport; production code paths are identical.
package mock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// Transport serves canned responses for the token endpoint and a small set
// of Graph resource shapes. Anything it does not recognize gets a Graph-style
// 404 so error paths stay realistic.
type Transport struct {
	data *dataset
}

// NewTransport builds a transport over the built-in sample tenant.
func NewTransport() *Transport {
	return &Transport{data: sampleTenant()}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if strings.Contains(req.URL.Host, "login.microsoftonline.com") {
		return t.tokenResponse(req), nil
	}
	return t.graphResponse(req), nil
}

func (t *Transport) tokenResponse(req *http.Request) *http.Response {
	body := map[string]any{
		"access_token": "mock-token",
		"token_type":   "Bearer",
		"expires_in":   3600,
	}
	return jsonResponse(req, http.StatusOK, body)
}

var (
	messagesRe    = regexp.MustCompile(`^/v1\.0/users/([^/]+)/mailFolders/([^/]+)/messages$`)
	messageRe     = regexp.MustCompile(`^/v1\.0/users/([^/]+)/messages/([^/]+)$`)
	mailSearchRe  = regexp.MustCompile(`^/v1\.0/users/([^/]+)/messages$`)
	userRe        = regexp.MustCompile(`^/v1\.0/users/([^/]+)$`)
	eventsRe      = regexp.MustCompile(`^/v1\.0/users/([^/]+)/events$`)
	meetingsRe    = regexp.MustCompile(`^/v1\.0/users/([^/]+)/onlineMeetings$`)
	channelMsgsRe = regexp.MustCompile(`^/v1\.0/teams/([^/]+)/channels/([^/]+)/messages$`)
	channelsRe    = regexp.MustCompile(`^/v1\.0/teams/([^/]+)/channels$`)
)

func (t *Transport) graphResponse(req *http.Request) *http.Response {
	path := req.URL.Path

	switch {
	case path == "/v1.0/users":
		return jsonResponse(req, http.StatusOK, valueList(t.data.users))

	case path == "/v1.0/groups":
		return jsonResponse(req, http.StatusOK, valueList(t.data.teams))

	case messagesRe.MatchString(path):
		m := messagesRe.FindStringSubmatch(path)
		msgs, ok := t.data.messages[strings.ToLower(m[1])]
		if !ok {
			return t.notFound(req, "mailbox not found")
		}
		return jsonResponse(req, http.StatusOK, valueList(msgs))

	case messageRe.MatchString(path):
		m := messageRe.FindStringSubmatch(path)
		for _, msg := range t.data.messages[strings.ToLower(m[1])] {
			if msg["id"] == m[2] {
				return jsonResponse(req, http.StatusOK, msg)
			}
		}
		return t.notFound(req, "message not found")

	case mailSearchRe.MatchString(path):
		m := mailSearchRe.FindStringSubmatch(path)
		msgs, ok := t.data.messages[strings.ToLower(m[1])]
		if !ok {
			return t.notFound(req, "mailbox not found")
		}
		return jsonResponse(req, http.StatusOK, valueList(filterMessages(msgs, req.URL.Query().Get("$search"))))

	case eventsRe.MatchString(path):
		return jsonResponse(req, http.StatusOK, valueList(t.data.events))

	case meetingsRe.MatchString(path):
		return jsonResponse(req, http.StatusOK, valueList(t.data.meetings))

	case channelsRe.MatchString(path):
		return jsonResponse(req, http.StatusOK, valueList(t.data.channels))

	case channelMsgsRe.MatchString(path):
		return jsonResponse(req, http.StatusOK, valueList(t.data.channelMessages))

	case userRe.MatchString(path):
		m := userRe.FindStringSubmatch(path)
		for _, u := range t.data.users {
			if strings.EqualFold(fmt.Sprint(u["userPrincipalName"]), m[1]) || u["id"] == m[1] {
				return jsonResponse(req, http.StatusOK, u)
			}
		}
		return t.notFound(req, "user not found")
	}

	return t.notFound(req, "resource not found")
}

func (t *Transport) notFound(req *http.Request, message string) *http.Response {
	return jsonResponse(req, http.StatusNotFound, map[string]any{
		"error": map[string]any{
			"code":    "ResourceNotFound",
			"message": message,
		},
	})
}

func filterMessages(msgs []map[string]any, search string) []map[string]any {
	if search == "" {
		return msgs
	}
	needle := strings.ToLower(strings.Trim(search, `"`))
	var out []map[string]any
	for _, m := range msgs {
		if strings.Contains(strings.ToLower(fmt.Sprint(m["subject"])), needle) {
			out = append(out, m)
		}
	}
	return out
}

func valueList[T any](items []T) map[string]any {
	if items == nil {
		items = []T{}
	}
	return map[string]any{"value": items}
}

func jsonResponse(req *http.Request, status int, body any) *http.Response {
	buf, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(buf)),
		Request:    req,
	}
}
