package graph

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyPrecedence(t *testing.T) {
	cases := []struct {
		path string
		want Category
	}{
		{"/users/alice@corp.com/messages", CategoryMail},
		{"/users/alice@corp.com/mailFolders/inbox/messages", CategoryMail},
		{"/users/alice@corp.com/calendar/events", CategoryCalendar},
		{"/users/alice@corp.com/events/evt-1", CategoryCalendar},
		{"/search/query", CategorySearch},
		{"/users/alice@corp.com", CategoryUsers},
		{"/users", CategoryUsers},
		{"/groups/g-1/members", CategoryUsers},
		{"/users/alice@corp.com/drive/root/children", CategoryFiles},
		{"/users/alice@corp.com/onlineMeetings", CategoryMeetings},
		{"/me", CategoryGlobal},
		{"/sites/root", CategoryGlobal},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Classify(tc.path), "path %s", tc.path)
	}
}

func TestClassifyMailBeatsTeams(t *testing.T) {
	// The mail check runs before the teams check, so channel messages land
	// in the mail category. First match wins.
	require.Equal(t, CategoryMail, Classify("/teams/t-1/channels/c-1/messages"))
}

func TestClassifyRequestSearchParam(t *testing.T) {
	params := url.Values{"$search": []string{`"quarterly report"`}}

	require.Equal(t, CategorySearch, ClassifyRequest("/users", params))
	require.Equal(t, CategorySearch, ClassifyRequest("/sites/root", params))

	// Mail keeps its own quota even when searching within a mailbox.
	require.Equal(t, CategoryMail, ClassifyRequest("/users/a/messages", params))

	require.Equal(t, CategoryUsers, ClassifyRequest("/users", nil))
}
