package graph

import (
	"net/url"
	"strings"
)

// Category is a Graph API throttling category. Microsoft applies separate
// service limits per workload, so the rate limiter registry keeps one quota
// enforcer per category rather than one per endpoint.
type Category string

const (
	CategoryMail          Category = "mail"
	CategoryCalendar      Category = "calendar"
	CategoryTeamsMessages Category = "teams_messages"
	CategorySearch        Category = "search"
	CategoryUsers         Category = "users"
	CategoryFiles         Category = "files"
	CategoryMeetings      Category = "meetings"
	CategoryGlobal        Category = "global"
)

// Categories returns every known category, in a stable order.
func Categories() []Category {
	return []Category{
		CategoryMail,
		CategoryCalendar,
		CategoryTeamsMessages,
		CategorySearch,
		CategoryUsers,
		CategoryFiles,
		CategoryMeetings,
		CategoryGlobal,
	}
}

// Classify maps a request path to its throttling category.
//
// Precedence is significant and first match wins: mail, calendar,
// teams_messages, search, users/groups, files, meetings, global.
// A mail sub-resource such as /users/alice@corp.com/messages classifies as
// mail, never users, because the mail check runs first.
func Classify(path string) Category {
	p := strings.ToLower(path)

	if strings.Contains(p, "/messages") || strings.Contains(p, "/mailfolder") {
		return CategoryMail
	}
	if strings.Contains(p, "/calendar") || strings.Contains(p, "/events") {
		return CategoryCalendar
	}
	if strings.Contains(p, "/channels/") && strings.Contains(p, "/messages") {
		return CategoryTeamsMessages
	}
	if strings.Contains(p, "/search") || strings.Contains(p, "$search") {
		return CategorySearch
	}
	if strings.HasPrefix(p, "/users") || strings.HasPrefix(p, "/groups") {
		return CategoryUsers
	}
	if strings.Contains(p, "/drive") {
		return CategoryFiles
	}
	if strings.Contains(p, "/onlinemeetings") || strings.Contains(p, "/meetings") {
		return CategoryMeetings
	}
	return CategoryGlobal
}

// ClassifyRequest classifies a path together with its query parameters. A
// request carrying a $search parameter belongs to the search category even
// when its path alone would classify elsewhere, unless an earlier-precedence
// category (mail, calendar, teams_messages) already claimed it.
func ClassifyRequest(path string, params url.Values) Category {
	cat := Classify(path)
	if params == nil || !params.Has("$search") {
		return cat
	}
	switch cat {
	case CategoryMail, CategoryCalendar, CategoryTeamsMessages, CategorySearch:
		return cat
	default:
		return CategorySearch
	}
}
