package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// mailFolders maps friendly folder names to Graph well-known folder IDs.
// Unknown names fall back to inbox.
var mailFolders = map[string]string{
	"inbox":   "inbox",
	"sent":    "sentitems",
	"drafts":  "drafts",
	"deleted": "deleteditems",
	"junk":    "junkemail",
}

const messageSelectFields = "id,subject,from,toRecipients,receivedDateTime,isRead,hasAttachments"

// ListMessagesOptions controls a mailbox listing.
type ListMessagesOptions struct {
	Folder      string
	Limit       int
	IncludeBody bool
}

// ListMessages lists messages in one folder of a user's mailbox, newest
// first. Application permissions allow this for any mailbox in the tenant.
func (c *Client) ListMessages(ctx context.Context, userID string, opts ListMessagesOptions) ([]json.RawMessage, error) {
	folder, ok := mailFolders[strings.ToLower(opts.Folder)]
	if !ok {
		folder = "inbox"
	}

	selectFields := messageSelectFields
	if opts.IncludeBody {
		selectFields += ",body"
	}

	params := url.Values{
		"$select":  []string{selectFields},
		"$top":     []string{strconv.Itoa(clampLimit(opts.Limit, 10, 100))},
		"$orderby": []string{"receivedDateTime desc"},
	}

	raw, err := c.Get(ctx, fmt.Sprintf("/users/%s/mailFolders/%s/messages", userID, folder), params)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}

// GetMessage fetches one message by ID from a user's mailbox.
func (c *Client) GetMessage(ctx context.Context, userID, messageID string) (json.RawMessage, error) {
	return c.Get(ctx, fmt.Sprintf("/users/%s/messages/%s", userID, messageID), nil)
}

// SearchMessagesOptions controls a mailbox search. At least one of Query or
// Filter must be set.
type SearchMessagesOptions struct {
	Query  string
	Filter string
	Limit  int
}

// SearchMessages searches a user's mailbox by full-text query, OData filter,
// or both.
func (c *Client) SearchMessages(ctx context.Context, userID string, opts SearchMessagesOptions) ([]json.RawMessage, error) {
	if opts.Query == "" && opts.Filter == "" {
		return nil, &ValidationError{Message: "at least one of query or filter must be provided"}
	}

	params := url.Values{
		"$top":     []string{strconv.Itoa(clampLimit(opts.Limit, 10, 100))},
		"$orderby": []string{"receivedDateTime desc"},
	}
	if opts.Query != "" {
		params.Set("$search", strconv.Quote(opts.Query))
	}
	if opts.Filter != "" {
		params.Set("$filter", opts.Filter)
	}

	raw, err := c.Get(ctx, fmt.Sprintf("/users/%s/messages", userID), params)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}

// collection unwraps the OData "value" array from a list response.
func collection(raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var envelope struct {
		Value []json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decoding collection response: %w", err)
	}
	return envelope.Value, nil
}

// clampLimit applies a default and an upper bound to a page size.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return limit
}
