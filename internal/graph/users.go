package graph

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// UserProfile fetches the directory profile for a user by ID or
// userPrincipalName.
func (c *Client) UserProfile(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.Get(ctx, "/users/"+userID, nil)
}

// ListUsers lists tenant users. The result includes guest accounts, whose
// userPrincipalName contains "#EXT#" and which may not have mailboxes.
func (c *Client) ListUsers(ctx context.Context, limit int) ([]json.RawMessage, error) {
	params := url.Values{
		"$select": []string{"id,displayName,mail,userPrincipalName,userType"},
		"$top":    []string{strconv.Itoa(clampLimit(limit, 10, 100))},
	}
	raw, err := c.Get(ctx, "/users", params)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}
