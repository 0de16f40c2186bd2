package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// ListTeams lists the tenant's teams. Teams are groups with the Team
// provisioning option, so this queries /groups.
func (c *Client) ListTeams(ctx context.Context, limit int) ([]json.RawMessage, error) {
	params := url.Values{
		"$filter": []string{"resourceProvisioningOptions/Any(x:x eq 'Team')"},
		"$select": []string{"id,displayName,description,visibility,createdDateTime"},
		"$top":    []string{strconv.Itoa(clampLimit(limit, 25, 100))},
	}
	raw, err := c.Get(ctx, "/groups", params)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}

// TeamMembers lists the members of a team.
func (c *Client) TeamMembers(ctx context.Context, teamID string, limit int) ([]json.RawMessage, error) {
	params := url.Values{
		"$top": []string{strconv.Itoa(clampLimit(limit, 100, 100))},
	}
	raw, err := c.Get(ctx, fmt.Sprintf("/teams/%s/members", teamID), params)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}

// ListChannels lists the channels of a team.
func (c *Client) ListChannels(ctx context.Context, teamID string, limit int) ([]json.RawMessage, error) {
	params := url.Values{
		"$select": []string{"id,displayName,description,membershipType,createdDateTime"},
		"$top":    []string{strconv.Itoa(clampLimit(limit, 50, 100))},
	}
	raw, err := c.Get(ctx, fmt.Sprintf("/teams/%s/channels", teamID), params)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}

// ChannelMessages lists recent messages in a channel, newest first. Graph
// caps the page size at 50 for this endpoint.
func (c *Client) ChannelMessages(ctx context.Context, teamID, channelID string, limit int) ([]json.RawMessage, error) {
	params := url.Values{
		"$top":     []string{strconv.Itoa(clampLimit(limit, 50, 50))},
		"$orderby": []string{"createdDateTime desc"},
	}
	raw, err := c.Get(ctx, fmt.Sprintf("/teams/%s/channels/%s/messages", teamID, channelID), params)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}
