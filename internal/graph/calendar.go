package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const eventSelectFields = "id,subject,start,end,organizer,attendees,isOnlineMeeting,onlineMeeting,location"

// ListCalendarEvents lists a user's calendar events, newest first. filter is
// an optional OData expression such as "start/dateTime ge '2025-01-01T00:00:00'".
func (c *Client) ListCalendarEvents(ctx context.Context, userID string, limit int, filter string) ([]json.RawMessage, error) {
	params := url.Values{
		"$select":  []string{eventSelectFields},
		"$top":     []string{strconv.Itoa(clampLimit(limit, 50, 100))},
		"$orderby": []string{"start/dateTime desc"},
	}
	if filter != "" {
		params.Set("$filter", filter)
	}

	raw, err := c.Get(ctx, fmt.Sprintf("/users/%s/events", userID), params)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}

// GetCalendarEvent fetches one event from a user's calendar.
func (c *Client) GetCalendarEvent(ctx context.Context, userID, eventID string) (json.RawMessage, error) {
	return c.Get(ctx, fmt.Sprintf("/users/%s/events/%s", userID, eventID), nil)
}
