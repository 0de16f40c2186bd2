package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// ListOnlineMeetings lists a user's online meetings, newest first. filter is
// an optional OData expression such as "startDateTime ge 2025-01-01T00:00:00Z".
func (c *Client) ListOnlineMeetings(ctx context.Context, userID string, limit int, filter string) ([]json.RawMessage, error) {
	params := url.Values{
		"$top":     []string{strconv.Itoa(clampLimit(limit, 50, 100))},
		"$orderby": []string{"createdDateTime desc"},
	}
	if filter != "" {
		params.Set("$filter", filter)
	}

	raw, err := c.Get(ctx, fmt.Sprintf("/users/%s/onlineMeetings", userID), params)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}

// GetOnlineMeeting fetches one online meeting with full details.
func (c *Client) GetOnlineMeeting(ctx context.Context, userID, meetingID string) (json.RawMessage, error) {
	return c.Get(ctx, fmt.Sprintf("/users/%s/onlineMeetings/%s", userID, meetingID), nil)
}

// AttendanceReports lists the attendance reports recorded for a meeting.
func (c *Client) AttendanceReports(ctx context.Context, userID, meetingID string) ([]json.RawMessage, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("/users/%s/onlineMeetings/%s/attendanceReports", userID, meetingID), nil)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}

// AttendanceRecords lists the attendee records of one attendance report.
func (c *Client) AttendanceRecords(ctx context.Context, userID, meetingID, reportID string) ([]json.RawMessage, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("/users/%s/onlineMeetings/%s/attendanceReports/%s/attendanceRecords", userID, meetingID, reportID), nil)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}

// ListTranscripts lists transcript metadata for a meeting.
func (c *Client) ListTranscripts(ctx context.Context, userID, meetingID string) ([]json.RawMessage, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("/users/%s/onlineMeetings/%s/transcripts", userID, meetingID), nil)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}

// TranscriptContent fetches a transcript body. The content endpoint returns
// WebVTT text rather than JSON, so the raw bytes pass through unchanged.
func (c *Client) TranscriptContent(ctx context.Context, userID, meetingID, transcriptID string) (string, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("/users/%s/onlineMeetings/%s/transcripts/%s/content", userID, meetingID, transcriptID), nil)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ListRecordings lists recording metadata for a meeting.
func (c *Client) ListRecordings(ctx context.Context, userID, meetingID string) ([]json.RawMessage, error) {
	raw, err := c.Get(ctx, fmt.Sprintf("/users/%s/onlineMeetings/%s/recordings", userID, meetingID), nil)
	if err != nil {
		return nil, err
	}
	return collection(raw)
}
