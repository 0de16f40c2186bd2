package mock

type dataset struct {
	users           []map[string]any
	teams           []map[string]any
	channels        []map[string]any
	channelMessages []map[string]any
	events          []map[string]any
	meetings        []map[string]any
	messages        map[string][]map[string]any
}

// sampleTenant is a small fictional directory: two member users, one guest
// without a mailbox, one team with one channel.
func sampleTenant() *dataset {
	return &dataset{
		users: []map[string]any{
			{
				"id":                "u-001",
				"displayName":       "Alice Rivera",
				"mail":              "alice@contoso.example",
				"userPrincipalName": "alice@contoso.example",
				"userType":          "Member",
			},
			{
				"id":                "u-002",
				"displayName":       "Bob Tanaka",
				"mail":              "bob@contoso.example",
				"userPrincipalName": "bob@contoso.example",
				"userType":          "Member",
			},
			{
				"id":                "u-003",
				"displayName":       "Carol Guest",
				"mail":              nil,
				"userPrincipalName": "carol_gmail.com#EXT#@contoso.example",
				"userType":          "Guest",
			},
		},
		teams: []map[string]any{
			{
				"id":          "t-001",
				"displayName": "Engineering",
				"description": "Engineering org team",
				"visibility":  "private",
			},
		},
		channels: []map[string]any{
			{
				"id":             "c-001",
				"displayName":    "General",
				"membershipType": "standard",
			},
		},
		channelMessages: []map[string]any{
			{
				"id":              "cm-001",
				"createdDateTime": "2025-05-02T09:15:00Z",
				"body":            map[string]any{"contentType": "text", "content": "Standup at ten."},
			},
		},
		events: []map[string]any{
			{
				"id":      "e-001",
				"subject": "Quarterly planning",
				"start":   map[string]any{"dateTime": "2025-05-05T14:00:00", "timeZone": "UTC"},
				"end":     map[string]any{"dateTime": "2025-05-05T15:00:00", "timeZone": "UTC"},
			},
		},
		meetings: []map[string]any{
			{
				"id":      "mt-001",
				"subject": "Design review",
				"joinUrl": "https://teams.example/join/mt-001",
			},
		},
		messages: map[string][]map[string]any{
			"alice@contoso.example": {
				{
					"id":               "m-001",
					"subject":          "Quarterly report draft",
					"from":             map[string]any{"emailAddress": map[string]any{"address": "bob@contoso.example"}},
					"receivedDateTime": "2025-05-01T08:30:00Z",
					"isRead":           false,
					"hasAttachments":   true,
				},
				{
					"id":               "m-002",
					"subject":          "Lunch on Friday?",
					"from":             map[string]any{"emailAddress": map[string]any{"address": "bob@contoso.example"}},
					"receivedDateTime": "2025-04-30T12:05:00Z",
					"isRead":           true,
					"hasAttachments":   false,
				},
			},
			"bob@contoso.example": {
				{
					"id":               "m-101",
					"subject":          "Re: Quarterly report draft",
					"from":             map[string]any{"emailAddress": map[string]any{"address": "alice@contoso.example"}},
					"receivedDateTime": "2025-05-01T09:00:00Z",
					"isRead":           true,
					"hasAttachments":   false,
				},
			},
		},
	}
}
