package inbox

import "time"

// LastReadAt returns the viewer's read marker; absent markers read as the zero time.
func LastReadAt(c Conversation, viewerID string) time.Time {
	p, ok := c.Participant(viewerID)
	if !ok || p.LastReadAt == nil {
		return time.Time{}
	}
	return *p.LastReadAt
}

// LatestMessage returns index 0 of a newest-first preview list.
func LatestMessage(c Conversation) (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[0], true
}

// ThreadLatest scans a chronological thread for its newest message.
func ThreadLatest(c Conversation) (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	latest := c.Messages[0]
	for _, m := range c.Messages[1:] {
		if m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}
	return latest, true
}

// IsUnread is true iff the newest message is strictly after the viewer's marker and the
// viewer did not send it. Identity is compared by user id only.
func IsUnread(c Conversation, viewerID string) bool {
	latest, ok := LatestMessage(c)
	if !ok {
		return false
	}
	return unread(latest, LastReadAt(c, viewerID), viewerID)
}

func unread(latest Message, lastRead time.Time, viewerID string) bool {
	if latest.Sender.IsUser(viewerID) {
		return false
	}
	return latest.CreatedAt.After(lastRead)
}

// CountUnread applies IsUnread across a list.
func CountUnread(convs []Conversation, viewerID string) int {
	count := 0
	for _, c := range convs {
		if IsUnread(c, viewerID) {
			count++
		}
	}
	return count
}

// MarkReadLocal advances the viewer's marker to at. The marker never moves backwards, so
// repeated calls are idempotent. It reports whether the marker changed.
func MarkReadLocal(c *Conversation, viewerID string, at time.Time) bool {
	for i := range c.Participants {
		p := &c.Participants[i]
		if p.User.ID != viewerID {
			continue
		}
		if p.LastReadAt != nil && !at.After(*p.LastReadAt) {
			return false
		}
		t := at.UTC()
		p.LastReadAt = &t
		return true
	}
	return false
}
