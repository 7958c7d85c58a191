package inbox

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultSenderLabel     = "Someone"
	EmptyConversationLabel = "New conversation"
	// MaxMessageLength caps message content at submission.
	MaxMessageLength = 1000
	// PreviewExcerptLength clips excerpts shown in conversation lists.
	PreviewExcerptLength = 120
)

type Preview struct {
	ConversationID ConversationID
	SenderLabel    string
	Excerpt        string
	Timestamp      time.Time
	IsUnread       bool
}

// ComputePreview derives the list row for a conversation. It has no side effects.
func ComputePreview(c Conversation, viewerID string) Preview {
	latest, ok := LatestMessage(c)
	if !ok {
		return Preview{
			ConversationID: c.ID,
			SenderLabel:    DefaultSenderLabel,
			Excerpt:        EmptyConversationLabel,
			Timestamp:      c.UpdatedAt,
		}
	}
	return Preview{
		ConversationID: c.ID,
		SenderLabel:    latest.Sender.Label(),
		Excerpt:        excerpt(latest.Content, PreviewExcerptLength),
		Timestamp:      latest.CreatedAt,
		IsUnread:       unread(latest, LastReadAt(c, viewerID), viewerID),
	}
}

// ComputePreviews maps ComputePreview over a list, keeping order.
func ComputePreviews(convs []Conversation, viewerID string) []Preview {
	out := make([]Preview, 0, len(convs))
	for _, c := range convs {
		out = append(out, ComputePreview(c, viewerID))
	}
	return out
}

func excerpt(content string, limit int) string {
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) <= limit {
		return content
	}
	runes := []rune(content)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
