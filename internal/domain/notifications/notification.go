package notifications

import "time"

type Notification struct {
	ID        string
	Type      string
	Title     string
	Body      string
	Link      string
	CreatedAt time.Time
	ReadAt    *time.Time
}

func (n Notification) IsUnread() bool { return n.ReadAt == nil }

// MarkRead stamps the first read; later calls keep the original time.
func (n *Notification) MarkRead(at time.Time) {
	if n.ReadAt == nil {
		t := at.UTC()
		n.ReadAt = &t
	}
}

func CountUnread(items []Notification) int {
	count := 0
	for _, n := range items {
		if n.IsUnread() {
			count++
		}
	}
	return count
}
