package orders

import "strings"

// Style is the badge/dot presentation for a status.
type Style struct {
	Label string
	Badge string
	Dot   string
}

const neutral = "neutral"

var styles = map[Status]Style{
	StatusPending:           {Label: "Pending", Badge: "yellow", Dot: "yellow"},
	StatusPaid:              {Label: "Paid", Badge: "green", Dot: "green"},
	StatusShipped:           {Label: "Shipped", Badge: "blue", Dot: "blue"},
	StatusCompleted:         {Label: "Completed", Badge: "emerald", Dot: "emerald"},
	StatusRefunded:          {Label: "Refunded", Badge: "red", Dot: "red"},
	StatusPartiallyRefunded: {Label: "Partially refunded", Badge: "orange", Dot: "orange"},
	StatusCancelled:         {Label: "Cancelled", Badge: "gray", Dot: "gray"},
}

// StyleFor never fails: unknown statuses fall back to neutral colors.
func StyleFor(status Status) Style {
	if s, ok := styles[status]; ok {
		return s
	}
	label := strings.TrimSpace(string(status))
	if label == "" {
		label = "Unknown"
	}
	return Style{Label: label, Badge: neutral, Dot: neutral}
}
