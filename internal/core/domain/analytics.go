package domain

import "time"

// UsageEventType names a recorded usage event.
type UsageEventType string

// Recorded usage events.
const (
	UsageDocumentUploaded UsageEventType = "document_uploaded"
	UsageQuestionAsked    UsageEventType = "question_asked"
)

// Summary window limits in days.
const (
	DefaultSummaryDays = 7
	MaxSummaryDays     = 90
)

// UsageEvent is a single fire-and-forget usage record.
type UsageEvent struct {
	ID        string
	Type      UsageEventType
	UserID    string
	Payload   map[string]any
	CreatedAt time.Time
}

// DailyCount is the number of events on one UTC day ("2006-01-02").
type DailyCount struct {
	Date   string
	Events int
}

// UsageSummary aggregates usage since a point in time.
type UsageSummary struct {
	Since     time.Time
	Uploads   int
	Questions int
	PerDay    []DailyCount
}

// ValidSummaryDays reports whether days is within 1..MaxSummaryDays.
func ValidSummaryDays(days int) bool {
	return days >= 1 && days <= MaxSummaryDays
}
