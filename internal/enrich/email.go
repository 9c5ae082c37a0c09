package enrich

import (
	"context"
	"strings"

	"github.com/sells-group/ringstreak/internal/crm"
)

const noSubject = "(no subject)"

// DefaultTimelineLimit is how many timeline entries are scanned for email.
const DefaultTimelineLimit = 25

// EmailPreview summarizes the most recent email on a record.
type EmailPreview struct {
	Text    string
	Subject string
	At      *int64 // epoch millis, when known
}

// EmailPreviewer finds the latest email on a record, reading the current
// timeline first and the legacy threads list second.
type EmailPreviewer struct {
	src           Source
	timelineLimit int
}

// NewEmailPreviewer creates a previewer. A non-positive limit uses
// DefaultTimelineLimit.
func NewEmailPreviewer(src Source, timelineLimit int) *EmailPreviewer {
	if timelineLimit <= 0 {
		timelineLimit = DefaultTimelineLimit
	}
	return &EmailPreviewer{src: src, timelineLimit: timelineLimit}
}

// Last returns the preview of the newest email on recordKey, or false when
// neither source has one.
func (p *EmailPreviewer) Last(ctx context.Context, recordKey string) (EmailPreview, bool) {
	if e, ok := crm.Latest(crm.TimelineEmails(p.src.Timeline(ctx, recordKey, p.timelineLimit))); ok {
		return preview(e), true
	}
	if threads := crm.LegacyThreads(p.src.LegacyThreads(ctx, recordKey)); len(threads) > 0 {
		return preview(threads[0]), true
	}
	return EmailPreview{}, false
}

func preview(e crm.EmailEntry) EmailPreview {
	subject := strings.TrimSpace(e.Subject)
	if subject == "" {
		subject = noSubject
	}
	text := subject
	if snippet := strings.TrimSpace(e.Snippet); snippet != "" {
		text = subject + " — " + snippet
	}
	return EmailPreview{Text: strings.TrimSpace(text), Subject: subject, At: e.Timestamp}
}
