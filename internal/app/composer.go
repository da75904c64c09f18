package app

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/eyelabsai/QuickReviews/internal/domain/dispatch"
	"github.com/eyelabsai/QuickReviews/internal/domain/tracking"
)

const reminderSubject = "We'd love your feedback! (Reminder)"

const trackingURLPlaceholder = "[TRACKING_URL]"

// trackingURLMarker appears in any previously composed message, whichever
// tier produced it.
const trackingURLMarker = "tracking.html?tracking="

var (
	// Bare tracking URL in SMS text.
	smsTrackingURLRe = regexp.MustCompile(`https?://[^\s]+/tracking\.html\?tracking=[^\s]+`)
	// Tracking URL inside an anchor's href attribute.
	emailTrackingHrefRe = regexp.MustCompile(`href="[^"]*tracking\.html\?tracking=[^"]*"`)

	// "Hi NAME, NAME!" duplicated-greeting artifact.
	greetingDupRe = regexp.MustCompile(`(?i)(Hi|Hello|Hey)\s+([^<>\n,!]+),\s*([^<>\n,!]+)!`)
	// Trailing comma after a greeting name.
	greetingCommaRe = regexp.MustCompile(`(?i)(Hi|Hello|Hey)\s+([^<>\n,!]+),`)
)

// Composer renders channel-specific resend payloads. It is pure: no I/O, no
// clock, so running it twice on the same record yields the same result with
// exactly one tracking URL.
type Composer struct {
	Host        string // base URL for tracking links, no trailing slash
	FromAddress string // bare default email sender
}

func NewComposer(host, fromAddress string) *Composer {
	return &Composer{Host: strings.TrimRight(host, "/"), FromAddress: fromAddress}
}

// TrackingURL builds the link a customer clicks: the record's own id plus the
// encoded review destination, correlating the click back to the record.
func (c *Composer) TrackingURL(rec *tracking.Record) string {
	return fmt.Sprintf("%s/tracking.html?tracking=%s&link=%s", c.Host, rec.ID, url.QueryEscape(rec.ReviewLink))
}

// ComposeSMS builds the resend SMS body. It starts from the last-composed
// message when one exists, falling back to the original template, then applies
// the first matching substitution rule:
//  1. a [TRACKING_URL] placeholder is filled in;
//  2. an existing tracking URL is replaced with the fresh one;
//  3. otherwise a review-request line is appended.
//
// Rule 2 is what keeps repeated resends from accumulating duplicate links.
func (c *Composer) ComposeSMS(rec *tracking.Record) *dispatch.SMSPayload {
	trackingURL := c.TrackingURL(rec)

	body := rec.Message
	if rec.FinalMessage.Valid && rec.FinalMessage.String != "" {
		body = rec.FinalMessage.String
	}

	switch {
	case strings.Contains(body, trackingURLPlaceholder):
		body = strings.ReplaceAll(body, trackingURLPlaceholder, trackingURL)
	case strings.Contains(body, trackingURLMarker):
		body = smsTrackingURLRe.ReplaceAllString(body, trackingURL)
	default:
		body = fmt.Sprintf("%s\n\nPlease leave us a review: %s", body, trackingURL)
	}

	return &dispatch.SMSPayload{To: rec.To, Body: body}
}

// ComposeEmail builds the resend email. The substitution tiers mirror the SMS
// rules but operate on an anchor tag's href attribute. Duplicated greeting
// artifacts from earlier renderings ("Hi NAME, NAME!") are collapsed first.
func (c *Composer) ComposeEmail(rec *tracking.Record) *dispatch.EmailPayload {
	trackingURL := c.TrackingURL(rec)

	html := strings.ReplaceAll(rec.Message, "\n", "<br>")
	if rec.FinalHTML.Valid && rec.FinalHTML.String != "" {
		html = rec.FinalHTML.String
	}

	if strings.Contains(html, "Hi ") || strings.Contains(html, "Hello ") || strings.Contains(html, "Hey ") {
		html = normalizeGreeting(html)
	}

	switch {
	case strings.Contains(html, trackingURLPlaceholder):
		html = strings.ReplaceAll(html, trackingURLPlaceholder, trackingURL)
	case strings.Contains(html, trackingURLMarker):
		html = emailTrackingHrefRe.ReplaceAllString(html, `href="`+trackingURL+`"`)
	default:
		html += fmt.Sprintf(`<br><br><a href="%s" target="_blank" rel="noopener noreferrer" style="color: #1e3a8a; text-decoration: underline; font-weight: 500;">Click here to leave a review</a>`, trackingURL)
	}

	return &dispatch.EmailPayload{
		To:      rec.To,
		From:    c.fromHeader(rec),
		Subject: reminderSubject,
		HTML:    html,
	}
}

func (c *Composer) fromHeader(rec *tracking.Record) string {
	name := strings.TrimSpace(rec.SenderName.String)
	if name == "" {
		return c.FromAddress
	}
	return fmt.Sprintf("%s <%s>", name, c.FromAddress)
}

// normalizeGreeting collapses "Hi NAME, NAME!" to "Hi NAME!" and turns a
// trailing comma after a greeting name into an exclamation point.
func normalizeGreeting(s string) string {
	s = greetingDupRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := greetingDupRe.FindStringSubmatch(m)
		first := strings.TrimSpace(sub[2])
		second := strings.TrimSpace(sub[3])
		if !strings.EqualFold(first, second) {
			return m
		}
		return sub[1] + " " + first + "!"
	})
	s = greetingCommaRe.ReplaceAllString(s, "$1 $2!")
	return s
}
