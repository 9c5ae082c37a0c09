package crm

import (
	"net/url"
	"strings"
)

// DefaultAppURL is the Streak web app.
const DefaultAppURL = "https://www.streak.com"

// Links builds deep links into the Streak web app.
type Links struct {
	AppURL string
}

func (l Links) base() string {
	if l.AppURL == "" {
		return DefaultAppURL
	}
	return strings.TrimRight(l.AppURL, "/")
}

// Person returns the link to a contact, or "" for an empty key.
func (l Links) Person(key string) string {
	if key == "" {
		return ""
	}
	return l.base() + "/people/" + url.PathEscape(key)
}

// Record returns the link to a box, or "" for an empty key.
func (l Links) Record(key string) string {
	if key == "" {
		return ""
	}
	return l.base() + "/p/" + url.PathEscape(key)
}
