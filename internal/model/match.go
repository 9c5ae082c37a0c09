package model

import "strings"

// Match scores.
const (
	ScoreNone   = 0 // reserved; never emitted
	ScorePerson = 1 // contact matched, no record attached
	ScoreRecord = 2 // contact matched with a linked record
)

// MatchLinks holds deep links into the CRM web app.
type MatchLinks struct {
	PersonLink string `json:"personLink,omitempty"`
	RecordLink string `json:"recordLink,omitempty"`
}

// MatchResult is one candidate answer for a phone lookup.
type MatchResult struct {
	Score  int        `json:"score"`
	Person Person     `json:"person"`
	Record *Record    `json:"record,omitempty"`
	Links  MatchLinks `json:"links"`
}

// LookupResponse is the outcome of resolving one phone number.
// Normalized is nil only when the query held no digits.
type LookupResponse struct {
	Query      string        `json:"query"`
	Normalized *string       `json:"normalized"`
	Matches    []MatchResult `json:"matches"`
}

// Direction of a call relative to the user.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// ParseDirection maps free-form telephony direction strings onto Direction.
// Anything that is not recognizably outbound is treated as inbound.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "outbound", "out":
		return DirectionOutbound
	default:
		return DirectionInbound
	}
}

// CallEvent is the payload pushed to subscribers for a resolved call.
type CallEvent struct {
	Direction Direction     `json:"direction"`
	From      string        `json:"from"`
	To        string        `json:"to"`
	CallID    string        `json:"callId"`
	Top       *MatchResult  `json:"top"`
	Others    []MatchResult `json:"others"`
}
