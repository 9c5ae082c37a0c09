package model

// Person is a CRM contact. Identity is Key: two values with the same key are
// the same contact regardless of which search produced them.
type Person struct {
	Key          string         `json:"key"`
	Name         string         `json:"name,omitempty"`
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`  // set only when exactly one number is known
	Phones       []string       `json:"phones,omitempty"` // set only when two or more are known
	Organization string         `json:"organization,omitempty"`
	Fields       map[string]any `json:"fields,omitempty"`
}

// AllPhones returns every phone number on the person, whichever field holds it.
func (p Person) AllPhones() []string {
	if p.Phone != "" {
		return []string{p.Phone}
	}
	return p.Phones
}

// Record is a CRM pipeline item (a Streak box). Stage and email fields are
// filled lazily by enrichment.
type Record struct {
	Key                  string `json:"key"`
	Name                 string `json:"name,omitempty"`
	PipelineKey          string `json:"pipelineKey,omitempty"`
	StageKey             string `json:"stageKey,omitempty"`
	StageName            string `json:"stageName,omitempty"`
	LastUpdatedTimestamp *int64 `json:"lastUpdatedTimestamp,omitempty"` // epoch millis
	LastEmailPreview     string `json:"lastEmailPreview,omitempty"`
	LastEmailSubject     string `json:"lastEmailSubject,omitempty"`
	LastEmailAt          *int64 `json:"lastEmailAt,omitempty"` // epoch millis
}

// UpdatedAfter reports whether r sorts before o in recency order. A record
// with no timestamp is older than any record that has one.
func (r Record) UpdatedAfter(o Record) bool {
	switch {
	case r.LastUpdatedTimestamp == nil:
		return false
	case o.LastUpdatedTimestamp == nil:
		return true
	default:
		return *r.LastUpdatedTimestamp > *o.LastUpdatedTimestamp
	}
}
