package crm

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sells-group/ringstreak/internal/model"
)

var (
	contactKeyPaths = []string{"key", "contactKey", "id", "personKey"}
	recordKeyPaths  = []string{"key", "boxKey"}
)

// field lookup order per schema; the first non-empty value wins.
var (
	emailPaths = map[Schema][]string{
		SchemaLegacy:  {"email", "emailAddresses", "emails"},
		SchemaCurrent: {"emailAddresses", "email", "emails"},
	}
	phonePaths = map[Schema][]string{
		SchemaLegacy:  {"phone", "phones", "phoneNumbers"},
		SchemaCurrent: {"phoneNumbers", "phone", "phones"},
	}
	orgPaths = []string{"organization", "organizationName", "company", "organizations.0.name", "organizations.0"}
)

func paths(m map[Schema][]string, s Schema) []string {
	if p, ok := m[s]; ok {
		return p
	}
	return m[SchemaLegacy]
}

// firstString returns the first non-empty string found at paths.
func firstString(doc gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := doc.Get(p)
		if v.Type == gjson.String || v.Type == gjson.Number {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// ContactKey returns a contact row's identifier, or "" when it has none.
func ContactKey(row RawRow) string {
	return firstString(gjson.ParseBytes(row.Body), contactKeyPaths...)
}

// RecordKey returns a record row's identifier, or "" when it has none.
func RecordKey(row RawRow) string {
	return firstString(gjson.ParseBytes(row.Body), recordKeyPaths...)
}

// PersonFromRow maps a contact row. It returns false for rows without a key.
func PersonFromRow(row RawRow) (model.Person, bool) {
	if !gjson.ValidBytes(row.Body) {
		return model.Person{}, false
	}
	doc := gjson.ParseBytes(row.Body)
	p := model.Person{Key: firstString(doc, contactKeyPaths...)}
	if p.Key == "" {
		return model.Person{}, false
	}

	p.Name = personName(doc)
	p.Email = firstValue(doc, paths(emailPaths, row.Schema), "email", "address", "value")
	p.Organization = firstString(doc, orgPaths...)

	phones := allValues(doc, paths(phonePaths, row.Schema), "number", "phoneNumber", "value")
	switch len(phones) {
	case 0:
	case 1:
		p.Phone = phones[0]
	default:
		p.Phones = phones
	}

	if f := doc.Get("fields"); f.IsObject() {
		if m, ok := f.Value().(map[string]any); ok && len(m) > 0 {
			p.Fields = m
		}
	}
	return p, true
}

func personName(doc gjson.Result) string {
	given := firstString(doc, "givenName", "firstName")
	family := firstString(doc, "familyName", "lastName")
	if given != "" && family != "" {
		return given + " " + family
	}
	if n := firstString(doc, "name", "fullName", "displayName"); n != "" {
		return n
	}
	if given != "" {
		return given
	}
	return family
}

// firstValue returns the first string found at paths, where a path may hold
// a string, a list of strings, or a list of objects carrying one of subKeys.
func firstValue(doc gjson.Result, paths []string, subKeys ...string) string {
	for _, p := range paths {
		if vals := values(doc.Get(p), subKeys); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// allValues collects the distinct values across every path, in order.
func allValues(doc gjson.Result, paths []string, subKeys ...string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range paths {
		for _, v := range values(doc.Get(p), subKeys) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

func values(v gjson.Result, subKeys []string) []string {
	var out []string
	add := func(item gjson.Result) {
		var s string
		switch {
		case item.Type == gjson.String, item.Type == gjson.Number:
			s = item.String()
		case item.IsObject():
			s = firstString(item, subKeys...)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if v.IsArray() {
		v.ForEach(func(_, item gjson.Result) bool {
			add(item)
			return true
		})
		return out
	}
	add(v)
	return out
}

// RecordFromRow maps a box row. It returns false for rows without a key.
func RecordFromRow(row RawRow) (model.Record, bool) {
	if !gjson.ValidBytes(row.Body) {
		return model.Record{}, false
	}
	doc := gjson.ParseBytes(row.Body)
	r := model.Record{Key: firstString(doc, recordKeyPaths...)}
	if r.Key == "" {
		return model.Record{}, false
	}
	r.Name = firstString(doc, "name", "title")
	r.PipelineKey = firstString(doc, "pipelineKey", "pipeline.key")
	r.StageKey = firstString(doc, "stageKey", "stage.key")
	r.StageName = firstString(doc, "stageName", "stage.name")
	r.LastUpdatedTimestamp = timestamp(doc, "lastUpdatedTimestamp", "lastUpdated")
	return r, true
}

// timestamp reads an epoch-millis value that may be encoded as a number or a
// numeric string.
func timestamp(doc gjson.Result, paths ...string) *int64 {
	for _, p := range paths {
		v := doc.Get(p)
		switch v.Type {
		case gjson.Number:
			n := v.Int()
			return &n
		case gjson.String:
			if n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

// StageNames extracts stageKey → name from a pipeline's stage payload. Streak
// has returned a bare list, a {"stages": ...} wrapper holding a list or a
// keyed map, and a {"results": [...]} list.
func StageNames(row RawRow) map[string]string {
	out := make(map[string]string)
	if !gjson.ValidBytes(row.Body) {
		return out
	}
	doc := gjson.ParseBytes(row.Body)
	for _, k := range []string{"stages", "results", "items"} {
		if v := doc.Get(k); v.IsArray() || v.IsObject() {
			doc = v
			break
		}
	}

	doc.ForEach(func(k, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		name := firstString(item, "name", "title")
		key := firstString(item, "key", "stageKey", "id")
		if key == "" && k.Type == gjson.String {
			key = k.Str
		}
		if key != "" && name != "" {
			out[key] = name
		}
		return true
	})
	return out
}

// EmailEntry is one email thread seen on a record.
type EmailEntry struct {
	Subject   string
	Snippet   string
	Timestamp *int64
}

// TimelineEmails keeps the timeline entries whose type mentions email or
// thread.
func TimelineEmails(rows []RawRow) []EmailEntry {
	var out []EmailEntry
	for _, row := range rows {
		if !gjson.ValidBytes(row.Body) {
			continue
		}
		doc := gjson.ParseBytes(row.Body)
		typ := strings.ToLower(firstString(doc, "type", "entryType", "kind"))
		if !strings.Contains(typ, "email") && !strings.Contains(typ, "thread") {
			continue
		}
		out = append(out, EmailEntry{
			Subject:   firstString(doc, "subject", "thread.subject", "email.subject", "data.subject"),
			Snippet:   firstString(doc, "snippet", "preview", "thread.snippet", "email.snippet", "data.snippet"),
			Timestamp: timestamp(doc, "timestamp", "ts", "createdTimestamp", "lastUpdatedTimestamp"),
		})
	}
	return out
}

// LegacyThreads maps legacy thread rows, most recently updated first.
func LegacyThreads(rows []RawRow) []EmailEntry {
	var out []EmailEntry
	for _, row := range rows {
		if !gjson.ValidBytes(row.Body) {
			continue
		}
		doc := gjson.ParseBytes(row.Body)
		out = append(out, EmailEntry{
			Subject:   firstString(doc, "subject"),
			Snippet:   firstString(doc, "snippet", "lastEmailSnippet"),
			Timestamp: timestamp(doc, "lastUpdatedTimestamp", "lastEmailTimestamp"),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i].Timestamp, out[j].Timestamp)
	})
	return out
}

// Latest returns the entry with the greatest timestamp. Entries without one
// only win when nothing else has a timestamp.
func Latest(entries []EmailEntry) (EmailEntry, bool) {
	if len(entries) == 0 {
		return EmailEntry{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if newer(e.Timestamp, best.Timestamp) {
			best = e
		}
	}
	return best, true
}

func newer(a, b *int64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a > *b
	}
}
