package streak

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// SearchResponse holds the raw contact and box rows from a search.
//
// Streak has returned two shapes over time: a grouped object
// {"results":{"contacts":[...],"boxes":[...]}} and a flat
// {"results":[{"type":"CONTACT",...}]} list. Both decode into the same
// struct. "records" is accepted as an alias for "boxes".
type SearchResponse struct {
	Contacts []json.RawMessage `json:"contacts"`
	Boxes    []json.RawMessage `json:"boxes"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *SearchResponse) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return eris.New("streak: invalid search payload")
	}

	root := gjson.ParseBytes(data)
	results := root
	if !root.IsArray() {
		results = root.Get("results")
	}

	r.Contacts, r.Boxes = nil, nil
	switch {
	case results.IsArray():
		results.ForEach(func(_, item gjson.Result) bool {
			kind := strings.ToUpper(item.Get("type").String() + " " + item.Get("resultType").String())
			switch {
			case strings.Contains(kind, "CONTACT"), strings.Contains(kind, "PERSON"):
				r.Contacts = append(r.Contacts, json.RawMessage(item.Raw))
			case strings.Contains(kind, "BOX"), strings.Contains(kind, "RECORD"):
				r.Boxes = append(r.Boxes, json.RawMessage(item.Raw))
			}
			return true
		})
	case results.IsObject():
		r.Contacts = rawItems(results.Get("contacts"))
		r.Boxes = append(rawItems(results.Get("boxes")), rawItems(results.Get("records"))...)
	}
	return nil
}

// listKeys are the envelope fields a list endpoint may wrap its items in.
var listKeys = []string{"items", "results", "boxes", "threads", "data"}

// decodeList extracts the item array from a list response, which is either a
// bare JSON array or an object wrapping one.
func decodeList(body []byte) ([]json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, eris.New("invalid json")
	}
	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return rawItems(root), nil
	}
	for _, k := range listKeys {
		if v := root.Get(k); v.IsArray() {
			return rawItems(v), nil
		}
	}
	return nil, nil
}

func rawItems(arr gjson.Result) []json.RawMessage {
	if !arr.IsArray() {
		return nil
	}
	var out []json.RawMessage
	arr.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			out = append(out, json.RawMessage(item.Raw))
		}
		return true
	})
	return out
}
