package resolve

import (
	"github.com/sells-group/ringstreak/internal/crm"
)

// rowSet accumulates rows keyed by identity. The first row seen for a key
// wins and insertion order is kept.
type rowSet struct {
	key   func(crm.RawRow) string
	index map[string]int
	rows  []crm.RawRow
}

func newRowSet(key func(crm.RawRow) string) *rowSet {
	return &rowSet{key: key, index: make(map[string]int)}
}

func (s *rowSet) add(rows ...crm.RawRow) {
	for _, r := range rows {
		k := s.key(r)
		if k == "" {
			continue
		}
		if _, ok := s.index[k]; ok {
			continue
		}
		s.index[k] = len(s.rows)
		s.rows = append(s.rows, r)
	}
}

// MergeRecords folds batches of record rows into one list with a single row
// per record key, in first-seen order.
func MergeRecords(batches ...[]crm.RawRow) []crm.RawRow {
	s := newRowSet(crm.RecordKey)
	for _, b := range batches {
		s.add(b...)
	}
	return s.rows
}

// MergeContacts is MergeRecords for contact rows.
func MergeContacts(batches ...[]crm.RawRow) []crm.RawRow {
	s := newRowSet(crm.ContactKey)
	for _, b := range batches {
		s.add(b...)
	}
	return s.rows
}
