package resolve

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/ringstreak/internal/model"
)

// SortRecords orders records newest first. Records without a timestamp go
// last, keeping their relative order.
func SortRecords(recs []model.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].UpdatedAfter(recs[j])
	})
}

// SortMatches orders matches by score, highest first, then by person name
// ignoring case. Matches without a name go last among equal scores.
func SortMatches(matches []model.MatchResult) {
	// A Collator is not safe for concurrent use.
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		an, bn := a.Person.Name, b.Person.Name
		switch {
		case an == "" || bn == "":
			return an != "" && bn == ""
		default:
			return col.CompareString(an, bn) < 0
		}
	})
}
