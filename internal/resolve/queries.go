package resolve

import (
	"strings"
	"unicode/utf8"

	"github.com/sells-group/ringstreak/internal/model"
	"github.com/sells-group/ringstreak/pkg/phone"
)

// SeedQueries returns the phone-number searches issued first: the E.164
// form, the bare digits, the last ten digits, "+1" plus the last ten digits,
// and for NANP numbers the two common formatted forms.
func SeedQueries(e164 string) []string {
	q := newQuerySet()
	digits := phone.Digits(e164)
	last10 := phone.Last10(digits)

	q.add(e164)
	q.add(digits)
	q.add(last10)
	if len(last10) == 10 {
		q.add("+1" + last10)
	}
	for _, f := range phone.Formatted(e164) {
		q.add(f)
	}
	return q.items
}

// freeMailDomains are consumer mail hosts; searching them matches everyone.
var freeMailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"live.com":       true,
	"msn.com":        true,
	"icloud.com":     true,
	"me.com":         true,
	"aol.com":        true,
	"proton.me":      true,
	"protonmail.com": true,
	"gmx.com":        true,
}

// SecondaryQueries returns the recall-broadening searches for a resolved
// person: organization, full name, each name token of two or more
// characters, email address, and email domain. Queries already in issued
// are dropped.
func SecondaryQueries(p model.Person, issued []string, skipFreeMail bool) []string {
	seen := newQuerySet()
	for _, q := range issued {
		seen.add(q)
	}
	before := len(seen.items)

	seen.add(p.Organization)
	seen.add(p.Name)
	for _, tok := range strings.Fields(p.Name) {
		if utf8.RuneCountInString(tok) >= 2 {
			seen.add(tok)
		}
	}
	if email := strings.TrimSpace(p.Email); email != "" {
		seen.add(email)
		if _, domain, ok := strings.Cut(email, "@"); ok {
			domain = strings.ToLower(domain)
			if !skipFreeMail || !freeMailDomains[domain] {
				seen.add(domain)
			}
		}
	}
	return seen.items[before:]
}

// querySet is an insertion-ordered, case-insensitive set of queries.
type querySet struct {
	seen  map[string]bool
	items []string
}

func newQuerySet() *querySet {
	return &querySet{seen: make(map[string]bool)}
}

func (s *querySet) add(q string) {
	q = strings.TrimSpace(q)
	if q == "" {
		return
	}
	k := strings.ToLower(q)
	if s.seen[k] {
		return
	}
	s.seen[k] = true
	s.items = append(s.items, q)
}
