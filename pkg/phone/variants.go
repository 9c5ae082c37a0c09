package phone

import (
	"fmt"
	"regexp"
	"strings"
)

var grouping = regexp.MustCompile(`(\+\d{1,3})(\d{3})(\d{3})(\d{4})`)

// Variants returns the distinct textual forms e164 may have been stored
// under. The result always contains e164 itself and its "+"-less form; NANP
// numbers additionally get their local and punctuated forms. Order is stable
// for a given input.
func Variants(e164 string) []string {
	digits := Digits(e164)
	local := Local10(e164)

	out := newOrderedSet()
	out.add(e164)
	out.add(strings.TrimPrefix(e164, "+"))
	out.add(digits)
	out.add(grouping.ReplaceAllString(e164, "$1 $2 $3 $4"))
	out.add(local)
	if digits != "" {
		out.add("+" + digits)
	}

	if local != "" {
		area, prefix, line := local[:3], local[3:6], local[6:]
		out.add(fmt.Sprintf("(%s) %s-%s", area, prefix, line))
		out.add(fmt.Sprintf("(%s)%s-%s", area, prefix, line))
		out.add(fmt.Sprintf("%s-%s-%s", area, prefix, line))
		out.add(fmt.Sprintf("%s %s %s", area, prefix, line))
		out.add(fmt.Sprintf("%s.%s.%s", area, prefix, line))
		out.add(area + prefix + line)
		out.add(fmt.Sprintf("+1-%s-%s-%s", area, prefix, line))
		out.add(fmt.Sprintf("+1 %s %s %s", area, prefix, line))
		out.add(fmt.Sprintf("+1 %s-%s-%s", area, prefix, line))
		out.add(fmt.Sprintf("+1 (%s) %s-%s", area, prefix, line))
		out.add(fmt.Sprintf("+1(%s) %s-%s", area, prefix, line))
	}

	return out.items
}

// Formatted returns the "(AAA) PPP-LLLL" and "AAA-PPP-LLLL" forms of a NANP
// number, or nil for anything else.
func Formatted(e164 string) []string {
	local := Local10(e164)
	if local == "" {
		return nil
	}
	area, prefix, line := local[:3], local[3:6], local[6:]
	return []string{
		fmt.Sprintf("(%s) %s-%s", area, prefix, line),
		fmt.Sprintf("%s-%s-%s", area, prefix, line),
	}
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
