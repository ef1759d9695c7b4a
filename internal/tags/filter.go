// Package tags filters resource tags against configurable rule sets and
// renders them into the single tag field of a record.
package tags

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// ReservedPrefix marks tags owned by cmon itself; they always pass.
const ReservedPrefix = "cmon:"

// DefaultRule names the rule set used when a selector is absent or unknown.
const DefaultRule = "default"

const wildcard = "*"

var (
	droppedKeys   = []string{"", "--"}
	droppedValues = []string{"", "--", "unknown", "Unknown"}
	renderClean   = strings.NewReplacer("\t", " ", "=", "")
)

// Rule is a tag-retention policy as it appears in settings.
type Rule struct {
	Include  []string            `json:"Include"`
	Prefixes []string            `json:"Prefixes"`
	Suffixes []string            `json:"Suffixes"`
	Aliases  map[string][]string `json:"Aliases"`
}

// Tag is a raw provider tag. A nil Key or Value is a non-string entry.
type Tag struct {
	Key   *string
	Value *string
}

// Pair builds a Tag from plain strings.
func Pair(k, v string) Tag {
	return Tag{Key: &k, Value: &v}
}

// Filter is a compiled Rule.
type Filter struct {
	all      bool
	include  map[string]bool
	prefixes []string
	suffixes []string
	aliases  map[string][]string
}

// Compile derives a Filter from r, adding the reserved prefix.
func Compile(r Rule) *Filter {
	return &Filter{
		all:      lo.Contains(r.Include, wildcard),
		include:  lo.SliceToMap(r.Include, func(k string) (string, bool) { return k, true }),
		prefixes: append([]string{ReservedPrefix}, r.Prefixes...),
		suffixes: append([]string(nil), r.Suffixes...),
		aliases:  r.Aliases,
	}
}

func (f *Filter) accepts(k string) bool {
	if f.all || f.include[k] {
		return true
	}
	for _, p := range f.prefixes {
		if strings.HasPrefix(k, p) {
			return true
		}
	}
	for _, s := range f.suffixes {
		if strings.HasSuffix(k, s) {
			return true
		}
	}
	return false
}

// Apply returns the retained tags. Placeholder and empty entries are dropped
// first; aliases then fill canonical names that were not retained directly.
func (f *Filter) Apply(raw []Tag) map[string]string {
	kept := make(map[string]string, len(raw))
	out := make(map[string]string)
	for _, t := range raw {
		if t.Key == nil || t.Value == nil {
			continue
		}
		k, v := *t.Key, *t.Value
		if lo.Contains(droppedKeys, k) || lo.Contains(droppedValues, v) {
			continue
		}
		kept[k] = v
		if f.accepts(k) {
			out[k] = v
		}
	}
	for name, sources := range f.aliases {
		if _, ok := out[name]; ok {
			continue
		}
		for _, src := range sources {
			if v, ok := kept[src]; ok {
				out[name] = v
				break
			}
		}
	}
	return out
}

// Render joins tags as tab-separated k=v pairs in key order.
func Render(t map[string]string) string {
	keys := lo.Keys(t)
	sort.Strings(keys)
	return strings.Join(lo.Map(keys, func(k string, _ int) string {
		return renderClean.Replace(k) + "=" + renderClean.Replace(t[k])
	}), "\t")
}

// Set holds the filters for one invocation, resolved per account.
type Set struct {
	filters   map[string]*Filter
	selectors map[string]string
	empty     *Filter
}

// NewSet compiles every rule set once. selectors maps an account to a rule name.
func NewSet(rules map[string]Rule, selectors map[string]string) *Set {
	return &Set{
		filters:   lo.MapValues(rules, func(r Rule, _ string) *Filter { return Compile(r) }),
		selectors: selectors,
		empty:     Compile(Rule{}),
	}
}

// For returns the filter for account. Unknown selectors fall back to the
// default rule set, and a missing default keeps reserved tags only.
func (s *Set) For(account string) *Filter {
	if f, ok := s.filters[s.selectors[account]]; ok {
		return f
	}
	if f, ok := s.filters[DefaultRule]; ok {
		return f
	}
	return s.empty
}
