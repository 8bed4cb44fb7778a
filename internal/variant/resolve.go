package variant

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MaxSuggestions bounds the member names carried by a ResolutionError.
const MaxSuggestions = 50

// Variant is a resolved catalog member.
type Variant struct {
	Catalog string `json:"catalog"`
	Member  Member `json:"member"`
}

// Name returns the member name.
func (v Variant) Name() string { return v.Member.Name }

// String returns the qualified form, e.g. "MaskType.线性".
func (v Variant) String() string { return v.Catalog + "." + v.Member.Name }

// IsZero reports whether v is unset.
func (v Variant) IsZero() bool { return v.Catalog == "" && v.Member.Name == "" }

// ResolutionError reports a raw string that names no member of the set.
type ResolutionError struct {
	Field       string
	Raw         string
	Suggestions []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: unknown value %q (valid values include: %s)",
		e.Field, e.Raw, strings.Join(e.Suggestions, ", "))
}

// Resolve maps raw onto a member of one of the set's catalogs.
//
// A "Catalog." prefix is stripped first; its catalog token is compared
// case-insensitively and, when it names a catalog in the set, restricts the
// search to that catalog. Member names then match exactly, catalog by catalog
// in set order, before falling back to display titles in the same order.
func Resolve(set Set, raw, label string) (Variant, error) {
	name := raw
	candidates := set.Catalogs
	if i := strings.LastIndex(raw, "."); i >= 0 {
		prefix := raw[:i]
		name = raw[i+1:]
		if c := catalogByPrefix(set.Catalogs, prefix); c != nil {
			candidates = []*Catalog{c}
		}
	}

	for _, c := range candidates {
		if m, ok := c.Lookup(name); ok {
			return Variant{Catalog: c.Name, Member: m}, nil
		}
	}

	want := displayKey(name)
	if want != "" {
		for _, c := range candidates {
			for _, m := range c.Members {
				if m.Title != "" && displayKey(m.Title) == want {
					return Variant{Catalog: c.Name, Member: m}, nil
				}
			}
		}
	}

	return Variant{}, newResolutionError(set, raw, label)
}

func newResolutionError(set Set, raw, label string) *ResolutionError {
	err := &ResolutionError{Field: label, Raw: raw}
	if len(set.Catalogs) > 0 {
		first := set.Catalogs[0]
		if err.Field == "" {
			err.Field = first.Name
		}
		names := first.Names()
		if len(names) > MaxSuggestions {
			names = names[:MaxSuggestions]
		}
		err.Suggestions = names
	}
	if err.Field == "" {
		err.Field = set.Name
	}
	return err
}

// catalogByPrefix returns the catalog in cs whose name case-folds to prefix.
// Casers carry state, so a fresh one is built per call.
func catalogByPrefix(cs []*Catalog, prefix string) *Catalog {
	fold := cases.Fold()
	p := fold.String(strings.TrimSpace(prefix))
	for _, c := range cs {
		if fold.String(c.Name) == p {
			return c
		}
	}
	return nil
}

func displayKey(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}
