package execctx

import "strings"

// AliasMap maps every spelling FitNesse might use to name a method —
// underscored, lowerCamel, UpperCamel — to the canonical Go method name
// reflect actually knows about. It is built once per class and shared
// by every instance of that class.
type AliasMap map[string]string

// BuildAliasMap derives an AliasMap from the set of exported Go method
// names on a fixture's concrete type. Go method names are already
// UpperCamel (reflection only sees exported names), so canonical here
// means "exactly as Go declared it"; the map adds the lowerCamel and
// underscored spellings a SLIM client is free to use instead.
func BuildAliasMap(methodNames []string) AliasMap {
	aliases := make(AliasMap, len(methodNames)*3)
	for _, m := range methodNames {
		aliases[m] = m
		aliases[lowerFirst(m)] = m
		aliases[Pythonic(m)] = m
	}
	return aliases
}

// Resolve looks up name under any of its three spellings and returns
// the canonical Go method name, or "", false if no method matches.
func (a AliasMap) Resolve(name string) (string, bool) {
	canonical, ok := a[name]
	return canonical, ok
}

// Pythonic converts a camel-cased name such as "GoToStore" into its
// underscored spelling "go_to_store": a '_' is inserted before every
// uppercase letter that isn't the first character, and the whole
// result is lowercased.
func Pythonic(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UpperCamel converts an underscored name such as "go_to_store" into
// "GoToStore": every letter following an underscore is capitalized,
// and the underscores are dropped.
func UpperCamel(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// LowerCamel converts an underscored name such as "go_to_store" into
// "goToStore".
func LowerCamel(name string) string {
	return lowerFirst(UpperCamel(name))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
