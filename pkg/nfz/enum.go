// Package nfz holds the vocabulary of the NFZ contracts API: the fixed
// branch and service enumerations, the run configuration, and the page
// envelopes returned by the agreements and providers endpoints.
package nfz

import (
	"sort"

	"golang.org/x/text/cases"
)

// fold returns the case-folded form of s. Casers are stateful, so each
// call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// lookupTable maps codes to names and folded names back to codes.
// Both directions are built once from the same entries.
type lookupTable struct {
	codeToName map[string]string
	nameToCode map[string]string
	codes      []string
}

func newLookupTable(entries [][2]string) lookupTable {
	t := lookupTable{
		codeToName: make(map[string]string, len(entries)),
		nameToCode: make(map[string]string, len(entries)),
		codes:      make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		t.codeToName[e[0]] = e[1]
		t.nameToCode[fold(e[1])] = e[0]
		t.codes = append(t.codes, e[0])
	}
	sort.Strings(t.codes)
	return t
}

func (t lookupTable) name(code string) (string, bool) {
	n, ok := t.codeToName[code]
	return n, ok
}

func (t lookupTable) code(name string) (string, bool) {
	c, ok := t.nameToCode[fold(name)]
	return c, ok
}

// resolve accepts either a code or a name.
func (t lookupTable) resolve(v string) (string, bool) {
	if _, ok := t.codeToName[v]; ok {
		return v, true
	}
	return t.code(v)
}
