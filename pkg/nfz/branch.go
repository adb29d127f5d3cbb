package nfz

// Branch is a two-digit regional office code of the NFZ.
type Branch string

// Regional branches.
const (
	Dolnoslaskie       Branch = "01"
	KujawskoPomorskie  Branch = "02"
	Lubelskie          Branch = "03"
	Lubuskie           Branch = "04"
	Lodzkie            Branch = "05"
	Malopolskie        Branch = "06"
	Mazowieckie        Branch = "07"
	Opolskie           Branch = "08"
	Podkarpackie       Branch = "09"
	Podlaskie          Branch = "10"
	Pomorskie          Branch = "11"
	Slaskie            Branch = "12"
	Swietokrzyskie     Branch = "13"
	WarminskoMazurskie Branch = "14"
	Wielkopolskie      Branch = "15"
	Zachodniopomorskie Branch = "16"
)

var branches = newLookupTable([][2]string{
	{"01", "Dolnoslaskie"},
	{"02", "KujawskoPomorskie"},
	{"03", "Lubelskie"},
	{"04", "Lubuskie"},
	{"05", "Lodzkie"},
	{"06", "Malopolskie"},
	{"07", "Mazowieckie"},
	{"08", "Opolskie"},
	{"09", "Podkarpackie"},
	{"10", "Podlaskie"},
	{"11", "Pomorskie"},
	{"12", "Slaskie"},
	{"13", "Swietokrzyskie"},
	{"14", "WarminskoMazurskie"},
	{"15", "Wielkopolskie"},
	{"16", "Zachodniopomorskie"},
})

// BranchName returns the region name of a branch code.
func BranchName(code string) (string, bool) {
	return branches.name(code)
}

// BranchCode returns the code of a region name, ignoring case.
func BranchCode(name string) (string, bool) {
	return branches.code(name)
}

// ParseBranch accepts a branch code or region name.
func ParseBranch(v string) (Branch, bool) {
	code, ok := branches.resolve(v)
	return Branch(code), ok
}

// Branches returns every branch in code order.
func Branches() []Branch {
	out := make([]Branch, 0, len(branches.codes))
	for _, c := range branches.codes {
		out = append(out, Branch(c))
	}
	return out
}

// Valid reports whether b is a known branch.
func (b Branch) Valid() bool {
	_, ok := branches.name(string(b))
	return ok
}

// Name returns the region name, or the raw code when unknown.
func (b Branch) Name() string {
	if n, ok := branches.name(string(b)); ok {
		return n
	}
	return string(b)
}

// String returns the branch code.
func (b Branch) String() string {
	return string(b)
}
