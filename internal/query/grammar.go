package query

import "regexp"

var (
	filterPattern = regexp.MustCompile(`^(?P<property>\w+)(?P<operator>:(eq|ne|lt|le|gt|ge):)(?P<value>.+)$`)
	sortPattern   = regexp.MustCompile(`^(?P<desc>-?)(?P<field>\w+)$`)
)

var (
	filterProperty = filterPattern.SubexpIndex("property")
	filterOperator = filterPattern.SubexpIndex("operator")
	filterValue    = filterPattern.SubexpIndex("value")
	sortDesc       = sortPattern.SubexpIndex("desc")
	sortField      = sortPattern.SubexpIndex("field")
)

// Operator is a comparison operator token, including its colons.
type Operator string

const (
	Eq Operator = ":eq:"
	Ne Operator = ":ne:"
	Lt Operator = ":lt:"
	Le Operator = ":le:"
	Gt Operator = ":gt:"
	Ge Operator = ":ge:"
)

// Ordered reports whether o needs an ordering rather than plain equality.
func (o Operator) Ordered() bool {
	return o == Lt || o == Le || o == Gt || o == Ge
}

// FilterTerm is a parsed property:op:value term.
type FilterTerm struct {
	Raw      string
	Property string
	Operator Operator
	Value    string
}

// SortTerm is a parsed [-]field term.
type SortTerm struct {
	Raw        string
	Field      string
	Descending bool
}

func parseFilter(term string) (FilterTerm, bool) {
	m := filterPattern.FindStringSubmatch(term)
	if m == nil {
		return FilterTerm{}, false
	}
	return FilterTerm{
		Raw:      term,
		Property: m[filterProperty],
		Operator: Operator(m[filterOperator]),
		Value:    m[filterValue],
	}, true
}

func parseSort(term string) (SortTerm, bool) {
	m := sortPattern.FindStringSubmatch(term)
	if m == nil {
		return SortTerm{}, false
	}
	return SortTerm{
		Raw:        term,
		Field:      m[sortField],
		Descending: m[sortDesc] == "-",
	}, true
}

// FilterTerms parses the filter terms of p. Params only holds terms that
// passed validation, so every term parses.
func (p Params) FilterTerms() []FilterTerm {
	terms := make([]FilterTerm, 0, len(p.filter))
	for _, raw := range p.filter {
		if t, ok := parseFilter(raw); ok {
			terms = append(terms, t)
		}
	}
	return terms
}

// SortTerms parses the sort terms of p.
func (p Params) SortTerms() []SortTerm {
	terms := make([]SortTerm, 0, len(p.sort))
	for _, raw := range p.sort {
		if t, ok := parseSort(raw); ok {
			terms = append(terms, t)
		}
	}
	return terms
}
