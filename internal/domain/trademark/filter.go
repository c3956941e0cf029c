package trademark

import (
	"fmt"
	"strings"
)

// DateField names the record date a date-range filter applies to.
type DateField string

const (
	DateFieldApplication  DateField = "applicationDate"
	DateFieldRegistration DateField = "registrationDate"
	DateFieldPublication  DateField = "publicationDate"
)

// IsValid reports whether f names a filterable date field.
func (f DateField) IsValid() bool {
	switch f {
	case DateFieldApplication, DateFieldRegistration, DateFieldPublication:
		return true
	default:
		return false
	}
}

// IsList reports whether the field holds several dates per record.
func (f DateField) IsList() bool { return f == DateFieldRegistration }

// FilterParams are the raw filter values as received from a caller.  Dates
// are textual YYYYMMDD; an empty DateType selects applicationDate.
type FilterParams struct {
	Status      string `json:"status,omitempty"`
	ProductCode string `json:"product_code,omitempty"`
	FromDate    string `json:"from_date,omitempty"`
	ToDate      string `json:"to_date,omitempty"`
	DateType    string `json:"date_type,omitempty"`
}

// Predicate is one compiled filter constraint.  Backends that evaluate
// filters in-process call Matches; SQL and query-DSL backends switch on the
// concrete type and render the same semantics.
type Predicate interface {
	Matches(t *Trademark) bool
	String() string
}

// StatusEquals matches records whose registerStatus equals Status.
type StatusEquals struct {
	Status string
}

func (p StatusEquals) Matches(t *Trademark) bool { return t.RegisterStatus == p.Status }
func (p StatusEquals) String() string            { return fmt.Sprintf("registerStatus = %q", p.Status) }

// ProductCodeIn matches records whose main classification codes contain Code.
type ProductCodeIn struct {
	Code string
}

func (p ProductCodeIn) Matches(t *Trademark) bool { return t.HasProductCode(p.Code) }
func (p ProductCodeIn) String() string {
	return fmt.Sprintf("%q = ANY(asignProductMainCodeList)", p.Code)
}

// DateWithin matches records having at least one value of Field inside the
// inclusive range [From, To].  A zero bound leaves that side open.
type DateWithin struct {
	Field DateField
	From  Date
	To    Date
}

func (p DateWithin) Matches(t *Trademark) bool {
	for _, d := range t.DatesFor(p.Field) {
		if p.contains(d) {
			return true
		}
	}
	return false
}

func (p DateWithin) contains(d Date) bool {
	if d.IsZero() {
		return false
	}
	if !p.From.IsZero() && d.Compare(p.From) < 0 {
		return false
	}
	if !p.To.IsZero() && d.Compare(p.To) > 0 {
		return false
	}
	return true
}

func (p DateWithin) String() string {
	from, to := p.From.String(), p.To.String()
	if from == "" {
		from = "-inf"
	}
	if to == "" {
		to = "+inf"
	}
	return fmt.Sprintf("%s in [%s, %s]", p.Field, from, to)
}

// MatchNone never matches.  It stands in for a filter that could not be
// understood, such as a malformed date, so the query yields no rows instead
// of failing.
type MatchNone struct {
	Reason string
}

func (MatchNone) Matches(*Trademark) bool { return false }
func (p MatchNone) String() string        { return "FALSE (" + p.Reason + ")" }

// Predicates is an AND-composed list in canonical order: status, product
// code, date range.
type Predicates []Predicate

// Matches reports whether t satisfies every predicate.
func (ps Predicates) Matches(t *Trademark) bool {
	for _, p := range ps {
		if !p.Matches(t) {
			return false
		}
	}
	return true
}

// Unsatisfiable reports whether ps contains a MatchNone.
func (ps Predicates) Unsatisfiable() bool {
	for _, p := range ps {
		if _, ok := p.(MatchNone); ok {
			return true
		}
	}
	return false
}

func (ps Predicates) String() string {
	if len(ps) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}

// CompileFilters turns raw filter parameters into predicates.  It never
// fails: malformed dates and unknown date types compile to MatchNone.  An
// inverted range is kept as-is and simply matches nothing.
func CompileFilters(p FilterParams) Predicates {
	var out Predicates

	if s := strings.TrimSpace(p.Status); s != "" {
		out = append(out, StatusEquals{Status: s})
	}
	if c := strings.TrimSpace(p.ProductCode); c != "" {
		out = append(out, ProductCodeIn{Code: c})
	}

	fromRaw, toRaw := strings.TrimSpace(p.FromDate), strings.TrimSpace(p.ToDate)
	if fromRaw == "" && toRaw == "" {
		return out
	}

	field := DateField(strings.TrimSpace(p.DateType))
	if field == "" {
		field = DateFieldApplication
	}
	if !field.IsValid() {
		return append(out, MatchNone{Reason: fmt.Sprintf("unknown date type %q", p.DateType)})
	}

	dw := DateWithin{Field: field}
	if fromRaw != "" {
		d, err := ParseDate(fromRaw)
		if err != nil {
			return append(out, MatchNone{Reason: err.Error()})
		}
		dw.From = d
	}
	if toRaw != "" {
		d, err := ParseDate(toRaw)
		if err != nil {
			return append(out, MatchNone{Reason: err.Error()})
		}
		dw.To = d
	}
	return append(out, dw)
}
