// Package trademark holds the trademark registry entity and the pure matching
// logic used by the search engine: initial-consonant transcoding, similarity
// scoring, fuzzy matching and filter compilation.  Nothing in this package
// performs I/O.
package trademark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the textual form of a Date on the wire and in source data.
const DateLayout = "20060102"

// Date is a calendar date without a time of day.  The zero value means "no
// date".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYYMMDD string into a Date.  The input must be exactly
// eight digits naming a valid calendar day.
func ParseDate(s string) (Date, error) {
	if len(s) != len(DateLayout) {
		return Date{}, fmt.Errorf("trademark: date %q must be YYYYMMDD", s)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("trademark: invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) key() int { return d.Year*10000 + int(d.Month)*100 + d.Day }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Date) Compare(o Date) int {
	switch a, b := d.key(), o.key(); {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String renders d as YYYYMMDD, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes d as "YYYYMMDD", or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYYMMDD", "YYYY-MM-DD", "", "null" and null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("trademark: date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(strings.ReplaceAll(s, "-", ""))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Trademark is one registry record.  Records are immutable once loaded; the
// search engine only reads them.
type Trademark struct {
	ApplicationNumber string `json:"applicationNumber"`
	ProductName       string `json:"productName"`
	ProductNameEng    string `json:"productNameEng"`
	ApplicationDate   Date   `json:"applicationDate"`
	RegisterStatus    string `json:"registerStatus"`

	PublicationNumber string `json:"publicationNumber"`
	PublicationDate   Date   `json:"publicationDate"`

	RegistrationNumber []string `json:"registrationNumber"`
	RegistrationDate   []Date   `json:"registrationDate"`

	RegistrationPubNumber string `json:"registrationPubNumber"`
	RegistrationPubDate   Date   `json:"registrationPubDate"`

	InternationalRegNumbers []string `json:"internationalRegNumbers"`
	InternationalRegDate    Date     `json:"internationalRegDate"`
	PriorityClaimNumList    []string `json:"priorityClaimNumList"`
	PriorityClaimDateList   []Date   `json:"priorityClaimDateList"`

	ProductMainCodes []string `json:"asignProductMainCodeList"`
	ProductSubCodes  []string `json:"asignProductSubCodeList"`
	ViennaCodeList   []string `json:"viennaCodeList"`
}

// Names returns the searchable name fields in priority order, skipping empty
// ones.
func (t *Trademark) Names() []string {
	names := make([]string, 0, 2)
	if t.ProductName != "" {
		names = append(names, t.ProductName)
	}
	if t.ProductNameEng != "" {
		names = append(names, t.ProductNameEng)
	}
	return names
}

// DatesFor returns the values of the date field named by f.  Unset scalar
// dates yield an empty slice.
func (t *Trademark) DatesFor(f DateField) []Date {
	switch f {
	case DateFieldApplication:
		return nonZero(t.ApplicationDate)
	case DateFieldPublication:
		return nonZero(t.PublicationDate)
	case DateFieldRegistration:
		return t.RegistrationDate
	default:
		return nil
	}
}

func nonZero(d Date) []Date {
	if d.IsZero() {
		return nil
	}
	return []Date{d}
}

// HasProductCode reports whether code is one of the main classification codes.
func (t *Trademark) HasProductCode(code string) bool {
	for _, c := range t.ProductMainCodes {
		if c == code {
			return true
		}
	}
	return false
}

// Match is a record annotated with a transient relevance score in [0, 1].
type Match struct {
	Trademark *Trademark `json:"trademark"`
	Score     float64    `json:"score"`
}
