package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
)

// Raw is one undecoded source record.
type Raw map[string]interface{}

// Source field names.
const (
	fieldApplicationNumber       = "applicationNumber"
	fieldProductName             = "productName"
	fieldProductNameEng          = "productNameEng"
	fieldApplicationDate         = "applicationDate"
	fieldRegisterStatus          = "registerStatus"
	fieldPublicationNumber       = "publicationNumber"
	fieldPublicationDate         = "publicationDate"
	fieldRegistrationNumber      = "registrationNumber"
	fieldRegistrationDate        = "registrationDate"
	fieldRegistrationPubNumber   = "registrationPubNumber"
	fieldRegistrationPubDate     = "registrationPubDate"
	fieldInternationalRegNumbers = "internationalRegNumbers"
	fieldInternationalRegDate    = "internationalRegDate"
	fieldPriorityClaimNumList    = "priorityClaimNumList"
	fieldPriorityClaimDateList   = "priorityClaimDateList"
	fieldProductMainCodes        = "asignProductMainCodeList"
	fieldProductSubCodes         = "asignProductSubCodeList"
	fieldViennaCodeList          = "viennaCodeList"
)

// Normalizer turns source records into trademarks.  Absent, null, "null" and
// "" values all mean "no value".  Dates are YYYYMMDD; a malformed date is
// dropped and reported as a warning.  List fields accept a list, a comma
// separated string or a single scalar.
type Normalizer struct {
	warn func(field, value string)
}

// NewNormalizer returns a Normalizer reporting dropped values to warn, which
// may be nil.
func NewNormalizer(warn func(field, value string)) *Normalizer {
	if warn == nil {
		warn = func(string, string) {}
	}
	return &Normalizer{warn: warn}
}

// Normalize converts r.  It fails only when the record has no application
// number.
func (n *Normalizer) Normalize(r Raw) (*trademark.Trademark, error) {
	t := &trademark.Trademark{
		ApplicationNumber: scalar(r[fieldApplicationNumber]),
		ProductName:       scalar(r[fieldProductName]),
		ProductNameEng:    scalar(r[fieldProductNameEng]),
		RegisterStatus:    scalar(r[fieldRegisterStatus]),
		PublicationNumber: scalar(r[fieldPublicationNumber]),

		RegistrationPubNumber: scalar(r[fieldRegistrationPubNumber]),

		ApplicationDate:      n.date(fieldApplicationDate, r[fieldApplicationDate]),
		PublicationDate:      n.date(fieldPublicationDate, r[fieldPublicationDate]),
		RegistrationPubDate:  n.date(fieldRegistrationPubDate, r[fieldRegistrationPubDate]),
		InternationalRegDate: n.date(fieldInternationalRegDate, r[fieldInternationalRegDate]),

		RegistrationNumber:      list(r[fieldRegistrationNumber]),
		RegistrationDate:        n.dates(fieldRegistrationDate, r[fieldRegistrationDate]),
		InternationalRegNumbers: list(r[fieldInternationalRegNumbers]),
		PriorityClaimNumList:    list(r[fieldPriorityClaimNumList]),
		PriorityClaimDateList:   n.dates(fieldPriorityClaimDateList, r[fieldPriorityClaimDateList]),
		ProductMainCodes:        list(r[fieldProductMainCodes]),
		ProductSubCodes:         list(r[fieldProductSubCodes]),
		ViennaCodeList:          list(r[fieldViennaCodeList]),
	}
	if t.ApplicationNumber == "" {
		return nil, fmt.Errorf("record has no %s", fieldApplicationNumber)
	}
	return t, nil
}

func (n *Normalizer) date(field string, v interface{}) trademark.Date {
	s := scalar(v)
	if s == "" {
		return trademark.Date{}
	}
	d, err := trademark.ParseDate(s)
	if err != nil {
		n.warn(field, s)
		return trademark.Date{}
	}
	return d
}

func (n *Normalizer) dates(field string, v interface{}) []trademark.Date {
	items := list(v)
	out := make([]trademark.Date, 0, len(items))
	for _, s := range items {
		d, err := trademark.ParseDate(s)
		if err != nil {
			n.warn(field, s)
			continue
		}
		out = append(out, d)
	}
	return out
}

// scalar renders a JSON scalar as text.
func scalar(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(x)
		if s == "null" {
			return ""
		}
		return s
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	case []interface{}:
		// A one-element list where a scalar is expected.
		if len(x) == 1 {
			return scalar(x[0])
		}
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// list normalises a list field.
func list(v interface{}) []string {
	switch x := v.(type) {
	case nil:
		return []string{}
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s := scalar(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		out := []string{}
		if strings.TrimSpace(x) == "null" {
			return out
		}
		for _, part := range strings.Split(x, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := scalar(x); s != "" {
			return []string{s}
		}
		return []string{}
	}
}
