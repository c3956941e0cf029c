package opensearch

import (
	"strings"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
)

// Document field names.  They follow the record's JSON encoding.
const (
	fieldAppNumber      = "applicationNumber"
	fieldProductName    = "productName"
	fieldProductNameEng = "productNameEng"
	fieldStatus         = "registerStatus"
	fieldProductCodes   = "asignProductMainCodeList"
	fieldRegNumber      = "registrationNumber"
)

type m = map[string]interface{}

// filterClauses renders predicates as bool filter clauses.
func filterClauses(preds trademark.Predicates) []interface{} {
	out := make([]interface{}, 0, len(preds))
	for _, p := range preds {
		out = append(out, predicateClause(p))
	}
	return out
}

func predicateClause(p trademark.Predicate) interface{} {
	switch v := p.(type) {
	case trademark.StatusEquals:
		return m{"term": m{fieldStatus: v.Status}}
	case trademark.ProductCodeIn:
		return m{"term": m{fieldProductCodes: v.Code}}
	case trademark.DateWithin:
		field := string(v.Field)
		if v.From.IsZero() && v.To.IsZero() {
			return m{"exists": m{"field": field}}
		}
		r := m{"format": "basic_date"}
		if !v.From.IsZero() {
			r["gte"] = v.From.String()
		}
		if !v.To.IsZero() {
			r["lte"] = v.To.String()
		}
		return m{"range": m{field: r}}
	default:
		return m{"match_none": m{}}
	}
}

// textClauses is the recall query for a text condition: any clause that can
// make TextCondition.Evaluate accept a record.  Trigram recall is a superset
// of the similarity threshold since a positive Jaccard index needs a shared
// trigram.
func textClauses(cond *trademark.TextCondition) []interface{} {
	q := strings.ToLower(cond.Query)
	contains := "*" + escapeWildcard(q) + "*"
	wildcard := func(field string) interface{} {
		return m{"wildcard": m{field: m{"value": contains, "case_insensitive": true}}}
	}
	return []interface{}{
		wildcard(fieldProductName + ".keyword"),
		wildcard(fieldProductNameEng + ".keyword"),
		m{"match": m{fieldProductName + ".trigram": m{"query": q}}},
		m{"match": m{fieldProductNameEng + ".trigram": m{"query": q}}},
		wildcard(fieldAppNumber),
		m{"term": m{fieldRegNumber: cond.Query}},
	}
}

func escapeWildcard(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
	return r.Replace(s)
}

// boolQuery combines filters with an optional text condition.
func boolQuery(cond *trademark.TextCondition, preds trademark.Predicates) interface{} {
	b := m{}
	if len(preds) > 0 {
		b["filter"] = filterClauses(preds)
	}
	if cond != nil {
		b["should"] = textClauses(cond)
		b["minimum_should_match"] = 1
	}
	if len(b) == 0 {
		return m{"match_all": m{}}
	}
	return m{"bool": b}
}

// pageBody is an application-number ordered page.
func pageBody(preds trademark.Predicates, offset, size int) m {
	return m{
		"query":            boolQuery(nil, preds),
		"sort":             []interface{}{m{fieldAppNumber: m{"order": "asc"}}},
		"from":             offset,
		"size":             size,
		"track_total_hits": true,
	}
}

// recallBody fetches every record the text condition could accept, up to size.
func recallBody(cond *trademark.TextCondition, preds trademark.Predicates, size int) m {
	return m{
		"query":            boolQuery(cond, preds),
		"size":             size,
		"track_total_hits": true,
	}
}

func distinctBody(field trademark.DistinctField) m {
	return m{
		"size": 0,
		"aggs": m{
			"values": m{
				"terms": m{
					"field": string(field),
					"size":  10000,
					"order": m{"_key": "asc"},
				},
			},
		},
	}
}
