package repositories

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
	appErrors "github.com/turtacn/trademark-search/pkg/errors"
)

var dateColumns = map[trademark.DateField]string{
	trademark.DateFieldApplication:  "application_date",
	trademark.DateFieldRegistration: "registration_date",
	trademark.DateFieldPublication:  "publication_date",
}

// queryBuilder accumulates WHERE conditions and their positional arguments.
type queryBuilder struct {
	conditions []string
	args       []interface{}
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{}
}

func (q *queryBuilder) nextArg(v interface{}) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *queryBuilder) where() string {
	if len(q.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(q.conditions, " AND ")
}

func (q *queryBuilder) wherePredicates(preds trademark.Predicates) error {
	for _, p := range preds {
		cond, err := q.predicate(p)
		if err != nil {
			return err
		}
		q.conditions = append(q.conditions, cond)
	}
	return nil
}

func (q *queryBuilder) predicate(p trademark.Predicate) (string, error) {
	switch p := p.(type) {
	case trademark.StatusEquals:
		return "register_status = " + q.nextArg(p.Status), nil
	case trademark.ProductCodeIn:
		return q.nextArg(p.Code) + " = ANY(product_main_codes)", nil
	case trademark.DateWithin:
		col, ok := dateColumns[p.Field]
		if !ok {
			return "FALSE", nil
		}
		if p.Field.IsList() {
			return fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(%s) AS d WHERE %s)", col, q.dateRange("d", p)), nil
		}
		return q.dateRange(col, p), nil
	case trademark.MatchNone:
		return "FALSE", nil
	default:
		return "", appErrors.Newf(appErrors.CodeInvalidParam, "unsupported predicate %T", p)
	}
}

func (q *queryBuilder) dateRange(col string, p trademark.DateWithin) string {
	parts := []string{col + " IS NOT NULL"}
	if !p.From.IsZero() {
		parts = append(parts, col+" >= "+q.nextArg(p.From.Time()))
	}
	if !p.To.IsZero() {
		parts = append(parts, col+" <= "+q.nextArg(p.To.Time()))
	}
	return strings.Join(parts, " AND ")
}

// textCondition adds the match condition for cond and returns the score
// expression selected for ranking.
func (q *queryBuilder) textCondition(cond *trademark.TextCondition) string {
	phQuery := q.nextArg(cond.Query)
	phLike := q.nextArg(likePattern(cond.Query))
	phMin := q.nextArg(cond.MinSimilarity)

	nameScore := func(col string) string {
		return fmt.Sprintf("CASE WHEN %[1]s ILIKE %[2]s THEN %[3]s ELSE similarity(%[1]s, %[4]s) END",
			col, phLike, containment, phQuery)
	}
	score := fmt.Sprintf("GREATEST(%s, %s)::float8", nameScore("product_name"), nameScore("product_name_eng"))

	alternatives := []string{
		"product_name ILIKE " + phLike,
		"product_name_eng ILIKE " + phLike,
		fmt.Sprintf("similarity(product_name, %s) >= %s", phQuery, phMin),
		fmt.Sprintf("similarity(product_name_eng, %s) >= %s", phQuery, phMin),
	}
	if tsq := buildPrefixTSQuery(cond.Query); tsq != "" {
		alternatives = append(alternatives, "search_vector @@ to_tsquery('simple', "+q.nextArg(tsq)+")")
	}
	alternatives = append(alternatives,
		"application_number ILIKE "+phLike,
		phQuery+" = ANY(registration_number)",
	)
	q.conditions = append(q.conditions, "("+strings.Join(alternatives, " OR ")+")")
	return score
}

var containment = strconv.FormatFloat(trademark.ContainmentScore, 'f', -1, 64)

// buildPrefixTSQuery turns free text into a prefix tsquery that requires
// every word, e.g. "스타 coffee" -> "스타:* & coffee:*".  Punctuation is
// dropped so the result always parses.
func buildPrefixTSQuery(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		words[i] = w + ":*"
	}
	return strings.Join(words, " & ")
}

// likePattern returns an ILIKE pattern matching text anywhere, with LIKE
// metacharacters escaped.
func likePattern(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(text) + "%"
}
