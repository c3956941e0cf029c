package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
)

func TestBuildPrefixTSQuery(t *testing.T) {
	assert.Equal(t, "스타:* & coffee:*", buildPrefixTSQuery("스타 Coffee"))
	assert.Equal(t, "a:* & b:*", buildPrefixTSQuery("a&b|!():*"))
	assert.Equal(t, "", buildPrefixTSQuery(" !? "))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%커피%", likePattern("커피"))
	assert.Equal(t, `%50\% off\_now\\%`, likePattern(`50% off_now\`))
}

func TestWherePredicates(t *testing.T) {
	preds := trademark.CompileFilters(trademark.FilterParams{
		Status:      "등록",
		ProductCode: "30",
		FromDate:    "20230101",
		ToDate:      "20231231",
		DateType:    "registrationDate",
	})

	q := newQueryBuilder()
	require.NoError(t, q.wherePredicates(preds))
	assert.Equal(t,
		"WHERE register_status = $1 AND $2 = ANY(product_main_codes) AND "+
			"EXISTS (SELECT 1 FROM unnest(registration_date) AS d WHERE d IS NOT NULL AND d >= $3 AND d <= $4)",
		q.where())
	require.Len(t, q.args, 4)
	assert.Equal(t, "등록", q.args[0])
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), q.args[2])
}

func TestWherePredicates_ScalarOpenRange(t *testing.T) {
	q := newQueryBuilder()
	require.NoError(t, q.wherePredicates(trademark.CompileFilters(trademark.FilterParams{ToDate: "20200101"})))
	assert.Equal(t, "WHERE application_date IS NOT NULL AND application_date <= $1", q.where())
}

func TestWherePredicates_MatchNone(t *testing.T) {
	q := newQueryBuilder()
	require.NoError(t, q.wherePredicates(trademark.CompileFilters(trademark.FilterParams{FromDate: "2023-01"})))
	assert.Equal(t, "WHERE FALSE", q.where())
	assert.Empty(t, q.args)
}

func TestWhere_Empty(t *testing.T) {
	q := newQueryBuilder()
	require.NoError(t, q.wherePredicates(nil))
	assert.Equal(t, "", q.where())
}

func TestTextCondition(t *testing.T) {
	q := newQueryBuilder()
	require.NoError(t, q.wherePredicates(trademark.Predicates{trademark.StatusEquals{Status: "등록"}}))
	score := q.textCondition(trademark.NewTextCondition("스타벅스", 0.3))

	assert.Contains(t, score, "GREATEST(")
	assert.Contains(t, score, "THEN 0.9 ELSE similarity(product_name, $2)")
	where := q.where()
	assert.Contains(t, where, "register_status = $1 AND (product_name ILIKE $3")
	assert.Contains(t, where, "similarity(product_name_eng, $2) >= $4")
	assert.Contains(t, where, "search_vector @@ to_tsquery('simple', $5)")
	assert.Contains(t, where, "$2 = ANY(registration_number))")
	assert.Equal(t, []interface{}{"등록", "스타벅스", "%스타벅스%", 0.3, "스타벅스:*"}, q.args)
}

func TestTextCondition_NoWords(t *testing.T) {
	q := newQueryBuilder()
	q.textCondition(trademark.NewTextCondition("!!", 0.3))
	assert.NotContains(t, q.where(), "to_tsquery")
	assert.Len(t, q.args, 3)
}
