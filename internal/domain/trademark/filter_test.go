package trademark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestCompileFilters_Empty(t *testing.T) {
	preds := CompileFilters(FilterParams{})
	assert.Empty(t, preds)
	assert.True(t, preds.Matches(&Trademark{}))
	assert.Equal(t, "TRUE", preds.String())
}

func TestCompileFilters_CanonicalOrder(t *testing.T) {
	preds := CompileFilters(FilterParams{
		FromDate:    "20200101",
		ProductCode: " 43 ",
		Status:      "등록",
	})
	require.Len(t, preds, 3)
	assert.Equal(t, StatusEquals{Status: "등록"}, preds[0])
	assert.Equal(t, ProductCodeIn{Code: "43"}, preds[1])
	assert.Equal(t, DateWithin{Field: DateFieldApplication, From: mustDate(t, "20200101")}, preds[2])
	assert.False(t, preds.Unsatisfiable())
}

func TestCompileFilters_DateType(t *testing.T) {
	preds := CompileFilters(FilterParams{ToDate: "20211231", DateType: "registrationDate"})
	require.Len(t, preds, 1)
	dw, ok := preds[0].(DateWithin)
	require.True(t, ok)
	assert.Equal(t, DateFieldRegistration, dw.Field)
	assert.True(t, dw.From.IsZero())
	assert.Equal(t, "registrationDate in [-inf, 20211231]", dw.String())
}

func TestCompileFilters_DateTypeIgnoredWithoutBounds(t *testing.T) {
	assert.Empty(t, CompileFilters(FilterParams{DateType: "bogus"}))
}

func TestCompileFilters_MalformedBecomesMatchNone(t *testing.T) {
	for _, p := range []FilterParams{
		{FromDate: "2020-01-01"},
		{ToDate: "20201341"},
		{FromDate: "abcdefgh"},
		{FromDate: "20200101", DateType: "expiryDate"},
	} {
		preds := CompileFilters(p)
		require.NotEmpty(t, preds, p)
		_, ok := preds[len(preds)-1].(MatchNone)
		assert.True(t, ok, p)
		assert.True(t, preds.Unsatisfiable(), p)
		assert.False(t, preds.Matches(&Trademark{ApplicationDate: mustDate(t, "20200101")}), p)
	}
}

func TestStatusEquals(t *testing.T) {
	p := StatusEquals{Status: "등록"}
	assert.True(t, p.Matches(&Trademark{RegisterStatus: "등록"}))
	assert.False(t, p.Matches(&Trademark{RegisterStatus: "출원"}))
	assert.False(t, p.Matches(&Trademark{}))
}

func TestProductCodeIn(t *testing.T) {
	p := ProductCodeIn{Code: "35"}
	assert.True(t, p.Matches(&Trademark{ProductMainCodes: []string{"43", "35"}}))
	assert.False(t, p.Matches(&Trademark{ProductMainCodes: []string{"43"}}))
	assert.False(t, p.Matches(&Trademark{}))
}

func TestDateWithin_Scalar(t *testing.T) {
	p := DateWithin{Field: DateFieldApplication, From: mustDate(t, "20200101"), To: mustDate(t, "20201231")}

	assert.True(t, p.Matches(&Trademark{ApplicationDate: mustDate(t, "20200101")}), "lower bound inclusive")
	assert.True(t, p.Matches(&Trademark{ApplicationDate: mustDate(t, "20201231")}), "upper bound inclusive")
	assert.False(t, p.Matches(&Trademark{ApplicationDate: mustDate(t, "20210101")}))
	assert.False(t, p.Matches(&Trademark{}), "missing date never matches")
}

func TestDateWithin_OpenEnded(t *testing.T) {
	from := DateWithin{Field: DateFieldPublication, From: mustDate(t, "20200101")}
	assert.True(t, from.Matches(&Trademark{PublicationDate: mustDate(t, "20990101")}))
	assert.False(t, from.Matches(&Trademark{PublicationDate: mustDate(t, "20191231")}))

	to := DateWithin{Field: DateFieldPublication, To: mustDate(t, "20200101")}
	assert.True(t, to.Matches(&Trademark{PublicationDate: mustDate(t, "19990101")}))
}

func TestDateWithin_ListFieldAnyElement(t *testing.T) {
	p := DateWithin{Field: DateFieldRegistration, From: mustDate(t, "20200101"), To: mustDate(t, "20201231")}
	rec := &Trademark{RegistrationDate: []Date{mustDate(t, "20150505"), mustDate(t, "20200615")}}
	assert.True(t, p.Matches(rec))

	rec.RegistrationDate = []Date{mustDate(t, "20150505")}
	assert.False(t, p.Matches(rec))
}

func TestDateWithin_InvertedRangeMatchesNothing(t *testing.T) {
	preds := CompileFilters(FilterParams{FromDate: "20211231", ToDate: "20200101"})
	require.Len(t, preds, 1)
	assert.False(t, preds.Unsatisfiable())
	for _, d := range []string{"20191231", "20200101", "20210101", "20211231", "20220101"} {
		assert.False(t, preds.Matches(&Trademark{ApplicationDate: mustDate(t, d)}), d)
	}
}

func TestPredicates_String(t *testing.T) {
	preds := Predicates{StatusEquals{Status: "등록"}, MatchNone{Reason: "bad date"}}
	assert.Equal(t, `registerStatus = "등록" AND FALSE (bad date)`, preds.String())
}
