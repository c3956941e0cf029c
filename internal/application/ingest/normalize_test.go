package ingest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
)

func decodeRaw(t *testing.T, s string) Raw {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var r Raw
	require.NoError(t, dec.Decode(&r))
	return r
}

func TestNormalize_FullRecord(t *testing.T) {
	raw := decodeRaw(t, `{
		"applicationNumber": "4020200000101",
		"productName": "스타벅스 커피",
		"productNameEng": "STARBUCKS COFFEE",
		"applicationDate": "20200105",
		"registerStatus": "등록",
		"publicationNumber": "null",
		"publicationDate": "",
		"registrationNumber": ["4012345670000", null, ""],
		"registrationDate": ["20200901", "20209999"],
		"asignProductMainCodeList": "30, 43,",
		"asignProductSubCodeList": null,
		"viennaCodeList": 270501,
		"internationalRegNumbers": "null"
	}`)
	var warned []string
	n := NewNormalizer(func(field, value string) { warned = append(warned, field+"="+value) })

	tm, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "4020200000101", tm.ApplicationNumber)
	assert.Equal(t, "스타벅스 커피", tm.ProductName)
	assert.Equal(t, "20200105", tm.ApplicationDate.String())
	assert.Empty(t, tm.PublicationNumber)
	assert.True(t, tm.PublicationDate.IsZero())
	assert.Equal(t, []string{"4012345670000"}, tm.RegistrationNumber)
	require.Len(t, tm.RegistrationDate, 1)
	assert.Equal(t, "20200901", tm.RegistrationDate[0].String())
	assert.Equal(t, []string{"30", "43"}, tm.ProductMainCodes)
	assert.Equal(t, []string{}, tm.ProductSubCodes)
	assert.Equal(t, []string{"270501"}, tm.ViennaCodeList)
	assert.Equal(t, []string{}, tm.InternationalRegNumbers)
	assert.Equal(t, []string{"registrationDate=20209999"}, warned)
}

func TestNormalize_BadScalarDate(t *testing.T) {
	var warned int
	n := NewNormalizer(func(string, string) { warned++ })
	tm, err := n.Normalize(Raw{"applicationNumber": "1", "applicationDate": "2020-1-5"})
	require.NoError(t, err)
	assert.True(t, tm.ApplicationDate.IsZero())
	assert.Equal(t, 1, warned)
}

func TestNormalize_MissingApplicationNumber(t *testing.T) {
	n := NewNormalizer(nil)
	for _, raw := range []Raw{{}, {"applicationNumber": "null"}, {"applicationNumber": "  "}} {
		_, err := n.Normalize(raw)
		assert.Error(t, err)
	}
}

func TestNormalize_NumericApplicationNumber(t *testing.T) {
	raw := decodeRaw(t, `{"applicationNumber": 4020200000101}`)
	tm, err := NewNormalizer(nil).Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "4020200000101", tm.ApplicationNumber)
}

func TestList(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want []string
	}{
		{"nil", nil, []string{}},
		{"list", []interface{}{"a", " b "}, []string{"a", "b"}},
		{"comma string", "a,b , ,c", []string{"a", "b", "c"}},
		{"null string", "null", []string{}},
		{"empty string", "", []string{}},
		{"number", json.Number("30"), []string{"30"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, list(tt.in))
		})
	}
}

func TestDatesKeepOrder(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.dates("priorityClaimDateList", "20200101,20190101")
	assert.Equal(t, []trademark.Date{
		{Year: 2020, Month: 1, Day: 1},
		{Year: 2019, Month: 1, Day: 1},
	}, got)
}
