package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-search/pkg/errors"
)

type pageJSON struct {
	Total   int64  `json:"total"`
	Offset  int    `json:"offset"`
	Limit   int    `json:"limit"`
	Route   string `json:"route"`
	Results []struct {
		Score     float64 `json:"score"`
		Trademark struct {
			ApplicationNumber string `json:"applicationNumber"`
			ProductName       string `json:"productName"`
			RegisterStatus    string `json:"registerStatus"`
		} `json:"trademark"`
	} `json:"results"`
}

func TestSearchCommand_JSONWithStatusFilter(t *testing.T) {
	cfg := writeConfig(t, writeDataset(t), "")

	out, _, err := execute(t, "--config", cfg, "-o", "json", "search", "커피", "--status", "등록")
	require.NoError(t, err)

	var page pageJSON
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, "keyword", page.Route)

	ids := make([]string, 0, len(page.Results))
	for _, r := range page.Results {
		assert.Equal(t, "등록", r.Trademark.RegisterStatus)
		ids = append(ids, r.Trademark.ApplicationNumber)
	}
	assert.Contains(t, ids, "4020200000101")
	assert.Contains(t, ids, "4020210000202")
	assert.NotContains(t, ids, "4020220000303")
}

func TestSearchCommand_InitialConsonantsText(t *testing.T) {
	cfg := writeConfig(t, writeDataset(t), "")

	out, _, err := execute(t, "--config", cfg, "search", "ㅅㅌㅂㅅ")
	require.NoError(t, err)
	assert.Contains(t, out, "스타벅스 커피")
	assert.Contains(t, out, "4020200000101")
	assert.Contains(t, out, "route initial_consonant")
}

func TestSearchCommand_EmptyQueryListsAllInOrder(t *testing.T) {
	cfg := writeConfig(t, writeDataset(t), "")

	out, _, err := execute(t, "--config", cfg, "-o", "json", "search", "--limit", "10")
	require.NoError(t, err)

	var page pageJSON
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, "match_all", page.Route)
	assert.EqualValues(t, 5, page.Total)
	require.Len(t, page.Results, 5)
	for i := 1; i < len(page.Results); i++ {
		assert.Less(t, page.Results[i-1].Trademark.ApplicationNumber, page.Results[i].Trademark.ApplicationNumber)
	}
}

func TestSearchCommand_Pagination(t *testing.T) {
	cfg := writeConfig(t, writeDataset(t), "")

	out, _, err := execute(t, "--config", cfg, "-o", "json", "search", "--limit", "2", "--offset", "4")
	require.NoError(t, err)

	var page pageJSON
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.EqualValues(t, 5, page.Total)
	assert.Equal(t, 4, page.Offset)
	assert.Len(t, page.Results, 1)
}

func TestSearchCommand_InvertedDateRangeIsEmpty(t *testing.T) {
	cfg := writeConfig(t, writeDataset(t), "")

	out, _, err := execute(t, "--config", cfg, "search", "--from", "20231231", "--to", "20200101")
	require.NoError(t, err)
	assert.Contains(t, out, "No trademarks found.")
	assert.Contains(t, out, "Showing 0 of 0")
}

func TestSearchCommand_Table(t *testing.T) {
	cfg := writeConfig(t, writeDataset(t), "")

	out, _, err := execute(t, "--config", cfg, "-o", "table", "search", "스타")
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(out), "APPLICATION NO")
	assert.Contains(t, out, "4020200000101")
	assert.Contains(t, out, "4020230000404")
}

func TestGetCommand(t *testing.T) {
	cfg := writeConfig(t, writeDataset(t), "")

	out, _, err := execute(t, "--config", cfg, "get", "4020200000101")
	require.NoError(t, err)
	assert.Contains(t, out, "STARBUCKS COFFEE")
	assert.Contains(t, out, "20200901")

	out, _, err = execute(t, "--config", cfg, "-o", "json", "get", "4020230000404")
	require.NoError(t, err)
	var tm map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &tm))
	assert.Equal(t, "스타필드", tm["productName"])
}

func TestGetCommand_NotFound(t *testing.T) {
	cfg := writeConfig(t, writeDataset(t), "")

	_, _, err := execute(t, "--config", cfg, "get", "0000000000000")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeTrademarkNotFound))
}

func TestGetCommand_RequiresOneArgument(t *testing.T) {
	cfg := writeConfig(t, writeDataset(t), "")
	_, _, err := execute(t, "--config", cfg, "get")
	assert.Error(t, err)
}

func TestMetaCommand(t *testing.T) {
	cfg := writeConfig(t, writeDataset(t), "")

	out, _, err := execute(t, "--config", cfg, "meta", "statuses")
	require.NoError(t, err)
	assert.Equal(t, "거절\n등록\n출원\n", out)

	out, _, err = execute(t, "--config", cfg, "-o", "json", "meta", "product-codes")
	require.NoError(t, err)
	var codes []string
	require.NoError(t, json.Unmarshal([]byte(out), &codes))
	assert.Equal(t, []string{"09", "30", "35", "43"}, codes)
}
