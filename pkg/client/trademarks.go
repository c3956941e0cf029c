package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/turtacn/trademark-search/pkg/errors"
)

// Date values on the wire are "YYYYMMDD" strings or null.

// SearchResult is one ranked hit of a search.
type SearchResult struct {
	ApplicationNumber  string    `json:"applicationNumber"`
	ProductName        *string   `json:"productName"`
	ProductNameEng     *string   `json:"productNameEng"`
	ApplicationDate    *string   `json:"applicationDate"`
	RegisterStatus     *string   `json:"registerStatus"`
	RegistrationNumber []string  `json:"registrationNumber"`
	RegistrationDate   []*string `json:"registrationDate"`
	ProductMainCodes   []string  `json:"asignProductMainCodeList"`
	Score              float64   `json:"score"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Total       int64          `json:"total"`
	Offset      int            `json:"offset"`
	Limit       int            `json:"limit"`
	Results     []SearchResult `json:"results"`
	Approximate bool           `json:"approximate,omitempty"`
}

// Trademark is the full record returned by Get.
type Trademark struct {
	ApplicationNumber       string    `json:"applicationNumber"`
	ProductName             *string   `json:"productName"`
	ProductNameEng          *string   `json:"productNameEng"`
	ApplicationDate         *string   `json:"applicationDate"`
	RegisterStatus          *string   `json:"registerStatus"`
	PublicationNumber       *string   `json:"publicationNumber"`
	PublicationDate         *string   `json:"publicationDate"`
	RegistrationNumber      []string  `json:"registrationNumber"`
	RegistrationDate        []*string `json:"registrationDate"`
	RegistrationPubNumber   *string   `json:"registrationPubNumber"`
	RegistrationPubDate     *string   `json:"registrationPubDate"`
	InternationalRegNumbers []string  `json:"internationalRegNumbers"`
	InternationalRegDate    *string   `json:"internationalRegDate"`
	PriorityClaimNumList    []string  `json:"priorityClaimNumList"`
	PriorityClaimDateList   []*string `json:"priorityClaimDateList"`
	ProductMainCodes        []string  `json:"asignProductMainCodeList"`
	ProductSubCodes         []string  `json:"asignProductSubCodeList"`
	ViennaCodeList          []string  `json:"viennaCodeList"`
}

// SearchParams are the query parameters of a search.  Zero values are
// omitted, leaving the server defaults in place.
type SearchParams struct {
	Query       string
	Status      string
	ProductCode string
	FromDate    string // YYYYMMDD
	ToDate      string // YYYYMMDD
	DateType    string // applicationDate, registrationDate or publicationDate
	Limit       int
	Offset      int
}

func (p SearchParams) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("q", p.Query)
	set("status", p.Status)
	set("product_code", p.ProductCode)
	set("from_date", p.FromDate)
	set("to_date", p.ToDate)
	set("date_type", p.DateType)
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	return v
}

// TrademarksClient wraps the /trademarks routes.
type TrademarksClient struct {
	client *Client
}

func (tc *TrademarksClient) path(suffix string) string {
	return tc.client.apiPrefix + "/trademarks" + suffix
}

// Search runs a hybrid trademark search.
func (tc *TrademarksClient) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	var resp SearchResponse
	if err := tc.client.do(ctx, tc.path(""), params.values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get fetches one trademark by application number.  A missing record is an
// *APIError for which IsNotFound reports true.
func (tc *TrademarksClient) Get(ctx context.Context, applicationNumber string) (*Trademark, error) {
	if applicationNumber == "" {
		return nil, errors.InvalidParam("client: applicationNumber is required")
	}
	var tm Trademark
	if err := tc.client.do(ctx, tc.path("/"+url.PathEscape(applicationNumber)), nil, &tm); err != nil {
		return nil, err
	}
	return &tm, nil
}

// Statuses lists the distinct registration statuses.
func (tc *TrademarksClient) Statuses(ctx context.Context) ([]string, error) {
	return tc.list(ctx, "/meta/statuses")
}

// ProductCodes lists the distinct main product classification codes.
func (tc *TrademarksClient) ProductCodes(ctx context.Context) ([]string, error) {
	return tc.list(ctx, "/meta/product-codes")
}

func (tc *TrademarksClient) list(ctx context.Context, suffix string) ([]string, error) {
	var values []string
	if err := tc.client.do(ctx, tc.path(suffix), nil, &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}
