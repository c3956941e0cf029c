package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/trademark-search/internal/application/search"
	"github.com/turtacn/trademark-search/internal/domain/trademark"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
)

// TrademarkHandler serves the trademark search API.
type TrademarkHandler struct {
	svc    search.Service
	logger logging.Logger
}

// NewTrademarkHandler creates a TrademarkHandler.
func NewTrademarkHandler(svc search.Service, logger logging.Logger) *TrademarkHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TrademarkHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the handler under rg.  The meta routes are
// registered before the :applicationNumber wildcard.
func (h *TrademarkHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tm := rg.Group("/trademarks")
	tm.GET("", h.Search)
	tm.GET("/", h.Search)
	tm.GET("/meta/statuses", h.ListStatuses)
	tm.GET("/meta/product-codes", h.ListProductCodes)
	tm.GET("/:applicationNumber", h.Get)
}

// SearchResult is one row of a search response.
type SearchResult struct {
	ApplicationNumber  string           `json:"applicationNumber"`
	ProductName        *string          `json:"productName"`
	ProductNameEng     *string          `json:"productNameEng"`
	ApplicationDate    trademark.Date   `json:"applicationDate"`
	RegisterStatus     *string          `json:"registerStatus"`
	RegistrationNumber []string         `json:"registrationNumber"`
	RegistrationDate   []trademark.Date `json:"registrationDate"`
	ProductMainCodes   []string         `json:"asignProductMainCodeList"`
	Score              float64          `json:"score"`
}

// SearchResponse is the body of GET /trademarks.
type SearchResponse struct {
	Total       int64          `json:"total"`
	Offset      int            `json:"offset"`
	Limit       int            `json:"limit"`
	Results     []SearchResult `json:"results"`
	Approximate bool           `json:"approximate,omitempty"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func toSearchResult(m trademark.Match) SearchResult {
	t := m.Trademark
	return SearchResult{
		ApplicationNumber:  t.ApplicationNumber,
		ProductName:        optional(t.ProductName),
		ProductNameEng:     optional(t.ProductNameEng),
		ApplicationDate:    t.ApplicationDate,
		RegisterStatus:     optional(t.RegisterStatus),
		RegistrationNumber: nonNil(t.RegistrationNumber),
		RegistrationDate:   nonNil(t.RegistrationDate),
		ProductMainCodes:   nonNil(t.ProductMainCodes),
		Score:              m.Score,
	}
}

// Search handles GET /trademarks.
func (h *TrademarkHandler) Search(c *gin.Context) {
	filters := trademark.FilterParams{
		Status:      strings.TrimSpace(c.Query("status")),
		ProductCode: strings.TrimSpace(c.Query("product_code")),
		FromDate:    strings.TrimSpace(c.Query("from_date")),
		ToDate:      strings.TrimSpace(c.Query("to_date")),
		DateType:    c.DefaultQuery("date_type", string(trademark.DateFieldApplication)),
	}
	if filters.FromDate != "" && !yyyymmdd.MatchString(filters.FromDate) {
		invalidQuery(c, "from_date must be YYYYMMDD")
		return
	}
	if filters.ToDate != "" && !yyyymmdd.MatchString(filters.ToDate) {
		invalidQuery(c, "to_date must be YYYYMMDD")
		return
	}
	limit, ok := intQuery(c, "limit", h.svc.Config().DefaultLimit)
	if !ok {
		invalidQuery(c, "limit must be an integer")
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		invalidQuery(c, "offset must be an integer")
		return
	}

	q := search.Query{Text: c.Query("q"), Filters: filters, Offset: offset, Limit: limit}
	page, err := h.svc.Search(c.Request.Context(), q)
	if err != nil {
		writeAppError(c, err)
		return
	}

	resp := SearchResponse{
		Total:       page.Total,
		Offset:      page.Offset,
		Limit:       page.Limit,
		Results:     make([]SearchResult, 0, len(page.Results)),
		Approximate: page.Approximate,
	}
	for _, m := range page.Results {
		resp.Results = append(resp.Results, toSearchResult(m))
	}
	c.Header("X-Search-Route", page.Route.String())

	h.logger.Info("Trademark search served",
		logging.String("query", q.Text),
		logging.String("status", filters.Status),
		logging.String("product_code", filters.ProductCode),
		logging.String("date_range", filters.FromDate+"~"+filters.ToDate),
		logging.Int64("total", page.Total))
	writeJSON(c, http.StatusOK, resp)
}

// Get handles GET /trademarks/:applicationNumber.
func (h *TrademarkHandler) Get(c *gin.Context) {
	tm, err := h.svc.Get(c.Request.Context(), c.Param("applicationNumber"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	detail := *tm
	detail.RegistrationNumber = nonNil(tm.RegistrationNumber)
	detail.RegistrationDate = nonNil(tm.RegistrationDate)
	detail.InternationalRegNumbers = nonNil(tm.InternationalRegNumbers)
	detail.PriorityClaimNumList = nonNil(tm.PriorityClaimNumList)
	detail.PriorityClaimDateList = nonNil(tm.PriorityClaimDateList)
	detail.ProductMainCodes = nonNil(tm.ProductMainCodes)
	detail.ProductSubCodes = nonNil(tm.ProductSubCodes)
	detail.ViennaCodeList = nonNil(tm.ViennaCodeList)
	writeJSON(c, http.StatusOK, detail)
}

// ListStatuses handles GET /trademarks/meta/statuses.
func (h *TrademarkHandler) ListStatuses(c *gin.Context) {
	values, err := h.svc.ListStatuses(c.Request.Context())
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(values))
}

// ListProductCodes handles GET /trademarks/meta/product-codes.
func (h *TrademarkHandler) ListProductCodes(c *gin.Context) {
	values, err := h.svc.ListProductCodes(c.Request.Context())
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, nonNil(values))
}
