// Package repositories provides the PostgreSQL implementation of the
// trademark repository.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
	"github.com/turtacn/trademark-search/internal/infrastructure/database/postgres"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/trademark-search/pkg/errors"
)

const selectColumns = `
	application_number, product_name, product_name_eng, application_date, register_status,
	publication_number, publication_date, registration_number, registration_date,
	registration_pub_number, registration_pub_date, international_reg_numbers,
	international_reg_date, priority_claim_num_list, priority_claim_date_list,
	product_main_codes, product_sub_codes, vienna_codes`

// TrademarkRepository serves indexed search from pg_trgm and tsvector
// indexes.
type TrademarkRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

var _ trademark.Repository = (*TrademarkRepository)(nil)

// NewTrademarkRepository constructs a TrademarkRepository on pool.
func NewTrademarkRepository(pool *pgxpool.Pool, logger logging.Logger) *TrademarkRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TrademarkRepository{pool: pool, logger: logger.Named("postgres")}
}

// RankWindow bounds how many matching rows a keyword search re-ranks in
// process.
const RankWindow = 10000

// IndexedSearch counts the rows matching cond and preds and returns the
// requested window.  Match-all queries page in SQL by application number.
// Keyword queries let the trigram and tsvector indexes pick the rows, then
// re-score up to RankWindow of them with TextCondition.Score so that scores
// agree with the other backends.
func (r *TrademarkRepository) IndexedSearch(ctx context.Context, cond *trademark.TextCondition, preds trademark.Predicates, offset, limit int) ([]trademark.Match, int64, bool, error) {
	q := newQueryBuilder()
	if err := q.wherePredicates(preds); err != nil {
		return nil, 0, false, err
	}
	score := "0::float8"
	orderBy := "application_number ASC"
	if cond != nil {
		score = q.textCondition(cond)
		orderBy = "score DESC, application_number ASC"
	}
	where := q.where()

	var total int64
	countSQL := "SELECT COUNT(*) FROM trademarks " + where
	if err := r.pool.QueryRow(ctx, countSQL, q.args...).Scan(&total); err != nil {
		r.logger.Error("count failed", logging.Err(err))
		return nil, 0, false, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to count search results")
	}
	if total == 0 || int64(offset) >= total {
		return []trademark.Match{}, total, false, nil
	}

	rowOffset, rowLimit := offset, limit
	if cond != nil {
		rowOffset, rowLimit = 0, RankWindow
	}
	phLimit := q.nextArg(rowLimit)
	phOffset := q.nextArg(rowOffset)
	dataSQL := fmt.Sprintf(`SELECT %s, %s AS score FROM trademarks %s ORDER BY %s LIMIT %s OFFSET %s`,
		selectColumns, score, where, orderBy, phLimit, phOffset)

	rows, err := r.pool.Query(ctx, dataSQL, q.args...)
	if err != nil {
		r.logger.Error("search query failed", logging.Err(err))
		return nil, 0, false, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to execute search query")
	}
	defer rows.Close()

	matches := make([]trademark.Match, 0, rowLimit)
	for rows.Next() {
		var s float64
		t, err := scanTrademark(rows, &s)
		if err != nil {
			return nil, 0, false, err
		}
		matches = append(matches, trademark.Match{Trademark: t, Score: s})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, false, appErrors.Wrap(err, appErrors.CodeDBQueryError, "row iteration error")
	}
	if cond == nil {
		return matches, total, false, nil
	}

	windowed := total > int64(len(matches))
	if windowed {
		r.logger.Debug("keyword search re-ranked a bounded window",
			logging.String("query", cond.Query),
			logging.Int64("rows", total),
			logging.Int("window", len(matches)))
		total = int64(len(matches))
	}
	return rerank(cond, matches, offset, limit), total, windowed, nil
}

// rerank replaces the SQL scores with TextCondition.Score and returns the
// requested window of the re-sorted matches.
func rerank(cond *trademark.TextCondition, matches []trademark.Match, offset, limit int) []trademark.Match {
	for i := range matches {
		matches[i].Score = cond.Score(matches[i].Trademark)
	}
	trademark.SortMatches(matches, true)
	if offset >= len(matches) || limit <= 0 {
		return []trademark.Match{}
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end]
}

// FetchCandidates reads up to limit filtered rows in application-number
// order.  One extra row is requested to detect truncation.
func (r *TrademarkRepository) FetchCandidates(ctx context.Context, preds trademark.Predicates, limit int) ([]*trademark.Trademark, bool, error) {
	q := newQueryBuilder()
	if err := q.wherePredicates(preds); err != nil {
		return nil, false, err
	}
	where := q.where()
	phLimit := q.nextArg(limit + 1)
	sql := fmt.Sprintf(`SELECT %s FROM trademarks %s ORDER BY application_number ASC LIMIT %s`,
		selectColumns, where, phLimit)

	rows, err := r.pool.Query(ctx, sql, q.args...)
	if err != nil {
		r.logger.Error("candidate query failed", logging.Err(err))
		return nil, false, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to fetch candidates")
	}
	defer rows.Close()

	out := make([]*trademark.Trademark, 0)
	for rows.Next() {
		t, err := scanTrademark(rows)
		if err != nil {
			return nil, false, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.CodeDBQueryError, "row iteration error")
	}
	if len(out) > limit {
		return out[:limit], true, nil
	}
	return out, false, nil
}

// ListDistinct returns the sorted distinct non-empty values of field.
func (r *TrademarkRepository) ListDistinct(ctx context.Context, field trademark.DistinctField) ([]string, error) {
	var sql string
	switch field {
	case trademark.DistinctStatus:
		sql = `SELECT DISTINCT register_status FROM trademarks WHERE register_status <> '' ORDER BY 1`
	case trademark.DistinctProductCode:
		sql = `SELECT DISTINCT code FROM trademarks, unnest(product_main_codes) AS code WHERE code <> '' ORDER BY 1`
	default:
		return nil, appErrors.Newf(appErrors.CodeInvalidParam, "unknown distinct field %q", field)
	}

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to list distinct values")
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to scan distinct value")
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "row iteration error")
	}
	return values, nil
}

// FindByApplicationNumber returns one record or a not-found error.
func (r *TrademarkRepository) FindByApplicationNumber(ctx context.Context, applicationNumber string) (*trademark.Trademark, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM trademarks WHERE application_number = $1`, applicationNumber)
	t, err := scanTrademark(row)
	if err != nil {
		if appErrors.Is(err, pgx.ErrNoRows) {
			return nil, trademark.ErrNotFound(applicationNumber)
		}
		return nil, err
	}
	return t, nil
}

const upsertSQL = `
	INSERT INTO trademarks (` + selectColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (application_number) DO UPDATE SET
		product_name = EXCLUDED.product_name,
		product_name_eng = EXCLUDED.product_name_eng,
		application_date = EXCLUDED.application_date,
		register_status = EXCLUDED.register_status,
		publication_number = EXCLUDED.publication_number,
		publication_date = EXCLUDED.publication_date,
		registration_number = EXCLUDED.registration_number,
		registration_date = EXCLUDED.registration_date,
		registration_pub_number = EXCLUDED.registration_pub_number,
		registration_pub_date = EXCLUDED.registration_pub_date,
		international_reg_numbers = EXCLUDED.international_reg_numbers,
		international_reg_date = EXCLUDED.international_reg_date,
		priority_claim_num_list = EXCLUDED.priority_claim_num_list,
		priority_claim_date_list = EXCLUDED.priority_claim_date_list,
		product_main_codes = EXCLUDED.product_main_codes,
		product_sub_codes = EXCLUDED.product_sub_codes,
		vienna_codes = EXCLUDED.vienna_codes`

// Upsert writes records in one transaction, replacing rows that share an
// application number.
func (r *TrademarkRepository) Upsert(ctx context.Context, records []*trademark.Trademark) error {
	if len(records) == 0 {
		return nil
	}
	return postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx, ctx context.Context) error {
		batch := &pgx.Batch{}
		for _, t := range records {
			batch.Queue(upsertSQL, upsertArgs(t)...)
		}
		br := tx.SendBatch(ctx, batch)
		for range records {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to upsert trademark")
			}
		}
		if err := br.Close(); err != nil {
			return appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to upsert trademarks")
		}
		return nil
	})
}

// Ping checks connectivity.
func (r *TrademarkRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func upsertArgs(t *trademark.Trademark) []interface{} {
	return []interface{}{
		t.ApplicationNumber, t.ProductName, t.ProductNameEng, dateArg(t.ApplicationDate), t.RegisterStatus,
		t.PublicationNumber, dateArg(t.PublicationDate), textArray(t.RegistrationNumber), datesArg(t.RegistrationDate),
		t.RegistrationPubNumber, dateArg(t.RegistrationPubDate), textArray(t.InternationalRegNumbers),
		dateArg(t.InternationalRegDate), textArray(t.PriorityClaimNumList), datesArg(t.PriorityClaimDateList),
		textArray(t.ProductMainCodes), textArray(t.ProductSubCodes), textArray(t.ViennaCodeList),
	}
}

func scanTrademark(row pgx.Row, extra ...interface{}) (*trademark.Trademark, error) {
	var (
		t                                         trademark.Trademark
		appDate, pubDate, regPubDate, intlRegDate pgtype.Date
		regDates, priorityDates                   []time.Time
	)
	dest := []interface{}{
		&t.ApplicationNumber, &t.ProductName, &t.ProductNameEng, &appDate, &t.RegisterStatus,
		&t.PublicationNumber, &pubDate, &t.RegistrationNumber, &regDates,
		&t.RegistrationPubNumber, &regPubDate, &t.InternationalRegNumbers,
		&intlRegDate, &t.PriorityClaimNumList, &priorityDates,
		&t.ProductMainCodes, &t.ProductSubCodes, &t.ViennaCodeList,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if appErrors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to scan trademark row")
	}

	t.ApplicationDate = fromPgDate(appDate)
	t.PublicationDate = fromPgDate(pubDate)
	t.RegistrationPubDate = fromPgDate(regPubDate)
	t.InternationalRegDate = fromPgDate(intlRegDate)
	t.RegistrationDate = fromTimes(regDates)
	t.PriorityClaimDateList = fromTimes(priorityDates)
	return &t, nil
}

func dateArg(d trademark.Date) interface{} {
	if d.IsZero() {
		return nil
	}
	return d.Time()
}

func datesArg(ds []trademark.Date) []time.Time {
	out := make([]time.Time, 0, len(ds))
	for _, d := range ds {
		if !d.IsZero() {
			out = append(out, d.Time())
		}
	}
	return out
}

func textArray(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func fromPgDate(d pgtype.Date) trademark.Date {
	if !d.Valid {
		return trademark.Date{}
	}
	return trademark.DateOf(d.Time)
}

func fromTimes(ts []time.Time) []trademark.Date {
	if len(ts) == 0 {
		return nil
	}
	out := make([]trademark.Date, len(ts))
	for i, v := range ts {
		out[i] = trademark.DateOf(v)
	}
	return out
}
