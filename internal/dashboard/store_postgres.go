package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// trendMonths is how far back the monthly trend reaches.
const trendMonths = 6

// PostgresStore computes dashboard statistics from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed dashboard store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	trendStart := monthStart.AddDate(0, -(trendMonths - 1), 0)

	stats := &Stats{}
	counts := `
		SELECT
			(SELECT count(*) FROM clients WHERE is_active = TRUE),
			(SELECT count(*) FROM clients WHERE is_active = TRUE AND created_at >= $1),
			(SELECT count(*) FROM clients WHERE is_active = FALSE AND updated_at >= $1),
			(SELECT count(*) FROM enrollments WHERE status = 'PENDING' AND is_active = TRUE)`
	err := s.db.QueryRowContext(ctx, counts, monthStart).Scan(
		&stats.TotalActiveClients, &stats.NewClientsThisMonth,
		&stats.LostClientsThisMonth, &stats.PendingEnrollments)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	stats.ByPlanType, err = s.groupBy(ctx, `
		SELECT coalesce(nullif(plan_type, ''), 'UNKNOWN'), count(*)
		FROM enrollments
		WHERE status = 'ACTIVE' AND is_active = TRUE
		GROUP BY 1 ORDER BY 2 DESC, 1`)
	if err != nil {
		return nil, err
	}

	stats.ByCarrier, err = s.groupBy(ctx, `
		SELECT ca.name, count(*)
		FROM enrollments e
		JOIN carriers ca ON ca.id = e.carrier_id
		WHERE e.status = 'ACTIVE' AND e.is_active = TRUE
		GROUP BY 1 ORDER BY 2 DESC, 1`)
	if err != nil {
		return nil, err
	}

	stats.ByState, err = s.groupBy(ctx, `
		SELECT coalesce(nullif(state, ''), 'UNKNOWN'), count(*)
		FROM clients
		WHERE is_active = TRUE
		GROUP BY 1 ORDER BY 2 DESC, 1`)
	if err != nil {
		return nil, err
	}

	stats.MonthlyTrend, err = s.trend(ctx, trendStart)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *PostgresStore) groupBy(ctx context.Context, query string) ([]CountBy, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dashboard group-by: %w", err)
	}
	defer rows.Close()

	var out []CountBy
	for rows.Next() {
		var c CountBy
		if err := rows.Scan(&c.Label, &c.Count); err != nil {
			return nil, fmt.Errorf("scan group-by: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group-by: %w", err)
	}
	return out, nil
}

// trend counts enrollment starts and disenrollments per month. Months with no
// activity are filled in so the chart always has trendMonths points.
func (s *PostgresStore) trend(ctx context.Context, start time.Time) ([]MonthCount, error) {
	query := `
		SELECT to_char(date_trunc('month', created_at), 'YYYY-MM'), count(*), 0
		FROM enrollments WHERE created_at >= $1
		GROUP BY 1
		UNION ALL
		SELECT to_char(date_trunc('month', termination_date), 'YYYY-MM'), 0, count(*)
		FROM enrollments
		WHERE status = 'DISENROLLED' AND termination_date >= $1
		GROUP BY 1`
	rows, err := s.db.QueryContext(ctx, query, start)
	if err != nil {
		return nil, fmt.Errorf("dashboard trend: %w", err)
	}
	defer rows.Close()

	byMonth := make(map[string]*MonthCount)
	for rows.Next() {
		var month string
		var created, lost int
		if err := rows.Scan(&month, &created, &lost); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		if byMonth[month] == nil {
			byMonth[month] = &MonthCount{Month: month}
		}
		byMonth[month].NewEnrollments += created
		byMonth[month].Disenrollments += lost
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trend: %w", err)
	}

	out := make([]MonthCount, 0, trendMonths)
	for i := 0; i < trendMonths; i++ {
		month := start.AddDate(0, i, 0).Format("2006-01")
		if mc, ok := byMonth[month]; ok {
			out = append(out, *mc)
		} else {
			out = append(out, MonthCount{Month: month})
		}
	}
	return out, nil
}
