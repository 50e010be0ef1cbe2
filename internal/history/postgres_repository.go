package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/airgrid/airgrid/internal/reading"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Rows are insert-only; nothing here updates or deletes readings.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL historical store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert appends one reading.
func (r *PostgresRepository) Insert(ctx context.Context, rd reading.Reading) error {
	payload, err := json.Marshal(rd)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	query := `
		INSERT INTO readings (station_code, kind, observed_at, payload)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.pool.Exec(ctx, query, rd.StationCode, string(rd.Kind), rd.ObservedAt, payload); err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// Query returns matching readings ordered by ObservedAt ascending with
// 1-based pagination, and the total match count.
func (r *PostgresRepository) Query(ctx context.Context, f Filter, page, limit int) ([]reading.Reading, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	where := `
		WHERE ($1 = '' OR station_code = $1)
		  AND ($2 = '' OR kind = $2)
		  AND observed_at >= $3
		  AND observed_at <= $4
	`
	args := []interface{}{f.StationCode, string(f.Kind), f.Start, f.End}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM readings "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count readings: %w", err)
	}

	query := "SELECT payload FROM readings " + where + `
		ORDER BY observed_at ASC
		LIMIT $5 OFFSET $6
	`

	rows, err := r.pool.Query(ctx, query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	readings := []reading.Reading{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, 0, fmt.Errorf("scan reading: %w", err)
		}
		var rd reading.Reading
		if err := json.Unmarshal(payload, &rd); err != nil {
			return nil, 0, fmt.Errorf("unmarshal reading: %w", err)
		}
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate readings: %w", err)
	}

	return readings, total, nil
}

// Averages scans readings in [start, end] and reduces them in process.
// The aggregate shape matches the in-memory implementation exactly.
func (r *PostgresRepository) Averages(ctx context.Context, start, end time.Time) (Averages, error) {
	query := `
		SELECT payload FROM readings
		WHERE observed_at >= $1 AND observed_at <= $2
	`

	rows, err := r.pool.Query(ctx, query, start, end)
	if err != nil {
		return Averages{}, fmt.Errorf("query readings for averages: %w", err)
	}
	defer rows.Close()

	var readings []reading.Reading
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return Averages{}, fmt.Errorf("scan reading: %w", err)
		}
		var rd reading.Reading
		if err := json.Unmarshal(payload, &rd); err != nil {
			return Averages{}, fmt.Errorf("unmarshal reading: %w", err)
		}
		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return Averages{}, fmt.Errorf("iterate readings: %w", err)
	}

	if len(readings) == 0 {
		return zeroAverages(), nil
	}
	return reduceAverages(readings), nil
}
