package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"matchkeys/ingestion/internal/metrics"
	"matchkeys/ingestion/internal/models"
)

// Preview limits
const (
	DefaultPreviewLimit = 200
	MaxPreviewLimit     = 10000
)

// EventRepository handles the match key table
type EventRepository struct {
	db     *Database
	schema string
	table  pgx.Identifier
}

// NewEventRepository targets schema.table.
func NewEventRepository(db *Database, schema, table string) *EventRepository {
	return &EventRepository{
		db:     db,
		schema: schema,
		table:  pgx.Identifier{schema, table},
	}
}

// TableName is the sanitized, schema-qualified table name.
func (r *EventRepository) TableName() string {
	return r.table.Sanitize()
}

func (r *EventRepository) indexName() string {
	return pgx.Identifier{r.table[len(r.table)-1] + "_partition_idx"}.Sanitize()
}

func observe(operation string, start time.Time, err *error) {
	status := "success"
	if *err != nil {
		status = "error"
	}
	metrics.RecordDBQuery(operation, status, time.Since(start).Seconds())
}

// EnsureSchema creates the schema, table and partition index when absent.
func (r *EventRepository) EnsureSchema(ctx context.Context) (err error) {
	defer observe("ensure_schema", time.Now(), &err)

	statements := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pgx.Identifier{r.schema}.Sanitize()),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			event_key       TEXT,
			event_date      TEXT,
			event_time      TEXT,
			first_player    TEXT,
			second_player   TEXT,
			tournament_name TEXT,
			event_type_type TEXT,
			event_status    TEXT,
			source_date     DATE,
			timezone_used   TEXT,
			_ingested_at    TIMESTAMP DEFAULT NOW()
		)`, r.TableName()),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (source_date, timezone_used)`, r.indexName(), r.TableName()),
	}

	for _, stmt := range statements {
		if _, err = r.db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema for %s: %w", r.TableName(), err)
		}
	}

	log.Debug().Str("table", r.TableName()).Msg("Schema ensured")
	return nil
}

func (r *EventRepository) deleteSQL() string {
	return fmt.Sprintf(`
		DELETE FROM %s
		WHERE source_date BETWEEN $1 AND $2
		  AND timezone_used = $3
	`, r.TableName())
}

// DeleteRange removes the partition's rows and returns how many were deleted.
func (r *EventRepository) DeleteRange(ctx context.Context, p models.Partition) (n int64, err error) {
	defer observe("delete_range", time.Now(), &err)

	tag, err := r.db.Pool.Exec(ctx, r.deleteSQL(), p.Start, p.End, p.Timezone)
	if err != nil {
		return 0, fmt.Errorf("failed to delete range %s: %w", p, err)
	}
	return tag.RowsAffected(), nil
}

func copySource(rows []models.PersistedRow) pgx.CopyFromSource {
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, row.CopyValues())
	}
	return pgx.CopyFromRows(values)
}

// BulkInsert appends rows with COPY.
func (r *EventRepository) BulkInsert(ctx context.Context, rows []models.PersistedRow) (n int64, err error) {
	defer observe("bulk_insert", time.Now(), &err)

	if len(rows) == 0 {
		return 0, nil
	}

	n, err = r.db.Pool.CopyFrom(ctx, r.table, models.PersistedColumns, copySource(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy rows into %s: %w", r.TableName(), err)
	}
	metrics.RecordRowsLoaded(n)
	return n, nil
}

// ReplacePartition deletes the partition and loads rows in one transaction.
// On any failure nothing is changed.
func (r *EventRepository) ReplacePartition(ctx context.Context, p models.Partition, rows []models.EventRow) (deleted, inserted int64, err error) {
	defer observe("replace_partition", time.Now(), &err)

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	tag, err := tx.Exec(ctx, r.deleteSQL(), p.Start, p.End, p.Timezone)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, 0, fmt.Errorf("failed to delete range %s: %w", p, err)
	}
	deleted = tag.RowsAffected()

	if len(rows) > 0 {
		persisted := models.ToPersistedRows(rows, p)
		inserted, err = tx.CopyFrom(ctx, r.table, models.PersistedColumns, copySource(persisted))
		if err != nil {
			_ = tx.Rollback(ctx)
			return 0, 0, fmt.Errorf("failed to copy rows into %s: %w", r.TableName(), err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	metrics.RecordRowsLoaded(inserted)

	log.Info().
		Str("table", r.TableName()).
		Str("partition", p.String()).
		Int64("deleted", deleted).
		Int64("inserted", inserted).
		Msg("Partition replaced")

	return deleted, inserted, nil
}

// PreviewQuery selects stored rows of one partition.
type PreviewQuery struct {
	Partition models.Partition
	Limit     int
}

// ClampLimit maps 0 to the default and clamps into 1..MaxPreviewLimit.
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultPreviewLimit
	case limit < 1:
		return 1
	case limit > MaxPreviewLimit:
		return MaxPreviewLimit
	}
	return limit
}

func (r *EventRepository) previewSQL() string {
	return fmt.Sprintf(`
		SELECT event_key, event_date, event_time, first_player, second_player,
		       tournament_name, event_type_type, event_status,
		       source_date, timezone_used, _ingested_at
		FROM %s
		WHERE source_date BETWEEN $1 AND $2
		  AND timezone_used = $3
		ORDER BY tournament_name, event_time, event_key
		LIMIT $4
	`, r.TableName())
}

// PreviewSQL renders the preview statement with its values inlined, for
// display only.
func (r *EventRepository) PreviewSQL(q PreviewQuery) string {
	quote := func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }
	replacer := strings.NewReplacer(
		"$1", quote(q.Partition.Start.Format(models.DateLayout)),
		"$2", quote(q.Partition.End.Format(models.DateLayout)),
		"$3", quote(q.Partition.Timezone),
		"$4", fmt.Sprint(ClampLimit(q.Limit)),
	)
	return strings.TrimSpace(replacer.Replace(r.previewSQL()))
}

// Preview returns stored rows ordered by tournament, time and key.
func (r *EventRepository) Preview(ctx context.Context, q PreviewQuery) (out []models.PersistedRow, err error) {
	defer observe("preview", time.Now(), &err)

	p := q.Partition
	rows, err := r.db.Pool.Query(ctx, r.previewSQL(), p.Start, p.End, p.Timezone, ClampLimit(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.TableName(), err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.PersistedRow
		if err = rows.Scan(
			&row.EventKey, &row.EventDate, &row.EventTime, &row.FirstPlayer, &row.SecondPlayer,
			&row.TournamentName, &row.EventTypeType, &row.EventStatus,
			&row.SourceDate, &row.TimezoneUsed, &row.IngestedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}
