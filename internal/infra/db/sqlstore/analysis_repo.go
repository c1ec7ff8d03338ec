package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/report-agent/internal/domain/analysis"
	"github.com/bryanwahyu/report-agent/internal/domain/reports"
)

type AnalysisRepository struct {
	db *sql.DB
	d  Dialect
}

func NewAnalysisRepository(db *sql.DB, d Dialect) *AnalysisRepository {
	return &AnalysisRepository{db: db, d: d}
}

// ReplaceAnalysis appends a snapshot, its KPI/trend/action-item rows and sets
// reports.analyzed in one transaction. Nothing is visible unless all of it is.
func (r *AnalysisRepository) ReplaceAnalysis(ctx context.Context, reportID int64, res analysis.Result, rawPayload []byte) (*analysis.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin analysis tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	raw := string(rawPayload)
	if raw == "" {
		raw = "{}"
	}

	snapID, err := r.d.insertID(ctx, tx, `
INSERT INTO analysis_snapshots (report_id, summary, raw_payload, created_at)
VALUES (?,?,?,?)`, reportID, res.Summary, raw, now)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	for _, k := range res.KPIs {
		if _, err := tx.ExecContext(ctx, r.d.rebind(`
INSERT INTO kpis (report_id, snapshot_id, name, value, unit, category, created_at)
VALUES (?,?,?,?,?,?,?)`),
			reportID, snapID, k.Name, k.Value, k.Unit, k.Category, now); err != nil {
			return nil, fmt.Errorf("insert kpi: %w", err)
		}
	}

	for _, t := range res.Trends {
		if _, err := tx.ExecContext(ctx, r.d.rebind(`
INSERT INTO trends (report_id, snapshot_id, metric_name, direction, change_percentage, time_frame, created_at)
VALUES (?,?,?,?,?,?,?)`),
			reportID, snapID, t.MetricName, string(t.Direction), t.ChangePercentage, t.TimeFrame, now); err != nil {
			return nil, fmt.Errorf("insert trend: %w", err)
		}
	}

	for _, a := range res.ActionItems {
		if _, err := tx.ExecContext(ctx, r.d.rebind(`
INSERT INTO action_items (report_id, snapshot_id, title, description, priority, category, created_at)
VALUES (?,?,?,?,?,?,?)`),
			reportID, snapID, a.Title, a.Description, string(a.Priority), a.Category, now); err != nil {
			return nil, fmt.Errorf("insert action item: %w", err)
		}
	}

	upd, err := tx.ExecContext(ctx, r.d.rebind(`UPDATE reports SET analyzed = TRUE WHERE id = ?`), reportID)
	if err != nil {
		return nil, fmt.Errorf("mark report analyzed: %w", err)
	}
	n, err := upd.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("mark report analyzed: rows affected: %w", err)
	}
	if n == 0 {
		return nil, reports.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit analysis: %w", err)
	}

	return &analysis.Snapshot{
		ID:         snapID,
		ReportID:   reportID,
		Summary:    res.Summary,
		RawPayload: raw,
		CreatedAt:  now,
	}, nil
}

// GetAnalysis reads the latest snapshot's summary and every metric row ever
// recorded for the report. Lists accumulate across runs.
func (r *AnalysisRepository) GetAnalysis(ctx context.Context, reportID int64) (analysis.Result, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: r.d.ReadIsolation})
	if err != nil {
		return analysis.Result{}, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	out, err := r.read(ctx, tx, reportID)
	if err != nil {
		return analysis.Result{}, err
	}
	return out, tx.Commit()
}

// read loads the summary and metric lists inside the caller's transaction.
func (r *AnalysisRepository) read(ctx context.Context, tx *sql.Tx, reportID int64) (analysis.Result, error) {
	out := analysis.EmptyResult()

	err := tx.QueryRowContext(ctx, r.d.rebind(`
SELECT summary FROM analysis_snapshots
WHERE report_id=?
ORDER BY created_at DESC, id DESC LIMIT 1`), reportID).Scan(&out.Summary)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return analysis.Result{}, fmt.Errorf("latest snapshot: %w", err)
	}

	if out.KPIs, err = r.kpis(ctx, tx, reportID); err != nil {
		return analysis.Result{}, err
	}
	if out.Trends, err = r.trends(ctx, tx, reportID); err != nil {
		return analysis.Result{}, err
	}
	if out.ActionItems, err = r.actionItems(ctx, tx, reportID); err != nil {
		return analysis.Result{}, err
	}
	return out, nil
}

// ListSnapshots returns the analysis history, newest first.
func (r *AnalysisRepository) ListSnapshots(ctx context.Context, reportID int64) ([]*analysis.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, r.d.rebind(`
SELECT id, report_id, summary, raw_payload, created_at
FROM analysis_snapshots
WHERE report_id=?
ORDER BY created_at DESC, id DESC`), reportID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]*analysis.Snapshot, 0)
	for rows.Next() {
		var s analysis.Snapshot
		if err := rows.Scan(&s.ID, &s.ReportID, &s.Summary, &s.RawPayload, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) kpis(ctx context.Context, tx *sql.Tx, reportID int64) ([]analysis.KPI, error) {
	rows, err := tx.QueryContext(ctx, r.d.rebind(`
SELECT name, value, unit, category FROM kpis WHERE report_id=? ORDER BY id`), reportID)
	if err != nil {
		return nil, fmt.Errorf("list kpis: %w", err)
	}
	defer rows.Close()

	out := make([]analysis.KPI, 0)
	for rows.Next() {
		var k analysis.KPI
		if err := rows.Scan(&k.Name, &k.Value, &k.Unit, &k.Category); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) trends(ctx context.Context, tx *sql.Tx, reportID int64) ([]analysis.Trend, error) {
	rows, err := tx.QueryContext(ctx, r.d.rebind(`
SELECT metric_name, direction, change_percentage, time_frame FROM trends WHERE report_id=? ORDER BY id`), reportID)
	if err != nil {
		return nil, fmt.Errorf("list trends: %w", err)
	}
	defer rows.Close()

	out := make([]analysis.Trend, 0)
	for rows.Next() {
		var t analysis.Trend
		var dir string
		if err := rows.Scan(&t.MetricName, &dir, &t.ChangePercentage, &t.TimeFrame); err != nil {
			return nil, err
		}
		t.Direction = analysis.Direction(dir)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) actionItems(ctx context.Context, tx *sql.Tx, reportID int64) ([]analysis.ActionItem, error) {
	rows, err := tx.QueryContext(ctx, r.d.rebind(`
SELECT title, description, priority, category FROM action_items WHERE report_id=? ORDER BY id`), reportID)
	if err != nil {
		return nil, fmt.Errorf("list action items: %w", err)
	}
	defer rows.Close()

	out := make([]analysis.ActionItem, 0)
	for rows.Next() {
		var a analysis.ActionItem
		var prio string
		if err := rows.Scan(&a.Title, &a.Description, &prio, &a.Category); err != nil {
			return nil, err
		}
		a.Priority = analysis.Priority(prio)
		out = append(out, a)
	}
	return out, rows.Err()
}
