package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/report-agent/internal/domain/reports"
)

type ReportRepository struct {
	db *sql.DB
	d  Dialect
}

func NewReportRepository(db *sql.DB, d Dialect) *ReportRepository {
	return &ReportRepository{db: db, d: d}
}

const reportColumns = `id, user_id, file_ref, original_file_name, content_type, file_size, uploaded_at, analyzed`

// Create inserts a new, unanalyzed report and sets r.ID.
func (r *ReportRepository) Create(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO reports
  (user_id, file_ref, original_file_name, content_type, file_size, uploaded_at, analyzed)
VALUES (?,?,?,?,?,?,?)`
	uploaded := rep.UploadedAt
	if uploaded.IsZero() {
		uploaded = time.Now().UTC()
	}
	id, err := r.d.insertID(ctx, r.db, q,
		rep.OwnerID, rep.FileRef, rep.OriginalFileName, rep.ContentType, rep.Size, uploaded, false,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	rep.ID = id
	rep.UploadedAt = uploaded
	rep.Analyzed = false
	return nil
}

// ListByOwner returns the owner's reports, newest upload first.
func (r *ReportRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Report, error) {
	q := `SELECT ` + reportColumns + `
FROM reports
WHERE user_id=?
ORDER BY uploaded_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, r.d.rebind(q), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// Get by ID + owner. A report owned by someone else is ErrNotFound too.
func (r *ReportRepository) Get(ctx context.Context, id, ownerID int64) (*domain.Report, error) {
	q := `SELECT ` + reportColumns + `
FROM reports
WHERE id=? AND user_id=? LIMIT 1`
	rep, err := scanReport(r.db.QueryRowContext(ctx, r.d.rebind(q), id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %d: %w", id, err)
	}
	return rep, nil
}

// GetDetail reads the owner-scoped report row and its analysis in one read
// transaction, so the analyzed flag always agrees with the rows returned.
func (r *ReportRepository) GetDetail(ctx context.Context, id, ownerID int64) (domain.Detail, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: r.d.ReadIsolation})
	if err != nil {
		return domain.Detail{}, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	q := `SELECT ` + reportColumns + `
FROM reports
WHERE id=? AND user_id=? LIMIT 1`
	rep, err := scanReport(tx.QueryRowContext(ctx, r.d.rebind(q), id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Detail{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Detail{}, fmt.Errorf("get report %d: %w", id, err)
	}

	res, err := (&AnalysisRepository{db: r.db, d: r.d}).read(ctx, tx, rep.ID)
	if err != nil {
		return domain.Detail{}, fmt.Errorf("load analysis: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Detail{}, err
	}
	return domain.Detail{View: rep.ToView(), Result: res}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(s rowScanner) (*domain.Report, error) {
	var rep domain.Report
	if err := s.Scan(
		&rep.ID, &rep.OwnerID, &rep.FileRef, &rep.OriginalFileName, &rep.ContentType,
		&rep.Size, &rep.UploadedAt, &rep.Analyzed,
	); err != nil {
		return nil, err
	}
	return &rep, nil
}
