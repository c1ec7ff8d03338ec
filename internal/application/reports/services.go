package reports

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/report-agent/internal/application"
	"github.com/bryanwahyu/report-agent/internal/domain/analysis"
	domain "github.com/bryanwahyu/report-agent/internal/domain/reports"
)

// Service implements use-cases untuk Report (upload, list, detail, history)
type Service struct {
	Repo     domain.Repository
	Analyses analysis.Repository
	Blobs    domain.BlobStore
	Clock    application.Clock
}

type UploadCommand struct {
	OwnerID     int64
	Filename    string
	ContentType string
	Data        []byte
}

// Upload stores the file and creates an unanalyzed report for it.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (domain.View, error) {
	name := CleanFilename(cmd.Filename)
	if name == "" {
		return domain.View{}, fmt.Errorf("%w: file name is required", domain.ErrValidation)
	}
	if len(cmd.Data) == 0 {
		return domain.View{}, fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}
	contentType := strings.TrimSpace(cmd.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// key: <owner>/<uuid><ext>, nama asli disimpan di kolom terpisah
	key := fmt.Sprintf("%d/%s%s", cmd.OwnerID, uuid.NewString(), strings.ToLower(filepath.Ext(name)))
	ref, err := s.Blobs.Store(ctx, bytes.NewReader(cmd.Data), int64(len(cmd.Data)), key, contentType)
	if err != nil {
		return domain.View{}, fmt.Errorf("store upload: %w", err)
	}

	rep := &domain.Report{
		OwnerID:          cmd.OwnerID,
		FileRef:          ref,
		OriginalFileName: name,
		ContentType:      contentType,
		Size:             int64(len(cmd.Data)),
		UploadedAt:       s.now(),
	}
	if err := s.Repo.Create(ctx, rep); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file_ref", ref).Msg("report row not created, blob left orphaned")
		return domain.View{}, fmt.Errorf("create report: %w", err)
	}
	zerolog.Ctx(ctx).Info().Int64("report_id", rep.ID).Str("file", name).Int64("size", rep.Size).Msg("report uploaded")
	return rep.ToView(), nil
}

// List returns the owner's reports, newest first.
func (s *Service) List(ctx context.Context, ownerID int64) ([]domain.View, error) {
	list, err := s.Repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.View, 0, len(list))
	for _, r := range list {
		out = append(out, r.ToView())
	}
	return out, nil
}

// Get returns the report with its accumulated analysis.
func (s *Service) Get(ctx context.Context, id, ownerID int64) (domain.Detail, error) {
	return s.Repo.GetDetail(ctx, id, ownerID)
}

// History lists the analysis snapshots of a report, newest first.
func (s *Service) History(ctx context.Context, id, ownerID int64) ([]*analysis.Snapshot, error) {
	rep, err := s.Repo.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return s.Analyses.ListSnapshots(ctx, rep.ID)
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

// CleanFilename drops any directory part and control characters.
func CleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
