package reports

import (
	"time"

	"github.com/bryanwahyu/report-agent/internal/domain/analysis"
)

// Report is one uploaded file plus its analysis flag.
type Report struct {
	ID               int64
	OwnerID          int64
	FileRef          string // storage key returned by the BlobStore
	OriginalFileName string
	ContentType      string
	Size             int64
	UploadedAt       time.Time
	Analyzed         bool
}

// View is the outbound summary of a report (list and upload responses).
type View struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	UploadedAt time.Time `json:"uploadedAt"`
	IsAnalyzed bool      `json:"isAnalyzed"`
}

// Detail is a View plus the report's current analysis, flattened in JSON.
type Detail struct {
	View
	analysis.Result
}

func (r *Report) ToView() View {
	return View{
		ID:         r.ID,
		FileName:   r.OriginalFileName,
		FileType:   r.ContentType,
		FileSize:   r.Size,
		UploadedAt: r.UploadedAt,
		IsAnalyzed: r.Analyzed,
	}
}
