package analysis_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/report-agent/internal/application"
	appanalysis "github.com/bryanwahyu/report-agent/internal/application/analysis"
	appreports "github.com/bryanwahyu/report-agent/internal/application/reports"
	"github.com/bryanwahyu/report-agent/internal/domain/ai"
	"github.com/bryanwahyu/report-agent/internal/domain/analysis"
	"github.com/bryanwahyu/report-agent/internal/domain/reports"
	"github.com/bryanwahyu/report-agent/internal/domain/users"
	"github.com/bryanwahyu/report-agent/internal/infra/db/sqlite"
	"github.com/bryanwahyu/report-agent/internal/infra/db/sqlstore"
	"github.com/bryanwahyu/report-agent/internal/infra/storage"
)

type mockAI struct{ mock.Mock }

func (m *mockAI) Analyze(ctx context.Context, req ai.AnalyzeRequest) ([]byte, error) {
	args := m.Called(ctx, req)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *mockAI) Ask(ctx context.Context, req ai.AskRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type countingRecorder struct {
	ok, failed, asked, fallback atomic.Int64
}

func (c *countingRecorder) AnalysisSucceeded() { c.ok.Add(1) }
func (c *countingRecorder) AnalysisFailed()    { c.failed.Add(1) }
func (c *countingRecorder) QuestionAnswered(fallback bool) {
	c.asked.Add(1)
	if fallback {
		c.fallback.Add(1)
	}
}

type fixture struct {
	db      *sql.DB
	blobs   *storage.LocalStore
	ai      *mockAI
	rec     *countingRecorder
	reports *appreports.Service
	svc     *appanalysis.Service
	owner   int64
	other   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db))

	blobs, err := storage.NewLocal(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	userRepo := sqlstore.NewUserRepository(db, sqlite.Dialect)
	alice := &users.User{Email: "alice@example.com", PasswordHash: "x"}
	bob := &users.User{Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, userRepo.Create(ctx, alice))
	require.NoError(t, userRepo.Create(ctx, bob))

	reportRepo := sqlstore.NewReportRepository(db, sqlite.Dialect)
	analysisRepo := sqlstore.NewAnalysisRepository(db, sqlite.Dialect)
	f := &fixture{
		db:    db,
		blobs: blobs,
		ai:    &mockAI{},
		rec:   &countingRecorder{},
		owner: alice.ID,
		other: bob.ID,
	}
	f.reports = &appreports.Service{Repo: reportRepo, Analyses: analysisRepo, Blobs: blobs, Clock: application.SystemClock{}}
	f.svc = &appanalysis.Service{
		Reports:   reportRepo,
		Analyses:  analysisRepo,
		Blobs:     blobs,
		AI:        f.ai,
		Clock:     application.SystemClock{},
		Metrics:   f.rec,
		AITimeout: 2 * time.Second,
	}
	return f
}

func (f *fixture) upload(t *testing.T) reports.View {
	t.Helper()
	v, err := f.reports.Upload(context.Background(), appreports.UploadCommand{
		OwnerID:     f.owner,
		Filename:    "q1.csv",
		ContentType: "text/csv",
		Data:        []byte("month,revenue\njan,100\nfeb,120\n"),
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) snapshots(t *testing.T, reportID int64) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM analysis_snapshots WHERE report_id = ?`, reportID).Scan(&n))
	return n
}

const urgentPayload = `{"summary":"ok","kpis":[{"name":"Revenue","value":100,"unit":"%","category":"Finance"}],"trends":[],"action_items":[{"title":"Follow up","description":"","priority":"urgent","category":"Sales"}]}`

func TestAnalyzeUploadThenAnalyze(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.upload(t)
	assert.False(t, v.IsAnalyzed)

	f.ai.On("Analyze", mock.Anything, mock.MatchedBy(func(r ai.AnalyzeRequest) bool {
		return r.ContentType == "text/csv" && filepath.IsAbs(r.FileRef) && strings.HasSuffix(r.Ref, ".csv")
	})).Return([]byte(urgentPayload), nil).Once()

	res, err := f.svc.Analyze(ctx, v.ID, f.owner)
	require.NoError(t, err)

	assert.Equal(t, "ok", res.Summary)
	require.Len(t, res.ActionItems, 1)
	assert.Equal(t, analysis.PriorityHigh, res.ActionItems[0].Priority)
	require.Len(t, res.KPIs, 1)
	assert.Equal(t, analysis.KPI{Name: "Revenue", Value: 100, Unit: "%", Category: "Finance"}, res.KPIs[0])
	assert.Empty(t, res.Trends)

	detail, err := f.reports.Get(ctx, v.ID, f.owner)
	require.NoError(t, err)
	assert.True(t, detail.IsAnalyzed)
	assert.Equal(t, res, detail.Result)

	assert.Equal(t, int64(1), f.rec.ok.Load())
	f.ai.AssertExpectations(t)
}

func TestAnalyzeUpstreamErrorCommitsNothing(t *testing.T) {
	f := newFixture(t)
	v := f.upload(t)
	f.ai.On("Analyze", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	_, err := f.svc.Analyze(context.Background(), v.ID, f.owner)

	require.ErrorIs(t, err, ai.ErrUpstream)
	detail, err := f.reports.Get(context.Background(), v.ID, f.owner)
	require.NoError(t, err)
	assert.False(t, detail.IsAnalyzed)
	assert.Zero(t, f.snapshots(t, v.ID))
	assert.Equal(t, int64(1), f.rec.failed.Load())
}

func TestAnalyzeMalformedPayloadIsUpstreamError(t *testing.T) {
	f := newFixture(t)
	v := f.upload(t)
	f.ai.On("Analyze", mock.Anything, mock.Anything).Return([]byte("<html>502 Bad Gateway</html>"), nil).Once()

	_, err := f.svc.Analyze(context.Background(), v.ID, f.owner)

	require.ErrorIs(t, err, ai.ErrUpstream)
	assert.ErrorIs(t, err, analysis.ErrMalformedPayload)
	assert.Zero(t, f.snapshots(t, v.ID))
}

func TestAnalyzeTimeout(t *testing.T) {
	f := newFixture(t)
	f.svc.AITimeout = 50 * time.Millisecond
	v := f.upload(t)
	f.ai.On("Analyze", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(nil, context.DeadlineExceeded).Once()

	start := time.Now()
	_, err := f.svc.Analyze(context.Background(), v.ID, f.owner)

	require.ErrorIs(t, err, ai.ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Zero(t, f.snapshots(t, v.ID))
}

func TestAnalyzeQuotaErrorKept(t *testing.T) {
	f := newFixture(t)
	v := f.upload(t)
	f.ai.On("Analyze", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: %w", ai.ErrUpstream, ai.ErrQuotaExceeded)).Once()

	_, err := f.svc.Analyze(context.Background(), v.ID, f.owner)

	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)
	assert.ErrorIs(t, err, ai.ErrUpstream)
}

func TestAnalyzeForeignReportIsNotFound(t *testing.T) {
	f := newFixture(t)
	v := f.upload(t)

	_, foreignErr := f.svc.Analyze(context.Background(), v.ID, f.other)
	_, missingErr := f.svc.Analyze(context.Background(), v.ID+100, f.owner)

	assert.ErrorIs(t, foreignErr, reports.ErrNotFound)
	assert.ErrorIs(t, missingErr, reports.ErrNotFound)
	f.ai.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestAnalyzeAgainAccumulates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.upload(t)
	f.ai.On("Analyze", mock.Anything, mock.Anything).
		Return([]byte(`{"summary":"first","kpis":[{"name":"A","value":1}]}`), nil).Once()
	f.ai.On("Analyze", mock.Anything, mock.Anything).
		Return([]byte(`{"Summary":"second","KPIs":[{"Name":"B","Value":"2"}]}`), nil).Once()

	_, err := f.svc.Analyze(ctx, v.ID, f.owner)
	require.NoError(t, err)
	second, err := f.svc.Analyze(ctx, v.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, []analysis.KPI{{Name: "B", Value: 2}}, second.KPIs)

	detail, err := f.reports.Get(ctx, v.ID, f.owner)
	require.NoError(t, err)
	assert.Equal(t, "second", detail.Summary)
	assert.Equal(t, []analysis.KPI{{Name: "A", Value: 1}, {Name: "B", Value: 2}}, detail.KPIs)
}

func TestConcurrentAnalyzeBothCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.upload(t)
	f.ai.On("Analyze", mock.Anything, mock.Anything).
		Return([]byte(`{"summary":"one","kpis":[{"name":"A","value":1}]}`), nil).Once()
	f.ai.On("Analyze", mock.Anything, mock.Anything).
		Return([]byte(`{"summary":"two","kpis":[{"name":"B","value":2}]}`), nil).Once()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Analyze(ctx, v.ID, f.owner)
		}(i)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	detail, err := f.reports.Get(ctx, v.ID, f.owner)
	require.NoError(t, err)
	assert.True(t, detail.IsAnalyzed)
	require.Len(t, detail.KPIs, 2)
	assert.ElementsMatch(t, []string{"A", "B"}, []string{detail.KPIs[0].Name, detail.KPIs[1].Name})

	history, err := f.reports.History(ctx, v.ID, f.owner)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, history[0].Summary, detail.Summary, "summary comes from the newest snapshot")
}

func TestAskReturnsAnswer(t *testing.T) {
	f := newFixture(t)
	v := f.upload(t)
	f.ai.On("Ask", mock.Anything, mock.MatchedBy(func(r ai.AskRequest) bool {
		return r.Question == "What was revenue in feb?"
	})).Return("120", nil).Once()

	answer, err := f.svc.Ask(context.Background(), v.ID, f.owner, "  What was revenue in feb? ")

	require.NoError(t, err)
	assert.Equal(t, "120", answer)
	assert.Equal(t, int64(0), f.rec.fallback.Load())
}

func TestAskTimeoutFallsBack(t *testing.T) {
	f := newFixture(t)
	f.svc.AITimeout = 50 * time.Millisecond
	v := f.upload(t)
	f.ai.On("Ask", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return("", context.DeadlineExceeded).Once()

	answer, err := f.svc.Ask(context.Background(), v.ID, f.owner, "anything?")

	require.NoError(t, err)
	assert.Equal(t, appanalysis.FallbackAnswer, answer)

	detail, err := f.reports.Get(context.Background(), v.ID, f.owner)
	require.NoError(t, err)
	assert.False(t, detail.IsAnalyzed)
	assert.Zero(t, f.snapshots(t, v.ID))
	assert.Equal(t, int64(1), f.rec.fallback.Load())
}

func TestAskUpstreamErrorFallsBack(t *testing.T) {
	f := newFixture(t)
	v := f.upload(t)
	f.ai.On("Ask", mock.Anything, mock.Anything).Return("", ai.ErrUpstream).Once()

	answer, err := f.svc.Ask(context.Background(), v.ID, f.owner, "anything?")

	require.NoError(t, err)
	assert.Equal(t, appanalysis.FallbackAnswer, answer)
}

func TestAskMissingFileFallsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.upload(t)

	rep, err := f.svc.Reports.Get(ctx, v.ID, f.owner)
	require.NoError(t, err)
	p, err := f.blobs.Resolve(ctx, rep.FileRef)
	require.NoError(t, err)
	require.NoError(t, os.Remove(p))

	answer, err := f.svc.Ask(ctx, v.ID, f.owner, "anything?")

	require.NoError(t, err)
	assert.Equal(t, appanalysis.FallbackAnswer, answer)
	assert.Equal(t, int64(1), f.rec.fallback.Load())
	f.ai.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestAskValidationAndOwnership(t *testing.T) {
	f := newFixture(t)
	v := f.upload(t)

	_, err := f.svc.Ask(context.Background(), v.ID, f.owner, "   ")
	assert.ErrorIs(t, err, reports.ErrValidation)

	_, err = f.svc.Ask(context.Background(), v.ID, f.other, "hello?")
	assert.ErrorIs(t, err, reports.ErrNotFound)

	f.ai.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}
