package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/report-agent/internal/application"
	"github.com/bryanwahyu/report-agent/internal/domain/ai"
	domain "github.com/bryanwahyu/report-agent/internal/domain/analysis"
	"github.com/bryanwahyu/report-agent/internal/domain/reports"
)

// FallbackAnswer is returned by Ask whenever the AI backend cannot answer.
const FallbackAnswer = "Unable to get an answer right now."

const DefaultAITimeout = 120 * time.Second

// Recorder receives analysis and question outcomes for metrics.
type Recorder interface {
	AnalysisSucceeded()
	AnalysisFailed()
	QuestionAnswered(fallback bool)
}

type nopRecorder struct{}

func (nopRecorder) AnalysisSucceeded()    {}
func (nopRecorder) AnalysisFailed()       {}
func (nopRecorder) QuestionAnswered(bool) {}

// Service runs the analyze and ask use-cases. Safe for concurrent use.
// Two concurrent Analyze calls on one report both commit; their metric rows
// interleave and the later snapshot's summary becomes current.
type Service struct {
	Reports   reports.Repository
	Analyses  domain.Repository
	Blobs     reports.BlobStore
	AI        ai.Client
	Clock     application.Clock
	Metrics   Recorder
	AITimeout time.Duration
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func (s *Service) metrics() Recorder {
	if s.Metrics == nil {
		return nopRecorder{}
	}
	return s.Metrics
}

func (s *Service) timeout() time.Duration {
	if s.AITimeout <= 0 {
		return DefaultAITimeout
	}
	return s.AITimeout
}

// Analyze sends the report to the AI backend, normalizes the answer and
// commits it as a new snapshot. Nothing is written when the backend fails.
func (s *Service) Analyze(ctx context.Context, reportID, ownerID int64) (domain.Result, error) {
	log := zerolog.Ctx(ctx).With().Int64("report_id", reportID).Int64("owner_id", ownerID).Logger()

	rep, err := s.Reports.Get(ctx, reportID, ownerID)
	if err != nil {
		return domain.Result{}, err
	}
	ref, err := s.Blobs.Resolve(ctx, rep.FileRef)
	if err != nil {
		s.metrics().AnalysisFailed()
		return domain.Result{}, fmt.Errorf("resolve report file: %w", err)
	}

	start := s.clock().Now()
	log.Debug().Str("content_type", rep.ContentType).Msg("analysis started")

	raw, err := s.callAnalyze(ctx, ai.AnalyzeRequest{Ref: rep.FileRef, FileRef: ref, ContentType: rep.ContentType})
	if err != nil {
		s.metrics().AnalysisFailed()
		log.Warn().Err(err).Msg("ai analyze failed")
		return domain.Result{}, err
	}

	payload, err := domain.DecodePayload(raw)
	if err != nil {
		s.metrics().AnalysisFailed()
		log.Warn().Err(err).Int("bytes", len(raw)).Msg("ai payload rejected")
		return domain.Result{}, fmt.Errorf("%w: %w", ai.ErrUpstream, err)
	}
	res := domain.Normalize(payload)

	stored, err := json.Marshal(res)
	if err != nil {
		s.metrics().AnalysisFailed()
		return domain.Result{}, fmt.Errorf("encode analysis: %w", err)
	}
	snap, err := s.Analyses.ReplaceAnalysis(ctx, rep.ID, res, stored)
	if err != nil {
		s.metrics().AnalysisFailed()
		log.Error().Err(err).Msg("commit analysis failed")
		return domain.Result{}, fmt.Errorf("commit analysis: %w", err)
	}

	s.metrics().AnalysisSucceeded()
	log.Info().
		Int64("snapshot_id", snap.ID).
		Int("kpis", len(res.KPIs)).
		Int("trends", len(res.Trends)).
		Int("action_items", len(res.ActionItems)).
		Dur("duration", s.clock().Now().Sub(start)).
		Msg("analysis committed")
	return res, nil
}

// Ask relays a question about the report to the AI backend. Upstream
// failures produce FallbackAnswer instead of an error.
func (s *Service) Ask(ctx context.Context, reportID, ownerID int64, question string) (string, error) {
	rep, err := s.Reports.Get(ctx, reportID, ownerID)
	if err != nil {
		return "", err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", reports.ErrValidation)
	}
	ref, err := s.Blobs.Resolve(ctx, rep.FileRef)
	if err != nil {
		s.metrics().QuestionAnswered(true)
		zerolog.Ctx(ctx).Warn().Err(err).Int64("report_id", reportID).Msg("report file unavailable, using fallback")
		return FallbackAnswer, nil
	}

	answer, err := s.callAsk(ctx, ai.AskRequest{Ref: rep.FileRef, FileRef: ref, Question: question})
	if err != nil {
		s.metrics().QuestionAnswered(true)
		zerolog.Ctx(ctx).Warn().Err(err).Int64("report_id", reportID).Msg("ai ask failed, using fallback")
		return FallbackAnswer, nil
	}
	s.metrics().QuestionAnswered(false)
	return answer, nil
}

type analyzeResult struct {
	body []byte
	err  error
}

// callAnalyze bounds the backend call by AITimeout even if the client
// ignores context cancellation.
func (s *Service) callAnalyze(ctx context.Context, req ai.AnalyzeRequest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	ch := make(chan analyzeResult, 1)
	go func() {
		b, err := s.AI.Analyze(ctx, req)
		ch <- analyzeResult{b, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ai.ErrUpstream, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, upstream(r.err)
		}
		return r.body, nil
	}
}

type askResult struct {
	answer string
	err    error
}

func (s *Service) callAsk(ctx context.Context, req ai.AskRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	ch := make(chan askResult, 1)
	go func() {
		a, err := s.AI.Ask(ctx, req)
		ch <- askResult{a, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ai.ErrUpstream, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return "", upstream(r.err)
		}
		if strings.TrimSpace(r.answer) == "" {
			return "", fmt.Errorf("%w: empty answer", ai.ErrUpstream)
		}
		return r.answer, nil
	}
}

func upstream(err error) error {
	if errors.Is(err, ai.ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %w", ai.ErrUpstream, err)
}
