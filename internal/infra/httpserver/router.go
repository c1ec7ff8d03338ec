package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	appanalysis "github.com/bryanwahyu/report-agent/internal/application/analysis"
	appreports "github.com/bryanwahyu/report-agent/internal/application/reports"
	appusers "github.com/bryanwahyu/report-agent/internal/application/users"
	"github.com/bryanwahyu/report-agent/internal/domain/ai"
	"github.com/bryanwahyu/report-agent/internal/domain/reports"
	"github.com/bryanwahyu/report-agent/internal/domain/users"
	"github.com/bryanwahyu/report-agent/internal/middleware"
)

const (
	defaultMaxUpload = 10 << 20
	checkTimeout     = 2 * time.Second
)

// Config carries the services and cross-cutting pieces the router mounts.
type Config struct {
	Reports  *appreports.Service
	Analysis *appanalysis.Service
	Users    *appusers.Service

	Logger       *zerolog.Logger
	Metrics      *middleware.Metrics
	Limiter      *middleware.RateLimiter
	Dependencies []middleware.Dependency

	APIKeys        map[string]int64
	CORSOrigins    []string
	MaxUploadBytes int64
}

type Router struct {
	reportsSvc  *appreports.Service
	analysisSvc *appanalysis.Service
	usersSvc    *appusers.Service
	maxUpload   int64
}

func NewRouter(cfg Config) http.Handler {
	r := &Router{
		reportsSvc:  cfg.Reports,
		analysisSvc: cfg.Analysis,
		usersSvc:    cfg.Users,
		maxUpload:   cfg.MaxUploadBytes,
	}
	if r.maxUpload <= 0 {
		r.maxUpload = defaultMaxUpload
	}
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = middleware.NewMetrics()
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(5, 10)
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(middleware.Logger(logger))
	mux.Use(chimw.Recoverer)
	mux.Use(metrics.Middleware)
	if len(cfg.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	health := middleware.ReadinessHandler(cfg.Dependencies, checkTimeout)
	mux.Get("/health", health)
	mux.Get("/readyz", health)
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/metrics", metrics.Handler)

	limit := middleware.RateLimitMiddleware(limiter)
	mux.Route("/v1", func(rt chi.Router) {
		rt.With(limit).Post("/users", r.wrap(r.handleRegister))

		rt.Group(func(g chi.Router) {
			g.Use(middleware.APIKeyAuth(cfg.APIKeys))
			g.Use(limit)

			g.Post("/reports", r.wrap(r.handleUpload))
			g.Get("/reports", r.wrap(r.handleList))
			g.Get("/reports/{id}", r.wrap(r.handleGet))
			g.Post("/reports/{id}/analyze", r.wrap(r.handleAnalyze))
			g.Post("/reports/{id}/ask", r.wrap(r.handleAsk))
			g.Get("/reports/{id}/history", r.wrap(r.handleHistory))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, reports.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, reports.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.As(err, &tooLarge):
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, users.ErrEmailTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, ai.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		case errors.Is(err, ai.ErrUpstream):
			http.Error(w, "ai backend unavailable", http.StatusBadGateway)
		default:
			zerolog.Ctx(req.Context()).Error().Err(err).Msg("request failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func reportID(req *http.Request) (int64, error) {
	id, err := middleware.ParseID(chi.URLParam(req, "id"))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", reports.ErrValidation, err)
	}
	return id, nil
}

// POST /v1/users
// Body: {"email","password","firstName","lastName"}
func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.NewDecoder(io.LimitReader(req.Body, 1<<16)).Decode(&body); err != nil {
		return fmt.Errorf("%w: invalid JSON body", reports.ErrValidation)
	}
	u, err := r.usersSvc.Register(req.Context(), appusers.RegisterCommand{
		Email:     body.Email,
		Password:  body.Password,
		FirstName: middleware.SanitizeString(body.FirstName),
		LastName:  middleware.SanitizeString(body.LastName),
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]any{"id": u.ID, "email": u.Email})
}

// POST /v1/reports (multipart, field "file")
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload+1<<20)
	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: expected multipart form with a file field", reports.ErrValidation)
	}
	defer req.MultipartForm.RemoveAll()

	f, hdr, err := req.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: file is required", reports.ErrValidation)
	}
	defer f.Close()
	if hdr.Size > r.maxUpload {
		return &http.MaxBytesError{Limit: r.maxUpload}
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	view, err := r.reportsSvc.Upload(req.Context(), appreports.UploadCommand{
		OwnerID:     middleware.OwnerFromContext(req.Context()),
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, view)
}

// GET /v1/reports
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	list, err := r.reportsSvc.List(req.Context(), middleware.OwnerFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/reports/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := reportID(req)
	if err != nil {
		return err
	}
	detail, err := r.reportsSvc.Get(req.Context(), id, middleware.OwnerFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, detail)
}

// POST /v1/reports/{id}/analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	id, err := reportID(req)
	if err != nil {
		return err
	}
	res, err := r.analysisSvc.Analyze(req.Context(), id, middleware.OwnerFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// POST /v1/reports/{id}/ask
// Body: {"question": "..."}
func (r *Router) handleAsk(w http.ResponseWriter, req *http.Request) error {
	id, err := reportID(req)
	if err != nil {
		return err
	}
	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(io.LimitReader(req.Body, 1<<16)).Decode(&body); err != nil {
		return fmt.Errorf("%w: invalid JSON body", reports.ErrValidation)
	}
	q, err := middleware.ValidateQuestion(body.Question)
	if err != nil {
		return fmt.Errorf("%w: %v", reports.ErrValidation, err)
	}
	answer, err := r.analysisSvc.Ask(req.Context(), id, middleware.OwnerFromContext(req.Context()), q)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// GET /v1/reports/{id}/history
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	id, err := reportID(req)
	if err != nil {
		return err
	}
	list, err := r.reportsSvc.History(req.Context(), id, middleware.OwnerFromContext(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}
