package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const defaultCheckTimeout = 2 * time.Second

// Dependency is one backend the service needs to answer requests.
type Dependency struct {
	Name  string
	Check func(ctx context.Context) error
	// Optional failures report "degraded" but keep the service ready.
	Optional bool
}

// DatabaseDependency pings the report database.
func DatabaseDependency(db *sql.DB) Dependency {
	return Dependency{Name: "database", Check: db.PingContext}
}

// BlobStoreDependency checks that uploads can be reached (upload dir or bucket).
func BlobStoreDependency(store interface {
	Check(ctx context.Context) error
}) Dependency {
	return Dependency{Name: "blobstore", Check: store.Check}
}

type dependencyStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

type healthReport struct {
	Status       string                      `json:"status"`
	CheckedAt    time.Time                   `json:"checkedAt"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// ReadinessHandler checks every dependency in parallel, each bounded by
// timeout. Any required failure answers 503.
func ReadinessHandler(deps []Dependency, timeout time.Duration) http.HandlerFunc {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	return func(w http.ResponseWriter, r *http.Request) {
		report := healthReport{
			Status:       "ok",
			CheckedAt:    time.Now().UTC(),
			Dependencies: make(map[string]dependencyStatus, len(deps)),
		}

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for _, d := range deps {
			wg.Add(1)
			go func(d Dependency) {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(r.Context(), timeout)
				defer cancel()

				start := time.Now()
				err := d.Check(ctx)
				st := dependencyStatus{Status: "up", LatencyMS: time.Since(start).Milliseconds()}
				if err != nil {
					st.Status = "down"
					st.Error = err.Error()
				}

				mu.Lock()
				defer mu.Unlock()
				report.Dependencies[d.Name] = st
				switch {
				case err == nil:
				case !d.Optional:
					report.Status = "unavailable"
				case report.Status == "ok":
					report.Status = "degraded"
				}
			}(d)
		}
		wg.Wait()

		code := http.StatusOK
		if report.Status == "unavailable" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(report)
	}
}

// LivenessHandler only says the process is serving.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
