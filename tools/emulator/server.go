package emulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/raywall/deta-toolkit/detabase"
	"github.com/raywall/deta-toolkit/pkg/metrics"
	"github.com/raywall/deta-toolkit/tools/emulator/storage"
	"github.com/rs/zerolog"
)

// MaxBodyBytes limita o corpo das requisições.
const MaxBodyBytes = 10 << 20

// Server atende a API do Deta Base sobre um storage.Storage.
type Server struct {
	router     *mux.Router
	store      storage.Storage
	projectKey string
	projectID  string
	logger     zerolog.Logger
	metrics    metrics.Provider
	newKey     func() string
}

type Option func(*Server)

// WithProjectKey exige X-API-Key igual a key em todas as rotas.
func WithProjectKey(key string) Option {
	return func(s *Server) {
		s.projectKey = key
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func WithMetrics(p metrics.Provider) Option {
	return func(s *Server) {
		s.metrics = p
	}
}

// WithKeyGenerator troca o gerador das chaves de itens enviados sem "key".
func WithKeyGenerator(fn func() string) Option {
	return func(s *Server) {
		s.newKey = fn
	}
}

// NewServer monta o roteador. Sem opções, não há autenticação, logs nem métricas.
// Uma project key inválida é recusada aqui, antes de atender qualquer requisição.
func NewServer(store storage.Storage, opts ...Option) (*Server, error) {
	s := &Server{
		store:   store,
		logger:  zerolog.Nop(),
		metrics: nopMetrics{},
		newKey:  randomKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.projectKey != "" {
		id, err := detabase.ProjectID(s.projectKey)
		if err != nil {
			return nil, fmt.Errorf("emulator: project key: %w", err)
		}
		s.projectID = id
	}

	r := mux.NewRouter()
	// chaves chegam escapadas (a%2Fb); as vars são decodificadas nos handlers
	r.UseEncodedPath()
	r.Use(s.instrument, s.authenticate)

	items := r.PathPrefix("/v1/{project}/{base}/items").Subrouter()
	items.HandleFunc("", s.handlePut).Methods(http.MethodPut)
	items.HandleFunc("", s.handleInsert).Methods(http.MethodPost)
	items.HandleFunc("/{key}", s.handleGet).Methods(http.MethodGet)
	items.HandleFunc("/{key}", s.handleDelete).Methods(http.MethodDelete)
	items.HandleFunc("/{key}", s.handleUpdate).Methods(http.MethodPatch)

	for _, router := range []*mux.Router{r, items} {
		router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeErrors(w, http.StatusNotFound, "Not found")
		})
		router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeErrors(w, http.StatusMethodNotAllowed, "Method not allowed")
		})
	}

	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe atende em addr até ctx ser cancelado e então encerra,
// esperando até shutdownTimeout pelas requisições em andamento.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("emulator listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("emulator shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// statusRecorder guarda o status escrito pelo handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		base := mux.Vars(r)["base"]
		tags := []string{
			"method:" + r.Method,
			"status:" + metrics.StatusClass(rec.status),
			"base:" + base,
		}
		_ = s.metrics.Count(metrics.EmulatorRequestCount, 1, tags)
		_ = s.metrics.Histogram(metrics.EmulatorRequestLatency, float64(elapsed.Milliseconds()), tags)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.EscapedPath()).
			Int("status", rec.status).
			Str("request_id", r.Header.Get("X-Request-Id")).
			Dur("latency", elapsed).
			Msg("request")
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.projectKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != s.projectKey || mux.Vars(r)["project"] != s.projectID {
			writeErrors(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type nopMetrics struct{}

func (nopMetrics) Count(string, float64, []string) error     { return nil }
func (nopMetrics) Gauge(string, float64, []string) error     { return nil }
func (nopMetrics) Histogram(string, float64, []string) error { return nil }

// randomKey gera chaves de 12 caracteres, como as do Deta.
func randomKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrors(w http.ResponseWriter, status int, msgs ...string) {
	writeJSON(w, status, map[string][]string{"errors": msgs})
}
