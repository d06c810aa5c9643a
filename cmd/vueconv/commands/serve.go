package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/vueconv/pkg/config"
	"github.com/Sumatoshi-tech/vueconv/pkg/convert"
	"github.com/Sumatoshi-tech/vueconv/pkg/observability"
)

const shutdownGrace = 10 * time.Second

// ErrEmptyCode reports a request without code.
var ErrEmptyCode = errors.New("code is required")

// ConvertRequest is the body of POST /api/convert and POST /api/inspect.
// Unset options keep the server configuration.
type ConvertRequest struct {
	Code         string `json:"code"`
	Filename     string `json:"filename,omitempty"`
	Language     string `json:"language,omitempty"`
	ScriptSetup  *bool  `json:"script_setup,omitempty"`
	Refine       *bool  `json:"refine,omitempty"`
	RewriteThis  *bool  `json:"rewrite_this,omitempty"`
	Strict       *bool  `json:"strict,omitempty"`
	ImportSource string `json:"import_source,omitempty"`
}

// ErrorResponse is the body of failed API calls.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServerDeps holds the collaborators of the HTTP API.
type ServerDeps struct {
	Options convert.Options
	// CacheSize bounds the shared converter cache.
	CacheSize int
	// MaxBody rejects larger request bodies when positive.
	MaxBody        int64
	Tracer         trace.Tracer
	Logger         *slog.Logger
	Metrics        *observability.REDMetrics
	Conversion     *observability.ConversionMetrics
	MetricsHandler http.Handler
}

type apiServer struct {
	deps   ServerDeps
	shared *convert.Converter
}

// NewServeMux builds the HTTP API: /api/convert, /api/inspect, /healthz,
// /readyz and, when deps.MetricsHandler is set, /metrics.
func NewServeMux(deps ServerDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	api := &apiServer{deps: deps}
	api.shared = api.converter(deps.Options, deps.CacheSize)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/convert", api.handleConvert)
	apiMux.HandleFunc("POST /api/inspect", api.handleInspect)

	var handler http.Handler = apiMux
	if deps.Tracer != nil {
		handler = observability.HTTPMiddleware(deps.Tracer, deps.Metrics, apiMux)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", handler)
	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler())

	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}

	return mux
}

func (api *apiServer) converter(opts convert.Options, cacheSize int) *convert.Converter {
	extra := []convert.Option{
		convert.WithMetrics(api.deps.Metrics, api.deps.Conversion),
		convert.WithLogger(api.deps.Logger),
		convert.WithCache(cacheSize),
	}

	if api.deps.Tracer != nil {
		extra = append(extra, convert.WithTracer(api.deps.Tracer))
	}

	return convert.New(opts, extra...)
}

// requestConverter returns the shared converter unless the request
// overrides an option.
func (api *apiServer) requestConverter(req ConvertRequest) (*convert.Converter, error) {
	opts := api.deps.Options
	overridden := false

	if req.Language != "" {
		lang, err := parseLanguage(req.Language)
		if err != nil {
			return nil, err
		}

		opts.Language = lang
		overridden = true
	}

	for _, o := range []struct {
		value *bool
		dst   *bool
	}{
		{value: req.ScriptSetup, dst: &opts.ScriptSetup},
		{value: req.Refine, dst: &opts.Refine},
		{value: req.RewriteThis, dst: &opts.RewriteThis},
		{value: req.Strict, dst: &opts.Strict},
	} {
		if o.value != nil && *o.value != *o.dst {
			*o.dst = *o.value
			overridden = true
		}
	}

	if req.ImportSource != "" && req.ImportSource != opts.ImportSource {
		opts.ImportSource = req.ImportSource
		overridden = true
	}

	if !overridden {
		return api.shared, nil
	}

	return api.converter(opts, 0), nil
}

// requestFilename names anonymous code after its apparent kind: a leading
// "<" marks a component.
func requestFilename(req ConvertRequest) string {
	switch {
	case req.Filename != "":
		return req.Filename
	case strings.HasPrefix(strings.TrimSpace(req.Code), "<"):
		return "component.vue"
	default:
		return "component.ts"
	}
}

func (api *apiServer) decode(rw http.ResponseWriter, hr *http.Request) (ConvertRequest, bool) {
	var req ConvertRequest

	body := hr.Body
	if api.deps.MaxBody > 0 {
		body = http.MaxBytesReader(rw, hr.Body, api.deps.MaxBody)
	}

	err := json.NewDecoder(body).Decode(&req)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(hr.Context(), rw, http.StatusRequestEntityTooLarge, err)
		} else {
			writeError(hr.Context(), rw, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		}

		return req, false
	}

	if strings.TrimSpace(req.Code) == "" {
		writeError(hr.Context(), rw, http.StatusBadRequest, ErrEmptyCode)

		return req, false
	}

	req.Filename = requestFilename(req)

	return req, true
}

func (api *apiServer) handleConvert(rw http.ResponseWriter, hr *http.Request) {
	req, ok := api.decode(rw, hr)
	if !ok {
		return
	}

	conv, err := api.requestConverter(req)
	if err != nil {
		writeError(hr.Context(), rw, http.StatusBadRequest, err)

		return
	}

	result, err := conv.Convert(hr.Context(), req.Filename, []byte(req.Code))
	if err != nil {
		writeError(hr.Context(), rw, statusFor(err), err)

		return
	}

	writeJSON(hr.Context(), rw, http.StatusOK, result)
}

func (api *apiServer) handleInspect(rw http.ResponseWriter, hr *http.Request) {
	req, ok := api.decode(rw, hr)
	if !ok {
		return
	}

	conv, err := api.requestConverter(req)
	if err != nil {
		writeError(hr.Context(), rw, http.StatusBadRequest, err)

		return
	}

	inspection, err := conv.Inspect(hr.Context(), req.Filename, []byte(req.Code))
	if err != nil {
		writeError(hr.Context(), rw, statusFor(err), err)

		return
	}

	writeJSON(hr.Context(), rw, http.StatusOK, inspection)
}

func statusFor(err error) int {
	if errors.Is(err, convert.ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}

	return http.StatusUnprocessableEntity
}

// writeJSON encodes the given value as JSON and writes it to the response writer.
func writeJSON(ctx context.Context, rw http.ResponseWriter, status int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		slog.Default().ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}

func writeError(ctx context.Context, rw http.ResponseWriter, status int, err error) {
	writeJSON(ctx, rw, status, ErrorResponse{Error: err.Error()})
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP conversion API",
		Long: `Start an HTTP server exposing the converter:

  POST /api/convert   {"code": "...", "filename": "Card.vue"} -> conversion result
  POST /api/inspect   {"code": "..."}                         -> member classification
  GET  /healthz, /readyz                                      -> health checks
  GET  /metrics                                               -> Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", config.DefaultServerHost, "address to listen on")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultServerPort, "port to listen on")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	opts, err := cfg.ConvertOptions()
	if err != nil {
		return err
	}

	maxBody, err := config.ParseSize(cfg.Server.MaxBody)
	if err != nil {
		return err
	}

	meterProvider, metricsHandler, err := observability.NewPrometheusProvider()
	if err != nil {
		return err
	}

	providers, err := initObservability(cmd, cfg, observability.ModeServe, cmd.ErrOrStderr(),
		observability.WithMeterProvider(meterProvider))
	if err != nil {
		return err
	}
	defer shutdown(providers)

	red, conversion, err := newMetrics(providers)
	if err != nil {
		return err
	}

	handler := NewServeMux(ServerDeps{
		Options:        opts,
		CacheSize:      cfg.Convert.CacheSize,
		MaxBody:        maxBody,
		Tracer:         providers.Tracer,
		Logger:         providers.Logger,
		Metrics:        red,
		Conversion:     conversion,
		MetricsHandler: metricsHandler,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)

	go func() {
		providers.Logger.Info("vueconv server starting", "addr", "http://"+server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	providers.Logger.Info("vueconv server stopping")

	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
