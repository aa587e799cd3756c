package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/copyleftdev/binpack/internal/binpacking"
	"github.com/copyleftdev/binpack/internal/config"
	apperrors "github.com/copyleftdev/binpack/internal/errors"
	"github.com/copyleftdev/binpack/internal/logging"
	"github.com/copyleftdev/binpack/internal/mip"
	"github.com/copyleftdev/binpack/internal/mip/lprelax"
	"github.com/copyleftdev/binpack/internal/mip/pbsolver"
)

// Logger defines the logging interface used by the server.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

var (
	// errBadRequest marks request errors that are not instance errors.
	errBadRequest = errors.New("bad request")
	// errBusy is returned when another search kept the solver for the whole
	// time limit of a request.
	errBusy = errors.New("solver busy")
)

// busyRetryAfter is the Retry-After value, in seconds, sent with errBusy.
const busyRetryAfter = "10"

// Server implements the HTTP and JSON-RPC surface of the solver. Every
// request gets its own engine; solves run synchronously in the handler.
type Server struct {
	cfg      *config.Config
	logger   Logger
	zap      *zap.Logger
	observer binpacking.Observer
}

// Option configures a Server.
type Option func(*Server)

// WithObserver reports every solve to o.
func WithObserver(o binpacking.Observer) Option {
	return func(s *Server) { s.observer = o }
}

// WithZapLogger sets the logger handed to solver engines.
func WithZapLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.zap = l
		}
	}
}

// NewServer creates a new server instance with the given config and logger.
func NewServer(cfg *config.Config, logger Logger, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		zap:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRoutes mounts the API on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Post("/model", s.handleModel)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// SolveRequest describes an instance and how to solve it. Item sizes are
// generated when ItemSizes is absent.
type SolveRequest struct {
	BinSize          int      `json:"bin_size"`
	ItemSizes        []int    `json:"item_sizes,omitempty"`
	NumItems         *int     `json:"num_items,omitempty"`
	MaxItemSize      *int     `json:"max_item_size,omitempty"`
	Seed             *int64   `json:"seed,omitempty"`
	TimeLimitSeconds *float64 `json:"time_limit_seconds,omitempty"`
	SymmetryBreaking bool     `json:"symmetry_breaking,omitempty"`
}

// SolveResponse is the outcome of a solve.
type SolveResponse struct {
	Status     mip.Status `json:"status"`
	BinSize    int        `json:"bin_size"`
	ItemSizes  []int      `json:"item_sizes"`
	Objective  *float64   `json:"objective,omitempty"`
	LowerBound int        `json:"lower_bound"`
	LPBound    *float64   `json:"lp_bound,omitempty"`
	Bins       [][]int    `json:"bins,omitempty"`
	Loads      []int      `json:"loads,omitempty"`
	ElapsedMS  int64      `json:"elapsed_ms"`
}

func (s *Server) instance(req *SolveRequest) (*binpacking.Instance, error) {
	var opts []binpacking.InstanceOption
	if req.ItemSizes != nil {
		if len(req.ItemSizes) > s.cfg.Solver.MaxItems {
			return nil, fmt.Errorf("%w: %d items exceed the limit of %d", errBadRequest, len(req.ItemSizes), s.cfg.Solver.MaxItems)
		}
		opts = append(opts, binpacking.WithItemSizes(req.ItemSizes...))
	}
	if req.NumItems != nil {
		if *req.NumItems > s.cfg.Solver.MaxItems {
			return nil, fmt.Errorf("%w: %d items exceed the limit of %d", errBadRequest, *req.NumItems, s.cfg.Solver.MaxItems)
		}
		opts = append(opts, binpacking.WithNumItems(*req.NumItems))
	}
	if req.MaxItemSize != nil {
		opts = append(opts, binpacking.WithMaxItemSize(*req.MaxItemSize))
	}
	if req.Seed != nil {
		opts = append(opts, binpacking.WithRand(rand.New(rand.NewSource(*req.Seed))))
	}
	return binpacking.NewInstance(req.BinSize, opts...)
}

func (s *Server) timeLimit(req *SolveRequest) time.Duration {
	if req.TimeLimitSeconds == nil {
		return s.cfg.ClampTimeLimit(s.cfg.Solver.TimeLimit)
	}
	return s.cfg.ClampTimeLimit(time.Duration(*req.TimeLimitSeconds * float64(time.Second)))
}

func (s *Server) newEngine() *pbsolver.Engine {
	return pbsolver.New(
		pbsolver.WithLogger(s.zap),
		pbsolver.WithVerbose(s.cfg.Solver.Verbose),
	)
}

// solve runs one request to completion.
func (s *Server) solve(req *SolveRequest, logger Logger) (*SolveResponse, error) {
	start := time.Now()
	inst, err := s.instance(req)
	if err != nil {
		return nil, err
	}

	engine := s.newEngine()
	opts := []binpacking.ProblemOption{binpacking.WithLogger(logger)}
	if s.observer != nil {
		opts = append(opts, binpacking.WithObserver(s.observer))
	}
	if req.SymmetryBreaking {
		opts = append(opts, binpacking.WithSymmetryBreaking())
	}
	problem, err := binpacking.NewProblem(inst, engine, opts...)
	if err != nil {
		return nil, err
	}

	status, err := problem.Solve(s.timeLimit(req))
	if err != nil {
		return nil, err
	}
	if engine.Stats().Busy {
		return nil, errBusy
	}

	resp := &SolveResponse{
		Status:     status,
		BinSize:    inst.BinSize(),
		ItemSizes:  inst.ItemSizes(),
		LowerBound: inst.LowerBound(),
	}
	if obj, ok := problem.Objective(); ok {
		resp.Objective = &obj
		packing, err := problem.Packing()
		if err != nil {
			return nil, err
		}
		resp.Bins = packing.Bins
		resp.Loads = packing.Loads
	}

	relax, err := lprelax.Solve(engine.Model())
	switch {
	case errors.Is(err, lprelax.ErrTooLarge):
		logger.Debug("LP bound skipped", map[string]interface{}{"items": inst.NumItems()})
	case err != nil:
		logger.Warn("LP bound failed", map[string]interface{}{"error": err.Error()})
	case relax.Status == mip.Optimal:
		resp.LPBound = &relax.Objective
	}

	resp.ElapsedMS = time.Since(start).Milliseconds()
	return resp, nil
}

// writeModel builds the formulation of req without solving it and writes it
// in LP format.
func (s *Server) writeModel(w http.ResponseWriter, req *SolveRequest) error {
	inst, err := s.instance(req)
	if err != nil {
		return err
	}
	engine := s.newEngine()
	builder := binpacking.NewModelBuilder(inst, engine)
	builder.SymmetryBreaking = req.SymmetryBreaking
	if _, err := builder.Build(); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	return mip.WriteLP(w, engine.Model())
}

// requestLogger returns the request-scoped logger stored by
// logging.Middleware, or the server logger.
func (s *Server) requestLogger(r *http.Request) Logger {
	if l, ok := logging.Lookup(r.Context()); ok {
		return l.Logger
	}
	return s.logger
}

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	switch {
	case binpacking.IsInvalidInstance(err), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeRequest(r *http.Request) (*SolveRequest, error) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return &req, nil
}

// handleSolve handles POST /api/v1/solve.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		apperrors.WriteJSON(w, http.StatusBadRequest, err)
		return
	}

	logger := s.requestLogger(r)
	resp, err := s.solve(req, logger)
	if err != nil {
		writeError(w, logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// handleModel handles POST /api/v1/model.
func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		apperrors.WriteJSON(w, http.StatusBadRequest, err)
		return
	}
	if err := s.writeModel(w, req); err != nil {
		writeError(w, s.requestLogger(r), err)
	}
}

// writeError writes err with the status code statusFor assigns it.
func writeError(w http.ResponseWriter, logger Logger, err error) {
	code := statusFor(err)
	switch {
	case code == http.StatusServiceUnavailable:
		logger.Warn("Solver busy", map[string]interface{}{"error": err.Error()})
		w.Header().Set("Retry-After", busyRetryAfter)
	case code >= http.StatusInternalServerError:
		logger.Error("Solve failed", map[string]interface{}{"error": err.Error()})
	}
	apperrors.WriteJSON(w, code, err)
}
