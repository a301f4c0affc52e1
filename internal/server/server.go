// Package server runs semi programs over HTTP and prunes the run journal.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/tevino/abool/v2"
	"github.com/valyala/fasthttp"

	"nickandperla.net/semi/internal/store"
	"nickandperla.net/semi/pkg/semi"
)

// Config configures a Server.
type Config struct {
	Addr          string
	Retention     time.Duration
	PruneInterval time.Duration
	MaxBody       int
	Encoding      string
}

// Server is the playground HTTP server. Every request gets a fresh Runtime;
// only the journal is shared.
type Server struct {
	cfg       Config
	store     store.Store
	logger    *slog.Logger
	http      *fasthttp.Server
	scheduler gocron.Scheduler
	pruning   *abool.AtomicBool
}

type runResponse struct {
	Hash      string          `json:"hash"`
	Output    string          `json:"output"`
	Error     string          `json:"error,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	Variables []semi.Variable `json:"variables"`
}

// New creates a server. st may be nil, which disables journaling and pruning.
func New(cfg Config, st store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		store:   st,
		logger:  logger,
		pruning: abool.New(),
	}
	s.http = &fasthttp.Server{
		Handler:            s.Handler,
		Name:               "semi",
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		MaxRequestBodySize: cfg.MaxBody,
	}
	return s
}

// Handler routes a request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/run":
		s.handleRun(ctx)
	case "/runs":
		s.handleRuns(ctx)
	case "/healthz":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.WriteString("ok")
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) handleRun(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	body := ctx.PostBody()
	if s.cfg.MaxBody > 0 && len(body) > s.cfg.MaxBody {
		ctx.Error("program too large", fasthttp.StatusRequestEntityTooLarge)
		return
	}

	var out bytes.Buffer
	opts := []semi.Option{
		semi.WithOutput(&out),
		semi.WithLogger(s.logger),
		semi.WithEncoding(s.cfg.Encoding),
	}
	if s.store != nil {
		opts = append(opts, semi.WithStore(sharedStore{s.store}))
	}
	rt := semi.New(opts...)
	defer rt.Close()

	src := string(body)
	err := rt.Run(src)

	resp := runResponse{
		Hash:      store.Hash(src),
		Output:    out.String(),
		Variables: rt.Variables(),
	}
	status := fasthttp.StatusOK
	if err != nil {
		resp.Error = err.Error()
		resp.Kind = string(semi.KindOf(err))
		status = fasthttp.StatusUnprocessableEntity
		var semiErr *semi.Error
		if !errors.As(err, &semiErr) {
			status = fasthttp.StatusBadRequest
		}
	}
	s.logger.Info("run", "hash", resp.Hash, "status", status, "kind", resp.Kind)
	writeJSON(ctx, status, resp)
}

func (s *Server) handleRuns(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		ctx.Error("journal disabled", fasthttp.StatusNotFound)
		return
	}
	limit := ctx.QueryArgs().GetUintOrZero("limit")
	if limit == 0 {
		limit = 20
	}
	runs, err := s.store.Recent(limit)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(ctx, fasthttp.StatusOK, runs)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(b)
}

// Prune removes journal entries older than the retention. Overlapping calls
// return immediately with zero.
func (s *Server) Prune() (int64, error) {
	if s.store == nil {
		return 0, nil
	}
	if !s.pruning.SetToIf(false, true) {
		return 0, nil
	}
	defer s.pruning.UnSet()

	n, err := s.store.Prune(time.Now().Add(-s.cfg.Retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("journal pruned", "runs", n)
	}
	return n, nil
}

func (s *Server) pruneTask() {
	if _, err := s.Prune(); err != nil {
		s.logger.Error("journal prune failed", "err", err)
	}
}

// startScheduler schedules pruning when a journal is configured.
func (s *Server) startScheduler() error {
	if s.store == nil || s.cfg.PruneInterval <= 0 {
		return nil
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	job, err := scheduler.NewJob(gocron.DurationJob(s.cfg.PruneInterval), gocron.NewTask(s.pruneTask))
	if err != nil {
		scheduler.Shutdown()
		return err
	}
	s.logger.Debug("prune job scheduled", "id", job.ID(), "every", s.cfg.PruneInterval)
	scheduler.Start()
	s.scheduler = scheduler
	return nil
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.startScheduler(); err != nil {
		return err
	}
	s.logger.Info("serving", "addr", ln.Addr().String())
	return s.http.Serve(ln)
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown stops the HTTP server and the prune job.
func (s *Server) Shutdown() error {
	err := s.http.Shutdown()
	if s.scheduler != nil {
		if serr := s.scheduler.Shutdown(); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

// sharedStore keeps a per-request Runtime from closing the server's journal.
type sharedStore struct {
	store.Store
}

func (sharedStore) Close() error { return nil }
