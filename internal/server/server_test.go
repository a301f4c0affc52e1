package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"nickandperla.net/semi/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, st store.Store) *Server {
	t.Helper()
	return New(Config{
		Addr:          "127.0.0.1:0",
		Retention:     time.Hour,
		PruneInterval: time.Minute,
		MaxBody:       64,
	}, st, quietLogger())
}

func do(s *Server, method, uri, body string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	ctx.Request.SetBodyString(body)
	s.Handler(&ctx)
	return &ctx
}

func TestRunOK(t *testing.T) {
	s := newTestServer(t, store.NewMemory())

	ctx := do(s, fasthttp.MethodPost, "/run", `a="awesome";c=100;print(a);print(c);`)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	var resp runResponse
	if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Output != "awesome100" {
		t.Errorf("expected 'awesome100', got '%s'", resp.Output)
	}
	if resp.Error != "" || resp.Kind != "" {
		t.Errorf("unexpected error fields: %+v", resp)
	}
	if len(resp.Variables) != 2 || resp.Variables[0].Name != "a" {
		t.Errorf("unexpected variables: %+v", resp.Variables)
	}
	if resp.Hash != store.Hash(`a="awesome";c=100;print(a);print(c);`) {
		t.Errorf("unexpected hash %s", resp.Hash)
	}
}

func TestRunProgramError(t *testing.T) {
	s := newTestServer(t, nil)

	ctx := do(s, fasthttp.MethodPost, "/run", "a=1;prnt(a);")
	if ctx.Response.StatusCode() != fasthttp.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", ctx.Response.StatusCode())
	}
	var resp runResponse
	if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp.Kind != "UNKNOWN_FUNCTION" {
		t.Errorf("expected UNKNOWN_FUNCTION, got '%s'", resp.Kind)
	}
	if len(resp.Variables) != 1 {
		t.Errorf("expected the declaration before the failure, got %+v", resp.Variables)
	}
}

func TestRunRejects(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		uri    string
		body   string
		status int
	}{
		{"get run", fasthttp.MethodGet, "/run", "", fasthttp.StatusMethodNotAllowed},
		{"too large", fasthttp.MethodPost, "/run", string(make([]byte, 65)), fasthttp.StatusRequestEntityTooLarge},
		{"unknown path", fasthttp.MethodGet, "/nope", "", fasthttp.StatusNotFound},
		{"runs without journal", fasthttp.MethodGet, "/runs", "", fasthttp.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := do(s, tt.method, tt.uri, tt.body)
			if ctx.Response.StatusCode() != tt.status {
				t.Errorf("expected %d, got %d", tt.status, ctx.Response.StatusCode())
			}
		})
	}
}

func TestRunsListsJournal(t *testing.T) {
	st := store.NewMemory()
	s := newTestServer(t, st)

	do(s, fasthttp.MethodPost, "/run", "a=1;print(a);")
	do(s, fasthttp.MethodPost, "/run", "print(b);")
	do(s, fasthttp.MethodPost, "/run", "c=2;sum(c);")

	ctx := do(s, fasthttp.MethodGet, "/runs?limit=2", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
	var runs []store.Run
	if err := json.Unmarshal(ctx.Response.Body(), &runs); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Output != "2" || runs[1].Kind != "UNDEFINED_VARIABLE" {
		t.Errorf("unexpected runs: %+v", runs)
	}

	// The journal outlives each request's runtime.
	if _, err := st.Recent(1); err != nil {
		t.Errorf("journal closed by request: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := do(s, fasthttp.MethodGet, "/healthz", "")
	if string(ctx.Response.Body()) != "ok" {
		t.Errorf("expected ok, got '%s'", ctx.Response.Body())
	}
}

func TestPrune(t *testing.T) {
	st := store.NewMemory()
	s := newTestServer(t, st)

	old := &store.Run{Hash: store.Hash("a=1;"), Source: "a=1;", At: time.Now().Add(-2 * time.Hour)}
	fresh := &store.Run{Hash: store.Hash("b=1;"), Source: "b=1;", At: time.Now()}
	st.Record(old)
	st.Record(fresh)

	n, err := s.Prune()
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned run, got %d", n)
	}

	// A prune already in progress makes the next call a no-op.
	s.pruning.Set()
	n, err = s.Prune()
	if err != nil || n != 0 {
		t.Errorf("expected guarded no-op, got %d (%v)", n, err)
	}
	s.pruning.UnSet()
}

func TestServeInMemory(t *testing.T) {
	st := store.NewMemory()
	s := newTestServer(t, st)

	ln := fasthttputil.NewInmemoryListener()
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://semi/run")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetBodyString("x=7;print(x);")
	req.SetConnectionClose()
	if err := client.Do(req, resp); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode())
	}

	if err := s.Shutdown(); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v", err)
	}
}
