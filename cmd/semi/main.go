// Command semi is the semi interpreter CLI.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/fatih/color"
	"golang.org/x/term"

	"nickandperla.net/semi/internal/config"
	"nickandperla.net/semi/internal/logger"
	"nickandperla.net/semi/internal/server"
	"nickandperla.net/semi/internal/stdlib"
	"nickandperla.net/semi/internal/store"
	"nickandperla.net/semi/pkg/semi"
)

const usage = `usage: semi [options]

options:
  -e SRC       run SRC
  -f FILE      run FILE
  -c FILE      read configuration from FILE
  -d DB        journal runs to the SQLite database DB
  -l LEVEL     log level (debug, info, warn, error)
  -E NAME      charset of program text [default=utf-8]
  -H N         print the last N journaled runs and exit
  -s ADDR      serve the playground on ADDR
  -C           disable colour
  -h           print this message and the language primer

With no -e or -f, semi runs a REPL on a terminal, or runs the first line of
standard input otherwise.
`

type options struct {
	eval       string
	file       string
	configPath string
	db         string
	level      string
	encoding   string
	serve      string
	history    int
	noColor    bool
	help       bool
}

var errColor = color.New(color.FgRed, color.Bold)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func parseArgs(args []string) (*options, error) {
	opts, optind, err := getopt.Getopts(args, "e:f:c:d:l:E:H:s:Ch")
	if err != nil {
		return nil, err
	}
	if optind < len(args) {
		return nil, fmt.Errorf("unexpected argument %q", args[optind])
	}

	o := &options{history: -1}
	for _, opt := range opts {
		switch opt.Option {
		case 'e':
			o.eval = opt.Value
		case 'f':
			o.file = opt.Value
		case 'c':
			o.configPath = opt.Value
		case 'd':
			o.db = opt.Value
		case 'l':
			o.level = opt.Value
		case 'E':
			o.encoding = opt.Value
		case 'H':
			n, err := strconv.Atoi(opt.Value)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid -H parameter %q", opt.Value)
			}
			o.history = n
		case 's':
			o.serve = opt.Value
		case 'C':
			o.noColor = true
		case 'h':
			o.help = true
		}
	}
	return o, nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(o *options) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.db != "" {
		cfg.DB = o.db
	}
	if o.level != "" {
		cfg.LogLevel = o.level
	}
	if o.encoding != "" {
		cfg.Encoding = o.encoding
	}
	if o.serve != "" {
		cfg.Serve.Addr = o.serve
	}
	if o.noColor {
		cfg.Color = "never"
	}
	return cfg, cfg.Validate()
}

func applyColor(mode string) {
	switch mode {
	case "never":
		color.NoColor = true
	case "always":
		color.NoColor = false
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "semi: %v\n%s", err, usage)
		return 2
	}
	if o.help {
		fmt.Fprint(stdout, usage)
		fmt.Fprintln(stdout)
		fmt.Fprint(stdout, stdlib.Primer)
		return 0
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "semi: %v\n", err)
		return 2
	}
	applyColor(cfg.Color)

	log, err := logger.InitLogger(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "semi: %v\n", err)
		return 2
	}

	switch {
	case o.serve != "":
		return serve(cfg, stderr)
	case o.history >= 0:
		return history(cfg, o.history, stdout, stderr)
	}

	out := &trackingWriter{w: stdout}
	rtOpts := []semi.Option{
		semi.WithOutput(out),
		semi.WithLogger(log),
		semi.WithEncoding(cfg.Encoding),
	}
	if cfg.DB != "" {
		rtOpts = append(rtOpts, semi.WithSQLiteStore(cfg.DB))
	}
	runtime := semi.New(rtOpts...)
	defer runtime.Close()

	switch {
	case o.file != "" || o.eval != "":
		if o.file != "" {
			if err := runtime.RunFile(o.file); err != nil {
				return fail(stderr, err)
			}
		}
		if o.eval != "" {
			if err := runtime.Run(o.eval); err != nil {
				return fail(stderr, err)
			}
		}
	case isTerminal(stdin):
		runREPL(runtime, stdin, out, stdout)
	default:
		line, err := readLine(stdin)
		if err != nil {
			return fail(stderr, err)
		}
		if err := runtime.Run(line); err != nil {
			return fail(stderr, err)
		}
	}
	return 0
}

func fail(w io.Writer, err error) int {
	errColor.Fprintf(w, "error: %v\n", err)
	return 1
}

// readLine returns the first line of r without its line ending.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func history(cfg *config.Config, limit int, stdout, stderr io.Writer) int {
	if cfg.DB == "" {
		return fail(stderr, errors.New("history needs a journal database (-d or db in the config file)"))
	}
	runtime := semi.New(semi.WithSQLiteStore(cfg.DB), semi.WithLogger(logger.GetLogger()))
	defer runtime.Close()
	if runtime.Store() == nil {
		return fail(stderr, fmt.Errorf("cannot open journal %s", cfg.DB))
	}

	if limit == 0 {
		return 0
	}
	runs, err := runtime.History(limit)
	if err != nil {
		return fail(stderr, err)
	}
	for _, r := range runs {
		status := "ok"
		if r.Kind != "" {
			status = r.Kind
		}
		fmt.Fprintf(stdout, "#%d %s %s %s %s\n",
			r.ID, r.At.Format("2006-01-02 15:04:05"), r.Hash[:12], status, r.Source)
	}
	return 0
}

func serve(cfg *config.Config, stderr io.Writer) int {
	var st store.Store = store.NewMemory()
	if cfg.DB != "" {
		sqlite, err := store.NewSQLite(cfg.DB)
		if err != nil {
			return fail(stderr, err)
		}
		st = sqlite
	}
	defer st.Close()

	srv := server.New(server.Config{
		Addr:          cfg.Serve.Addr,
		Retention:     cfg.Serve.Retention,
		PruneInterval: cfg.Serve.PruneInterval,
		MaxBody:       cfg.Serve.MaxBody,
		Encoding:      cfg.Encoding,
	}, st, logger.GetLogger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if err != nil {
			return fail(stderr, err)
		}
	case <-ctx.Done():
		if err := srv.Shutdown(); err != nil {
			return fail(stderr, err)
		}
	}
	return 0
}

// trackingWriter remembers whether anything was written since the last reset.
type trackingWriter struct {
	w     io.Writer
	wrote bool
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		t.wrote = true
	}
	return t.w.Write(p)
}
