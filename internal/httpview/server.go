// Package httpview serves the sample buffer over HTTP: a JSON data API, a
// browser chart, a websocket stream of new samples and Prometheus metrics.
package httpview

import (
	"context"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rileyhilliard/fv/internal/errors"
	"github.com/rileyhilliard/fv/internal/logger"
	"github.com/rileyhilliard/fv/internal/sample"
	"github.com/rileyhilliard/fv/internal/stats"
)

const (
	DefaultAddr        = ":2999"
	DefaultStatsWindow = 100
	shutdownTimeout    = 5 * time.Second
)

// Entry is one sample as served to clients: seq, ts (when the source sent
// one) and a field per value label.
type Entry map[string]any

// Options configures a Server.
type Options struct {
	Addr   string
	Title  string
	Topic  string
	Labels []string
	// StatsWindow bounds the rolling statistics behind /api/v1/current.
	// 0 summarizes every rendered sample.
	StatsWindow int
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
	Logger  logger.Logger
}

// Server is the HTTP front end. It is also a render.Renderer: each
// incremental draw feeds the rolling statistics and is pushed to websocket
// clients.
type Server struct {
	buf    *sample.Buffer
	opts   Options
	log    logger.Logger
	engine *gin.Engine
	index  *template.Template
	hub    *Hub

	mu      sync.Mutex
	windows []*stats.Window
}

// New builds the server and its routes. Nothing listens until
// ListenAndServe.
func New(buf *sample.Buffer, opts Options) (*Server, error) {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if len(opts.Labels) == 0 {
		opts.Labels = []string{"value"}
	}
	if opts.Title == "" {
		opts.Title = "fv"
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}

	index, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrServe, "Couldn't parse the chart page", "")
	}

	s := &Server{
		buf:     buf,
		opts:    opts,
		log:     opts.Logger,
		index:   index,
		windows: make([]*stats.Window, len(opts.Labels)),
	}
	for i := range s.windows {
		s.windows[i] = stats.NewWindow(opts.StatsWindow)
	}
	s.hub = NewHub(s.snapshotMessage, opts.Logger)

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestLog)
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/api/v1/data", s.handleData)
	s.engine.GET("/api/v1/current", s.handleCurrent)
	s.engine.GET("/api/v1/stream", s.handleStream)
	if opts.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	return s, nil
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub returns the websocket broadcaster.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.opts.Addr
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and disconnects websocket clients.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrServe,
			"Couldn't listen on "+s.opts.Addr,
			"Pick another address with --addr or stop whatever is using the port")
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("serving on http://%s", ln.Addr())

	select {
	case err := <-errCh:
		s.hub.Close()
		if err != nil && err != http.ErrServerClosed {
			return errors.WrapWithCode(err, errors.ErrServe, "HTTP server stopped", "")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapWithCode(err, errors.ErrServe, "HTTP server didn't shut down cleanly", "")
	}
	return nil
}

// Render implements render.Renderer for an incremental loop: samples are
// the ones added since the previous draw.
func (s *Server) Render(samples []sample.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	for _, smp := range samples {
		for i, w := range s.windows {
			if v, ok := smp.At(i); ok {
				w.Push(v)
			}
		}
	}
	s.mu.Unlock()

	return s.hub.Broadcast(Message{Type: MessageSamples, Entries: s.entries(samples)})
}

// Summaries returns the rolling statistics per label.
func (s *Server) Summaries() map[string]stats.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]stats.Summary, len(s.windows))
	for i, w := range s.windows {
		out[s.opts.Labels[i]] = w.Summary()
	}
	return out
}

func (s *Server) entry(smp sample.Sample) Entry {
	e := Entry{"seq": smp.Seq}
	if smp.HasTimestamp {
		e["ts"] = smp.Timestamp
	}
	for i, label := range s.opts.Labels {
		if v, ok := smp.At(i); ok {
			e[label] = v
		}
	}
	return e
}

func (s *Server) entries(samples []sample.Sample) []Entry {
	out := make([]Entry, len(samples))
	for i, smp := range samples {
		out[i] = s.entry(smp)
	}
	return out
}

func (s *Server) snapshotMessage() Message {
	return Message{Type: MessageSnapshot, Entries: s.entries(s.buf.Snapshot())}
}

func (s *Server) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"samples":  s.buf.Len(),
		"last_seq": s.buf.LastSeq(),
		"clients":  s.hub.Clients(),
	})
}

// handleData returns the retained samples. ?since=<seq> limits the result
// to newer samples and ?last=<n> to the n most recent.
func (s *Server) handleData(c *gin.Context) {
	var samples []sample.Sample
	switch {
	case c.Query("since") != "":
		since, err := strconv.ParseUint(c.Query("since"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a sequence number"})
			return
		}
		samples = s.buf.Since(since)
	case c.Query("last") != "":
		n, err := strconv.Atoi(c.Query("last"))
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "last must be a non-negative count"})
			return
		}
		samples = s.buf.Last(n)
	default:
		samples = s.buf.Snapshot()
	}
	c.JSON(http.StatusOK, s.entries(samples))
}

func (s *Server) handleCurrent(c *gin.Context) {
	last := s.buf.Last(1)
	if len(last) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no samples yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sample": s.entry(last[0]),
		"stats":  s.Summaries(),
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(c.Writer, s.indexModel()); err != nil {
		s.log.Error("render index: %v", err)
	}
}

func (s *Server) handleStream(c *gin.Context) {
	if err := s.hub.ServeWS(c.Writer, c.Request); err != nil {
		s.log.Warn("websocket upgrade: %v", err)
	}
}
