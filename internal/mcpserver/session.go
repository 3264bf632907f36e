package mcpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/erraggy/apicompiler/compiler"
)

// session is the reader state shared by every tool call of one server
// process. Documents read by one call are cached for the next.
type session struct {
	cfg      *serverConfig
	reader   *compiler.Reader
	registry *prometheus.Registry
	watcher  *compiler.CacheWatcher
}

func newSession(c *serverConfig, logger *slog.Logger) *session {
	cache := compiler.NewCache()
	if !c.CacheEnabled {
		cache.DisableFileCache()
		cache.DisableInfoCache()
	}

	client := newSafeHTTPClient()
	if c.AllowPrivateHosts {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	clog := compiler.NewSlogAdapter(logger)
	s := &session{cfg: c, registry: prometheus.NewRegistry()}
	opts := []compiler.Option{
		compiler.WithCache(cache),
		compiler.WithHTTPClient(client),
		compiler.WithHTTPS(c.AllowHTTPS),
		compiler.WithLogger(clog),
		compiler.WithMetrics(compiler.NewMetrics(s.registry)),
		compiler.WithMaxRefDepth(c.MaxRefDepth),
	}

	// Cached local files are dropped when they change between calls.
	if c.CacheEnabled {
		w, err := compiler.NewCacheWatcher(cache, clog)
		if err != nil {
			logger.Warn("file watching disabled", "error", err)
		} else {
			s.watcher = w
			opts = append(opts, compiler.WithWatcher(w))
		}
	}

	s.reader = compiler.NewReader(opts...)
	s.reader.SetVerbose(c.Verbose)
	return s
}

func (s *session) close() {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
}

// lookupCounts sums the cache lookups recorded so far.
func (s *session) lookupCounts() (hits, misses int) {
	families, err := s.registry.Gather()
	if err != nil {
		return 0, 0
	}
	for _, mf := range families {
		if mf.GetName() != "apicompiler_cache_lookups_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			n := int(m.GetCounter().GetValue())
			for _, lp := range m.GetLabel() {
				if lp.GetName() != "result" {
					continue
				}
				if lp.GetValue() == "hit" {
					hits += n
				} else {
					misses += n
				}
			}
		}
	}
	return hits, misses
}
