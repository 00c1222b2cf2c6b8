package marketplace_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/agentpulse/internal/adapters/marketplace"
	"github.com/okian/agentpulse/pkg/logger"
)

// upstream is a fake marketplace serving canned JSON and HTML.
type upstream struct {
	server *httptest.Server

	mu        sync.Mutex
	calls     map[string]int
	userAgent string
	rankPath  string

	directory map[string]string // "filter=value" -> JSON body
	metrics   map[string]string // agent id -> JSON body
	offerings map[string]string // agent id -> JSON body
	pages     map[string]string // agent id -> HTML
	epochs    string
	ranking   string
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("logger init: %v", err)
	}
	u := &upstream{
		calls:     map[string]int{},
		directory: map[string]string{},
		metrics:   map[string]string{},
		offerings: map[string]string{},
		pages:     map[string]string{},
	}
	u.server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) client(opts ...marketplace.Option) *marketplace.Client {
	base := []marketplace.Option{
		marketplace.WithBaseURLs(u.server.URL, u.server.URL, u.server.URL),
		marketplace.WithTimeouts(2*time.Second, 2*time.Second),
	}
	return marketplace.NewClient(append(base, opts...)...)
}

func (u *upstream) count(kind string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[kind]
}

func (u *upstream) lastRankPath() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rankPath
}

func (u *upstream) lastUserAgent() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.userAgent
}

func (u *upstream) total() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, c := range u.calls {
		n += c
	}
	return n
}

func (u *upstream) serve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	kind, body, ok := u.route(r)

	u.mu.Lock()
	u.calls[kind]++
	u.userAgent = r.Header.Get("User-Agent")
	if kind == "ranking" {
		u.rankPath = path + "?" + r.URL.RawQuery
	}
	u.mu.Unlock()

	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if kind == "profile" {
		w.Header().Set("Content-Type", "text/html")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	_, _ = w.Write([]byte(body))
}

func (u *upstream) route(r *http.Request) (kind, body string, ok bool) {
	path := r.URL.Path
	u.mu.Lock()
	defer u.mu.Unlock()
	switch {
	case path == "/api/agents":
		for key, vals := range r.URL.Query() {
			body, ok = u.directory[key+"="+vals[0]]
		}
		if !ok {
			return "directory", `{"data":[]}`, true
		}
		return "directory", body, true
	case strings.HasPrefix(path, "/api/metrics/agent/"):
		body, ok = u.metrics[strings.TrimPrefix(path, "/api/metrics/agent/")]
		return "metrics", body, ok
	case strings.HasPrefix(path, "/api/agents/") && strings.HasSuffix(path, "/offerings"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/api/agents/"), "/offerings")
		body, ok = u.offerings[id]
		return "offerings", body, ok
	case path == "/api/agdp-leaderboard-epochs":
		return "epochs", u.epochs, u.epochs != ""
	case strings.HasSuffix(path, "/ranking"):
		return "ranking", u.ranking, u.ranking != ""
	case strings.HasPrefix(path, "/agent/"):
		body, ok = u.pages[strings.TrimPrefix(path, "/agent/")]
		return "profile", body, ok
	}
	return "unknown", "", false
}
