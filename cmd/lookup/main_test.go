package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lookup-erp/lookup/pkg/backend"
	"github.com/lookup-erp/lookup/pkg/config"
	"github.com/lookup-erp/lookup/pkg/models"
	"github.com/lookup-erp/lookup/pkg/search"
)

// writeConfig writes a config pointing at backendURL with a temp database.
func writeConfig(t *testing.T, backendURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lookup.yaml")
	t.Setenv("LOOKUP_TEST_DB", filepath.Join(dir, "lookup.db"))
	cfg := fmt.Sprintf(`
backend:
  url: %s
db_path: ${LOOKUP_TEST_DB}
log:
  level: error
`, backendURL)
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/clientes/buscar-rapido" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "ana lopez" {
			t.Errorf("q = %q", got)
		}
		io.WriteString(w, `[{"id":1,"name":"Ana Lopez","email":"ana@example.com"}]`)
	}))
	defer upstream.Close()
	cfgPath := writeConfig(t, upstream.URL)

	out, err := run(t, "-c", cfgPath, "search", "clientes", "Ana", "  LOPEZ")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Ana Lopez") || !strings.Contains(out, "ana@example.com") {
		t.Errorf("unexpected output:\n%s", out)
	}

	// Second run within the TTL is served from the persistent cache.
	if _, err := run(t, "-c", cfgPath, "search", "clients", "ana lopez"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 backend call, got %d", n)
	}

	if _, err := run(t, "-c", cfgPath, "search", "--no-cache", "clients", "ana lopez"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected --no-cache to reach the backend, got %d calls", n)
	}
}

func TestSearchCommandErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer upstream.Close()
	cfgPath := writeConfig(t, upstream.URL)

	if _, err := run(t, "-c", cfgPath, "search", "widgets", "abc"); err == nil {
		t.Error("expected unknown domain error")
	}
	if _, err := run(t, "-c", cfgPath, "search", "clients", "a"); err == nil || !strings.Contains(err.Error(), "too short") {
		t.Errorf("expected too short error, got %v", err)
	}
	if _, err := run(t, "-c", cfgPath, "search", "clients", "ana"); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected 401 error, got %v", err)
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	var lastAuth atomic.Value
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		io.WriteString(w, `[]`)
	}))
	defer upstream.Close()
	cfgPath := writeConfig(t, upstream.URL)

	if _, err := run(t, "-c", cfgPath, "whoami"); err == nil {
		t.Error("expected whoami to fail before login")
	}

	out, err := run(t, "-c", cfgPath, "login", "--token", "opaque-token")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Expires: never") {
		t.Errorf("unexpected login output:\n%s", out)
	}

	if _, err := run(t, "-c", cfgPath, "search", "products", "tornillo"); err != nil {
		t.Fatal(err)
	}
	if got, _ := lastAuth.Load().(string); got != "Bearer opaque-token" {
		t.Errorf("Authorization = %q", got)
	}

	if _, err := run(t, "-c", cfgPath, "logout"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "-c", cfgPath, "whoami"); err == nil {
		t.Error("expected whoami to fail after logout")
	}
}

func TestSessionChangesFromOtherProcess(t *testing.T) {
	var lastAuth atomic.Value
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		io.WriteString(w, `[]`)
	}))
	defer upstream.Close()
	cfgPath := writeConfig(t, upstream.URL)
	ctx := context.Background()

	a, err := openApp(ctx, &rootOptions{configPath: cfgPath})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	searchAuth := func() string {
		t.Helper()
		if _, err := a.client.SearchClients(ctx, "ana", nil); err != nil {
			t.Fatal(err)
		}
		got, _ := lastAuth.Load().(string)
		return got
	}

	if got := searchAuth(); got != "" {
		t.Errorf("anonymous start: Authorization = %q", got)
	}

	if _, err := run(t, "-c", cfgPath, "login", "--token", "elsewhere-token"); err != nil {
		t.Fatal(err)
	}
	if err := a.auth.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	if got := searchAuth(); got != "Bearer elsewhere-token" {
		t.Errorf("after login elsewhere: Authorization = %q", got)
	}

	if _, err := run(t, "-c", cfgPath, "logout"); err != nil {
		t.Fatal(err)
	}
	if err := a.auth.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	if got := searchAuth(); got != "" {
		t.Errorf("after logout elsewhere: Authorization = %q", got)
	}
}

func TestLogoutElsewhereResetsBrowseResults(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":1,"name":"Ana"}]`)
	}))
	defer upstream.Close()
	cfgPath := writeConfig(t, upstream.URL)
	ctx := context.Background()

	if _, err := run(t, "-c", cfgPath, "login", "--token", "shared-token"); err != nil {
		t.Fatal(err)
	}
	a, err := openApp(ctx, &rootOptions{configPath: cfgPath})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	cache := resultCache[models.Client](a)
	o := search.New(backend.ClientExecutor(a.client), search.Options[models.Client]{
		Scope: "clients",
		Cache: cache,
		AfterFunc: func(_ time.Duration, f func()) search.Timer {
			return time.AfterFunc(0, f)
		},
	})
	defer o.Close()
	resetOnLogout(a.auth, cache, o)

	o.SetSearchTerm("ana")
	st, err := o.Await(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Results) != 1 {
		t.Fatalf("expected 1 result, got %+v", st)
	}

	if _, err := run(t, "-c", cfgPath, "logout"); err != nil {
		t.Fatal(err)
	}
	if err := a.auth.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	if st := o.State(); len(st.Results) != 0 || st.SearchTerm != "" || st.Phase != search.PhaseIdle {
		t.Errorf("results still shown after logout: %+v", st)
	}
	if _, ok := cache.Get(search.CacheKey("clients", "ana", nil)); ok {
		t.Error("cache should be empty after logout")
	}
}

func TestChatCommands(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"answer":"Ventas de marzo: 1200"}`)
	}))
	defer upstream.Close()
	cfgPath := writeConfig(t, upstream.URL)

	out, err := run(t, "-c", cfgPath, "chat", "send", "ventas", "de", "marzo")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "Ventas de marzo: 1200" {
		t.Errorf("unexpected answer %q", out)
	}

	out, err = run(t, "-c", cfgPath, "chat", "history")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "ventas de marzo") {
		t.Errorf("history missing question:\n%s", out)
	}

	if _, err := run(t, "-c", cfgPath, "chat", "clear"); err != nil {
		t.Fatal(err)
	}
	out, _ = run(t, "-c", cfgPath, "chat", "history")
	if !strings.Contains(out, "No chat history.") {
		t.Errorf("expected empty history:\n%s", out)
	}
}

func TestCacheCommands(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":1,"name":"Ana"}]`)
	}))
	defer upstream.Close()
	cfgPath := writeConfig(t, upstream.URL)

	if _, err := run(t, "-c", cfgPath, "search", "clients", "ana"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "-c", cfgPath, "cache", "stats")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Entries: 1") {
		t.Errorf("unexpected stats:\n%s", out)
	}

	if _, err := run(t, "-c", cfgPath, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	out, _ = run(t, "-c", cfgPath, "cache", "stats")
	if !strings.Contains(out, "Entries: 0") {
		t.Errorf("expected empty cache:\n%s", out)
	}
}

func TestLoadConfigFallsBackToDefault(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.URL == "" {
		t.Error("expected default backend URL")
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for explicit missing config")
	}
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	if _, err := newLogger(config.Default().Log, "loud", io.Discard); err == nil {
		t.Error("expected invalid level error")
	}
}
