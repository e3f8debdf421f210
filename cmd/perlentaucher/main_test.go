package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Perlen</title>
<item>
  <title>Christopher Nolan – „Inception“ (2010)</title>
  <link>https://blog.example/inception</link>
  <guid>https://blog.example/?p=1</guid>
  <category>Mediathekperlen</category>
</item>
<item>
  <title>In eigener Sache</title>
  <link>https://blog.example/news</link>
  <guid>https://blog.example/?p=2</guid>
  <category>Blog</category>
</item>
</channel></rss>`

type cliEnv struct {
	dir        string
	configPath string
	stateFile  string
	downloads  string
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("OMDB_API_KEY", "")
	t.Setenv("NTFY_TOPIC", "")

	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "2048")
		_, _ = w.Write(bytes.Repeat([]byte("m"), 2048))
	}))
	t.Cleanup(media.Close)

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	t.Cleanup(feedSrv.Close)

	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"err":null,"result":{"results":[{"title":"Inception","topic":"Spielfilm","channel":"ARD","size":2048,"url_video":%q}],"queryInfo":{"totalResults":1,"resultCount":1}}}`,
			media.URL+"/video/inception.mp4")
	}))
	t.Cleanup(catalog.Close)

	env := &cliEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "perlentaucher.toml"),
		stateFile:  filepath.Join(dir, "state.json"),
		downloads:  filepath.Join(dir, "filme"),
	}
	cfg := fmt.Sprintf(`[paths]
download_dir = %q
state_file = %q

[feed]
url = %q

[search]
api_url = %q

[logging]
level = "error"
`, env.downloads, env.stateFile, feedSrv.URL, catalog.URL)
	if err := os.WriteFile(env.configPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRunDownloadsAndSkipsOnSecondRun(t *testing.T) {
	env := setupCLIEnv(t)

	out, stderr, err := execute(t, "--config", env.configPath, "run", "--no-progress")
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(out, "1 heruntergeladen") {
		t.Errorf("summary missing download count:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(env.downloads, "Inception (2010).mp4")); err != nil {
		t.Errorf("downloaded file: %v", err)
	}

	out, _, err = execute(t, "--config", env.configPath, "state", "list", "--json")
	if err != nil {
		t.Fatalf("state list: %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode state list: %v\n%s", err, out)
	}
	statuses := map[string]any{}
	for _, e := range entries {
		statuses[fmt.Sprint(e["id"])] = e["status"]
	}
	if statuses["https://blog.example/?p=1"] != "download_success" || statuses["https://blog.example/?p=2"] != "skipped" {
		t.Errorf("statuses = %v", statuses)
	}

	out, _, err = execute(t, "--config", env.configPath, "--no-progress")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !strings.Contains(out, "2 bereits verarbeitet") {
		t.Errorf("second run did not skip processed entries:\n%s", out)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	env := setupCLIEnv(t)

	out, stderr, err := execute(t, "--config", env.configPath, "run", "--dry-run", "--no-progress")
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(out, "Testlauf") {
		t.Errorf("summary does not mention dry run:\n%s", out)
	}
	if _, err := os.Stat(env.stateFile); !os.IsNotExist(err) {
		t.Errorf("state file exists after dry run: %v", err)
	}
	if _, err := os.Stat(env.downloads); !os.IsNotExist(err) {
		t.Errorf("download dir created during dry run: %v", err)
	}
}

func TestRunRejectsInvalidPreference(t *testing.T) {
	env := setupCLIEnv(t)
	if _, _, err := execute(t, "--config", env.configPath, "run", "--sprache", "klingonisch"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestStateShowForgetAndUpgrade(t *testing.T) {
	env := setupCLIEnv(t)
	legacy := `{"processed_entries": ["a", "b"], "last_updated": "2024-01-01T10:00:00"}`
	if err := os.WriteFile(env.stateFile, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write state: %v", err)
	}

	out, _, err := execute(t, "--config", env.configPath, "state", "upgrade")
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if !strings.Contains(out, "aktualisiert") {
		t.Errorf("upgrade output = %q", out)
	}

	out, _, err = execute(t, "--config", env.configPath, "state", "show", "a")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, `"status": "unknown"`) {
		t.Errorf("show output = %q", out)
	}

	out, _, err = execute(t, "--config", env.configPath, "state", "forget", "a", "zzz")
	if err != nil {
		t.Fatalf("forget: %v", err)
	}
	if !strings.Contains(out, "Entfernt: a") || !strings.Contains(out, "Nicht vorhanden: zzz") {
		t.Errorf("forget output = %q", out)
	}
	if _, _, err := execute(t, "--config", env.configPath, "state", "show", "a"); err == nil {
		t.Error("forgotten entry still shown")
	}

	out, _, err = execute(t, "--config", env.configPath, "state", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "b") || strings.Contains(out, "Keine Einträge") {
		t.Errorf("list output = %q", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	target := filepath.Join(dir, "conf", "perlentaucher.toml")

	out, _, err := execute(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("init output = %q", out)
	}
	if _, _, err := execute(t, "config", "init", "--path", target); err == nil {
		t.Error("second init without --overwrite should fail")
	}

	out, _, err = execute(t, "--config", target, "config", "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Errorf("validate output = %q", out)
	}
}

func TestTestNotifySendsMessage(t *testing.T) {
	env := setupCLIEnv(t)
	var mu sync.Mutex
	var title string
	ntfy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		title = r.Header.Get("Title")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer ntfy.Close()

	out, _, err := execute(t, "--config", env.configPath, "test-notify", "--notify", ntfy.URL+"/perlen")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(out, "Test notification sent") {
		t.Errorf("output = %q", out)
	}
	mu.Lock()
	defer mu.Unlock()
	if title != "Perlentaucher - Test" {
		t.Errorf("Title header = %q", title)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLIEnv(t)
	out, _, err := execute(t, "--config", env.configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(out, "disabled") {
		t.Errorf("output = %q", out)
	}
}
