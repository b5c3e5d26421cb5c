package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

const stubHyprctl = `#!/bin/sh
dir=$(dirname "$0")
printf '%s\n' "$*" >> "$dir/calls.log"
case "$1" in
  dispatch)
    if [ -f "$dir/fail-$2" ]; then
      echo "Invalid workspace"
      exit 0
    fi
    echo ok
    ;;
  *)
    if [ -f "$dir/$1.json" ]; then
      cat "$dir/$1.json"
    else
      echo '{}'
    fi
    ;;
esac
`

type testEnv struct {
	t       *testing.T
	binDir  string
	runtime string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	binDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(binDir, "hyprctl"), []byte(stubHyprctl), 0755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	runtimeDir := t.TempDir()
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return &testEnv{t: t, binDir: binDir, runtime: runtimeDir}
}

func (e *testEnv) reply(query, body string) {
	e.t.Helper()
	if err := os.WriteFile(filepath.Join(e.binDir, query+".json"), []byte(body), 0644); err != nil {
		e.t.Fatalf("write reply: %v", err)
	}
}

func (e *testEnv) failDispatch(dispatcher string) {
	e.t.Helper()
	if err := os.WriteFile(filepath.Join(e.binDir, "fail-"+dispatcher), nil, 0644); err != nil {
		e.t.Fatalf("write fail marker: %v", err)
	}
}

func (e *testEnv) calls() string {
	data, _ := os.ReadFile(filepath.Join(e.binDir, "calls.log"))
	return string(data)
}

func (e *testEnv) statePath() string {
	return filepath.Join(e.runtime, "omaveil", "windows.json")
}

func (e *testEnv) diagLog() string {
	data, _ := os.ReadFile(filepath.Join(e.runtime, "omaveil", "omaveil.log"))
	return string(data)
}

func (e *testEnv) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	c := &cli{stdout: &stdout, stderr: &stderr}
	code := c.run(args)
	return code, stdout.String(), stderr.String()
}

func TestRun_UsageAndHelp(t *testing.T) {
	newTestEnv(t)
	var stdout, stderr bytes.Buffer
	c := &cli{stdout: &stdout, stderr: &stderr}

	if code := c.run(nil); code != exitUsage {
		t.Fatalf("no args: exit %d, want %d", code, exitUsage)
	}
	if code := c.run([]string{"bogus"}); code != exitUsage {
		t.Fatalf("unknown verb: exit %d, want %d", code, exitUsage)
	}
	if code := c.run([]string{"help"}); code != exitOK {
		t.Fatalf("help: exit %d", code)
	}
	if !strings.Contains(stdout.String(), "restore-last") {
		t.Fatalf("help output missing verbs: %q", stdout.String())
	}
	if code := c.run([]string{"restore", "0x1", "0x2"}); code != exitUsage {
		t.Fatalf("restore with two addresses: exit %d, want %d", code, exitUsage)
	}
	if code := c.run([]string{"minimize", "--help"}); code != exitOK {
		t.Fatalf("minimize --help: exit %d", code)
	}
}

func TestShow_EmptyStoreDoesNotCallHyprctl(t *testing.T) {
	env := newTestEnv(t)

	code, stdout, _ := env.run("show")
	if code != exitOK {
		t.Fatalf("show: exit %d", code)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("show output is not JSON: %q (%v)", stdout, err)
	}
	if payload["class"] != "empty" || payload["tooltip"] != "No minimized windows" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if strings.Count(stdout, "\n") != 1 {
		t.Fatalf("expected a single line, got %q", stdout)
	}
	if env.calls() != "" {
		t.Fatalf("show must not invoke hyprctl, got %q", env.calls())
	}
}

func TestMinimize_NoFocusedWindowIsBenign(t *testing.T) {
	env := newTestEnv(t)
	env.reply("activewindow", "{}")

	code, _, _ := env.run("minimize")
	if code != exitNothing {
		t.Fatalf("exit %d, want %d", code, exitNothing)
	}
	if _, err := os.Stat(env.statePath()); !os.IsNotExist(err) {
		t.Fatalf("state file must not be created, stat err = %v", err)
	}
	if log := env.diagLog(); log != "" {
		t.Fatalf("benign outcome must not be logged, got %q", log)
	}
}

func TestMinimizeThenShowThenRestoreLast(t *testing.T) {
	env := newTestEnv(t)
	env.reply("activewindow", `{"address":"0xabc","class":"kitty","title":"zsh","workspace":{"id":2,"name":"2"}}`)
	env.reply("clients", `[{"address":"0xabc","class":"kitty","workspace":{"id":-98,"name":"special:minimum"}}]`)
	env.reply("workspaces", `[{"id":2,"name":"2"}]`)
	env.reply("activeworkspace", `{"id":1,"name":"1"}`)

	if code, _, stderr := env.run("minimize"); code != exitOK {
		t.Fatalf("minimize: exit %d (%s)", code, stderr)
	}
	if !strings.Contains(env.calls(), "dispatch movetoworkspacesilent special:minimum,address:0xabc") {
		t.Fatalf("expected hide command, got %q", env.calls())
	}

	_, stdout, _ := env.run("show")
	if !strings.Contains(stdout, `"class":"has-windows"`) {
		t.Fatalf("expected has-windows, got %q", stdout)
	}

	code, stdout, _ := env.run("list", "--json")
	if code != exitOK || !strings.Contains(stdout, `"address": "0xabc"`) {
		t.Fatalf("list --json: exit %d, %q", code, stdout)
	}

	if code, _, stderr := env.run("restore-last"); code != exitOK {
		t.Fatalf("restore-last: exit %d (%s)", code, stderr)
	}
	calls := env.calls()
	if !strings.Contains(calls, "dispatch movetoworkspacesilent 2,address:0xabc") {
		t.Fatalf("expected move back to workspace 2, got %q", calls)
	}
	if !strings.Contains(calls, "dispatch focuswindow address:0xabc") {
		t.Fatalf("expected focus, got %q", calls)
	}

	if code, _, _ := env.run("restore-last"); code != exitNothing {
		t.Fatalf("second restore-last: exit %d, want %d", code, exitNothing)
	}
}

func TestRestore_UnknownAddressIsBenign(t *testing.T) {
	env := newTestEnv(t)

	code, _, _ := env.run("restore", "0xnope")
	if code != exitNothing {
		t.Fatalf("exit %d, want %d", code, exitNothing)
	}
	if env.calls() != "" {
		t.Fatalf("no hyprctl calls expected, got %q", env.calls())
	}
}

func TestMinimize_RejectedIsLoggedWithContext(t *testing.T) {
	env := newTestEnv(t)
	env.reply("activewindow", `{"address":"0xabc","class":"kitty","title":"zsh","workspace":{"id":2,"name":"2"}}`)
	env.failDispatch("movetoworkspacesilent")

	code, _, _ := env.run("minimize")
	if code != exitFailure {
		t.Fatalf("exit %d, want %d", code, exitFailure)
	}
	log := env.diagLog()
	if !strings.Contains(log, "[REJECTED]") {
		t.Fatalf("expected rejected entry, got %q", log)
	}
	if !strings.Contains(log, `stdout="Invalid workspace"`) || !strings.Contains(log, "special:minimum,address:0xabc") {
		t.Fatalf("expected command and stdout in log, got %q", log)
	}
	if _, err := os.Stat(env.statePath()); !os.IsNotExist(err) {
		t.Fatalf("state must stay untouched after a rejected hide")
	}
}

func TestShow_CorruptStateIsHealedAndLogged(t *testing.T) {
	env := newTestEnv(t)
	if err := os.MkdirAll(filepath.Dir(env.statePath()), 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(env.statePath(), []byte("not json"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	code, stdout, _ := env.run("show")
	if code != exitOK || !strings.Contains(stdout, `"class":"empty"`) {
		t.Fatalf("show: exit %d, %q", code, stdout)
	}
	if !strings.Contains(env.diagLog(), "[CORRUPTION]") {
		t.Fatalf("expected corruption entry, got %q", env.diagLog())
	}
}

func TestShow_InvalidConfigStillSucceeds(t *testing.T) {
	env := newTestEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("restore_to: sideways\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	code, stdout, _ := env.run("show", "--config", cfgPath)
	if code != exitOK || !strings.Contains(stdout, `"class":"empty"`) {
		t.Fatalf("show: exit %d, %q", code, stdout)
	}
}

func TestRestoreAll_LogsEachFailedRecord(t *testing.T) {
	env := newTestEnv(t)
	env.reply("activeworkspace", `{"id":1,"name":"1"}`)
	env.reply("workspaces", `[{"id":1,"name":"1"}]`)
	for _, addr := range []string{"0xa", "0xb"} {
		env.reply("activewindow", `{"address":"`+addr+`","class":"kitty","title":"zsh","workspace":{"id":1,"name":"1"}}`)
		if code, _, stderr := env.run("minimize"); code != exitOK {
			t.Fatalf("minimize %s: exit %d (%s)", addr, code, stderr)
		}
	}
	env.reply("clients", `[{"address":"0xa","workspace":{"id":-98,"name":"special:minimum"}},{"address":"0xb","workspace":{"id":-98,"name":"special:minimum"}}]`)
	env.failDispatch("focuswindow")

	code, _, _ := env.run("restore-all")
	if code != exitFailure {
		t.Fatalf("exit %d, want %d", code, exitFailure)
	}
	lines := strings.Split(strings.TrimSpace(env.diagLog()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one diagnostics line per failed record, got %q", env.diagLog())
	}
	for i, addr := range []string{"0xa", "0xb"} {
		if !strings.Contains(lines[i], "[REJECTED]") || !strings.Contains(lines[i], `address="`+addr+`"`) {
			t.Fatalf("line %d: %q", i, lines[i])
		}
		if !strings.Contains(lines[i], "focuswindow address:"+addr) || !strings.Contains(lines[i], `stdout="Invalid workspace"`) {
			t.Fatalf("line %d missing command context: %q", i, lines[i])
		}
	}
	if _, err := os.Stat(env.statePath()); err == nil {
		data, _ := os.ReadFile(env.statePath())
		if strings.Contains(string(data), "0xa") {
			t.Fatalf("drained records must not return to the store: %s", data)
		}
	}
}

func TestRestore_NamedWorkspaceIsTargetedByName(t *testing.T) {
	env := newTestEnv(t)
	env.reply("activewindow", `{"address":"0xa","class":"thunderbird","title":"Inbox","workspace":{"id":-1337,"name":"mail"}}`)
	env.reply("activeworkspace", `{"id":2,"name":"2"}`)
	env.reply("clients", `[{"address":"0xa","workspace":{"id":-98,"name":"special:minimum"}}]`)
	env.reply("workspaces", `[{"id":2,"name":"2"},{"id":-1337,"name":"mail"}]`)

	if code, _, stderr := env.run("minimize"); code != exitOK {
		t.Fatalf("minimize: exit %d (%s)", code, stderr)
	}
	if code, _, stderr := env.run("restore", "0xa"); code != exitOK {
		t.Fatalf("restore: exit %d (%s)", code, stderr)
	}
	calls := env.calls()
	if !strings.Contains(calls, "dispatch movetoworkspacesilent name:mail,address:0xa") {
		t.Fatalf("expected move by workspace name, got %q", calls)
	}
	if strings.Contains(calls, "-1337,address") {
		t.Fatalf("negative id must never be dispatched, got %q", calls)
	}
}

func TestConfigWarningsGoToStderrLogger(t *testing.T) {
	env := newTestEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("picker: wofi\npicker_fuzzy_matching: true\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	code, _, stderr := env.run("list", "--config", cfgPath)
	if code != exitOK {
		t.Fatalf("list: exit %d (%s)", code, stderr)
	}
	if !strings.Contains(stderr, "level=WARN") || !strings.Contains(stderr, "picker_fuzzy_matching") {
		t.Fatalf("expected config warning on stderr, got %q", stderr)
	}
}
