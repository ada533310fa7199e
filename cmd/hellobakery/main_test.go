package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, stdin string, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out)
	return code, out.String()
}

func TestCheckFromStdin(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode int
		wantOut  string
	}{
		{
			name:     "ok",
			input:    "<<<hello_bakery>>>\nhello_bakery 42\n",
			wantCode: 0,
			wantOut:  "OK Hello bakery! - lovely day | hellobakerylevel=42;80;90;0;100\n",
		},
		{
			name:     "warn",
			input:    "<<<hello_bakery>>>\nhello_bakery 85\n",
			wantCode: 1,
			wantOut:  "WARN Hello bakery! - need some coffee | hellobakerylevel=85;80;90;0;100\n",
		},
		{
			name:     "crit",
			input:    "<<<hello_bakery>>>\nhello_bakery 95.5\n",
			wantCode: 2,
			wantOut:  "CRIT Hello bakery! - leave me alone | hellobakerylevel=95.5;80;90;0;100\n",
		},
		{
			name:     "stale",
			input:    "<<<other>>>\nhello_bakery 95\n",
			wantCode: 0,
			wantOut:  "Hello bakery!: no data in section hello_bakery\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := runCmd(t, tt.input, "check")
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantOut, out)
		})
	}
}

func TestCheckParseFailureIsUnknown(t *testing.T) {
	code, out := runCmd(t, "<<<hello_bakery>>>\nhello_bakery lots\n", "check")
	assert.Equal(t, 3, code)
	assert.True(t, strings.HasPrefix(out, "UNKNOWN Hello bakery! - "), out)
}

func TestCheckCustomLevels(t *testing.T) {
	code, out := runCmd(t, "<<<hello_bakery>>>\nhello_bakery 55\n", "--warn", "50", "--crit", "60", "check")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "hellobakerylevel=55;50;60;0;100")
}

func TestCheckFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.out")
	require.NoError(t, os.WriteFile(path, []byte("<<<hello_bakery>>>\nhello_bakery 10\n"), 0o600))

	code, out := runCmd(t, "", "--section", path, "check")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "lovely day")
}

func TestCheckRecordsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")

	code, _ := runCmd(t, "<<<hello_bakery>>>\nhello_bakery 85\n", "--history", "--history-db", db, "check")
	require.Equal(t, 1, code)

	code, out := runCmd(t, "", "--history", "--history-db", db, "history")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "\tWARN\t85\tneed some coffee\n")
}

func TestHistoryDisabled(t *testing.T) {
	code, _ := runCmd(t, "", "history")
	assert.Equal(t, 1, code)
}

func TestBake(t *testing.T) {
	src := t.TempDir()
	for _, name := range []string{"hello_bakery", "hello_bakery.cmd", "hello_bakery.solaris.ksh"} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte("#!/bin/sh\n"), 0o644))
	}

	out := t.TempDir()
	conf := filepath.Join(t.TempDir(), "hellobakery.toml")
	require.NoError(t, os.WriteFile(conf, []byte(`
[targets.web01]
interval = 60
user = "alice"
content = "hello"

[targets.sun01]
user = "bob"
content = "it's sunny"
solaris = true

[targets.broken]
user = "carol"
`), 0o600))

	code, stdout := runCmd(t, "", "--config", conf, "--source-dir", src, "--output-dir", out, "bake")
	assert.Equal(t, 1, code, "broken target fails the run")
	assert.Equal(t, "baked sun01\nbaked web01\n", stdout)

	assert.FileExists(t, filepath.Join(out, "web01", "linux", "usr", "lib", "check_mk_agent", "plugins", "60", "hello_bakery"))
	assert.FileExists(t, filepath.Join(out, "web01", "linux", "etc", "check_mk", "hello_bakery.json"))
	assert.FileExists(t, filepath.Join(out, "sun01", "solaris", "etc", "check_mk", "hello_bakery.cfg"))
	assert.NoDirExists(t, filepath.Join(out, "broken"))
	assert.NoFileExists(t, filepath.Join(out, "hellobakery.pid"))
}

func TestBakeSingleTarget(t *testing.T) {
	src := t.TempDir()
	for _, name := range []string{"hello_bakery", "hello_bakery.cmd"} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), []byte("#!/bin/sh\n"), 0o644))
	}

	out := t.TempDir()
	conf := filepath.Join(t.TempDir(), "hellobakery.toml")
	require.NoError(t, os.WriteFile(conf, []byte(`
[targets.web01]
user = "alice"
content = "hello"

[targets.web02]
user = "dave"
content = "hi"
`), 0o600))

	code, stdout := runCmd(t, "", "--config", conf, "--source-dir", src, "--output-dir", out, "bake", "web02")
	assert.Equal(t, 0, code)
	assert.Equal(t, "baked web02\n", stdout)
	assert.NoDirExists(t, filepath.Join(out, "web01"))
}

func TestBakeMissingSourceLeavesNoTarget(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "hello_bakery"), []byte("#!/bin/sh\n"), 0o644))

	out := t.TempDir()
	conf := filepath.Join(t.TempDir(), "hellobakery.toml")
	require.NoError(t, os.WriteFile(conf, []byte(`
[targets.web01]
user = "alice"
content = "hello"
`), 0o600))

	code, stdout := runCmd(t, "", "--config", conf, "--source-dir", src, "--output-dir", out, "bake")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.NoDirExists(t, filepath.Join(out, "web01"))
}

func TestHandleSignalsReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		handleSignals(ctx, cancel)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handleSignals did not return after cancel")
	}
}

func TestBakeWithoutTargets(t *testing.T) {
	code, _ := runCmd(t, "", "--output-dir", t.TempDir(), "bake")
	assert.Equal(t, 1, code)
}

func TestUsage(t *testing.T) {
	code, _ := runCmd(t, "")
	assert.Equal(t, 2, code)

	code, _ = runCmd(t, "", "frobnicate")
	assert.Equal(t, 2, code)

	code, _ = runCmd(t, "", "--no-such-flag", "check")
	assert.Equal(t, 2, code)
}
