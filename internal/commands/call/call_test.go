// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package call

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpaction "github.com/tombee/callout/internal/action/http"
	"github.com/tombee/callout/internal/commands/shared"
)

type received struct {
	method      string
	body        string
	contentType string
	auth        string
}

func newUpstream(t *testing.T, status int) (*httptest.Server, *[]received) {
	t.Helper()
	var seen []received
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, received{
			method:      r.Method,
			body:        string(body),
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"items":[{"id":1},{"id":2}]}`)
	}))
	t.Cleanup(server.Close)
	return server, &seen
}

// execute runs the call command under a root carrying the global flags.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CALLOUT_HTTP_TIMEOUT", "")
	t.Setenv("CALLOUT_LOG_LEVEL", "")
	t.Setenv("NO_COLOR", "1")
	t.Cleanup(shared.ResetFlagsForTest)

	root := &cobra.Command{Use: "callout", SilenceUsage: true, SilenceErrors: true}
	verbose, quiet, jsonOut, cfg := shared.RegisterFlagPointers()
	root.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "")
	root.PersistentFlags().BoolVarP(quiet, "quiet", "q", false, "")
	root.PersistentFlags().BoolVar(jsonOut, "json", false, "")
	root.PersistentFlags().StringVar(cfg, "config", "", "")
	root.AddCommand(NewCommand())

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"call"}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestCall_GetSuccess(t *testing.T) {
	upstream, seen := newUpstream(t, http.StatusOK)

	out, err := execute(t, "--url", upstream.URL)
	require.NoError(t, err)

	assert.Contains(t, out, shared.SymbolOK+" HTTP call succeeded")
	assert.Contains(t, out, "Content-Type:application/json")
	assert.Contains(t, out, `"id": 1`)
	require.Len(t, *seen, 1)
	assert.Equal(t, "GET", (*seen)[0].method)
}

func TestCall_RawFormat(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusOK)

	out, err := execute(t, "--url", upstream.URL, "--format", "raw")
	require.NoError(t, err)
	assert.Contains(t, out, `{"items":[{"id":1},{"id":2}]}`)

	_, err = execute(t, "--url", upstream.URL, "--format", "html")
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCode(err))
}

func TestCall_PostJSONOutput(t *testing.T) {
	upstream, seen := newUpstream(t, http.StatusCreated)

	out, err := execute(t, "--json", "--url", upstream.URL, "-X", "POST", "--body", `{"name":"x"}`)
	require.NoError(t, err)

	var result Output
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, `{"items":[{"id":1},{"id":2}]}`, result.ResponseBody)

	require.Len(t, *seen, 1)
	assert.Equal(t, `{"name":"x"}`, (*seen)[0].body)
	assert.Equal(t, "application/json", (*seen)[0].contentType)
}

func TestCall_FailureExitsWithDispatchFailed(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusInternalServerError)

	out, err := execute(t, "--json", "--url", upstream.URL)
	require.Error(t, err)
	assert.Equal(t, shared.ExitDispatchFailed, shared.ExitCode(err))

	var result Output
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Success)
	assert.Equal(t, httpaction.FailureMarker, result.ResponseHeaders)
	assert.Empty(t, result.ResponseBody)
}

func TestCall_UnsupportedMethodSendsNothing(t *testing.T) {
	upstream, seen := newUpstream(t, http.StatusOK)

	out, err := execute(t, "--url", upstream.URL, "--method", "get")
	require.Error(t, err)
	assert.Contains(t, out, httpaction.FailureMarker)
	assert.Empty(t, *seen)
}

func TestCall_HeadersAreNotSent(t *testing.T) {
	upstream, seen := newUpstream(t, http.StatusOK)

	_, err := execute(t, "--url", upstream.URL, "-H", "Authorization: Bearer x")
	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Empty(t, (*seen)[0].auth)
}

func TestCall_Query(t *testing.T) {
	upstream, _ := newUpstream(t, http.StatusOK)

	out, err := execute(t, "--url", upstream.URL, "--query", ".items[].id")
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", out)
}

func TestCall_InvalidQuery(t *testing.T) {
	upstream, seen := newUpstream(t, http.StatusOK)

	_, err := execute(t, "--url", upstream.URL, "--query", ".[")
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCode(err))
	assert.Empty(t, *seen)
}

func TestCall_StepFile(t *testing.T) {
	upstream, seen := newUpstream(t, http.StatusOK)

	dir := t.TempDir()
	path := filepath.Join(dir, "step.yaml")
	content := "url: " + upstream.URL + "\nmethod: PATCH\nbody: '{\"patched\":true}'\nheaders: \"X-A:1\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := execute(t, "--file", path)
	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Equal(t, "PATCH", (*seen)[0].method)
	assert.Equal(t, `{"patched":true}`, (*seen)[0].body)
}

func TestCall_StepFileWithoutMethodFails(t *testing.T) {
	upstream, seen := newUpstream(t, http.StatusOK)

	path := filepath.Join(t.TempDir(), "step.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: "+upstream.URL+"\n"), 0o600))

	_, err := execute(t, "--file", path)
	require.Error(t, err)
	assert.Equal(t, shared.ExitDispatchFailed, shared.ExitCode(err))
	assert.Empty(t, *seen)
}

func TestCall_BodyFile(t *testing.T) {
	upstream, seen := newUpstream(t, http.StatusOK)

	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"from":"file"}`), 0o600))

	_, err := execute(t, "--url", upstream.URL, "-X", "PUT", "--body-file", path)
	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Equal(t, `{"from":"file"}`, (*seen)[0].body)
}

func TestCall_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing url", []string{}, shared.ExitInvalidInput},
		{"missing step file", []string{"--file", "/nonexistent/step.yaml"}, shared.ExitInvalidInput},
		{"missing body file", []string{"--url", "http://x", "--body-file", "/nonexistent/body"}, shared.ExitInvalidInput},
		{"bad config", []string{"--url", "http://x", "--config", "/nonexistent/config.yaml"}, shared.ExitConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, shared.ExitCode(err))
		})
	}
}

func TestJoinHeaders(t *testing.T) {
	got := JoinHeaders([]string{"A: 1", "B:2", "C"})
	if got != "A:1;B:2;C:" {
		t.Errorf("unexpected headers %q", got)
	}
}
