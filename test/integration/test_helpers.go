//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-env-manager/internal/app"
	"go-env-manager/internal/config"
	"go-env-manager/internal/service"
)

const testSecret = "integration-secret-0123456789"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total   int `json:"total"`
		Cleaned int `json:"cleaned"`
	} `json:"meta"`
}

// newAuthedServer starts the full router over a badger store in a temp dir
// and the process backend, and returns a valid bearer token for it.
func newAuthedServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	systemFile := filepath.Join(t.TempDir(), "environment")
	require.NoError(t, os.WriteFile(systemFile, []byte("LANG=C.UTF-8\nPATH=/usr/local/bin:/usr/bin\n"), 0o644))

	cfg := &config.Config{
		ServerPort:              "0",
		RequestTimeout:          10 * time.Second,
		CORSOrigins:             []string{"*"},
		RateLimitRPM:            1000,
		AuthSecret:              testSecret,
		AuthTokenTTL:            time.Hour,
		StoreDriver:             "badger",
		BadgerPath:              filepath.Join(t.TempDir(), "badger"),
		EnvBackend:              "process",
		SystemEnvFile:           systemFile,
		TrashDefaultCleanupDays: 30,
		LogFormat:               "pretty",
	}

	application, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(application.Close)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)

	token, err := service.NewAuthService(testSecret, time.Hour).IssueToken("integration")
	require.NoError(t, err)

	return server, token.AccessToken
}

// unsetAfter removes process variables the test may have created.
func unsetAfter(t *testing.T, names ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, name := range names {
			_ = os.Unsetenv(name)
		}
	})
}

func newAuthRequest(t *testing.T, method string, url string, body any, accessToken string) *http.Request {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = raw
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	require.NoError(t, err)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

func doAuthJSONRequest(t *testing.T, method string, url string, body any, accessToken string) (int, envelope) {
	t.Helper()

	resp, err := http.DefaultClient.Do(newAuthRequest(t, method, url, body, accessToken))
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp.StatusCode, parsed
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
