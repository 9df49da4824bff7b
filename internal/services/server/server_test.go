package server_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/explorer/internal/services/server"
)

const liveDocument = "{\"name\":\"OSINT Explorer\",\"children\":[]}\n"

func newTestServer(t *testing.T, catalog server.CatalogFunc) (*server.Server, string) {
	t.Helper()
	publicDirectory := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(publicDirectory, "index.html"), []byte("<h1>explorer</h1>"), 0o600))
	documentPath := filepath.Join(publicDirectory, "data.json")
	return server.NewServer(server.Options{
		PublicDirectory: publicDirectory,
		DocumentPath:    documentPath,
		Catalog:         catalog,
	}), documentPath
}

func performRequest(t *testing.T, handler http.Handler, target string) (*http.Response, string) {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))
	response := recorder.Result()
	body, readError := io.ReadAll(response.Body)
	require.NoError(t, readError)
	return response, string(body)
}

func TestHealth(t *testing.T) {
	testServer, _ := newTestServer(t, nil)
	response, body := performRequest(t, testServer, "/health")
	require.Equal(t, http.StatusOK, response.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, body)
}

func TestCatalogBuildsOnEveryRequest(t *testing.T) {
	calls := 0
	testServer, _ := newTestServer(t, func(context.Context) ([]byte, error) {
		calls++
		return []byte(liveDocument), nil
	})

	for attempt := 0; attempt < 2; attempt++ {
		response, body := performRequest(t, testServer, "/api/catalog")
		require.Equal(t, http.StatusOK, response.StatusCode)
		require.Equal(t, liveDocument, body)
		require.Equal(t, "no-store", response.Header.Get("Cache-Control"))
	}
	require.Equal(t, 2, calls)
}

func TestCatalogFailureReturnsServerError(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	testServer := server.NewServer(server.Options{
		PublicDirectory: t.TempDir(),
		Catalog: func(context.Context) ([]byte, error) {
			return nil, errors.New("data root missing")
		},
		Logger: zap.New(core),
	})

	response, body := performRequest(t, testServer, "/api/catalog")
	require.Equal(t, http.StatusInternalServerError, response.StatusCode)
	require.JSONEq(t, `{"error":"data root missing"}`, body)
	require.Equal(t, 1, recorded.FilterMessage("catalog build failed").Len())
}

func TestDocumentServedOnceBuilt(t *testing.T) {
	testServer, documentPath := newTestServer(t, nil)

	response, _ := performRequest(t, testServer, "/data.json")
	require.Equal(t, http.StatusNotFound, response.StatusCode)

	require.NoError(t, os.WriteFile(documentPath, []byte(liveDocument), 0o600))
	response, body := performRequest(t, testServer, "/data.json")
	require.Equal(t, http.StatusOK, response.StatusCode)
	require.Equal(t, liveDocument, body)
	require.Contains(t, response.Header.Get("Content-Type"), "application/json")
}

func TestStaticFilesServedFromPublicDirectory(t *testing.T) {
	testServer, _ := newTestServer(t, nil)
	response, body := performRequest(t, testServer, "/")
	require.Equal(t, http.StatusOK, response.StatusCode)
	require.Contains(t, body, "<h1>explorer</h1>")

	response, _ = performRequest(t, testServer, "/missing.css")
	require.Equal(t, http.StatusNotFound, response.StatusCode)
}

func TestBundledExplorerPageFillsMissingPublicFiles(t *testing.T) {
	testCases := []struct {
		name            string
		publicDirectory func(t *testing.T) string
	}{
		{
			name:            "empty public directory",
			publicDirectory: func(t *testing.T) string { return t.TempDir() },
		},
		{
			name:            "absent public directory",
			publicDirectory: func(t *testing.T) string { return filepath.Join(t.TempDir(), "public") },
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			testServer := server.NewServer(server.Options{PublicDirectory: testCase.publicDirectory(t)})

			response, body := performRequest(t, testServer, "/")
			require.Equal(t, http.StatusOK, response.StatusCode)
			require.Contains(t, body, `<div id="treeChart"></div>`)
			require.Contains(t, body, `<script src="script.js"></script>`)

			response, body = performRequest(t, testServer, "/script.js")
			require.Equal(t, http.StatusOK, response.StatusCode)
			require.Contains(t, body, "echarts.init")
			require.Contains(t, body, "'data.json'")
		})
	}
}

func TestPublicFilesOverrideBundledPage(t *testing.T) {
	publicDirectory := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(publicDirectory, "script.js"), []byte("custom();"), 0o600))
	testServer := server.NewServer(server.Options{PublicDirectory: publicDirectory})

	_, body := performRequest(t, testServer, "/script.js")
	require.Equal(t, "custom();", body)

	_, body = performRequest(t, testServer, "/")
	require.Contains(t, body, `id="treeChart"`)
}

func TestServeStopsOnCancellation(t *testing.T) {
	listener, listenError := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, listenError)
	testServer, _ := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	serveResult := make(chan error, 1)
	go func() { serveResult <- testServer.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		response, requestError := http.Get("http://" + listener.Addr().String() + "/health")
		if requestError != nil {
			return false
		}
		defer response.Body.Close()
		return response.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case serveError := <-serveResult:
		require.NoError(t, serveError)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "server did not stop after cancellation")
	}
}
