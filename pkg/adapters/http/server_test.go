package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/aretw0/setpoint/pkg/adapters/http"
	"github.com/aretw0/setpoint/pkg/adapters/memory"
	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/aretw0/setpoint/pkg/registry"
	"github.com/aretw0/setpoint/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStation(t *testing.T, streams *httpadapter.StreamManager) *registry.Registry {
	t.Helper()
	loader := memory.NewLoader()
	require.NoError(t, loader.Add("mfc", domain.Recipe{Name: "purge", Records: []string{"0.01;10;s", "0.02;20;r;0.01"}}))
	require.NoError(t, loader.Add("mfc", domain.Recipe{Name: "hold", Records: []string{"30;10;s"}}))
	require.NoError(t, loader.Add("mfc", domain.Recipe{Name: "spike", Records: []string{"1;10;s", "1;500;s"}}))

	reg := registry.New(loader)
	d, err := runner.NewDriver("mfc", memory.NewDevice(), memory.NewLimits(domain.Bounds{Lower: 0, Upper: 100}),
		runner.WithLifecycleHooks(streams.Hooks()))
	require.NoError(t, err)
	require.NoError(t, reg.Register(d))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = reg.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return reg
}

func newServer(t *testing.T) (*httptest.Server, *registry.Registry) {
	streams := httpadapter.NewStreamManager()
	reg := newStation(t, streams)
	srv := httptest.NewServer(httpadapter.NewHandler(reg,
		httpadapter.WithStreams(streams),
		httpadapter.WithMetrics(promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}))))
	t.Cleanup(srv.Close)
	return srv, reg
}

func do(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func TestServer_ReadEndpoints(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)

	resp, body = do(t, http.MethodGet, srv.URL+"/axes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snaps []runner.Snapshot
	require.NoError(t, json.Unmarshal(body, &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, "mfc", snaps[0].Axis)
	assert.Equal(t, domain.StatusIdle, snaps[0].State.Status)

	resp, body = do(t, http.MethodGet, srv.URL+"/axes/mfc/recipes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `["hold","purge","spike"]`, string(body))

	resp, _ = do(t, http.MethodGet, srv.URL+"/axes/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Preview(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/axes/mfc/preview?recipe=purge&origin=100", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var preview struct {
		Points []domain.Point `json:"points"`
	}
	require.NoError(t, json.Unmarshal(body, &preview))
	require.Len(t, preview.Points, 6)
	assert.Equal(t, domain.Point{T: 100, V: 10}, preview.Points[0])

	tests := []struct {
		query string
		code  int
	}{
		{"", http.StatusBadRequest},
		{"?recipe=purge&origin=abc", http.StatusBadRequest},
		{"?recipe=missing", http.StatusNotFound},
		{"?recipe=spike", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		resp, _ := do(t, http.MethodGet, srv.URL+"/axes/mfc/preview"+tt.query, nil)
		assert.Equal(t, tt.code, resp.StatusCode, tt.query)
	}
}

func TestServer_StartStop(t *testing.T) {
	srv, _ := newServer(t)

	resp, _ := do(t, http.MethodPost, srv.URL+"/axes/mfc/start", map[string]string{"recipe": "spike"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/axes/mfc/start", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, http.MethodPost, srv.URL+"/axes/mfc/start", map[string]string{"recipe": "hold"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var snap runner.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, domain.StatusRunning, snap.State.Status)
	assert.Equal(t, "hold", snap.Recipe)

	resp, _ = do(t, http.MethodPost, srv.URL+"/axes/mfc/start", map[string]string{"recipe": "hold"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = do(t, http.MethodPost, srv.URL+"/axes/mfc/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, domain.StatusAborted, snap.State.Status)

	resp, _ = do(t, http.MethodPost, srv.URL+"/axes/mfc/stop", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServer_Events(t *testing.T) {
	srv, reg := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?axis=mfc", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	require.NoError(t, reg.Start(ctx, "mfc", "purge"))

	var events []string
	for lines.Scan() {
		line := lines.Text()
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
		if line == "event: run_finish" {
			break
		}
	}
	assert.Equal(t, []string{"run_start", "step", "step", "step", "run_finish"}, events)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, httpadapter.StatusFor(domain.ErrAxisNotFound))
	assert.Equal(t, http.StatusConflict, httpadapter.StatusFor(domain.ErrEngineBusy))
	assert.Equal(t, http.StatusUnprocessableEntity, httpadapter.StatusFor(&domain.ParseError{Record: 0, Err: domain.ErrUnknownSegmentKind}))
	assert.Equal(t, http.StatusUnprocessableEntity, httpadapter.StatusFor(fmt.Errorf("compile: %w", domain.ErrTooManySteps)))
	assert.Equal(t, http.StatusInternalServerError, httpadapter.StatusFor(assert.AnError))
}
