package reportserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/testutil"
)

type memoryRuns struct {
	reports map[string]*entity.RunReport
	failAll bool
	limit   int
}

func (m *memoryRuns) SaveRun(ctx context.Context, r *entity.RunReport) error {
	m.reports[r.SessionID] = r
	return nil
}

func (m *memoryRuns) GetRun(ctx context.Context, id string) (*entity.RunReport, error) {
	if m.failAll {
		return nil, errors.New("disk on fire")
	}
	r, ok := m.reports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrRunNotFound, id)
	}
	return r, nil
}

func (m *memoryRuns) ListRuns(ctx context.Context, limit int) ([]output.RunSummary, error) {
	if m.failAll {
		return nil, errors.New("disk on fire")
	}
	m.limit = limit
	var out []output.RunSummary
	for _, r := range m.reports {
		out = append(out, output.RunSummary{SessionID: r.SessionID, Instruction: r.Instruction, Success: r.Success})
	}
	return out, nil
}

func (m *memoryRuns) Close() error { return nil }

type stubRenderer struct{}

func (stubRenderer) Render(r *entity.RunReport) ([]byte, error) {
	return []byte("# Run " + r.SessionID), nil
}

func newTestServer(t *testing.T, runs *memoryRuns) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(runs, stubRenderer{}, testutil.NopLogger()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func fixtureRuns() *memoryRuns {
	return &memoryRuns{reports: map[string]*entity.RunReport{
		"abc": {SessionID: "abc", Instruction: "otwórz example.com", Success: true},
	}}
}

func TestServer_ListRuns(t *testing.T) {
	runs := fixtureRuns()
	srv := newTestServer(t, runs)

	resp, err := http.Get(srv.URL + "/runs?limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got []output.RunSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "abc", got[0].SessionID)
	assert.Equal(t, 5, runs.limit)
}

func TestServer_ListRunsBadLimit(t *testing.T) {
	srv := newTestServer(t, fixtureRuns())

	resp, err := http.Get(srv.URL + "/runs?limit=x")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_GetRunJSON(t *testing.T) {
	srv := newTestServer(t, fixtureRuns())

	resp, err := http.Get(srv.URL + "/runs/abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var got entity.RunReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "otwórz example.com", got.Instruction)
	assert.True(t, got.Success)
}

func TestServer_GetRunMarkdown(t *testing.T) {
	srv := newTestServer(t, fixtureRuns())

	resp, err := http.Get(srv.URL + "/runs/abc.md")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "# Run abc", string(body))
}

func TestServer_Errors(t *testing.T) {
	srv := newTestServer(t, fixtureRuns())

	resp, err := http.Get(srv.URL + "/runs/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	broken := newTestServer(t, &memoryRuns{failAll: true})
	resp, err = http.Get(broken.URL + "/runs/abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = http.Get(broken.URL + "/runs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	s := New(fixtureRuns(), stubRenderer{}, testutil.NopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, s.ListenAndServe(ctx, "127.0.0.1:0"))
}
