package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mblakley/video-grouper/dirstate"
)

var errTestNoState = errors.New("no state.json for this group")

type fakeStateReader struct {
	states map[string]*dirstate.State
}

func (f *fakeStateReader) Read(groupDir string) (*dirstate.State, error) {
	st, ok := f.states[groupDir]
	if !ok {
		return nil, errTestNoState
	}
	return st, nil
}

func TestOkReturnsOK(t *testing.T) {
	h := &Handlers{State: &fakeStateReader{states: map[string]*dirstate.State{}}}
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	w := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
}

func TestStateServesPersistedDocument(t *testing.T) {
	st := dirstate.NewState()
	st.Status = dirstate.GroupCombined
	h := &Handlers{State: &fakeStateReader{states: map[string]*dirstate.State{"storage/2026.01.02-10.00.00": st}}}

	req := httptest.NewRequest(http.MethodGet, "/state/storage/2026.01.02-10.00.00", nil)
	w := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got dirstate.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, dirstate.GroupCombined, got.Status)
}

func TestStateMissingGroupReturnsNotFound(t *testing.T) {
	h := &Handlers{State: &fakeStateReader{states: map[string]*dirstate.State{}}}

	req := httptest.NewRequest(http.MethodGet, "/state/missing", nil)
	w := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsIsMountedOnTheSameRouter(t *testing.T) {
	h := &Handlers{State: &fakeStateReader{states: map[string]*dirstate.State{}}}
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
