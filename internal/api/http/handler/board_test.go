package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/noteboard/internal/api/http/view"
	"github.com/dtroode/noteboard/internal/board"
	"github.com/dtroode/noteboard/internal/model"
	"github.com/dtroode/noteboard/internal/testutil"
)

func newBoardHandler(t *testing.T, e *env) *Board {
	t.Helper()
	tmpl, err := view.NewTemplates()
	require.NoError(t, err)
	return NewBoard(e.registry, e.auth, e.docs, nil, tmpl, e.cm, Options{
		Board:           board.Options{MessageLimit: 30},
		MaxMessageLimit: 500,
	}, testutil.MakeNoopLogger())
}

func TestBoard_Page(t *testing.T) {
	h := newBoardHandler(t, newEnv(t))

	tests := []struct {
		name      string
		target    string
		wantLimit string
	}{
		{name: "default limit", target: "/", wantLimit: "30"},
		{name: "custom limit", target: "/?limit=50", wantLimit: "50"},
		{name: "clamped high", target: "/?limit=100000", wantLimit: "500"},
		{name: "clamped low", target: "/?limit=-3", wantLimit: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Page(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, "&#34;limit&#34;:"+tt.wantLimit+",")
			assert.Regexp(t, regexp.MustCompile(`/t/[0-9a-f-]{36}/stream`), body)
		})
	}
}

func TestBoard_PageGetsFreshTab(t *testing.T) {
	h := newBoardHandler(t, newEnv(t))
	stream := regexp.MustCompile(`/t/([0-9a-f-]{36})/stream`)

	var tabs []string
	for range 2 {
		rec := httptest.NewRecorder()
		h.Page(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		m := stream.FindStringSubmatch(rec.Body.String())
		require.Len(t, m, 2)
		tabs = append(tabs, m[1])
	}
	assert.NotEqual(t, tabs[0], tabs[1])
}

func TestBoard_PageInvalidLimit(t *testing.T) {
	h := newBoardHandler(t, newEnv(t))

	rec := httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest(http.MethodGet, "/?limit=many", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBoard_DismissWithoutBoard(t *testing.T) {
	e := newEnv(t)
	h := newBoardHandler(t, e)

	rec := httptest.NewRecorder()
	h.Dismiss(rec, e.request(http.MethodPost, "/t/"+tabID+"/notices/notice-1/dismiss", "{}", "id", "notice-1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "reload")
}

func TestBoard_Dismiss(t *testing.T) {
	e := newEnv(t)
	h := newBoardHandler(t, e)
	b, rec := e.start(t)

	b.Notify(errors.New("backend unavailable"))
	b.Notify(model.ErrTextTooShort)
	require.Eventually(t, func() bool { return len(rec.Notices()) == 2 }, waitFor, tick)
	first := rec.Notices()[0].ID

	resp := httptest.NewRecorder()
	h.Dismiss(resp, e.request(http.MethodPost, "/t/"+tabID+"/notices/"+first+"/dismiss", "{}", "id", first))
	require.Equal(t, http.StatusNoContent, resp.Code)

	require.Eventually(t, func() bool { return len(rec.Notices()) == 1 }, waitFor, tick)
	assert.Equal(t, board.NoticeText(model.ErrTextTooShort), rec.Notices()[0].Text)
}
