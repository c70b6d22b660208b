package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/noteboard/internal/api/http/context"
	"github.com/dtroode/noteboard/internal/testutil"
)

func TestLogging_Handle(t *testing.T) {
	t.Parallel()

	lg := NewLogging(testutil.MakeNoopLogger())

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name:       "implicit ok",
			handler:    func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "client error",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnprocessableEntity) },
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "server error",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			lg.Handle(tt.handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestSession_Handle(t *testing.T) {
	mgr := httpctx.NewManager()

	var got string
	var found bool
	h := NewSession(mgr).Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = mgr.GetSessionToken(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, found)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, found)
	assert.Equal(t, "tok", got)
}

func TestTab_Handle(t *testing.T) {
	mgr := httpctx.NewManager()

	var got string
	r := chi.NewRouter()
	r.With(NewTab(mgr).Handle).Get("/t/{tab}/stream", func(w http.ResponseWriter, r *http.Request) {
		got, _ = mgr.GetTabID(r.Context())
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/t/not-a-uuid/stream", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, got)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/t/6F9619FF-8B86-D011-B42D-00C04FC964FF/stream", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", got)
}
