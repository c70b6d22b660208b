package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	httpctx "github.com/dtroode/noteboard/internal/api/http/context"
	"github.com/dtroode/noteboard/internal/board"
	"github.com/dtroode/noteboard/internal/model"
	repo "github.com/dtroode/noteboard/internal/repository/memory"
	"github.com/dtroode/noteboard/internal/service"
	"github.com/dtroode/noteboard/internal/store/memory"
	"github.com/dtroode/noteboard/internal/testutil"
	"github.com/dtroode/noteboard/internal/token"
)

const (
	tabID   = "6f9619ff-8b86-d011-b42d-00c04fc964ff"
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type env struct {
	registry *board.Registry
	auth     model.AuthBackend
	docs     *memory.DocumentStore
	cm       *httpctx.Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := testutil.MakeNoopLogger()
	return &env{
		registry: board.NewRegistry(),
		auth: service.NewAuth(
			repo.NewUserRepository(),
			repo.NewSessionRepository(),
			repo.NewVerificationRepository(),
			token.NewJWT("secret"),
			service.NewLogMailer("noreply@board.test", logger),
			service.AuthOptions{AllowSignup: true, BcryptCost: bcrypt.MinCost, PublicURL: "http://board.test"},
			logger,
		),
		docs: memory.NewDocumentStore(logger),
		cm:   httpctx.NewManager(),
	}
}

// start runs a board for tabID and registers it like the stream handler does.
func (e *env) start(t *testing.T) (*board.Board, *testutil.Recorder) {
	t.Helper()
	view := testutil.NewRecorder()
	b := board.New(tabID, e.auth, e.docs, nil, view, board.Options{
		MessageLimit: 30,
		NoticeTTL:    time.Minute,
		Placeholder:  "/static/images/profile-placeholder.svg",
	}, testutil.MakeNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = b.Run(ctx) }()
	e.registry.Add(b)
	t.Cleanup(func() {
		cancel()
		<-b.Done()
		e.registry.Remove(b)
	})

	select {
	case <-b.Ready():
	case <-time.After(waitFor):
		require.FailNow(t, "board not ready")
	}
	return b, view
}

// signIn creates an account through the board of the page.
func (e *env) signIn(t *testing.T, b *board.Board, email string) model.Session {
	t.Helper()
	require.NoError(t, b.CreateAccount(context.Background(), email, "secret1", "Alice"))
	sess, ok := b.Session.Current()
	require.True(t, ok)
	return sess
}

// request builds an action request of the page as the router would pass it on.
func (e *env) request(method, target, body string, params ...string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = e.cm.SetTabID(ctx, tabID)
	return req.WithContext(ctx)
}
