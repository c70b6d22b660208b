package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/noteboard/internal/api/http/middleware"
	"github.com/dtroode/noteboard/internal/board"
	"github.com/dtroode/noteboard/internal/model"
	"github.com/dtroode/noteboard/internal/testutil"
)

type fakeUploader struct {
	userID      string
	data        []byte
	contentType string
	err         error
}

func (f *fakeUploader) Upload(_ context.Context, userID string, reader io.Reader, _ int64, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.userID, f.data, f.contentType = userID, data, contentType
	return "http://board.test/pictures/" + userID + "-1.png", nil
}

func newAccountHandler(e *env, uploader PictureUploader) *Account {
	return NewAccount(e.registry, uploader, e.cm, true, testutil.MakeNoopLogger())
}

func sessionCookie(t *testing.T, resp *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range resp.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	require.FailNow(t, "no session cookie set")
	return nil
}

func TestAccount_SignupLoginLogout(t *testing.T) {
	e := newEnv(t)
	h := newAccountHandler(e, &fakeUploader{})
	b, rec := e.start(t)

	resp := httptest.NewRecorder()
	h.Signup(resp, e.request(http.MethodPost, "/signup",
		`{"email":"alice@example.com","password":"secret1","confirm":"secret2","displayName":"Alice"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.False(t, b.Session.IsAuthenticated(false))

	resp = httptest.NewRecorder()
	h.Signup(resp, e.request(http.MethodPost, "/signup",
		`{"email":"alice@example.com","password":"secret1","confirm":"secret1","displayName":"Alice"}`))
	require.Equal(t, http.StatusNoContent, resp.Code)
	cookie := sessionCookie(t, resp)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)

	require.Eventually(t, func() bool { return rec.Viewer().SignedIn }, waitFor, tick)
	assert.Equal(t, "Alice", rec.Viewer().Name)

	resp = httptest.NewRecorder()
	h.Logout(resp, e.request(http.MethodPost, "/logout", ""))
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, -1, sessionCookie(t, resp).MaxAge)
	require.Eventually(t, func() bool { return !rec.Viewer().SignedIn }, waitFor, tick)

	resp = httptest.NewRecorder()
	h.Login(resp, e.request(http.MethodPost, "/login", `{"email":"alice@example.com","password":"wrong1"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Empty(t, resp.Result().Cookies())

	resp = httptest.NewRecorder()
	h.Login(resp, e.request(http.MethodPost, "/login", `{"email":"alice@example.com","password":"secret1"}`))
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.NotEqual(t, cookie.Value, sessionCookie(t, resp).Value)

	// mismatch and wrong password were shown
	require.Eventually(t, func() bool { return len(rec.Notices()) == 2 }, waitFor, tick)
	assert.Equal(t, board.NoticeText(model.ErrPasswordMismatch), rec.Notices()[0].Text)
}

// revokeFailure is an auth backend that cannot revoke sessions.
type revokeFailure struct {
	model.AuthBackend
}

func (revokeFailure) SignOut(context.Context, string) error {
	return errors.New("session store unavailable")
}

func TestAccount_LogoutRevokeFailure(t *testing.T) {
	e := newEnv(t)
	e.auth = revokeFailure{e.auth}
	h := newAccountHandler(e, &fakeUploader{})
	b, rec := e.start(t)

	e.signIn(t, b, "alice@example.com")
	require.Eventually(t, func() bool { return rec.Viewer().SignedIn }, waitFor, tick)

	resp := httptest.NewRecorder()
	h.Logout(resp, e.request(http.MethodPost, "/logout", ""))

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, -1, sessionCookie(t, resp).MaxAge)
	assert.False(t, b.Session.IsAuthenticated(false))
	require.Eventually(t, func() bool { return !rec.Viewer().SignedIn }, waitFor, tick)
}

func TestAccount_Profile(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	h := newAccountHandler(e, &fakeUploader{})
	b, rec := e.start(t)

	resp := httptest.NewRecorder()
	h.Profile(resp, e.request(http.MethodPost, "/profile", `{"displayName":"Alicia"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	sess := e.signIn(t, b, "alice@example.com")

	resp = httptest.NewRecorder()
	h.Profile(resp, e.request(http.MethodPost, "/profile", `{"displayName":"Alicia","picture":""}`))
	require.Equal(t, http.StatusNoContent, resp.Code)

	profile, err := e.docs.GetProfile(ctx, sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", profile.DisplayName)
	require.Eventually(t, func() bool { return rec.Viewer().Name == "Alicia" }, waitFor, tick)

	// an empty name keeps the current one
	resp = httptest.NewRecorder()
	h.Profile(resp, e.request(http.MethodPost, "/profile", `{"displayName":"","picture":"http://img.test/a.png"}`))
	require.Equal(t, http.StatusNoContent, resp.Code)

	profile, err = e.docs.GetProfile(ctx, sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", profile.DisplayName)
	assert.Equal(t, "http://img.test/a.png", profile.PictureURL)
}

func TestAccount_UploadPicture(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	uploader := &fakeUploader{}
	h := newAccountHandler(e, uploader)
	b, _ := e.start(t)
	sess := e.signIn(t, b, "alice@example.com")

	resp := httptest.NewRecorder()
	h.UploadPicture(resp, e.request(http.MethodPost, "/profile/picture", `{"upload":[]}`))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = httptest.NewRecorder()
	h.UploadPicture(resp, e.request(http.MethodPost, "/profile/picture", `{"upload":["not base64!"],"uploadMimes":["image/png"]}`))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	encoded := base64.StdEncoding.EncodeToString([]byte("png bytes"))
	resp = httptest.NewRecorder()
	h.UploadPicture(resp, e.request(http.MethodPost, "/profile/picture",
		`{"upload":["`+encoded+`"],"uploadMimes":["image/png"]}`))
	require.Equal(t, http.StatusNoContent, resp.Code)

	assert.Equal(t, sess.UserID, uploader.userID)
	assert.Equal(t, "png bytes", string(uploader.data))
	assert.Equal(t, "image/png", uploader.contentType)

	profile, err := e.docs.GetProfile(ctx, sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, "http://board.test/pictures/"+sess.UserID+"-1.png", profile.PictureURL)
	assert.Equal(t, "Alice", profile.DisplayName)
}

func TestAccount_UploadPictureTooLarge(t *testing.T) {
	e := newEnv(t)
	h := newAccountHandler(e, &fakeUploader{})
	e.start(t)

	body := `{"upload":["` + strings.Repeat("A", maxUploadBody) + `"]}`
	resp := httptest.NewRecorder()
	h.UploadPicture(resp, e.request(http.MethodPost, "/profile/picture", body))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestAccount_PasswordAndEmail(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	h := newAccountHandler(e, &fakeUploader{})
	b, rec := e.start(t)
	e.signIn(t, b, "alice@example.com")

	resp := httptest.NewRecorder()
	h.Password(resp, e.request(http.MethodPost, "/password", `{"current":"wrong1","next":"secret2"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = httptest.NewRecorder()
	h.Password(resp, e.request(http.MethodPost, "/password", `{"current":"secret1","next":"secret2"}`))
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = httptest.NewRecorder()
	h.Email(resp, e.request(http.MethodPost, "/email", `{"current":"secret2","newEmail":"new@example.com"}`))
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Eventually(t, func() bool { return rec.Viewer().Email == "new@example.com" }, waitFor, tick)
	assert.False(t, rec.Viewer().Verified)

	resp = httptest.NewRecorder()
	h.SendVerification(resp, e.request(http.MethodPost, "/verification", ""))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	require.NoError(t, b.Logout(ctx))
	require.NoError(t, b.Login(ctx, "new@example.com", "secret2"))
}

func TestAccount_Delete(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	h := newAccountHandler(e, &fakeUploader{})
	b, rec := e.start(t)
	e.signIn(t, b, "alice@example.com")

	require.NoError(t, b.PostMessage(ctx, "Hello world", model.ColorNone))
	require.Eventually(t, func() bool { return len(rec.IDs()) == 1 }, waitFor, tick)

	resp := httptest.NewRecorder()
	h.Delete(resp, e.request(http.MethodPost, "/account/delete", `{"current":"wrong1"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.True(t, b.Session.IsAuthenticated(false))

	resp = httptest.NewRecorder()
	h.Delete(resp, e.request(http.MethodPost, "/account/delete", `{"current":"secret1"}`))
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, -1, sessionCookie(t, resp).MaxAge)

	require.Eventually(t, func() bool { return len(rec.IDs()) == 0 && !rec.Viewer().SignedIn }, waitFor, tick)
	assert.ErrorIs(t, b.Login(ctx, "alice@example.com", "secret1"), model.ErrUserNotFound)
}
