package board_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/noteboard/internal/board"
	"github.com/dtroode/noteboard/internal/mocks"
	"github.com/dtroode/noteboard/internal/model"
	"github.com/dtroode/noteboard/internal/store/memory"
	"github.com/dtroode/noteboard/internal/testutil"
)

type sessionFixture struct {
	auth     *mocks.AuthBackend
	docs     *memory.DocumentStore
	pictures *mocks.PictureService
	session  *board.SessionState
	posted   []func()
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		auth:     &mocks.AuthBackend{},
		docs:     memory.NewDocumentStore(testutil.MakeNoopLogger()),
		pictures: &mocks.PictureService{},
	}
	post := func(fn func()) bool {
		f.posted = append(f.posted, fn)
		return true
	}
	f.session = board.NewSessionState(f.auth, f.docs, f.pictures, post, testutil.MakeNoopLogger())
	return f
}

// drain runs the posted callbacks the way the board loop would.
func (f *sessionFixture) drain() {
	posted := f.posted
	f.posted = nil
	for _, fn := range posted {
		fn()
	}
}

var alice = model.Identity{UserID: "u1", DisplayName: "Alice", Email: "alice@example.com", Verified: true}

func TestSessionState_Login(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	require.NoError(t, f.docs.PutProfile(ctx, model.Profile{UserID: "u1", DisplayName: "Alice Profile", PictureURL: "http://img/a.png"}))

	f.auth.On("SignIn", mock.Anything, "alice@example.com", "secret1").
		Return(model.Credentials{Identity: alice, Token: "tok"}, nil)

	var logins []model.Session
	f.session.OnLogin(func(model.Session) { t.Fatal("replaced callback must not run") })
	f.session.OnLogin(func(s model.Session) { logins = append(logins, s) })

	assert.False(t, f.session.IsAuthenticated(false))
	assert.Empty(t, f.session.LastUserID())

	sess, err := f.session.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Alice Profile", sess.DisplayName)
	assert.Equal(t, "http://img/a.png", sess.PictureURL)
	assert.Equal(t, "tok", sess.Token)

	// the callback is posted, not run by Login
	assert.Empty(t, logins)
	require.Len(t, f.posted, 1)
	f.drain()
	require.Len(t, logins, 1)
	assert.Equal(t, "u1", logins[0].UserID)

	assert.True(t, f.session.IsAuthenticated(true))
	assert.Equal(t, "u1", f.session.CurrentUserID())
	assert.Equal(t, "u1", f.session.LastUserID())
}

func TestSessionState_LoginCreatesMissingProfile(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	f.auth.On("SignIn", mock.Anything, mock.Anything, mock.Anything).
		Return(model.Credentials{Identity: alice, Token: "tok"}, nil)

	_, err := f.session.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	profile, err := f.docs.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.DisplayName)
}

func TestSessionState_LoginFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "wrong password", err: model.ErrWrongPassword},
		{name: "disabled", err: model.ErrUserDisabled},
		{name: "not found", err: model.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			f.auth.On("SignIn", mock.Anything, mock.Anything, mock.Anything).
				Return(model.Credentials{}, tt.err)

			_, err := f.session.Login(context.Background(), "alice@example.com", "nope")
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, f.posted)
			assert.False(t, f.session.IsAuthenticated(false))
		})
	}
}

func TestSessionState_IsAuthenticatedUnverified(t *testing.T) {
	f := newSessionFixture(t)
	unverified := alice
	unverified.Verified = false
	f.auth.On("Resume", mock.Anything, "tok").Return(unverified, nil)

	_, err := f.session.Resume(context.Background(), "tok")
	require.NoError(t, err)

	assert.True(t, f.session.IsAuthenticated(false))
	assert.False(t, f.session.IsAuthenticated(true))
}

func TestSessionState_Logout(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	// signed out already
	require.NoError(t, f.session.Logout(ctx))
	f.auth.AssertNotCalled(t, "SignOut", mock.Anything, mock.Anything)

	f.auth.On("Resume", mock.Anything, "tok").Return(alice, nil)
	f.auth.On("SignOut", mock.Anything, "tok").Return(nil)

	var lastUser string
	f.session.OnLogout(func(last string) { lastUser = last })

	_, err := f.session.Resume(ctx, "tok")
	require.NoError(t, err)
	f.drain()

	require.NoError(t, f.session.Logout(ctx))
	f.drain()

	assert.Equal(t, "u1", lastUser)
	assert.Empty(t, f.session.CurrentUserID())
	assert.Equal(t, "u1", f.session.LastUserID())
	assert.False(t, f.session.IsAuthenticated(false))
	f.auth.AssertExpectations(t)
}

func TestSessionState_CreateAccount(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	f.auth.On("SignUp", mock.Anything, "alice@example.com", "secret1", "Alice").
		Return(model.Credentials{Identity: alice, Token: "tok"}, nil)
	f.auth.On("SignUp", mock.Anything, "taken@example.com", mock.Anything, mock.Anything).
		Return(model.Credentials{}, model.ErrEmailInUse)

	_, err := f.session.CreateAccount(ctx, "taken@example.com", "secret1", "Taken")
	assert.ErrorIs(t, err, model.ErrEmailInUse)

	sess, err := f.session.CreateAccount(ctx, "alice@example.com", "secret1", "  Alice ")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)

	profile, err := f.docs.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.Profile{UserID: "u1", DisplayName: "Alice"}, profile)
	assert.Len(t, f.posted, 1)
}

// profileWriteFailure rejects every profile write.
type profileWriteFailure struct {
	*memory.DocumentStore
}

func (profileWriteFailure) PutProfile(context.Context, model.Profile) error {
	return errors.New("document store unavailable")
}

func TestSessionState_CreateAccountProfileFailure(t *testing.T) {
	ctx := context.Background()
	auth := &mocks.AuthBackend{}
	docs := profileWriteFailure{memory.NewDocumentStore(testutil.MakeNoopLogger())}

	var posted []func()
	session := board.NewSessionState(auth, docs, nil, func(fn func()) bool {
		posted = append(posted, fn)
		return true
	}, testutil.MakeNoopLogger())

	auth.On("SignUp", mock.Anything, "alice@example.com", "secret1", "Alice").
		Return(model.Credentials{Identity: alice, Token: "tok"}, nil)
	auth.On("SignOut", mock.Anything, "tok").Return(nil).Once()

	_, err := session.CreateAccount(ctx, "alice@example.com", "secret1", "Alice")
	require.Error(t, err)

	assert.False(t, session.IsAuthenticated(false))
	assert.Empty(t, posted)
	auth.AssertExpectations(t)
}

func TestSessionState_LoginReplacesSession(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	bob := model.Identity{UserID: "u2", DisplayName: "Bob", Email: "bob@example.com"}
	f.auth.On("Resume", mock.Anything, "tok-a").Return(alice, nil)
	f.auth.On("SignIn", mock.Anything, "bob@example.com", "secret1").
		Return(model.Credentials{Identity: bob, Token: "tok-b"}, nil)
	f.auth.On("SignOut", mock.Anything, "tok-a").Return(nil).Once()

	_, err := f.session.Resume(ctx, "tok-a")
	require.NoError(t, err)

	// resuming the same token again keeps it
	_, err = f.session.Resume(ctx, "tok-a")
	require.NoError(t, err)
	f.auth.AssertNotCalled(t, "SignOut", mock.Anything, mock.Anything)

	sess, err := f.session.Login(ctx, "bob@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok-b", sess.Token)
	assert.Equal(t, "u2", f.session.CurrentUserID())

	f.auth.AssertExpectations(t)
	f.auth.AssertNotCalled(t, "SignOut", mock.Anything, "tok-b")
}

func TestSessionState_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	_, err := f.session.UpdateProfile(ctx, "Alice", "")
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)

	withPicture := alice
	withPicture.PhotoURL = "http://board.test/pictures/u1-old.png"
	f.auth.On("Resume", mock.Anything, "tok").Return(withPicture, nil)
	_, err = f.session.Resume(ctx, "tok")
	require.NoError(t, err)

	f.pictures.On("Validate", mock.Anything, "http://bad/x.txt").Return(model.ErrInvalidPicture)
	_, err = f.session.UpdateProfile(ctx, "Alice", "http://bad/x.txt")
	assert.ErrorIs(t, err, model.ErrInvalidPicture)
	f.auth.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	f.pictures.On("Validate", mock.Anything, "http://img/new.png").Return(nil)
	f.pictures.On("Remove", mock.Anything, "u1", "http://board.test/pictures/u1-old.png").Return(nil)
	f.auth.On("UpdateProfile", mock.Anything, "u1", "Alicia", "http://img/new.png").
		Return(model.Identity{UserID: "u1", DisplayName: "Alicia", PhotoURL: "http://img/new.png"}, nil)

	sess, err := f.session.UpdateProfile(ctx, " Alicia ", "http://img/new.png")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", sess.DisplayName)
	assert.Equal(t, "http://img/new.png", sess.PictureURL)

	profile, err := f.docs.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", profile.DisplayName)
	f.pictures.AssertExpectations(t)
}

func TestSessionState_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	f.auth.On("Resume", mock.Anything, "tok").Return(alice, nil)
	_, err := f.session.Resume(ctx, "tok")
	require.NoError(t, err)
	f.drain()

	var loggedOut bool
	f.session.OnLogout(func(string) { loggedOut = true })

	for _, author := range []string{"u1", "u2", "u1"} {
		_, err := f.docs.CreateMessage(ctx, model.MessageDraft{AuthorID: author, Text: "some text"})
		require.NoError(t, err)
	}

	f.auth.On("Reauthenticate", mock.Anything, "u1", "wrong").Return(model.ErrWrongPassword).Once()
	_, err = f.session.DeleteAccount(ctx, "wrong")
	assert.ErrorIs(t, err, model.ErrWrongPassword)
	assert.True(t, f.session.IsAuthenticated(false))

	f.auth.On("Reauthenticate", mock.Anything, "u1", "secret1").Return(nil)
	f.auth.On("DeleteAccount", mock.Anything, "u1", "secret1").Return(nil)

	n, err := f.session.DeleteAccount(ctx, "secret1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, f.session.IsAuthenticated(false))
	assert.Equal(t, "u1", f.session.LastUserID())

	f.drain()
	assert.True(t, loggedOut)
	f.auth.AssertExpectations(t)
}

func TestSessionState_DeleteAccountBackendFailure(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	f.auth.On("Resume", mock.Anything, "tok").Return(alice, nil)
	_, err := f.session.Resume(ctx, "tok")
	require.NoError(t, err)

	backendErr := errors.New("backend unavailable")
	f.auth.On("Reauthenticate", mock.Anything, "u1", "secret1").Return(nil)
	f.auth.On("DeleteAccount", mock.Anything, "u1", "secret1").Return(backendErr)

	_, err = f.session.DeleteAccount(ctx, "secret1")
	assert.ErrorIs(t, err, backendErr)
	assert.True(t, f.session.IsAuthenticated(false))
}

func TestSessionState_ChangeEmail(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)
	f.auth.On("Resume", mock.Anything, "tok").Return(alice, nil)
	_, err := f.session.Resume(ctx, "tok")
	require.NoError(t, err)

	f.auth.On("ChangeEmail", mock.Anything, "u1", "secret1", "new@example.com").
		Return(model.Identity{UserID: "u1", Email: "new@example.com"}, nil)

	sess, err := f.session.ChangeEmail(ctx, "secret1", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", sess.Email)
	assert.False(t, sess.Verified)
	assert.False(t, f.session.IsAuthenticated(true))
}
