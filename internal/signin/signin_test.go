package signin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodycatliu/Processor/internal/signin"
)

var fixedNow = time.Date(2023, 1, 31, 12, 0, 0, 0, time.UTC)

func testEnv() signin.Env {
	env := signin.TestEnv()
	env.Firebase = &signin.MockFirebase{Now: func() time.Time { return fixedNow }}
	return env
}

func newProcessor(t *testing.T, env signin.Env) *signin.Processor {
	t.Helper()
	p := signin.New(env)
	t.Cleanup(p.Close)
	return p
}

// waitFor collects distinct status kinds until one satisfies stop.
func waitFor(t *testing.T, states <-chan signin.State, stop func(signin.Status) bool) ([]signin.StatusKind, signin.Status) {
	t.Helper()
	var kinds []signin.StatusKind
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s, ok := <-states:
			require.True(t, ok, "subscription closed")
			if len(kinds) == 0 || kinds[len(kinds)-1] != s.Status.Kind {
				kinds = append(kinds, s.Status.Kind)
			}
			if stop(s.Status) {
				return kinds, s.Status
			}
		case <-timeout:
			t.Fatalf("timeout, saw %v", kinds)
		}
	}
}

func terminal(s signin.Status) bool {
	return s.Kind == signin.SignedIn || s.Kind == signin.Failed
}

func TestSignIn_Email(t *testing.T) {
	p := newProcessor(t, testEnv())
	states, stop := p.Subscribe(context.Background())
	defer stop()

	p.Send(signin.EmailSignIn{Email: "woody@example.com", Password: "secret"})

	kinds, final := waitFor(t, states, terminal)
	assert.Equal(t, []signin.StatusKind{signin.Ready, signin.SigningIn, signin.SignedIn}, kinds)
	assert.True(t, final.Equal(signin.StatusSignedIn(signin.User{
		Email:                "woody@example.com",
		ProviderID:           "password",
		Date:                 fixedNow,
		KVToken:              signin.KVToken{Token: "Test KVToken", RefreshToken: "Test KV RefreshToken"},
		FirebaseIDToken:      "firebase-id-token",
		FirebaseRefreshToken: "firebase-refresh-token",
	})), "got %s", final)
}

func TestSignIn_AppleFillsMissingProfile(t *testing.T) {
	env := testEnv()
	env.ReadAppleUser = func(account string) (string, string) {
		assert.Equal(t, "apple-user", account)
		return "apple@example.com", "Apple Seed"
	}
	p := newProcessor(t, env)
	states, stop := p.Subscribe(context.Background())
	defer stop()

	p.Send(signin.AppleSignIn{})

	_, final := waitFor(t, states, terminal)
	require.Equal(t, signin.SignedIn, final.Kind, "got %s", final)
	assert.Equal(t, "apple@example.com", final.User.Email)
	assert.Equal(t, "Apple Seed", final.User.Name)
	assert.Equal(t, "apple.com", final.User.ProviderID)
}

func TestSignIn_AppleDefaultProfile(t *testing.T) {
	p := newProcessor(t, testEnv())
	states, stop := p.Subscribe(context.Background())
	defer stop()

	p.Send(signin.AppleSignIn{})

	_, final := waitFor(t, states, terminal)
	require.Equal(t, signin.SignedIn, final.Kind, "got %s", final)
	assert.Equal(t, "Default@example.com", final.User.Email)
	assert.Equal(t, "Default", final.User.Name)
}

func TestSignIn_FailuresBecomeStatus(t *testing.T) {
	boom := errors.New("service unavailable")

	for name, mutate := range map[string]func(*signin.Env){
		"apple":          func(e *signin.Env) { e.Apple = &signin.MockApple{Err: boom} },
		"provider":       func(e *signin.Env) { e.Firebase = &signin.MockFirebase{Err: boom} },
		"profile update": func(e *signin.Env) { e.Firebase = &signin.MockFirebase{UpdateErr: boom} },
		"kv token":       func(e *signin.Env) { e.KVToken = &signin.MockKVToken{Err: boom} },
	} {
		t.Run(name, func(t *testing.T) {
			env := testEnv()
			mutate(&env)
			p := newProcessor(t, env)
			states, stop := p.Subscribe(context.Background())
			defer stop()

			p.Send(signin.AppleSignIn{})

			kinds, final := waitFor(t, states, terminal)
			assert.Equal(t, []signin.StatusKind{signin.Ready, signin.SigningIn, signin.Failed}, kinds)
			assert.ErrorIs(t, final.Err, boom)
		})
	}
}

func TestSignIn_IncompleteUserIsUnknownError(t *testing.T) {
	p := newProcessor(t, testEnv())
	states, stop := p.Subscribe(context.Background())
	defer stop()

	p.Send(signin.EmailSignIn{Email: "", Password: "secret"})

	_, final := waitFor(t, states, terminal)
	assert.ErrorIs(t, final.Err, signin.ErrUnknown)
}

func TestSignIn_CancelFlow(t *testing.T) {
	env := testEnv()
	env.Apple = &signin.MockApple{Delay: time.Hour}
	p := newProcessor(t, env)

	p.Send(signin.AppleSignIn{})
	require.True(t, p.Running(signin.FlowID))

	p.Cancel(signin.FlowID)

	assert.False(t, p.Running(signin.FlowID))
	assert.Never(t, func() bool { return p.State().Status.Kind != signin.SigningIn }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSignIn_Reset(t *testing.T) {
	p := newProcessor(t, testEnv())
	states, stop := p.Subscribe(context.Background())
	defer stop()

	p.Send(signin.EmailSignIn{Email: "woody@example.com"})
	waitFor(t, states, terminal)

	p.Send(signin.Reset{})
	_, final := waitFor(t, states, func(s signin.Status) bool { return s.Kind == signin.Ready })
	assert.True(t, final.Equal(signin.StatusReady()))
}

func TestReducer_TransformIsDeterministic(t *testing.T) {
	var r signin.Reducer
	a := signin.EmailSignIn{Email: "a@b.c", Password: "pw"}
	assert.Equal(t, r.Transform(a), r.Transform(a))
	assert.Equal(t, r.Transform(signin.AppleSignIn{}), r.Transform(signin.AppleSignIn{}))
}

func TestStatus_Equal(t *testing.T) {
	u := signin.User{Email: "a@b.c"}

	assert.True(t, signin.StatusReady().Equal(signin.StatusReady()))
	assert.True(t, signin.StatusSigningIn().Equal(signin.StatusSigningIn()))
	assert.True(t, signin.StatusSignedIn(u).Equal(signin.StatusSignedIn(u)))
	assert.False(t, signin.StatusSignedIn(u).Equal(signin.StatusSignedIn(signin.User{Email: "x@y.z"})))

	assert.True(t, signin.StatusFailed(errors.New("x")).Equal(signin.StatusFailed(errors.New("x"))))
	assert.False(t, signin.StatusFailed(errors.New("x")).Equal(signin.StatusFailed(errors.New("y"))))

	assert.False(t, signin.StatusReady().Equal(signin.StatusSigningIn()))
	assert.True(t, signin.State{Status: signin.StatusReady()}.Equal(signin.State{Status: signin.StatusReady()}))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "ready", signin.StatusReady().String())
	assert.Equal(t, "signed_in(a@b.c)", signin.StatusSignedIn(signin.User{Email: "a@b.c"}).String())
	assert.Equal(t, "failed(nope)", signin.StatusFailed(errors.New("nope")).String())
}
