package signin

import (
	"context"
	"fmt"

	"github.com/woodycatliu/Processor/effects"
	"github.com/woodycatliu/Processor/processor"
)

// FlowID is the effect family of every remote call of the flow. Cancelling
// it aborts a sign-in in progress.
const FlowID effects.ID = "signin"

type Processor = processor.Processor[State, Action, PrivateAction, Env]

// New starts a sign-in processor in the Ready state.
func New(env Env, opts ...processor.Option) *Processor {
	return processor.New(State{Status: StatusReady()}, Reducer{}, env, opts...)
}

type Reducer struct{}

func (Reducer) Transform(action Action) PrivateAction {
	return action.private()
}

func (Reducer) Reduce(state *State, action PrivateAction, env Env) *effects.Effect[PrivateAction] {
	switch a := action.(type) {
	case appleSignIn:
		state.Status = StatusSigningIn()
		return call(effects.Future(env.Apple.Start), func(r effects.Result[AppleUser]) PrivateAction {
			return handleAppleSignIn{result: r}
		})

	case signInEmail:
		state.Status = StatusSigningIn()
		return call(effects.Future(func(ctx context.Context) (FirebaseResponse, error) {
			return env.Firebase.SignIn(ctx, a.email, a.password)
		}), handleFirebase)

	case signInProviderID:
		return call(env.signInAppleUser(a.appleUser), func(r effects.Result[providerSignIn]) PrivateAction {
			return handleProviderIDSignIn{result: r}
		})

	case update:
		return call(effects.Future(func(ctx context.Context) (FirebaseResponse, error) {
			return env.Firebase.Update(ctx, a.response, a.name, a.email)
		}), handleFirebase)

	case fetchKVToken:
		return call(env.fetchKVToken(a.draft, a.jid, a.email, a.idToken), func(r effects.Result[userDraft]) PrivateAction {
			return handleKVTokenFetch{result: r}
		})

	case storeAppleUser:
		return effects.Send[PrivateAction](signInProviderID{appleUser: a.appleUser})

	case handleAppleSignIn:
		u, err := a.result.Get()
		if err != nil {
			return fail(err)
		}
		return effects.Send[PrivateAction](storeAppleUser{appleUser: u})

	case handleFirebaseSignIn:
		resp, err := a.result.Get()
		if err != nil {
			return fail(err)
		}
		return effects.Send[PrivateAction](fetchKVTokenFor(resp))

	case updateFirebaseInfoIfNeed:
		if a.response.Email != "" && a.response.Name != "" {
			return effects.Send[PrivateAction](fetchKVTokenFor(a.response))
		}
		email, name := env.readAppleUser(a.appleUser.User)
		return effects.Send[PrivateAction](update{response: a.response, name: name, email: email})

	case handleProviderIDSignIn:
		res, err := a.result.Get()
		if err != nil {
			return fail(err)
		}
		return effects.Send[PrivateAction](updateFirebaseInfoIfNeed{response: res.response, appleUser: res.appleUser})

	case handleKVTokenFetch:
		draft, err := a.result.Get()
		if err != nil {
			return fail(err)
		}
		if u, ok := draft.createUser(); ok {
			return effects.Send[PrivateAction](updateStatus{status: StatusSignedIn(u)})
		}
		return fail(ErrUnknown)

	case updateStatus:
		state.Status = a.status
		return nil

	case reset:
		return effects.Send[PrivateAction](updateStatus{status: StatusReady()})

	default:
		panic(fmt.Sprintf("signin: unhandled action %T", action))
	}
}

// call runs a remote call in the flow family and feeds its result back.
func call[T any](f *effects.Fallible[T], wrap func(effects.Result[T]) PrivateAction) *effects.Effect[PrivateAction] {
	return effects.CatchToResult(f, wrap).Cancellable(FlowID)
}

func handleFirebase(r effects.Result[FirebaseResponse]) PrivateAction {
	return handleFirebaseSignIn{result: r}
}

func fail(err error) *effects.Effect[PrivateAction] {
	return effects.Send[PrivateAction](updateStatus{status: StatusFailed(err)})
}

func fetchKVTokenFor(resp FirebaseResponse) fetchKVToken {
	jid, email := resp.Email, resp.Email
	if email == "" {
		jid, email = "null", "null"
	}
	return fetchKVToken{
		draft:   userDraft{firebase: resp},
		jid:     jid,
		email:   email,
		idToken: resp.IDToken,
	}
}

var _ processor.Reducer[State, Action, PrivateAction, Env] = Reducer{}
