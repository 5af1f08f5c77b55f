package signin

import (
	"context"

	"github.com/woodycatliu/Processor/effects"
)

const appleProviderID = "apple.com"

type AppleService interface {
	Start(ctx context.Context) (AppleUser, error)
}

type FirebaseService interface {
	SignIn(ctx context.Context, email, password string) (FirebaseResponse, error)
	SignInWithProvider(ctx context.Context, providerID, idToken, nonce string) (FirebaseResponse, error)
	Update(ctx context.Context, response FirebaseResponse, name, email string) (FirebaseResponse, error)
}

type KVTokenService interface {
	FetchKVToken(ctx context.Context, jid, email, idToken string) (KVToken, error)
}

// Env holds the services the flow talks to.
type Env struct {
	Apple    AppleService
	Firebase FirebaseService
	KVToken  KVTokenService

	// ReadAppleUser looks up the profile stored for an Apple account. Apple
	// only shares it on the first sign-in.
	ReadAppleUser func(account string) (email, name string)
}

// TestEnv wires the mock services with no delay.
func TestEnv() Env {
	return Env{
		Apple:    &MockApple{},
		Firebase: &MockFirebase{},
		KVToken:  &MockKVToken{},
	}
}

func (e Env) readAppleUser(account string) (string, string) {
	if e.ReadAppleUser == nil {
		return "Default@example.com", "Default"
	}
	return e.ReadAppleUser(account)
}

func (e Env) signInAppleUser(u AppleUser) *effects.Fallible[providerSignIn] {
	return effects.Future(func(ctx context.Context) (providerSignIn, error) {
		resp, err := e.Firebase.SignInWithProvider(ctx, appleProviderID, u.IdentityToken, u.Nonce)
		if err != nil {
			return providerSignIn{}, err
		}
		return providerSignIn{appleUser: u, response: resp}, nil
	})
}

func (e Env) fetchKVToken(draft userDraft, jid, email, idToken string) *effects.Fallible[userDraft] {
	return effects.Future(func(ctx context.Context) (userDraft, error) {
		tok, err := e.KVToken.FetchKVToken(ctx, jid, email, idToken)
		if err != nil {
			return userDraft{}, err
		}
		draft.kvToken = &tok
		return draft, nil
	})
}
