package signin

import (
	"context"
	"time"
)

// MockApple returns a fixed Apple credential after Delay, or Err.
type MockApple struct {
	Delay time.Duration
	Err   error
}

func (m *MockApple) Start(ctx context.Context) (AppleUser, error) {
	if err := sleep(ctx, m.Delay); err != nil {
		return AppleUser{}, err
	}
	if m.Err != nil {
		return AppleUser{}, m.Err
	}
	return AppleUser{
		User:          "apple-user",
		IdentityToken: "apple-identity-token",
		Nonce:         "apple-nonce",
	}, nil
}

// MockFirebase answers every call after Delay. Provider sign-ins come back
// without a profile, as Firebase does for Apple accounts.
type MockFirebase struct {
	Delay     time.Duration
	Err       error
	UpdateErr error
	Now       func() time.Time
}

func (m *MockFirebase) SignIn(ctx context.Context, email, _ string) (FirebaseResponse, error) {
	if err := m.wait(ctx); err != nil {
		return FirebaseResponse{}, err
	}
	return m.response(email, "", "password"), nil
}

func (m *MockFirebase) SignInWithProvider(ctx context.Context, providerID, _, _ string) (FirebaseResponse, error) {
	if err := m.wait(ctx); err != nil {
		return FirebaseResponse{}, err
	}
	return m.response("", "", providerID), nil
}

func (m *MockFirebase) Update(ctx context.Context, resp FirebaseResponse, name, email string) (FirebaseResponse, error) {
	if err := sleep(ctx, m.Delay); err != nil {
		return FirebaseResponse{}, err
	}
	if m.UpdateErr != nil {
		return FirebaseResponse{}, m.UpdateErr
	}
	resp.Name, resp.Email = name, email
	return resp, nil
}

func (m *MockFirebase) wait(ctx context.Context) error {
	if err := sleep(ctx, m.Delay); err != nil {
		return err
	}
	return m.Err
}

func (m *MockFirebase) response(email, name, providerID string) FirebaseResponse {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return FirebaseResponse{
		Email:        email,
		Name:         name,
		ProviderID:   providerID,
		IDToken:      "firebase-id-token",
		RefreshToken: "firebase-refresh-token",
		Date:         now(),
	}
}

// MockKVToken returns a fixed token after Delay, or Err.
type MockKVToken struct {
	Delay time.Duration
	Err   error
}

func (m *MockKVToken) FetchKVToken(ctx context.Context, _, _, _ string) (KVToken, error) {
	if err := sleep(ctx, m.Delay); err != nil {
		return KVToken{}, err
	}
	if m.Err != nil {
		return KVToken{}, m.Err
	}
	return KVToken{Token: "Test KVToken", RefreshToken: "Test KV RefreshToken"}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
