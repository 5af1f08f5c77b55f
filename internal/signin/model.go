// Package signin is a reference reducer: a sign-in flow that chains several
// remote calls (Apple, Firebase, KV token) through the processor.
package signin

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknown is reported when the collected credentials cannot form a user.
var ErrUnknown = errors.New("signin: unknown error")

type KVToken struct {
	Token        string
	RefreshToken string
}

type User struct {
	Email                string
	Name                 string
	ProviderID           string
	Date                 time.Time
	KVToken              KVToken
	FirebaseIDToken      string
	FirebaseRefreshToken string
}

// AppleUser is the credential returned by Sign in with Apple.
type AppleUser struct {
	User          string
	IdentityToken string
	Nonce         string
	Email         string
}

// FirebaseResponse is the result of any Firebase sign-in or profile update.
// Empty strings stand for absent fields.
type FirebaseResponse struct {
	Email        string
	Name         string
	ProviderID   string
	IDToken      string
	RefreshToken string
	Date         time.Time
}

// userDraft collects what is needed to build a User across several calls.
type userDraft struct {
	kvToken  *KVToken
	firebase FirebaseResponse
}

func (d userDraft) createUser() (User, bool) {
	if d.firebase.RefreshToken == "" || d.firebase.Email == "" || d.kvToken == nil {
		return User{}, false
	}
	return User{
		Email:                d.firebase.Email,
		Name:                 d.firebase.Name,
		ProviderID:           d.firebase.ProviderID,
		Date:                 d.firebase.Date,
		KVToken:              *d.kvToken,
		FirebaseIDToken:      d.firebase.IDToken,
		FirebaseRefreshToken: d.firebase.RefreshToken,
	}, true
}

type StatusKind int

const (
	Ready StatusKind = iota
	SigningIn
	SignedIn
	Failed
)

func (k StatusKind) String() string {
	switch k {
	case Ready:
		return "ready"
	case SigningIn:
		return "signing_in"
	case SignedIn:
		return "signed_in"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(k))
	}
}

// Status is the progress of the flow. User is set only when SignedIn, Err
// only when Failed.
type Status struct {
	Kind StatusKind
	User User
	Err  error
}

func StatusReady() Status           { return Status{Kind: Ready} }
func StatusSigningIn() Status       { return Status{Kind: SigningIn} }
func StatusSignedIn(u User) Status  { return Status{Kind: SignedIn, User: u} }
func StatusFailed(err error) Status { return Status{Kind: Failed, Err: err} }

// Equal compares two statuses. Users compare field by field, errors by
// message.
func (s Status) Equal(o Status) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case SignedIn:
		return s.User == o.User
	case Failed:
		return errorText(s.Err) == errorText(o.Err)
	default:
		return true
	}
}

func (s Status) String() string {
	switch s.Kind {
	case SignedIn:
		return fmt.Sprintf("%s(%s)", s.Kind, s.User.Email)
	case Failed:
		return fmt.Sprintf("%s(%s)", s.Kind, errorText(s.Err))
	default:
		return s.Kind.String()
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

type State struct {
	Status Status
}

func (s State) Equal(o State) bool {
	return s.Status.Equal(o.Status)
}
