package signin

import (
	"github.com/woodycatliu/Processor/effects"
)

// Action is a public command of the flow.
type Action interface {
	private() PrivateAction
}

type AppleSignIn struct{}

type EmailSignIn struct {
	Email    string
	Password string
}

// Reset puts the flow back to Ready.
type Reset struct{}

func (AppleSignIn) private() PrivateAction { return appleSignIn{} }
func (a EmailSignIn) private() PrivateAction {
	return signInEmail{email: a.Email, password: a.Password}
}
func (Reset) private() PrivateAction { return reset{} }

// PrivateAction is what the reducer actually handles, including the results
// of remote calls.
type PrivateAction interface {
	isPrivateAction()
}

type providerSignIn struct {
	appleUser AppleUser
	response  FirebaseResponse
}

type (
	appleSignIn struct{}
	signInEmail struct {
		email, password string
	}
	signInProviderID struct {
		appleUser AppleUser
	}
	update struct {
		response    FirebaseResponse
		name, email string
	}
	fetchKVToken struct {
		draft               userDraft
		jid, email, idToken string
	}
	storeAppleUser struct {
		appleUser AppleUser
	}
	updateFirebaseInfoIfNeed struct {
		response  FirebaseResponse
		appleUser AppleUser
	}
	handleProviderIDSignIn struct {
		result effects.Result[providerSignIn]
	}
	handleAppleSignIn struct {
		result effects.Result[AppleUser]
	}
	handleFirebaseSignIn struct {
		result effects.Result[FirebaseResponse]
	}
	handleKVTokenFetch struct {
		result effects.Result[userDraft]
	}
	updateStatus struct {
		status Status
	}
	reset struct{}
)

func (appleSignIn) isPrivateAction()              {}
func (signInEmail) isPrivateAction()              {}
func (signInProviderID) isPrivateAction()         {}
func (update) isPrivateAction()                   {}
func (fetchKVToken) isPrivateAction()             {}
func (storeAppleUser) isPrivateAction()           {}
func (updateFirebaseInfoIfNeed) isPrivateAction() {}
func (handleProviderIDSignIn) isPrivateAction()   {}
func (handleAppleSignIn) isPrivateAction()        {}
func (handleFirebaseSignIn) isPrivateAction()     {}
func (handleKVTokenFetch) isPrivateAction()       {}
func (updateStatus) isPrivateAction()             {}
func (reset) isPrivateAction()                    {}
