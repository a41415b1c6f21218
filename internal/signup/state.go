// Package signup drives the two step registration: request an OTP for the
// form's email, then verify it to create the account.
package signup

import (
	"errors"
	"fmt"

	"github.com/harlequingg/task-manager/internal/client"
)

var ErrInvalidTransition = errors.New("signup: invalid transition")

// State is one of Idle, OTPRequested or Verified.
type State interface {
	state()
	String() string
}

type Idle struct{}

type OTPRequested struct {
	Email string
}

// Verified is terminal. The next step is a login.
type Verified struct {
	User client.User
}

func (Idle) state()         {}
func (OTPRequested) state() {}
func (Verified) state()     {}

func (Idle) String() string           { return "idle" }
func (s OTPRequested) String() string { return "otp requested for " + s.Email }
func (s Verified) String() string     { return "verified " + s.User.Email }

// Event is one of OTPSent, VerificationSucceeded or VerificationFailed.
type Event interface {
	event()
}

type OTPSent struct {
	Email string
}

type VerificationSucceeded struct {
	User client.User
}

type VerificationFailed struct {
	Err error
}

func (OTPSent) event()               {}
func (VerificationSucceeded) event() {}
func (VerificationFailed) event()    {}

// Next returns the state reached by applying ev to s. Requesting a new OTP
// replaces the pending one.
func Next(s State, ev Event) (State, error) {
	switch cur := s.(type) {
	case Idle:
		if e, ok := ev.(OTPSent); ok {
			return OTPRequested{Email: e.Email}, nil
		}
	case OTPRequested:
		switch e := ev.(type) {
		case OTPSent:
			return OTPRequested{Email: e.Email}, nil
		case VerificationSucceeded:
			return Verified{User: e.User}, nil
		case VerificationFailed:
			return Idle{}, nil
		}
	case Verified:
	default:
		return s, fmt.Errorf("%w: unknown state %T", ErrInvalidTransition, cur)
	}
	return s, fmt.Errorf("%w: %T in state %s", ErrInvalidTransition, ev, s)
}
