package signup

import (
	"context"
	"errors"
	"strings"

	"github.com/harlequingg/task-manager/internal/client"
	"github.com/harlequingg/task-manager/internal/session"
)

var (
	ErrNoDraft          = errors.New("no signup in progress, run signup first")
	ErrPasswordMismatch = errors.New("password and confirm password do not match")
	ErrNewCodeRequired  = errors.New("verification failed, request a new code with signup --resend")
)

// API is the part of the client used by the flow.
type API interface {
	SendOTP(ctx context.Context, email string) error
	Signup(ctx context.Context, req client.SignupRequest) (*client.User, error)
}

type Flow struct {
	api     API
	session *session.Session
	state   State
}

// NewFlow resumes from the session: a stored draft means an OTP was
// already requested for it.
func NewFlow(api API, sess *session.Session) *Flow {
	f := &Flow{api: api, session: sess, state: Idle{}}
	if d := sess.SignupData(); d != nil {
		f.state = OTPRequested{Email: d.Email}
	}
	return f
}

func (f *Flow) State() State {
	return f.state
}

// Request sends an OTP for the form's email and keeps the form as the
// signup draft. confirmPassword is only compared, never stored. Nothing
// changes when the request fails.
func (f *Flow) Request(ctx context.Context, data session.SignupData, confirmPassword string) error {
	if data.Password != confirmPassword {
		return ErrPasswordMismatch
	}
	return f.request(ctx, data)
}

// Resend requests a fresh OTP for the stored draft.
func (f *Flow) Resend(ctx context.Context) error {
	d := f.session.SignupData()
	if d == nil {
		return ErrNoDraft
	}
	return f.request(ctx, *d)
}

func (f *Flow) request(ctx context.Context, data session.SignupData) error {
	data.Email = strings.TrimSpace(data.Email)
	next, err := Next(f.state, OTPSent{Email: data.Email})
	if err != nil {
		return err
	}
	if err := f.api.SendOTP(ctx, data.Email); err != nil {
		return err
	}
	if err := f.session.SetSignupData(data); err != nil {
		return err
	}
	f.state = next
	return nil
}

// Verify submits the draft with otp. On success the draft is cleared and the
// flow is Verified. On failure the flow goes back to Idle and the draft is
// kept so a new OTP can be requested.
func (f *Flow) Verify(ctx context.Context, otp string) (*client.User, error) {
	d := f.session.SignupData()
	if d == nil {
		return nil, ErrNoDraft
	}
	if _, ok := f.state.(OTPRequested); !ok {
		return nil, ErrNewCodeRequired
	}

	u, err := f.api.Signup(ctx, client.SignupRequest{
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Email:           d.Email,
		Password:        d.Password,
		ConfirmPassword: d.Password,
		OTP:             strings.TrimSpace(otp),
	})
	if err != nil {
		f.state, _ = Next(f.state, VerificationFailed{Err: err})
		return nil, err
	}

	if err := f.session.ClearSignupData(); err != nil {
		return nil, err
	}
	f.state, _ = Next(f.state, VerificationSucceeded{User: *u})
	return u, nil
}
