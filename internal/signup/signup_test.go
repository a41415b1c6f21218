package signup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlequingg/task-manager/internal/client"
	"github.com/harlequingg/task-manager/internal/session"
)

type fakeAPI struct {
	sent      []string
	sendErr   error
	signupErr error
	requests  []client.SignupRequest
}

func (f *fakeAPI) SendOTP(_ context.Context, email string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, email)
	return nil
}

func (f *fakeAPI) Signup(_ context.Context, req client.SignupRequest) (*client.User, error) {
	f.requests = append(f.requests, req)
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return &client.User{ID: "u1", Email: req.Email, FirstName: req.FirstName}, nil
}

func draft() session.SignupData {
	return session.SignupData{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Password:  "correct horse",
	}
}

func TestNext(t *testing.T) {
	user := client.User{ID: "u1"}
	tests := []struct {
		name    string
		from    State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle to requested", from: Idle{}, event: OTPSent{Email: "a@x.io"}, want: OTPRequested{Email: "a@x.io"}},
		{name: "resend replaces email", from: OTPRequested{Email: "a@x.io"}, event: OTPSent{Email: "b@x.io"}, want: OTPRequested{Email: "b@x.io"}},
		{name: "verify succeeds", from: OTPRequested{Email: "a@x.io"}, event: VerificationSucceeded{User: user}, want: Verified{User: user}},
		{name: "verify fails", from: OTPRequested{Email: "a@x.io"}, event: VerificationFailed{}, want: Idle{}},
		{name: "verify without request", from: Idle{}, event: VerificationSucceeded{User: user}, wantErr: true},
		{name: "fail without request", from: Idle{}, event: VerificationFailed{}, wantErr: true},
		{name: "verified is terminal", from: Verified{User: user}, event: OTPSent{Email: "a@x.io"}, wantErr: true},
		{name: "nil state", from: nil, event: OTPSent{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.from, tt.event)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlowHappyPath(t *testing.T) {
	api := &fakeAPI{}
	sess := session.New(session.NewMemoryStorage())
	f := NewFlow(api, sess)
	assert.Equal(t, Idle{}, f.State())

	require.NoError(t, f.Request(context.Background(), draft(), "correct horse"))
	assert.Equal(t, OTPRequested{Email: "ada@example.com"}, f.State())
	assert.Equal(t, []string{"ada@example.com"}, api.sent)
	require.NotNil(t, sess.SignupData())

	u, err := f.Verify(context.Background(), " 123456 ")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, Verified{User: *u}, f.State())
	assert.Nil(t, sess.SignupData())
	require.Len(t, api.requests, 1)
	assert.Equal(t, "123456", api.requests[0].OTP)
	assert.Equal(t, "Lovelace", api.requests[0].LastName)
}

func TestFlowRequestFailureChangesNothing(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("failed to send OTP email")}
	sess := session.New(session.NewMemoryStorage())
	f := NewFlow(api, sess)

	require.Error(t, f.Request(context.Background(), draft(), "correct horse"))
	assert.Equal(t, Idle{}, f.State())
	assert.Nil(t, sess.SignupData())
}

func TestFlowRejectsPasswordMismatchLocally(t *testing.T) {
	api := &fakeAPI{}
	f := NewFlow(api, session.New(session.NewMemoryStorage()))
	require.ErrorIs(t, f.Request(context.Background(), draft(), "other"), ErrPasswordMismatch)
	assert.Empty(t, api.sent)
}

func TestFlowVerifyFailureKeepsDraft(t *testing.T) {
	api := &fakeAPI{signupErr: &client.APIError{StatusCode: 400, Message: "The OTP is not valid"}}
	sess := session.New(session.NewMemoryStorage())
	f := NewFlow(api, sess)
	require.NoError(t, f.Request(context.Background(), draft(), "correct horse"))

	_, err := f.Verify(context.Background(), "000000")
	require.EqualError(t, err, "The OTP is not valid")
	assert.Equal(t, Idle{}, f.State())
	require.NotNil(t, sess.SignupData())

	_, err = f.Verify(context.Background(), "000000")
	require.ErrorIs(t, err, ErrNewCodeRequired)
	assert.Len(t, api.requests, 1, "no request is sent until a new code is issued")

	api.signupErr = nil
	require.NoError(t, f.Resend(context.Background()))
	assert.Equal(t, OTPRequested{Email: "ada@example.com"}, f.State())
	_, err = f.Verify(context.Background(), "123456")
	require.NoError(t, err)
	last := api.requests[len(api.requests)-1]
	assert.Equal(t, "correct horse", last.ConfirmPassword)
}

func TestNewFlowResumesFromDraft(t *testing.T) {
	sess := session.New(session.NewMemoryStorage())
	require.NoError(t, sess.SetSignupData(draft()))

	f := NewFlow(&fakeAPI{}, sess)
	assert.Equal(t, OTPRequested{Email: "ada@example.com"}, f.State())
}

func TestFlowWithoutDraft(t *testing.T) {
	f := NewFlow(&fakeAPI{}, session.New(session.NewMemoryStorage()))
	_, err := f.Verify(context.Background(), "123456")
	require.ErrorIs(t, err, ErrNoDraft)
	require.ErrorIs(t, f.Resend(context.Background()), ErrNoDraft)
}
