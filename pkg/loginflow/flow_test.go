package loginflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campushq/campusgate/pkg/session"
)

// fakeAuthClient scripts collaborator responses per method.
type fakeAuthClient struct {
	loginResult  *LoginResult
	loginErr     error
	loginCalls   int
	verifyResult *LoginResult
	verifyErr    error
	verifyCalls  int
	resendErr    error
	resendCalls  int
	forgotUserID string
	forgotErr    error
	resetErr     error

	lastUserID  string
	lastOTP     string
	lastPurpose OTPPurpose
}

func (f *fakeAuthClient) Login(_ context.Context, username, password string) (*LoginResult, error) {
	f.loginCalls++
	return f.loginResult, f.loginErr
}

func (f *fakeAuthClient) VerifyOTP(_ context.Context, userID, otp string) (*LoginResult, error) {
	f.verifyCalls++
	f.lastUserID = userID
	f.lastOTP = otp
	return f.verifyResult, f.verifyErr
}

func (f *fakeAuthClient) ResendOTP(_ context.Context, userID string, purpose OTPPurpose) error {
	f.resendCalls++
	f.lastUserID = userID
	f.lastPurpose = purpose
	return f.resendErr
}

func (f *fakeAuthClient) ForgotPassword(_ context.Context, email string) (string, error) {
	return f.forgotUserID, f.forgotErr
}

func (f *fakeAuthClient) ResetPassword(_ context.Context, userID, otp, newPassword, confirmPassword string) error {
	f.lastUserID = userID
	f.lastOTP = otp
	return f.resetErr
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func tokens(role session.Role) *LoginResult {
	return &LoginResult{
		AccessToken:  "acc",
		RefreshToken: "ref",
		Role:         role,
		Profile:      session.Profile{ID: 7, Name: "Asha Verma"},
	}
}

func otpChallenge(userID string) *LoginResult {
	return &LoginResult{OTPRequired: true, UserID: userID, Message: "OTP sent"}
}

func newTestFlow(client AuthClient, clock *fakeClock) (*Flow, *session.Store) {
	store := session.NewStore(session.NewMemoryStorage())
	flow := New(client, store, WithClock(clock.now))
	return flow, store
}

func TestDirectLoginEstablishesSession(t *testing.T) {
	client := &fakeAuthClient{loginResult: tokens(session.RoleAdmin)}
	flow, store := newTestFlow(client, &fakeClock{t: time.Now()})

	if err := flow.SubmitCredentials(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if flow.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %q", flow.State())
	}
	sess := store.Current()
	if !sess.Authenticated() || sess.Role != session.RoleAdmin {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestOTPLoginHappyPath(t *testing.T) {
	client := &fakeAuthClient{
		loginResult:  otpChallenge("42"),
		verifyResult: tokens(session.RoleStudent),
	}
	flow, store := newTestFlow(client, &fakeClock{t: time.Now()})

	if err := flow.SubmitCredentials(context.Background(), "student", "secret"); err != nil {
		t.Fatalf("submit credentials: %v", err)
	}
	if flow.State() != StateOtpPending {
		t.Fatalf("expected otp_pending, got %q", flow.State())
	}
	if flow.PendingUserID() != "42" {
		t.Fatalf("expected pending user 42, got %q", flow.PendingUserID())
	}
	if store.Current().Authenticated() {
		t.Fatal("no session may exist before the OTP is verified")
	}

	if err := flow.SubmitOTP(context.Background(), "123456"); err != nil {
		t.Fatalf("submit otp: %v", err)
	}
	if flow.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %q", flow.State())
	}
	if client.lastUserID != "42" || client.lastOTP != "123456" {
		t.Fatalf("verify called with %q/%q", client.lastUserID, client.lastOTP)
	}
	if !store.Current().Authenticated() {
		t.Fatal("expected established session")
	}
}

func TestFailedLoginStaysOnCredentials(t *testing.T) {
	client := &fakeAuthClient{loginErr: errors.New("invalid credentials")}
	flow, store := newTestFlow(client, &fakeClock{t: time.Now()})

	if err := flow.SubmitCredentials(context.Background(), "admin", "wrong"); err == nil {
		t.Fatal("expected error")
	}
	if flow.State() != StateCredentials {
		t.Fatalf("expected credentials, got %q", flow.State())
	}
	if store.Current().Authenticated() {
		t.Fatal("failed login must not establish a session")
	}
}

func TestRejectedOTPKeepsPendingLogin(t *testing.T) {
	client := &fakeAuthClient{
		loginResult: otpChallenge("42"),
		verifyErr:   errors.New("invalid otp"),
	}
	flow, _ := newTestFlow(client, &fakeClock{t: time.Now()})

	if err := flow.SubmitCredentials(context.Background(), "student", "secret"); err != nil {
		t.Fatalf("submit credentials: %v", err)
	}
	if err := flow.SubmitOTP(context.Background(), "000000"); err == nil {
		t.Fatal("expected error")
	}
	if flow.State() != StateOtpPending {
		t.Fatalf("rejected otp must keep otp_pending, got %q", flow.State())
	}
	if flow.PendingUserID() != "42" {
		t.Fatal("pending login must survive a rejected code")
	}
}

// recordingStorage counts how often the access token is persisted, to
// observe how many times a session was established.
type recordingStorage struct {
	*session.MemoryStorage
	accessWrites int
}

func (r *recordingStorage) Set(key, value string) error {
	if key == "access_token" {
		r.accessWrites++
	}
	return r.MemoryStorage.Set(key, value)
}

func TestOTPRetryAfterRejectionEstablishesOnce(t *testing.T) {
	client := &fakeAuthClient{
		loginResult: otpChallenge("42"),
		verifyErr:   errors.New("invalid otp"),
	}
	storage := &recordingStorage{MemoryStorage: session.NewMemoryStorage()}
	store := session.NewStore(storage)
	flow := New(client, store, WithClock((&fakeClock{t: time.Now()}).now))

	if err := flow.SubmitCredentials(context.Background(), "student", "secret"); err != nil {
		t.Fatalf("submit credentials: %v", err)
	}
	if err := flow.SubmitOTP(context.Background(), "000000"); err == nil {
		t.Fatal("expected error on first submit")
	}
	if store.Current().Authenticated() {
		t.Fatal("rejected otp must not establish a session")
	}

	client.verifyErr = nil
	client.verifyResult = tokens(session.RoleStudent)
	if err := flow.SubmitOTP(context.Background(), "123456"); err != nil {
		t.Fatalf("submit otp retry: %v", err)
	}

	if flow.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %q", flow.State())
	}
	if flow.PendingUserID() != "" {
		t.Fatal("pending login must be discarded on success")
	}
	if client.verifyCalls != 2 {
		t.Fatalf("expected two verify calls, got %d", client.verifyCalls)
	}
	if storage.accessWrites != 1 {
		t.Fatalf("session must be established exactly once, got %d writes", storage.accessWrites)
	}
}

func TestLocalValidationSkipsNetwork(t *testing.T) {
	client := &fakeAuthClient{loginResult: otpChallenge("42")}
	flow, _ := newTestFlow(client, &fakeClock{t: time.Now()})

	if err := flow.SubmitCredentials(context.Background(), "", "secret"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if client.loginCalls != 0 {
		t.Fatal("empty credentials must not hit the network")
	}

	if err := flow.SubmitCredentials(context.Background(), "student", "secret"); err != nil {
		t.Fatalf("submit credentials: %v", err)
	}
	for _, otp := range []string{"", "12345", "1234567", "12345a"} {
		if err := flow.SubmitOTP(context.Background(), otp); !errors.Is(err, ErrInvalidOTPFormat) {
			t.Fatalf("otp %q: expected ErrInvalidOTPFormat, got %v", otp, err)
		}
	}
	if client.verifyCalls != 0 {
		t.Fatal("malformed otp must not hit the network")
	}
}

func TestActionsRejectedInWrongState(t *testing.T) {
	client := &fakeAuthClient{}
	flow, _ := newTestFlow(client, &fakeClock{t: time.Now()})

	if err := flow.SubmitOTP(context.Background(), "123456"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := flow.ResendOTP(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := flow.SubmitPasswordReset(context.Background(), "123456", "longenough", "longenough"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestConcurrentSubmitRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := &blockingClient{release: release, started: started}
	flow, _ := newTestFlow(client, &fakeClock{t: time.Now()})

	done := make(chan error, 1)
	go func() {
		done <- flow.SubmitCredentials(context.Background(), "admin", "secret")
	}()
	<-started

	if err := flow.SubmitCredentials(context.Background(), "admin", "secret"); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
}

// blockingClient parks Login until released, to hold a request in flight.
type blockingClient struct {
	fakeAuthClient
	release <-chan struct{}
	started chan<- struct{}
}

func (b *blockingClient) Login(_ context.Context, _, _ string) (*LoginResult, error) {
	b.started <- struct{}{}
	<-b.release
	return tokens(session.RoleAdmin), nil
}

func TestStaleResponseDiscardedAfterBackToLogin(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := &blockingClient{release: release, started: started}
	flow, store := newTestFlow(client, &fakeClock{t: time.Now()})

	done := make(chan error, 1)
	go func() {
		done <- flow.SubmitCredentials(context.Background(), "admin", "secret")
	}()
	<-started

	flow.BackToLogin()
	close(release)
	<-done

	if flow.State() != StateCredentials {
		t.Fatalf("expected credentials after reset, got %q", flow.State())
	}
	if store.Current().Authenticated() {
		t.Fatal("a response landing after reset must not establish a session")
	}
}

func TestResendCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	client := &fakeAuthClient{loginResult: otpChallenge("42")}
	flow, _ := newTestFlow(client, clock)

	if err := flow.SubmitCredentials(context.Background(), "student", "secret"); err != nil {
		t.Fatalf("submit credentials: %v", err)
	}

	// The cooldown armed when the first code was sent.
	if err := flow.ResendOTP(context.Background()); !errors.Is(err, ErrResendCooldown) {
		t.Fatalf("expected ErrResendCooldown, got %v", err)
	}
	if client.resendCalls != 0 {
		t.Fatal("cooldown must reject without a network call")
	}
	if got := flow.ResendAvailableIn(); got != DefaultResendCooldown {
		t.Fatalf("expected full cooldown remaining, got %v", got)
	}

	clock.advance(30 * time.Second)
	if got := flow.ResendAvailableIn(); got != 30*time.Second {
		t.Fatalf("expected 30s remaining, got %v", got)
	}

	clock.advance(31 * time.Second)
	if got := flow.ResendAvailableIn(); got != 0 {
		t.Fatalf("expected cooldown expired, got %v", got)
	}
	if err := flow.ResendOTP(context.Background()); err != nil {
		t.Fatalf("resend after cooldown: %v", err)
	}
	if client.resendCalls != 1 {
		t.Fatalf("expected one resend call, got %d", client.resendCalls)
	}

	// A successful resend re-arms the cooldown.
	if err := flow.ResendOTP(context.Background()); !errors.Is(err, ErrResendCooldown) {
		t.Fatalf("expected ErrResendCooldown after resend, got %v", err)
	}
	if client.lastPurpose != OTPPurposeLogin {
		t.Fatalf("expected login purpose, got %q", client.lastPurpose)
	}
}

func TestResendFromResetPending(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	client := &fakeAuthClient{forgotUserID: "42"}
	flow, _ := newTestFlow(client, clock)

	if err := flow.BeginPasswordReset(); err != nil {
		t.Fatalf("begin reset: %v", err)
	}
	if err := flow.SubmitForgotPassword(context.Background(), "asha@college.test"); err != nil {
		t.Fatalf("submit forgot: %v", err)
	}

	// Cooldown armed when the reset code was first sent.
	if err := flow.ResendOTP(context.Background()); !errors.Is(err, ErrResendCooldown) {
		t.Fatalf("expected ErrResendCooldown, got %v", err)
	}

	clock.advance(DefaultResendCooldown + time.Second)
	if err := flow.ResendOTP(context.Background()); err != nil {
		t.Fatalf("resend from reset_pending: %v", err)
	}
	if client.lastPurpose != OTPPurposeReset {
		t.Fatalf("expected reset purpose, got %q", client.lastPurpose)
	}
	if client.lastUserID != "42" {
		t.Fatalf("resend called for user %q", client.lastUserID)
	}
	if flow.State() != StateResetPending {
		t.Fatalf("resend must keep reset_pending, got %q", flow.State())
	}
}

func TestBackToLoginClearsPendingLogin(t *testing.T) {
	client := &fakeAuthClient{loginResult: otpChallenge("42")}
	flow, _ := newTestFlow(client, &fakeClock{t: time.Now()})

	if err := flow.SubmitCredentials(context.Background(), "student", "secret"); err != nil {
		t.Fatalf("submit credentials: %v", err)
	}
	flow.BackToLogin()

	if flow.State() != StateCredentials {
		t.Fatalf("expected credentials, got %q", flow.State())
	}
	if flow.PendingUserID() != "" {
		t.Fatal("pending user must be discarded")
	}
	if got := flow.ResendAvailableIn(); got != 0 {
		t.Fatalf("cooldown must reset, got %v", got)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	client := &fakeAuthClient{forgotUserID: "42"}
	flow, store := newTestFlow(client, clock)

	if err := flow.BeginPasswordReset(); err != nil {
		t.Fatalf("begin reset: %v", err)
	}
	if flow.State() != StateForgotPassword {
		t.Fatalf("expected forgot_password, got %q", flow.State())
	}

	if err := flow.SubmitForgotPassword(context.Background(), ""); !errors.Is(err, ErrMissingEmail) {
		t.Fatalf("expected ErrMissingEmail, got %v", err)
	}
	if err := flow.SubmitForgotPassword(context.Background(), "asha@college.test"); err != nil {
		t.Fatalf("submit forgot: %v", err)
	}
	if flow.State() != StateResetPending {
		t.Fatalf("expected reset_pending, got %q", flow.State())
	}

	if err := flow.SubmitPasswordReset(context.Background(), "123456", "short", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := flow.SubmitPasswordReset(context.Background(), "123456", "longenough", "different"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	if err := flow.SubmitPasswordReset(context.Background(), "123456", "longenough", "longenough"); err != nil {
		t.Fatalf("submit reset: %v", err)
	}
	if flow.State() != StateCredentials {
		t.Fatalf("reset must return to credentials, got %q", flow.State())
	}
	if client.lastUserID != "42" {
		t.Fatalf("reset called for user %q", client.lastUserID)
	}
	if store.Current().Authenticated() {
		t.Fatal("password reset must not establish a session")
	}
}
