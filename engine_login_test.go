package memberauth

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type mockAccountAPI struct {
	mu           sync.Mutex
	loginFn      func(ctx context.Context, email, password string) (*AccountResponse, error)
	registerFn   func(ctx context.Context, payload RegisterPayload) (*AccountResponse, error)
	profileFn    func(ctx context.Context, accessToken string) (*Principal, error)
	loginCalls   int
	profileCalls int
}

func (m *mockAccountAPI) Login(ctx context.Context, email, password string) (*AccountResponse, error) {
	m.mu.Lock()
	m.loginCalls++
	fn := m.loginFn
	m.mu.Unlock()

	if fn == nil {
		return nil, &AuthError{}
	}
	return fn(ctx, email, password)
}

func (m *mockAccountAPI) Register(ctx context.Context, payload RegisterPayload) (*AccountResponse, error) {
	if m.registerFn == nil {
		return nil, &AuthError{}
	}
	return m.registerFn(ctx, payload)
}

func (m *mockAccountAPI) Profile(ctx context.Context, accessToken string) (*Principal, error) {
	m.mu.Lock()
	m.profileCalls++
	fn := m.profileFn
	m.mu.Unlock()

	if fn == nil {
		return nil, &AuthError{}
	}
	return fn(ctx, accessToken)
}

type mockCredentialStore struct {
	mu       sync.Mutex
	tokens   TokenPair
	held     bool
	failSave error
	failLoad error
	failClr  error
	saves    int
	clears   int
}

func (s *mockCredentialStore) Save(_ context.Context, tokens TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++
	if s.failSave != nil {
		return s.failSave
	}
	s.tokens = tokens
	s.held = true
	return nil
}

func (s *mockCredentialStore) Load(_ context.Context) (TokenPair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failLoad != nil {
		return TokenPair{}, false, s.failLoad
	}
	return s.tokens, s.held, nil
}

func (s *mockCredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clears++
	if s.failClr != nil {
		return s.failClr
	}
	s.tokens = TokenPair{}
	s.held = false
	return nil
}

func (s *mockCredentialStore) snapshot() (TokenPair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens, s.held
}

func testPrincipal(id, userType, role string) *Principal {
	return &Principal{
		ID:          id,
		Username:    "user-" + id,
		DisplayName: "User " + id,
		Role:        role,
		UserType:    userType,
		Verified:    true,
	}
}

func okResponse(p *Principal) *AccountResponse {
	return &AccountResponse{
		User: p,
		Tokens: TokenPair{
			AccessToken:  "access-" + p.ID,
			RefreshToken: "refresh-" + p.ID,
		},
	}
}

func newTestEngine(t *testing.T, api *mockAccountAPI, creds *mockCredentialStore) *Engine {
	t.Helper()

	engine, err := New().
		WithAccountAPI(api).
		WithCredentialStore(creds).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func TestLoginSuccessPersistsTokensAndPrincipalTogether(t *testing.T) {
	principal := testPrincipal("p1", UserTypePlayer, UserTypePlayer)
	api := &mockAccountAPI{
		loginFn: func(_ context.Context, email, password string) (*AccountResponse, error) {
			if email != "a@b.c" || password != "secret" {
				t.Fatalf("unexpected credentials %s/%s", email, password)
			}
			return okResponse(principal), nil
		},
	}
	creds := &mockCredentialStore{}
	engine := newTestEngine(t, api, creds)

	got, err := engine.Login(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got.ID != "p1" {
		t.Fatalf("expected principal p1, got %s", got.ID)
	}

	session := engine.Session()
	if session.Status != StatusAuthenticated {
		t.Fatalf("expected Authenticated, got %s", session.Status)
	}
	if session.Principal == nil || session.Principal.ID != "p1" {
		t.Fatal("expected principal on session")
	}
	tokens, held := creds.snapshot()
	if !held || tokens.AccessToken != "access-p1" || tokens.RefreshToken != "refresh-p1" {
		t.Fatalf("expected both tokens persisted, got %+v held=%v", tokens, held)
	}
	if (session.Principal != nil) != tokens.Complete() {
		t.Fatal("principal presence must match token presence")
	}
}

func TestLoginRejectedLeavesStoreUnchanged(t *testing.T) {
	api := &mockAccountAPI{
		loginFn: func(context.Context, string, string) (*AccountResponse, error) {
			return nil, &AuthError{Reason: "invalid credentials"}
		},
	}
	creds := &mockCredentialStore{}
	engine := newTestEngine(t, api, creds)

	_, err := engine.Login(context.Background(), "a@b.c", "wrong")
	if !errors.Is(err, ErrAuthRejected) {
		t.Fatalf("expected ErrAuthRejected, got %v", err)
	}

	session := engine.Session()
	if session.Status != StatusFailed {
		t.Fatalf("expected Failed, got %s", session.Status)
	}
	if session.LastError != "invalid credentials" {
		t.Fatalf("expected server reason in LastError, got %q", session.LastError)
	}
	if creds.saves != 0 {
		t.Fatal("store must be untouched after a rejected login")
	}
}

func TestLoginMalformedResponseNeverPartiallyApplied(t *testing.T) {
	api := &mockAccountAPI{
		loginFn: func(context.Context, string, string) (*AccountResponse, error) {
			// Success shape missing the refresh token.
			return &AccountResponse{
				User:   testPrincipal("p1", UserTypePlayer, UserTypePlayer),
				Tokens: TokenPair{AccessToken: "only-access"},
			}, nil
		},
	}
	creds := &mockCredentialStore{}
	engine := newTestEngine(t, api, creds)

	_, err := engine.Login(context.Background(), "a@b.c", "secret")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}

	session := engine.Session()
	if session.Status != StatusFailed || session.Principal != nil || session.AccessToken != "" {
		t.Fatalf("malformed response must not be partially applied: %+v", session)
	}
	if creds.saves != 0 {
		t.Fatal("store must be untouched after a malformed response")
	}
}

func TestLoginNetworkFailureSurfacedWithoutRetry(t *testing.T) {
	api := &mockAccountAPI{
		loginFn: func(context.Context, string, string) (*AccountResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	creds := &mockCredentialStore{}
	engine := newTestEngine(t, api, creds)

	_, err := engine.Login(context.Background(), "a@b.c", "secret")
	if !errors.Is(err, ErrNetworkFailure) {
		t.Fatalf("expected ErrNetworkFailure, got %v", err)
	}
	if api.loginCalls != 1 {
		t.Fatalf("engine must not retry on its own, got %d calls", api.loginCalls)
	}
}

func TestLoginClearsLastErrorOnNewAttempt(t *testing.T) {
	attempt := 0
	api := &mockAccountAPI{
		loginFn: func(context.Context, string, string) (*AccountResponse, error) {
			attempt++
			if attempt == 1 {
				return nil, &AuthError{Reason: "first failure"}
			}
			return okResponse(testPrincipal("p1", UserTypePlayer, UserTypePlayer)), nil
		},
	}
	engine := newTestEngine(t, api, &mockCredentialStore{})

	if _, err := engine.Login(context.Background(), "a@b.c", "bad"); err == nil {
		t.Fatal("expected first attempt to fail")
	}
	if engine.Session().LastError == "" {
		t.Fatal("expected LastError after failure")
	}

	if _, err := engine.Login(context.Background(), "a@b.c", "good"); err != nil {
		t.Fatalf("second attempt failed: %v", err)
	}
	if got := engine.Session().LastError; got != "" {
		t.Fatalf("expected LastError cleared, got %q", got)
	}
}

func TestLoginWhileAuthenticatedRejected(t *testing.T) {
	api := &mockAccountAPI{
		loginFn: func(context.Context, string, string) (*AccountResponse, error) {
			return okResponse(testPrincipal("p1", UserTypePlayer, UserTypePlayer)), nil
		},
	}
	engine := newTestEngine(t, api, &mockCredentialStore{})

	if _, err := engine.Login(context.Background(), "a@b.c", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := engine.Login(context.Background(), "a@b.c", "secret"); !errors.Is(err, ErrAlreadyAuthenticated) {
		t.Fatalf("expected ErrAlreadyAuthenticated, got %v", err)
	}
}

func TestLoginStoreSaveFailureFailsAttempt(t *testing.T) {
	api := &mockAccountAPI{
		loginFn: func(context.Context, string, string) (*AccountResponse, error) {
			return okResponse(testPrincipal("p1", UserTypePlayer, UserTypePlayer)), nil
		},
	}
	creds := &mockCredentialStore{failSave: errors.New("disk full")}
	engine := newTestEngine(t, api, creds)

	_, err := engine.Login(context.Background(), "a@b.c", "secret")
	if err == nil {
		t.Fatal("expected failure when tokens cannot be persisted")
	}

	session := engine.Session()
	if session.Status != StatusFailed || session.Principal != nil {
		t.Fatalf("expected Failed without principal, got %+v", session)
	}
	if creds.clears == 0 {
		t.Fatal("expected cleanup clear after failed save")
	}
}

func TestConcurrentLoginLastWriteWins(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	slow := testPrincipal("slow", UserTypeCoach, UserTypeCoach)
	fast := testPrincipal("fast", UserTypePlayer, UserTypePlayer)

	api := &mockAccountAPI{
		loginFn: func(_ context.Context, email, _ string) (*AccountResponse, error) {
			if email == "slow@x" {
				close(entered)
				<-release
				return okResponse(slow), nil
			}
			return okResponse(fast), nil
		},
	}
	engine := newTestEngine(t, api, &mockCredentialStore{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Superseded call: its response arrives after the fast one.
		_, _ = engine.Login(context.Background(), "slow@x", "secret")
	}()
	<-entered

	if _, err := engine.Login(context.Background(), "fast@x", "secret"); err != nil {
		t.Fatalf("fast login failed: %v", err)
	}
	close(release)
	wg.Wait()

	session := engine.Session()
	if session.Status != StatusAuthenticated {
		t.Fatalf("expected Authenticated, got %s", session.Status)
	}
	if session.Principal.ID != "slow" {
		t.Fatalf("last applied response must win, got principal %s", session.Principal.ID)
	}
}

func TestRegisterSuccessEstablishesSession(t *testing.T) {
	api := &mockAccountAPI{
		registerFn: func(_ context.Context, payload RegisterPayload) (*AccountResponse, error) {
			if payload.Username != "newuser" {
				t.Fatalf("unexpected payload username %q", payload.Username)
			}
			return okResponse(testPrincipal("p9", UserTypeClub, UserTypeClub)), nil
		},
	}
	creds := &mockCredentialStore{}
	engine := newTestEngine(t, api, creds)

	principal, err := engine.Register(context.Background(), RegisterPayload{
		PrincipalType: UserTypeClub,
		Username:      "newuser",
		Email:         "club@x.y",
		Password:      "secret",
		BusinessName:  "FC Test",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if principal.ID != "p9" {
		t.Fatalf("expected principal p9, got %s", principal.ID)
	}
	if !engine.IsAuthenticated() {
		t.Fatal("expected authenticated session after register")
	}
	if _, held := creds.snapshot(); !held {
		t.Fatal("expected tokens persisted after register")
	}
}

func TestRegisterDisabledByConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Registration.Enabled = false

	engine, err := New().
		WithConfig(cfg).
		WithAccountAPI(&mockAccountAPI{}).
		WithCredentialStore(&mockCredentialStore{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := engine.Register(context.Background(), RegisterPayload{}); !errors.Is(err, ErrRegistrationDisabled) {
		t.Fatalf("expected ErrRegistrationDisabled, got %v", err)
	}
	if engine.Drafts() != nil {
		t.Fatal("expected no draft manager when registration is disabled")
	}
}
