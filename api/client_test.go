package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sportsfed/memberauth"
)

func accountBody(id string) string {
	return `{
		"user": {"id":"` + id + `","username":"jo","displayName":"Jo","role":"user","userType":"player","verified":true,"profileComplete":true},
		"tokens": {"accessToken":"acc-` + id + `","refreshToken":"ref-` + id + `"}
	}`
}

func TestLoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Email != "jo@example.com" || req.Password != "secret" {
			t.Errorf("unexpected credentials %q %q", req.Email, req.Password)
		}
		w.Write([]byte(accountBody("u1")))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	resp, err := c.Login(context.Background(), "jo@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.User.ID != "u1" || resp.Tokens.AccessToken != "acc-u1" || resp.Tokens.RefreshToken != "ref-u1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.User.UserType != "player" || !resp.User.Verified {
		t.Fatalf("principal fields lost in decode: %+v", resp.User)
	}
}

func TestLoginRejectionCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid credentials"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Login(context.Background(), "jo@example.com", "wrong")
	if !errors.Is(err, memberauth.ErrAuthRejected) {
		t.Fatalf("expected ErrAuthRejected, got %v", err)
	}

	var authErr *memberauth.AuthError
	if !errors.As(err, &authErr) || authErr.Reason != "invalid credentials" {
		t.Fatalf("expected server message preserved, got %v", err)
	}
}

func TestServerErrorIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Login(context.Background(), "jo@example.com", "secret")
	if !errors.Is(err, memberauth.ErrNetworkFailure) {
		t.Fatalf("expected ErrNetworkFailure for 5xx, got %v", err)
	}
}

func TestMissingTokensAreMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"id":"u1"},"tokens":{"accessToken":"acc"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Login(context.Background(), "jo@example.com", "secret")
	if !errors.Is(err, memberauth.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestRegisterWithoutAttachmentsSendsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if fields["userType"] != "club" || fields["businessName"] != "FC Meadow" {
			t.Errorf("unexpected fields %v", fields)
		}
		if _, present := fields["fullName"]; present {
			t.Error("empty fullName must be omitted")
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(accountBody("u2")))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	resp, err := c.Register(context.Background(), memberauth.RegisterPayload{
		PrincipalType:   "club",
		Username:        "fcmeadow",
		Email:           "club@example.com",
		Password:        "secret",
		BusinessName:    "FC Meadow",
		PrivacyAccepted: true,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if resp.User.ID != "u2" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestRegisterWithAttachmentsSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var fields map[string]any
		if err := json.Unmarshal([]byte(r.FormValue("fields")), &fields); err != nil {
			t.Errorf("decode fields part: %v", err)
		}
		if fields["username"] != "jo" {
			t.Errorf("unexpected fields %v", fields)
		}

		for _, name := range []string{"photo", "document"} {
			file, header, err := r.FormFile(name)
			if err != nil {
				t.Errorf("missing %s part: %v", name, err)
				continue
			}
			file.Close()
			if header.Filename == "" {
				t.Errorf("%s part has no filename", name)
			}
		}

		w.Write([]byte(accountBody("u3")))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Register(context.Background(), memberauth.RegisterPayload{
		PrincipalType:   "player",
		Username:        "jo",
		Email:           "jo@example.com",
		Password:        "secret",
		FullName:        "Jo Player",
		PrivacyAccepted: true,
		Photo:           &memberauth.FileAttachment{Name: "me.jpg", ContentType: "image/jpeg", Data: []byte("jpegdata")},
		Document:        &memberauth.FileAttachment{Name: "id.pdf", ContentType: "application/pdf", Data: []byte("pdfdata")},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
}

func TestProfileSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok-1" {
			t.Errorf("unexpected Authorization header %q", auth)
		}
		w.Write([]byte(`{"user":{"id":"u1","username":"jo","role":"user","userType":"coach"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	p, err := c.Profile(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if p.ID != "u1" || p.UserType != "coach" {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestCorrelationIDPropagatesAsRequestID(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		w.Write([]byte(accountBody("u1")))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	ctx := memberauth.WithCorrelationID(context.Background(), "req-77")
	if _, err := c.Login(ctx, "jo@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if gotID != "req-77" {
		t.Fatalf("expected correlation ID forwarded, got %q", gotID)
	}

	if _, err := c.Login(context.Background(), "jo@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if gotID == "" || gotID == "req-77" {
		t.Fatalf("expected a generated request ID, got %q", gotID)
	}
}

func TestUnreachableServerIsNetworkFailure(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Login(context.Background(), "jo@example.com", "secret")
	if !errors.Is(err, memberauth.ErrNetworkFailure) {
		t.Fatalf("expected ErrNetworkFailure, got %v", err)
	}
	if !strings.Contains(err.Error(), "connect") && !strings.Contains(err.Error(), "refused") {
		t.Logf("transport error detail: %v", err)
	}
}
