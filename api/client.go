// Package api implements the AccountAPI interface over the federation's
// HTTP/JSON account service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sportsfed/memberauth"
)

const defaultTimeout = 15 * time.Second

// Config holds the client's endpoint settings.
type Config struct {
	// BaseURL is the account service root, without a trailing slash.
	BaseURL string

	// Timeout bounds each request. Zero selects the package default.
	Timeout time.Duration

	UserAgent string
}

// Client is an HTTP implementation of [memberauth.AccountAPI]. It never
// retries; retry policy belongs to the engine's callers.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a client for the account service at cfg.BaseURL.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

type principalDTO struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	DisplayName     string `json:"displayName"`
	Role            string `json:"role"`
	UserType        string `json:"userType"`
	Verified        bool   `json:"verified"`
	ProfileComplete bool   `json:"profileComplete"`
	PhotoURL        string `json:"photoUrl,omitempty"`
	ClubID          string `json:"clubId,omitempty"`
}

func (d *principalDTO) principal() *memberauth.Principal {
	return &memberauth.Principal{
		ID:              d.ID,
		Username:        d.Username,
		DisplayName:     d.DisplayName,
		Role:            d.Role,
		UserType:        d.UserType,
		Verified:        d.Verified,
		ProfileComplete: d.ProfileComplete,
		PhotoURL:        d.PhotoURL,
		ClubID:          d.ClubID,
	}
}

type tokensDTO struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type accountResponseDTO struct {
	User   *principalDTO `json:"user"`
	Tokens tokensDTO     `json:"tokens"`
}

type errorResponseDTO struct {
	Message string `json:"message"`
}

type loginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials at POST /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*memberauth.AccountResponse, error) {
	body, err := json.Marshal(loginRequestDTO{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/auth/login", "application/json", bytes.NewReader(body), "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeAccountResponse(resp)
}

// Register creates an account at POST /auth/register. Payloads without
// attachments are sent as JSON; payloads carrying either attachment are
// sent as multipart form data with the field record in a "fields" part.
func (c *Client) Register(ctx context.Context, payload memberauth.RegisterPayload) (*memberauth.AccountResponse, error) {
	var (
		body        io.Reader
		contentType string
		err         error
	)

	if payload.Photo != nil || payload.Document != nil {
		body, contentType, err = encodeMultipart(payload)
	} else {
		var data []byte
		data, err = json.Marshal(registerFields(payload))
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/auth/register", contentType, body, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeAccountResponse(resp)
}

// Profile fetches the authenticated principal at GET /auth/profile.
func (c *Client) Profile(ctx context.Context, accessToken string) (*memberauth.Principal, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/profile", "", nil, accessToken)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var dto struct {
		User *principalDTO `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil || dto.User == nil {
		return nil, memberauth.ErrMalformedResponse
	}

	return dto.User.principal(), nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, bearer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	requestID := memberauth.CorrelationIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(memberauth.ErrNetworkFailure, err)
	}
	return resp, nil
}

func decodeAccountResponse(resp *http.Response) (*memberauth.AccountResponse, error) {
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}

	var dto accountResponseDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, memberauth.ErrMalformedResponse
	}
	if dto.User == nil || dto.Tokens.AccessToken == "" || dto.Tokens.RefreshToken == "" {
		return nil, memberauth.ErrMalformedResponse
	}

	return &memberauth.AccountResponse{
		User: dto.User.principal(),
		Tokens: memberauth.TokenPair{
			AccessToken:  dto.Tokens.AccessToken,
			RefreshToken: dto.Tokens.RefreshToken,
		},
	}, nil
}

// decodeError maps a non-success status onto the engine's error taxonomy.
// 4xx statuses carry the server's rejection message when one is present;
// 5xx statuses are indistinguishable from transport failures to the caller.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: server returned status %d", memberauth.ErrNetworkFailure, resp.StatusCode)
	}

	var dto errorResponseDTO
	if err := json.Unmarshal(body, &dto); err == nil && dto.Message != "" {
		return &memberauth.AuthError{Reason: dto.Message}
	}
	return &memberauth.AuthError{}
}

func registerFields(payload memberauth.RegisterPayload) map[string]any {
	fields := map[string]any{
		"userType":        payload.PrincipalType,
		"username":        payload.Username,
		"email":           payload.Email,
		"password":        payload.Password,
		"privacyAccepted": payload.PrivacyAccepted,
	}
	if payload.FullName != "" {
		fields["fullName"] = payload.FullName
	}
	if payload.BusinessName != "" {
		fields["businessName"] = payload.BusinessName
	}
	if len(payload.Profile) > 0 {
		fields["profile"] = payload.Profile
	}
	return fields
}

func encodeMultipart(payload memberauth.RegisterPayload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields, err := json.Marshal(registerFields(payload))
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("fields", string(fields)); err != nil {
		return nil, "", err
	}

	if err := writeAttachment(w, "photo", payload.Photo); err != nil {
		return nil, "", err
	}
	if err := writeAttachment(w, "document", payload.Document); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeAttachment(w *multipart.Writer, field string, file *memberauth.FileAttachment) error {
	if file == nil {
		return nil
	}

	part, err := w.CreateFormFile(field, file.Name)
	if err != nil {
		return err
	}
	_, err = part.Write(file.Data)
	return err
}
