// Package client talks to the audit API on behalf of the terminal commands.
package client

import (
	"audit-service/internal/models"
	"audit-service/utils"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// APIError is a non-2xx response carrying the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" && e.Detail != e.Message {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *SessionStore
	logger     *zap.Logger
}

func New(baseURL string, timeout time.Duration, sessions *SessionStore, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		sessions:   sessions,
		logger:     logger,
	}
}

type dataEnvelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Login authenticates and persists the returned session.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var resp models.LoginResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, false, &resp); err != nil {
		return nil, err
	}

	session := Session{
		Token:    resp.Token,
		Username: resp.User.Username,
		Role:     resp.User.Role,
		State:    resp.User.State,
	}
	if err := c.sessions.Save(session); err != nil {
		return nil, err
	}
	c.logger.Debug("session stored", zap.String("username", session.Username), zap.String("path", c.sessions.Path()))
	return &session, nil
}

// Logout discards the local session. Tokens are stateless so nothing is sent.
func (c *Client) Logout() error {
	return c.sessions.Clear()
}

func (c *Client) Session() (*Session, error) {
	return c.sessions.Load()
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.SessionUser, error) {
	var resp dataEnvelope[models.SessionUser]
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, true, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) Submit(ctx context.Context, req models.SubmitRecordRequest) (*models.AuditRecord, error) {
	var resp dataEnvelope[*models.AuditRecord]
	if err := c.do(ctx, http.MethodPost, "/api/utilities/submit", req, true, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ListAll(ctx context.Context) ([]*models.AuditRecord, error) {
	return c.list(ctx, "/api/utilities/all")
}

func (c *Client) Critical(ctx context.Context) ([]*models.AuditRecord, error) {
	return c.list(ctx, "/api/utilities/critical")
}

func (c *Client) Mine(ctx context.Context) ([]*models.AuditRecord, error) {
	return c.list(ctx, "/api/utilities/mine")
}

func (c *Client) Filter(ctx context.Context, query models.FilterQuery) ([]*models.AuditRecord, error) {
	params := url.Values{}
	if query.State != "" {
		params.Set("state", query.State)
	}
	if query.InspectorName != "" {
		params.Set("inspectorName", query.InspectorName)
	}
	if query.UtilityName != "" {
		params.Set("utilityName", query.UtilityName)
	}
	path := "/api/utilities/filter"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return c.list(ctx, path)
}

func (c *Client) Get(ctx context.Context, id string) (*models.AuditRecord, error) {
	var record models.AuditRecord
	if err := c.do(ctx, http.MethodGet, "/api/utilities/"+url.PathEscape(id), nil, true, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) Update(ctx context.Context, id string, patch models.RecordPatch) (*models.AuditRecord, error) {
	var resp dataEnvelope[*models.AuditRecord]
	if err := c.do(ctx, http.MethodPatch, "/api/utilities/"+url.PathEscape(id), patch, true, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) Resolve(ctx context.Context, id string) (*models.AuditRecord, error) {
	var resp dataEnvelope[*models.AuditRecord]
	if err := c.do(ctx, http.MethodPost, "/api/utilities/"+url.PathEscape(id)+"/resolve", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/utilities/"+url.PathEscape(id), nil, true, nil)
}

func (c *Client) list(ctx context.Context, path string) ([]*models.AuditRecord, error) {
	var records []*models.AuditRecord
	if err := c.do(ctx, http.MethodGet, path, nil, true, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, authenticated bool, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		session, err := c.sessions.Load()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		if clearErr := c.sessions.Clear(); clearErr != nil {
			c.logger.Warn("failed to clear rejected session", zap.Error(clearErr))
		}
		return ErrSessionInvalid
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	var envelope utils.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
		apiErr.Detail = envelope.Error
	}
	return apiErr
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
