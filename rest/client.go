// Package rest is the HTTP boundary of the scouting library. Every backend
// response is decoded here into either a typed value or an APIError; the
// ambiguous envelope shapes the backend emits never propagate upward.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/kafaat/sahool-scouting/config"
)

// TokenSource supplies the bearer token attached to every request. In the web
// app this is the access_token cookie; embedders provide their own source.
type TokenSource func() string

// APIError is a failed backend call: transport failure, non-2xx status, or an
// envelope with success=false. Bilingual fields are filled when the backend
// provided them.
type APIError struct {
	Status    int
	Code      string
	Message   string
	MessageAr string
	Err       error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("api error (status %d, code %s): %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// envelope is the backend response wrapper:
// { success, data?, error?: { message, messageAr, code? } }.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message   string `json:"message"`
		MessageAr string `json:"messageAr"`
		Code      string `json:"code"`
	} `json:"error"`
}

// Client wraps resty with the base URL, bearer token and fixed timeout the
// scouting facade requires.
type Client struct {
	http   *resty.Client
	token  TokenSource
	logger *zap.Logger
}

// New creates the HTTP adapter. A nil token source sends no Authorization
// header; cfg.AccessToken is used when token is nil but the config carries one.
func New(cfg config.APIConfig, token TokenSource, logger *zap.Logger) *Client {
	if token == nil {
		static := cfg.AccessToken
		token = func() string { return static }
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient, token: token, logger: logger}
}

// request runs one call and returns the decoded data payload.
func (c *Client) request(ctx context.Context, method, path string, body any, query url.Values) (json.RawMessage, error) {
	req := c.http.R().SetContext(ctx)
	if tok := c.token(); tok != "" {
		req.SetAuthToken(tok)
	}
	if body != nil {
		req.SetBody(body)
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &APIError{Err: err}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, &APIError{Status: resp.StatusCode(), Err: fmt.Errorf("decode envelope: %w", err)}
	}

	if !env.Success || resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Message: "request rejected"}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.MessageAr = env.Error.MessageAr
		}
		c.logger.Warn("backend returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
			zap.String("code", apiErr.Code),
		)
		return nil, apiErr
	}

	return unwrapData(env.Data), nil
}

// unwrapData resolves the double-wrapped shape some endpoints emit
// ({data:{data:...}}) so callers always see the inner payload.
func unwrapData(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return raw
	}
	if inner, ok := probe["data"]; ok && len(probe) == 1 {
		return inner
	}
	return raw
}

// Do runs a call and decodes the payload into T.
func Do[T any](ctx context.Context, c *Client, method, path string, body any, query url.Values) (T, error) {
	var out T
	data, err := c.request(ctx, method, path, body, query)
	if err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &APIError{Err: fmt.Errorf("decode payload: %w", err)}
	}
	return out, nil
}

// DoNoContent runs a call whose payload the caller does not need.
func DoNoContent(ctx context.Context, c *Client, method, path string, body any) error {
	_, err := c.request(ctx, method, path, body, nil)
	return err
}

// UploadPhoto posts one photo as multipart form data and returns the stored
// photo URL. Photos are uploaded independently of the observation submission.
func (c *Client) UploadPhoto(ctx context.Context, sessionID, filename string, data []byte) (string, error) {
	req := c.http.R().SetContext(ctx)
	if tok := c.token(); tok != "" {
		req.SetAuthToken(tok)
	}

	var result struct {
		URL string `json:"url"`
	}
	resp, err := req.
		SetFileReader("photo", filename, bytes.NewReader(data)).
		SetMultipartFormData(map[string]string{"sessionId": sessionID}).
		Post("/api/v1/scouting/photos")
	if err != nil {
		return "", &APIError{Err: err}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return "", &APIError{Status: resp.StatusCode(), Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if !env.Success || resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Message: "photo upload rejected"}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.MessageAr = env.Error.MessageAr
		}
		return "", apiErr
	}
	if err := json.Unmarshal(unwrapData(env.Data), &result); err != nil {
		return "", &APIError{Err: fmt.Errorf("decode photo payload: %w", err)}
	}
	return result.URL, nil
}
