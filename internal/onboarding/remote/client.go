// Package remote is the HTTP client for the onboarding backend: saving
// section steps, fetching progress and managing project documents.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"keystone/internal/onboarding/models"
	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/requestcontext"
)

const defaultTimeout = 15 * time.Second

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 1 << 20

// Client calls the onboarding backend. Failures are never retried.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SaveStep submits one section's transformed answers.
func (c *Client) SaveStep(ctx context.Context, role models.Role, step int, payload models.Payload) (*models.StepResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode step payload")
	}
	path := fmt.Sprintf("/onboarding/%s/steps/%d", url.PathEscape(string(role)), step)
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.step(req)
}

// step sends req and decodes the step envelope. A status:false body fails
// even under a 2xx status.
func (c *Client) step(req *http.Request) (*models.StepResponse, error) {
	var resp models.StepResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Failure(); err != nil {
		c.logger.WarnContext(req.Context(), "remote rejected step",
			"method", req.Method,
			"path", req.URL.Path,
			"message", resp.Message,
		)
		return nil, err
	}
	return &resp, nil
}

// FetchProgress returns the server's view of the wizard for role.
func (c *Client) FetchProgress(ctx context.Context, role models.Role) (*models.StepResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/onboarding/%s/progress", url.PathEscape(string(role))), nil)
	if err != nil {
		return nil, err
	}
	return c.step(req)
}

// UploadDocument sends a file as multipart form data and returns the
// normalized document record.
func (c *Client) UploadDocument(ctx context.Context, up models.UploadRequest) (*models.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", up.FileName)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build upload")
	}
	if _, err := io.Copy(part, up.File); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read uploaded file")
	}
	for name, value := range map[string]string{
		"category":      up.Category,
		"file_type":     up.FileType,
		"subcategory":   up.Subcategory,
		"document_name": up.DocumentName,
		"notes":         up.Notes,
	} {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build upload")
		}
	}
	if err := mw.Close(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build upload")
	}

	path := fmt.Sprintf("/projects/%s/documents", url.PathEscape(up.ProjectID))
	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var raw map[string]any
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	doc := NormalizeDocument(raw)
	return &doc, nil
}

// DeleteDocument removes a project document. Success carries no payload.
func (c *Client) DeleteDocument(ctx context.Context, projectID, documentID string) error {
	path := fmt.Sprintf("/projects/%s/documents/%s", url.PathEscape(projectID), url.PathEscape(documentID))
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build remote request")
	}
	req.Header.Set("Accept", "application/json")
	if token := requestcontext.BearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestcontext.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	return req, nil
}

// errorBody is the backend's failure envelope.
type errorBody struct {
	Status  bool                `json:"status"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(req.Context(), "remote request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "onboarding service is unreachable")
	}
	defer resp.Body.Close()

	c.logger.DebugContext(req.Context(), "remote request completed",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body errorBody
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(data, &body)
		if resp.StatusCode == http.StatusUnprocessableEntity {
			msg := body.Message
			if msg == "" {
				msg = "submitted answers were rejected"
			}
			return dErrors.Wrap(&models.ValidationError{Message: msg, Fields: body.Errors}, dErrors.CodeValidation, msg)
		}
		return dErrors.Wrap(fmt.Errorf("remote status %d: %s", resp.StatusCode, body.Message), dErrors.CodeUnavailable, "onboarding service request failed")
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "onboarding service returned an unreadable response")
	}
	return nil
}

// NormalizeDocument extracts {id, name, category, file_type} from an upload
// response. The record may sit under "data" or "document", or at the root;
// the name falls back from document_name to original_filename.
func NormalizeDocument(raw map[string]any) models.Document {
	rec := raw
	for _, key := range []string{"data", "document"} {
		if nested, ok := raw[key].(map[string]any); ok {
			rec = nested
			break
		}
	}
	name := stringValue(rec["document_name"])
	if name == "" {
		name = stringValue(rec["original_filename"])
	}
	return models.Document{
		ID:       stringValue(rec["id"]),
		Name:     name,
		Category: stringValue(rec["category"]),
		FileType: stringValue(rec["file_type"]),
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}
