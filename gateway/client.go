// Package gateway provides the HTTP client the entity store uses to reach
// the remote dashboard API. It resolves paths against a configured base URL,
// merges a mutable caller-supplied header set into every request, and makes
// exactly one attempt per call: retry policy belongs to the store's
// optimistic fallback, not here.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/voltasol/osboard/domain"
	"go.uber.org/zap"
)

const defaultHealthTimeout = 5 * time.Second

// Client talks to the remote API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu      sync.RWMutex
	headers map[string]string
}

// NewClient creates a gateway client. requestTimeout of zero means no
// timeout: a hung request delays reconciliation without blocking anything
// else, since the optimistic value is already applied.
func NewClient(baseURL string, requestTimeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
		headers:    map[string]string{},
	}
}

// SetAuthHeaders replaces the header set merged into every outgoing request.
// The data layer is constructed before an identity is known, so auth context
// is injected here after the fact.
func (c *Client) SetAuthHeaders(headers map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers = make(map[string]string, len(headers))
	for k, v := range headers {
		c.headers[k] = v
	}
}

// resolve joins a path with the base URL unless the path is already absolute.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// do performs one request. A non-2xx status is an error; the response body,
// when out is non-nil, is decoded as JSON into it.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("gateway request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("gateway request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) applyHeaders(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

// GetUsers fetches the authoritative user collection.
func (c *Client) GetUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser persists a new user and returns the server's canonical record.
func (c *Client) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	var saved domain.User
	if err := c.do(ctx, http.MethodPost, "/api/users", user, &saved); err != nil {
		return domain.User{}, err
	}
	return saved, nil
}

// UpdateUser persists user changes and returns the server's canonical record.
func (c *Client) UpdateUser(ctx context.Context, user domain.User) (domain.User, error) {
	var saved domain.User
	if err := c.do(ctx, http.MethodPut, "/api/users/"+user.ID, user, &saved); err != nil {
		return domain.User{}, err
	}
	return saved, nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+id, nil, nil)
}

// GetPlants fetches the authoritative plant collection.
func (c *Client) GetPlants(ctx context.Context) ([]domain.Plant, error) {
	var plants []domain.Plant
	if err := c.do(ctx, http.MethodGet, "/api/plants", nil, &plants); err != nil {
		return nil, err
	}
	return plants, nil
}

// CreatePlant persists a new plant and returns the server's canonical record.
func (c *Client) CreatePlant(ctx context.Context, plant domain.Plant) (domain.Plant, error) {
	var saved domain.Plant
	if err := c.do(ctx, http.MethodPost, "/api/plants", plant, &saved); err != nil {
		return domain.Plant{}, err
	}
	return saved, nil
}

// UpdatePlant persists plant changes and returns the server's canonical record.
func (c *Client) UpdatePlant(ctx context.Context, plant domain.Plant) (domain.Plant, error) {
	var saved domain.Plant
	if err := c.do(ctx, http.MethodPut, "/api/plants/"+plant.ID, plant, &saved); err != nil {
		return domain.Plant{}, err
	}
	return saved, nil
}

// GetAssignments fetches the current role-scoped assignment lists of a plant,
// used to merge before overwriting.
func (c *Client) GetAssignments(ctx context.Context, plantID string) (domain.Assignments, error) {
	var a domain.Assignments
	if err := c.do(ctx, http.MethodGet, "/api/plants/"+plantID+"/assignments", nil, &a); err != nil {
		return domain.Assignments{}, err
	}
	return a, nil
}

// PutAssignments replaces the assignment lists of a plant as one atomic
// update.
func (c *Client) PutAssignments(ctx context.Context, plantID string, a domain.Assignments) error {
	return c.do(ctx, http.MethodPut, "/api/plants/"+plantID+"/assignments", a.Normalized(), nil)
}

// GetWorkOrders fetches the authoritative work-order collection.
func (c *Client) GetWorkOrders(ctx context.Context) ([]domain.WorkOrder, error) {
	var orders []domain.WorkOrder
	if err := c.do(ctx, http.MethodGet, "/api/os", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateWorkOrder persists a new work order and returns the server's
// canonical record.
func (c *Client) CreateWorkOrder(ctx context.Context, os domain.WorkOrder) (domain.WorkOrder, error) {
	var saved domain.WorkOrder
	if err := c.do(ctx, http.MethodPost, "/api/os", os, &saved); err != nil {
		return domain.WorkOrder{}, err
	}
	return saved, nil
}

// UpdateWorkOrder persists work-order changes and returns the server's
// canonical record.
func (c *Client) UpdateWorkOrder(ctx context.Context, os domain.WorkOrder) (domain.WorkOrder, error) {
	var saved domain.WorkOrder
	if err := c.do(ctx, http.MethodPut, "/api/os/"+os.ID, os, &saved); err != nil {
		return domain.WorkOrder{}, err
	}
	return saved, nil
}

// UploadAttachments sends image payloads as one multipart request with
// repeated "files" and "captions" fields in matching order. The response is
// the server's attachment records.
func (c *Client) UploadAttachments(ctx context.Context, osID string, uploads []domain.AttachmentUpload) ([]domain.ImageAttachment, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, up := range uploads {
		part, err := w.CreateFormFile("files", up.Filename)
		if err != nil {
			return nil, fmt.Errorf("build multipart body: %w", err)
		}
		if _, err := part.Write(up.Data); err != nil {
			return nil, fmt.Errorf("build multipart body: %w", err)
		}
		if err := w.WriteField("captions", up.Caption); err != nil {
			return nil, fmt.Errorf("build multipart body: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}

	path := "/api/os/" + osID + "/attachments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path), &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("POST %s: unexpected status %d", path, resp.StatusCode)
	}

	var attachments []domain.ImageAttachment
	if err := json.NewDecoder(resp.Body).Decode(&attachments); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return attachments, nil
}

// DeleteAttachment removes an uploaded attachment.
func (c *Client) DeleteAttachment(ctx context.Context, osID, attachmentID string) error {
	return c.do(ctx, http.MethodDelete, "/api/os/"+osID+"/attachments/"+attachmentID, nil, nil)
}

// Health probes the liveness endpoint. Any 2xx status counts as healthy.
func (c *Client) Health(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthTimeout)
		defer cancel()
	}
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}
