// Package rest implements ports.Gateway against the simulation backend's REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/meshpanel/internal/logging"
	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/ports"
)

var _ ports.Gateway = (*Client)(nil)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 10 * time.Second

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap makes every StatusError match domain.ErrBackend.
func (e *StatusError) Unwrap() error {
	return domain.ErrBackend
}

// Client talks to the backend. Safe for concurrent use.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger configures a logger for the Client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the backend at apiURL. Requests go to apiURL + "/api".
// An empty apiURL yields relative "/api" paths, which only work behind a proxy.
func New(apiURL string, opts ...Option) *Client {
	c := &Client{
		base:    BaseURL(apiURL),
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL joins the configured API URL with the "/api" base path.
func BaseURL(apiURL string) string {
	return strings.TrimRight(apiURL, "/") + "/api"
}

// endpoint builds the URL of a backend resource, tolerating a leading slash.
func (c *Client) endpoint(path string) string {
	return c.base + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Backend request failed", "method", method, "path", path, "err", err)
		return fmt.Errorf("%w: %s %s: %w", domain.ErrBackend, method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Backend request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: failed to decode %s response: %w", domain.ErrBackend, path, err)
	}
	return nil
}

// nodeRef encodes a node id as a JSON integer when it is numeric, as the backend expects.
func nodeRef(id string) any {
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}

type createNodeRequest struct {
	NodeType domain.NodeType `json:"node_type"`
	SubType  domain.SubType  `json:"sub_type,omitempty"`
}

type edgeRequest struct {
	FromID any `json:"from_id"`
	ToID   any `json:"to_id"`
}

func (c *Client) Topology(ctx context.Context) (domain.Topology, error) {
	var raw wireTopology
	if err := c.do(ctx, http.MethodGet, "topology", nil, &raw); err != nil {
		return domain.Topology{}, err
	}
	return raw.toDomain(), nil
}

func (c *Client) Catalog(ctx context.Context) ([]domain.Template, error) {
	var raw wireCatalog
	if err := c.do(ctx, http.MethodGet, "nodes", nil, &raw); err != nil {
		return nil, err
	}
	return raw.templates(), nil
}

func (c *Client) CreateNode(ctx context.Context, nodeType domain.NodeType, subType domain.SubType) (domain.CreateNodeResult, error) {
	var res domain.CreateNodeResult
	err := c.do(ctx, http.MethodPost, "nodes", createNodeRequest{NodeType: nodeType, SubType: subType}, &res)
	return res, err
}

func (c *Client) CreateEdge(ctx context.Context, fromID, toID string) (domain.EdgeResult, error) {
	var res domain.EdgeResult
	if err := c.do(ctx, http.MethodPost, "edges", edgeRequest{FromID: nodeRef(fromID), ToID: nodeRef(toID)}, &res); err != nil {
		return domain.EdgeResult{}, err
	}
	res.Success = true
	if res.Message == "" {
		res.Message = fmt.Sprintf("Edge created from %s to %s", fromID, toID)
	}
	return res, nil
}

func (c *Client) SendMessage(ctx context.Context, messageType, fromID, toID string, payload map[string]any) (any, error) {
	if _, err := domain.LookupMessage(messageType); err != nil {
		return nil, err
	}
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["from_id"] = nodeRef(fromID)
	body["to_id"] = nodeRef(toID)

	var out any
	if err := c.do(ctx, http.MethodPost, "messages/"+url.PathEscape(messageType), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteNode(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "node/"+url.PathEscape(id), nil, nil)
}

func (c *Client) DeleteEdge(ctx context.Context, fromID, toID string) error {
	return c.do(ctx, http.MethodDelete, "edges", edgeRequest{FromID: nodeRef(fromID), ToID: nodeRef(toID)}, nil)
}

func (c *Client) SetPacketDropRate(ctx context.Context, id string, pdr float64) error {
	if err := domain.ValidatePDR(pdr); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, "drone/"+url.PathEscape(id)+"/pdr", map[string]float64{"pdr": pdr}, nil)
}

func (c *Client) NodeDetail(ctx context.Context, id string) (domain.NodeDetail, error) {
	var detail domain.NodeDetail
	if err := c.do(ctx, http.MethodGet, "node/"+url.PathEscape(id), nil, &detail); err != nil {
		return domain.NodeDetail{}, err
	}
	if detail.ID == "" {
		detail.ID = id
	}
	return detail, nil
}

func (c *Client) Logs(ctx context.Context, level string) ([]domain.LogEntry, error) {
	path := "logs"
	if level != "" {
		path += "?level=" + url.QueryEscape(level)
	}
	var entries []domain.LogEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) Configurations(ctx context.Context) ([]domain.Configuration, error) {
	var configs []domain.Configuration
	if err := c.do(ctx, http.MethodGet, "configurations", nil, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

func (c *Client) ApplyConfiguration(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "configurations", map[string]string{"id": id}, nil)
}
