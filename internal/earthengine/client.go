// Package earthengine is a client for the Earth Engine REST API. Images and
// collections are built as lazy expression graphs and only sent to the
// server by Size and Visualize.
package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/forest-guardian/park-indices-map/internal/cache"
	"github.com/forest-guardian/park-indices-map/internal/engine"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	DefaultBaseURL = "https://earthengine.googleapis.com/v1"
	Scope          = "https://www.googleapis.com/auth/earthengine"
	Attribution    = `Map Data &copy; <a href="https://earthengine.google.com/">Google Earth Engine</a>`
)

type Config struct {
	Project string
	BaseURL string
	// HTTPClient must attach credentials; see NewHTTPClient.
	HTTPClient *http.Client
	// MapCache, when set, keeps map ids across runs.
	MapCache cache.CacheService[string]
	Logger   *slog.Logger
}

type Client struct {
	project    string
	baseURL    string
	httpClient *http.Client
	maps       cache.CacheService[string]
	logger     *slog.Logger
}

var _ engine.Engine = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("earth engine project is required")
	}
	c := &Client{
		project:    cfg.Project,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		maps:       cfg.MapCache,
		logger:     cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// NewHTTPClient returns an authorized client from a service account key
// file, or from application default credentials when credentialsFile is
// empty.
func NewHTTPClient(ctx context.Context, credentialsFile string) (*http.Client, error) {
	var creds *google.Credentials
	if credentialsFile == "" {
		found, err := google.FindDefaultCredentials(ctx, Scope)
		if err != nil {
			return nil, fmt.Errorf("failed to find default credentials: %w", err)
		}
		creds = found
	} else {
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		parsed, err := google.CredentialsFromJSON(ctx, data, Scope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials file: %w", err)
		}
		creds = parsed
	}
	return oauth2.NewClient(ctx, creds.TokenSource), nil
}

func (c *Client) ImageCollection(id string) engine.Collection {
	return &Collection{client: c, node: invoke("ImageCollection.load", map[string]*node{"id": constant(id)})}
}

func (c *Client) FeatureCollection(id string) engine.FeatureCollection {
	return &FeatureCollection{client: c, node: invoke("Collection.loadTable", map[string]*node{"tableId": constant(id)})}
}

// APIError is a non-2xx answer of the REST API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("earth engine request failed with status %d %s: %s", e.StatusCode, e.Status, e.Message)
}

func (c *Client) compute(ctx context.Context, expr Expression, out interface{}) error {
	var resp struct {
		Result json.RawMessage `json:"result"`
	}
	if err := c.post(ctx, "/projects/"+c.project+"/value:compute", map[string]interface{}{"expression": expr}, &resp); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode computed value: %w", err)
	}
	return nil
}

func (c *Client) tileURL(ctx context.Context, expr Expression) (string, error) {
	raw, err := json.Marshal(expr)
	if err != nil {
		return "", fmt.Errorf("failed to marshal expression: %w", err)
	}

	var key string
	if c.maps != nil {
		key = c.maps.GenerateKey(c.baseURL, c.project, string(raw))
		if name, ok := c.maps.Get(key); ok {
			c.logger.Debug("map id cache hit", "name", name)
			return c.tileTemplate(name), nil
		}
	}

	var resp struct {
		Name string `json:"name"`
	}
	body := map[string]interface{}{"expression": expr, "fileFormat": "AUTO_JPEG_PNG"}
	if err := c.post(ctx, "/projects/"+c.project+"/maps", body, &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return "", fmt.Errorf("earth engine returned an empty map name")
	}

	if c.maps != nil {
		if err := c.maps.Set(key, resp.Name); err != nil {
			c.logger.Warn("failed to cache map id", "error", err)
		}
	}
	return c.tileTemplate(resp.Name), nil
}

func (c *Client) tileTemplate(name string) string {
	return c.baseURL + "/" + name + "/tiles/{z}/{x}/{y}"
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("earth engine request", "path", path, "bytes", len(body))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call earth engine: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response, data []byte) *APIError {
	e := &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode), Message: strings.TrimSpace(string(data))}
	var body struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
		e.Message = body.Error.Message
		if body.Error.Status != "" {
			e.Status = body.Error.Status
		}
	}
	return e
}
