// Package client provides the HTTP query/mutation client for the explorer
// backend, with retry on read-only queries, offline tracking, and auth.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spacedriveapp/spacedrive-sub003/internal/logging"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/protocol"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/retry"
	"go.uber.org/zap"
)

// Client talks to the explorer backend. Queries are retried on transient
// failure; mutations are issued exactly once and never retried here.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig retry.Config

	mu        sync.RWMutex
	online    bool
	lastPing  time.Time
	authToken string
}

// Config holds client configuration.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RetryConfig retry.Config
	AuthToken   string
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		retryConfig: cfg.RetryConfig,
		online:      true,
		authToken:   cfg.AuthToken,
	}
}

// SetAuthToken sets the bearer token for requests.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

func (c *Client) applyAuth(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}

// IsOnline returns true if the server was reachable on the last call.
func (c *Client) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

func (c *Client) setOnline(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.online != online {
		if online {
			logging.Info("backend is back online")
		} else {
			logging.Error("backend is offline")
		}
	}
	c.online = online
	c.lastPing = time.Now()
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.setOnline(false)
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	c.setOnline(true)
	return nil
}

// apiError decodes an ErrorResponse body, falling back to the status code.
func apiError(op string, resp *http.Response) error {
	var errResp protocol.ErrorResponse
	if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("%s failed: %s", op, errResp.Error)
	}
	return fmt.Errorf("%s failed: %d", op, resp.StatusCode)
}

// getJSON performs a retried GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	return retry.Do(ctx, c.retryConfig, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}
		c.applyAuth(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.setOnline(false)
			return retry.Transient(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			if resp.StatusCode >= 500 {
				c.setOnline(false)
				return retry.Transient(apiError(op, resp))
			}
			return apiError(op, resp)
		}

		c.setOnline(true)
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

// postJSON performs a single POST with a JSON body. No retries: the
// mutation endpoints are not idempotent from the caller's point of view.
func (c *Client) postJSON(ctx context.Context, op, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setOnline(false)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		if resp.StatusCode >= 500 {
			c.setOnline(false)
		}
		return apiError(op, resp)
	}

	c.setOnline(true)
	var job protocol.JobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err == nil && job.JobID != "" {
		logging.Debug("mutation accepted", zap.String("op", op), zap.String("job_id", job.JobID))
	}
	return nil
}

// CopyFiles issues an indexed copy mutation (files.copyFiles).
func (c *Client) CopyFiles(ctx context.Context, req protocol.IndexedTransferRequest) error {
	logging.Debug("files.copyFiles",
		zap.Int32("source_location", req.SourceLocationID),
		zap.Int32("target_location", req.TargetLocationID),
		zap.Int("sources", len(req.SourcesFilePathIDs)))
	return c.postJSON(ctx, "files.copyFiles", "/api/v1/files/copy", req)
}

// CutFiles issues an indexed cut mutation (files.cutFiles).
func (c *Client) CutFiles(ctx context.Context, req protocol.IndexedTransferRequest) error {
	logging.Debug("files.cutFiles",
		zap.Int32("source_location", req.SourceLocationID),
		zap.Int32("target_location", req.TargetLocationID),
		zap.Int("sources", len(req.SourcesFilePathIDs)))
	return c.postJSON(ctx, "files.cutFiles", "/api/v1/files/cut", req)
}

// EphemeralCopyFiles issues an ephemeral copy mutation (ephemeralFiles.copyFiles).
func (c *Client) EphemeralCopyFiles(ctx context.Context, req protocol.EphemeralTransferRequest) error {
	logging.Debug("ephemeralFiles.copyFiles",
		zap.Int("sources", len(req.Sources)), zap.String("target_dir", req.TargetDir))
	return c.postJSON(ctx, "ephemeralFiles.copyFiles", "/api/v1/ephemeral/copy", req)
}

// EphemeralCutFiles issues an ephemeral cut mutation (ephemeralFiles.cutFiles).
func (c *Client) EphemeralCutFiles(ctx context.Context, req protocol.EphemeralTransferRequest) error {
	logging.Debug("ephemeralFiles.cutFiles",
		zap.Int("sources", len(req.Sources)), zap.String("target_dir", req.TargetDir))
	return c.postJSON(ctx, "ephemeralFiles.cutFiles", "/api/v1/ephemeral/cut", req)
}

// AssignTag issues a tag assign/unassign mutation (tags.assign).
func (c *Client) AssignTag(ctx context.Context, req protocol.TagAssignRequest) error {
	logging.Debug("tags.assign",
		zap.Int32("tag", req.TagID), zap.Int("targets", len(req.Targets)), zap.Bool("unassign", req.Unassign))
	return c.postJSON(ctx, "tags.assign", "/api/v1/tags/assign", req)
}

// GetPath resolves a file-path id to its absolute filesystem path
// (files.getPath). Read-only, retried.
func (c *Client) GetPath(ctx context.Context, filePathID int32) (string, error) {
	var out protocol.PathResponse
	err := c.getJSON(ctx, "files.getPath", fmt.Sprintf("/api/v1/files/%d/path", filePathID), &out)
	if err != nil {
		return "", err
	}
	if out.Path == "" {
		return "", fmt.Errorf("files.getPath: no path for file_path %d", filePathID)
	}
	return out.Path, nil
}

// Locations lists the registered locations.
func (c *Client) Locations(ctx context.Context) ([]models.Location, error) {
	var out protocol.LocationsResponse
	if err := c.getJSON(ctx, "locations.list", "/api/v1/locations", &out); err != nil {
		return nil, err
	}
	return out.Locations, nil
}

// Tags lists the user's tags.
func (c *Client) Tags(ctx context.Context) ([]models.Tag, error) {
	var out protocol.TagsResponse
	if err := c.getJSON(ctx, "tags.list", "/api/v1/tags", &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}

// DirectoryListing lists an indexed directory of a location.
func (c *Client) DirectoryListing(ctx context.Context, locationID int32, relativeDir string) ([]models.ExplorerItem, error) {
	var out protocol.ListingResponse
	path := fmt.Sprintf("/api/v1/locations/%d/listing?path=%s", locationID, url.QueryEscape(relativeDir))
	if err := c.getJSON(ctx, "files.directoryListing", path, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// EphemeralListing lists an unindexed directory by absolute path.
func (c *Client) EphemeralListing(ctx context.Context, dir string) ([]models.ExplorerItem, error) {
	var out protocol.ListingResponse
	path := "/api/v1/ephemeral/listing?path=" + url.QueryEscape(dir)
	if err := c.getJSON(ctx, "ephemeralFiles.listing", path, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// TagListing lists the items carrying a tag.
func (c *Client) TagListing(ctx context.Context, tagID int32) ([]models.ExplorerItem, error) {
	var out protocol.ListingResponse
	if err := c.getJSON(ctx, "tags.itemsForTag", fmt.Sprintf("/api/v1/tags/%d/items", tagID), &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
