// Package pdns is a thin client for the PowerDNS authoritative HTTP
// API. It performs no caching and no retries; every call reflects
// current server truth and any non-2xx response is a single failure.
package pdns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"subdel/internal/model"
)

const requestTimeout = 10 * time.Second

type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	serverID string
}

func NewClient(baseURL, apiKey, serverID string) *Client {
	return &Client{
		http:     &http.Client{Timeout: requestTimeout},
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		serverID: serverID,
	}
}

// zoneCreate is the payload PowerDNS accepts when creating a zone.
type zoneCreate struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Nameservers []string `json:"nameservers"`
}

type zonePatch struct {
	RRsets []model.RRset `json:"rrsets"`
}

func (c *Client) url(parts ...string) string {
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		segs = append(segs, url.PathEscape(p))
	}
	return fmt.Sprintf("%s/api/v1/servers/%s/%s", c.baseURL, url.PathEscape(c.serverID), strings.Join(segs, "/"))
}

func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("pdns: marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("pdns: build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pdns: %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("pdns: %s %s returned %d: %s", method, rawURL, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("pdns: decode response: %w", err)
		}
	}
	return nil
}

// CreateZone creates a Native zone with the given apex nameservers.
func (c *Client) CreateZone(ctx context.Context, name string, nameservers []string) error {
	payload := zoneCreate{Name: name, Kind: "Native", Nameservers: nameservers}
	return c.do(ctx, http.MethodPost, c.url("zones"), payload, nil)
}

// GetZone fetches a zone including its RRsets.
func (c *Client) GetZone(ctx context.Context, name string) (model.Zone, error) {
	var zone model.Zone
	if err := c.do(ctx, http.MethodGet, c.url("zones", name), nil, &zone); err != nil {
		return model.Zone{}, err
	}
	return zone, nil
}

// PatchRRsets applies a list of REPLACE/DELETE changes to a zone.
func (c *Client) PatchRRsets(ctx context.Context, zone string, rrsets []model.RRset) error {
	return c.do(ctx, http.MethodPatch, c.url("zones", zone), zonePatch{RRsets: rrsets}, nil)
}

// DeleteZone removes a zone and all of its data.
func (c *Client) DeleteZone(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, c.url("zones", name), nil, nil)
}
