package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"studiorouter/internal/api"
	"studiorouter/internal/config"
)

// daemonClient calls the studiod HTTP API.
type daemonClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newDaemonClient(cfg *config.Config) (*daemonClient, error) {
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, errors.New("api.bind is empty; studiod is not serving HTTP")
	}
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return nil, fmt.Errorf("parse api.bind %q: %w", bind, err)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return &daemonClient{
		baseURL: "http://" + net.JoinHostPort(host, port),
		token:   cfg.API.Token,
		http:    &http.Client{Timeout: 5 * time.Second},
	}, nil
}

func (c *daemonClient) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var status api.DaemonStatus
	if err := c.get(ctx, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *daemonClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect to studiod at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var apiErr api.ErrorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("studiod: %s (%d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("studiod: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
