package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jcadam/veil/pkg/config"
)

// apiClient talks to the local daemon. The commands are thin: all policy
// lives daemon-side, so a mode set here is in force for every later
// request regardless of which client made it.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient() (*apiClient, error) {
	veilDir, err := config.VeilDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(veilDir)
	if err != nil {
		return nil, err
	}
	return &apiClient{
		base: "http://" + cfg.Listen,
		http: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *apiClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon not reachable at %s (is `veil serve` running?): %w", c.base, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error   string `json:"error"`
			Backend string `json:"backend,omitempty"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Backend != "" {
				return fmt.Errorf("%s (%s)", apiErr.Error, apiErr.Backend)
			}
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	return json.Unmarshal(data, out)
}
