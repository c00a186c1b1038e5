/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend implements the optional classroom sync: an HTTP client used
// by the desktop app to push learner progress, and a thin Postgres-backed
// server teachers can run for their class.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal HTTP client for the classroom sync API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a sync client. baseURL may include a trailing slash; it
// will be normalized. A zero timeout means 10 seconds.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rdr *bytes.Reader
	if body != nil {
		b, merr := json.Marshal(body)
		if merr != nil {
			return merr
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// ProgressUpload is what the desktop app pushes after a run.
type ProgressUpload struct {
	Student   string `json:"student"`
	LevelID   string `json:"level_id"`
	Completed bool   `json:"completed"`
	BestSteps int    `json:"best_steps,omitempty"`
	Script    string `json:"script,omitempty"`
	Outcome   string `json:"outcome"`
	Steps     int    `json:"steps"`
}

// ProgressRecord is a per-student per-level row as the server stores it.
type ProgressRecord struct {
	ID        int64     `json:"id"`
	Student   string    `json:"student"`
	LevelID   string    `json:"level_id"`
	Completed bool      `json:"completed"`
	BestSteps int       `json:"best_steps"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeaderboardEntry ranks winning runs of one level by fewest steps.
type LeaderboardEntry struct {
	Student   string `json:"student"`
	BestSteps int    `json:"best_steps"`
}

// PushProgress uploads one run's result; the server upserts the progress row
// and appends an attempt record.
func (c *Client) PushProgress(ctx context.Context, up ProgressUpload) error {
	return c.doJSON(ctx, http.MethodPost, "/api/progress", up, nil)
}

// ListProgress returns all progress rows visible to the caller.
func (c *Client) ListProgress(ctx context.Context) ([]ProgressRecord, error) {
	var list []ProgressRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/progress", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Leaderboard returns the best winning runs for one level, fewest steps first.
func (c *Client) Leaderboard(ctx context.Context, levelID string) ([]LeaderboardEntry, error) {
	var list []LeaderboardEntry
	path := "/api/levels/" + url.PathEscape(levelID) + "/leaderboard"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}
