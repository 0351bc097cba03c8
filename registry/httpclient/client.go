// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httpclient talks to the sample storage and sample import services
// over HTTP/JSON.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/importagent/core"
	"github.com/poiesic/importagent/registry"
)

const (
	dataVersionResource  = "infect-rda-sample-storage.data-version"
	importResourcePrefix = "infect-rda-sample-import."

	// DefaultResource is the import resource used for the resistance export.
	DefaultResource = "anresis-import"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 5 * time.Minute
)

var (
	// ErrStorageURLRequired is returned when no storage service URL is configured.
	ErrStorageURLRequired = errors.New("storage service url required")

	// ErrImportURLRequired is returned when no import service URL is configured.
	ErrImportURLRequired = errors.New("import service url required")
)

// Config configures a Client.
type Config struct {
	// StorageURL is the base URL of the sample storage service.
	StorageURL string
	// ImportURL is the base URL of the sample import service.
	ImportURL string
	// Resource is the import resource name, DefaultResource if empty.
	Resource string
	// Timeout applies per request, DefaultTimeout if zero.
	Timeout time.Duration
	// HTTPClient overrides the underlying client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client implements registry.VersionRegistry and registry.RecordSink.
type Client struct {
	storageURL *url.URL
	importURL  *url.URL
	resource   string
	http       *http.Client
}

var (
	_ registry.VersionRegistry = (*Client)(nil)
	_ registry.RecordSink      = (*Client)(nil)
)

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.StorageURL) == "" {
		return nil, ErrStorageURLRequired
	}
	if strings.TrimSpace(cfg.ImportURL) == "" {
		return nil, ErrImportURLRequired
	}

	storageURL, err := parseBaseURL(cfg.StorageURL)
	if err != nil {
		return nil, fmt.Errorf("storage url: %w", err)
	}
	importURL, err := parseBaseURL(cfg.ImportURL)
	if err != nil {
		return nil, fmt.Errorf("import url: %w", err)
	}

	resource := cfg.Resource
	if resource == "" {
		resource = DefaultResource
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		storageURL: storageURL,
		importURL:  importURL,
		resource:   resource,
		http:       httpClient,
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(raw), "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	return u, nil
}

// LookupVersion asks the storage service for a version with the given
// fingerprint. 200 means found, 404 means not found.
func (c *Client) LookupVersion(ctx context.Context, fingerprint core.Fingerprint, dataSet string) (bool, error) {
	u := c.storageURL.JoinPath(dataVersionResource, fingerprint.String())
	u.RawQuery = url.Values{"dataSet": []string{dataSet}}.Encode()

	resp, body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, newHTTPError("lookupVersion", resp, body)
	}
}

// CreateVersion creates a pending version on the import service.
func (c *Client) CreateVersion(ctx context.Context, req registry.CreateVersionRequest) (string, error) {
	u := c.importURL.JoinPath(importResourcePrefix + c.resource)
	payload := createVersionRequest{
		DataSet:       req.DataSetName,
		DataSetFields: req.Fields,
		SourceHash:    req.Fingerprint.String(),
	}

	resp, body, err := c.do(ctx, http.MethodPost, u, payload)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated {
		return "", newHTTPError("createVersion", resp, body)
	}

	var out createVersionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parse create version response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("create version response has no id")
	}
	return string(out.ID), nil
}

// UploadPage sends one page of records for a pending version.
func (c *Client) UploadPage(ctx context.Context, versionID string, page []core.NormalizedRecord) (core.PageResult, error) {
	u := c.importURL.JoinPath(importResourcePrefix+c.resource, versionID)

	resp, body, err := c.do(ctx, http.MethodPatch, u, toWireRecords(page))
	if err != nil {
		return core.PageResult{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return core.PageResult{}, newHTTPError("uploadPage", resp, body)
	}

	var out pageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return core.PageResult{}, fmt.Errorf("parse upload page response: %w", err)
	}
	return out.toPageResult(), nil
}

// SetVersionStatus changes the status of a version on the storage service.
func (c *Client) SetVersionStatus(ctx context.Context, versionID string, status core.VersionStatus) error {
	u := c.storageURL.JoinPath(dataVersionResource, versionID)

	resp, body, err := c.do(ctx, http.MethodPatch, u, statusRequest{Status: string(status)})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return newHTTPError("setVersionStatus", resp, body)
	}
	return nil
}

// do sends a request with an optional JSON body and returns the response
// together with its fully read body.
func (c *Client) do(ctx context.Context, method string, u *url.URL, payload any) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s %s: %w", method, u.Path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s %s response: %w", method, u.Path, err)
	}
	return resp, body, nil
}
