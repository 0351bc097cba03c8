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

package httpclient

import (
	"fmt"
	"net/http"
	"strings"
)

// snippetLimit caps how much of an error body is kept.
const snippetLimit = 256

// HTTPError summarizes an unexpected response from the storage or import service.
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string
	// Snippet is a truncated, single-line copy of the response body.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "registry http error"
	}
	msg := fmt.Sprintf("registry api error: op=%s status=%s", e.Op, strings.TrimSpace(e.Status))
	if e.Snippet != "" {
		msg += " body=" + e.Snippet
	}
	return msg
}

func newHTTPError(op string, resp *http.Response, body []byte) error {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}
	h.Snippet = truncate(body)
	return h
}

func truncate(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	b := body
	if len(b) > snippetLimit {
		b = b[:snippetLimit]
	}
	s := strings.ReplaceAll(string(b), "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > snippetLimit {
		return s + "..."
	}
	return s
}
