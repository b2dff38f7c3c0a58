// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_Success(t *testing.T) {
	var gotUA, gotAccept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		fmt.Fprint(w, "hello")
	}))
	defer ts.Close()

	body, err := Get(context.Background(), ts.Client(), Request{
		URL:       ts.URL,
		UserAgent: "pubmed-harvest-test/0.1",
		Accept:    "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "pubmed-harvest-test/0.1", gotUA)
	assert.Equal(t, "application/pdf", gotAccept)
}

func TestGet_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "  backend overloaded \n")
	}))
	defer ts.Close()

	_, err := Get(context.Background(), ts.Client(), Request{URL: ts.URL + "/x?api_key=secret"})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "backend overloaded", se.Body)
	assert.NotContains(t, se.URL, "secret")
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestGet_BodyLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 100))
	}))
	defer ts.Close()

	_, err := Get(context.Background(), ts.Client(), Request{URL: ts.URL, MaxBody: 10})
	assert.ErrorContains(t, err, "exceeds 10 bytes")

	body, err := Get(context.Background(), ts.Client(), Request{URL: ts.URL, MaxBody: 100})
	require.NoError(t, err)
	assert.Len(t, body, 100)
}

func TestGet_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Get(ctx, ts.Client(), Request{URL: ts.URL})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no query", "https://example.org/a", "https://example.org/a"},
		{"nothing sensitive", "https://example.org/a?db=pubmed", "https://example.org/a?db=pubmed"},
		{"api key", "https://example.org/a?api_key=abc&db=pubmed", "https://example.org/a?api_key=REDACTED&db=pubmed"},
		{"email", "https://example.org/a?email=x%40y.org", "https://example.org/a?email=REDACTED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactURL(tt.in))
		})
	}
}
