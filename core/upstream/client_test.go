package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mderrors "github.com/mealdex/mealdex/core/errors"
)

type payload struct {
	Message string `json:"message"`
}

func TestGetJSON_DecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "banana", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer server.Close()

	client := NewClient("test", server.Client(), 0)
	params := url.Values{}
	params.Set("q", "banana")

	var out payload
	err := client.GetJSON(context.Background(), "search", server.URL, params, &out)

	require.NoError(t, err)
	assert.Equal(t, "ok", out.Message)
}

func TestGetJSON_NonRetryableStatusFailsImmediately(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("test", server.Client(), 0)

	var out payload
	err := client.GetJSON(context.Background(), "search", server.URL, nil, &out)

	var ue *mderrors.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusNotFound, ue.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetJSON_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"message":"recovered"}`))
	}))
	defer server.Close()

	client := NewClient("test", server.Client(), time.Second)

	var out payload
	err := client.GetJSON(context.Background(), "search", server.URL, nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "recovered", out.Message)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetJSON_MalformedBodyIsUpstreamErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"message": truncated`))
	}))
	defer server.Close()

	client := NewClient("test", server.Client(), 0)

	var out payload
	err := client.GetJSON(context.Background(), "search", server.URL, nil, &out)

	assert.ErrorIs(t, err, mderrors.ErrUpstream)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetJSON_CancellationBecomesAbortedError(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient("test", server.Client(), 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	var out payload
	err := client.GetJSON(ctx, "search", server.URL, nil, &out)

	assert.True(t, mderrors.IsAborted(err))
}

func TestGetJSON_DeadlineBoundsTheCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := NewClient("test", server.Client(), 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out payload
	start := time.Now()
	err := client.GetJSON(ctx, "search", server.URL, nil, &out)

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
