package util

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryingClientRetries(t *testing.T) {
	assert := assert.New(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewRetryingClient(RetryOptions{RetryWaitMin: time.Millisecond, RetryWaitMax: 5 * time.Millisecond})
	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal(int32(3), calls.Load())
}

func TestRetryingClientGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewRetryingClient(RetryOptions{RetryMax: 1, RetryWaitMin: time.Millisecond, RetryWaitMax: time.Millisecond})
	_, err := c.Get(srv.URL)
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRobustHTTPClientDefaults(t *testing.T) {
	c := RobustHTTPClient()
	assert.Equal(t, 20*time.Second, c.Timeout)
}
