package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second)
}

func TestClassify_Verdicts(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/classify", r.URL.Path)

		var req ClassifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		harmful := req.Text == "You are so fake and annoying"
		fmt.Fprintf(w, `{"isHarmful":%t}`, harmful)
	}))

	harmful, err := client.Classify(context.Background(), "I love this!")
	require.NoError(t, err)
	require.False(t, harmful)

	harmful, err = client.Classify(context.Background(), "You are so fake and annoying")
	require.NoError(t, err)
	require.True(t, harmful)
}

func TestClassify_ServerErrorIsAnError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.Classify(context.Background(), "anything")
	require.Error(t, err, "a failed classification must never pass for a safe verdict")
}

func TestClassify_RetriesOnceOnTransientFailure(t *testing.T) {
	attempts := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"isHarmful":true}`)
	}))

	harmful, err := client.Classify(context.Background(), "text")
	require.NoError(t, err)
	require.True(t, harmful)
	require.Equal(t, 2, attempts)
}

func TestClassify_MalformedResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))

	_, err := client.Classify(context.Background(), "anything")
	require.Error(t, err)
}

func TestClassify_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := NewClient(srv.URL, time.Second)

	_, err := client.Classify(context.Background(), "anything")
	require.Error(t, err)
}
