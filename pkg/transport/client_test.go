package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/variantlab/variantkit/pkg/transport"
)

func newTestClient(t *testing.T, handler http.Handler) *transport.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := transport.New(server.URL, "test-key", "app-1",
		transport.WithRetry(5, 0)) // no delay between attempts in tests
	require.NoError(t, err)
	return client
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ base, key, app string }{
		{"", "k", "a"},
		{"http://x", "", "a"},
		{"http://x", "k", ""},
	} {
		_, err := transport.New(tc.base, tc.key, tc.app)
		require.Error(t, err)
		assert.ErrorIs(t, err, transport.ErrInvalidConfiguration)
	}
}

func TestFetchAppData(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/app-1/app-data", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

			_ = json.NewEncoder(w).Encode(map[string]any{
				"appConfig": map[string]any{"theme": "dark"},
				"campaigns": []any{},
				"content":   map[string]any{"hero": "v2"},
			})
		}))

		data, err := client.FetchAppData(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "dark", data.AppConfig["theme"])
		assert.Equal(t, "v2", data.Content["hero"])
	})

	t.Run("FallbackPathFromThirdAttempt", func(t *testing.T) {
		t.Parallel()
		var mu sync.Mutex
		var paths []string
		var calls atomic.Int32

		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			paths = append(paths, r.URL.Path)
			mu.Unlock()
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(`{"appConfig":{}}`))
		}))

		_, err := client.FetchAppData(context.Background())
		require.NoError(t, err)

		require.Len(t, paths, 3)
		assert.Equal(t, "/app-1/app-data", paths[0])
		assert.Equal(t, "/app-1/app-data", paths[1])
		assert.Equal(t, "/app-1/app-data/fallback", paths[2])
	})

	t.Run("ExhaustionIsTerminal", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))

		_, err := client.FetchAppData(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, transport.ErrLoadExhausted)
		assert.Equal(t, int32(5), calls.Load())
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(server.Close)

		client, err := transport.New(server.URL, "k", "app-1",
			transport.WithRetry(5, time.Hour))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = client.FetchAppData(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestDelegateVariant(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/app-1/get-round-robin-variant", r.URL.Path)

		var req transport.DelegateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pricing", req.CampaignID)
		assert.Equal(t, "s-1", req.SessionID)

		_, _ = w.Write([]byte(`{"contentId":"42"}`))
	}))

	contentID, err := client.DelegateVariant(context.Background(), transport.DelegateRequest{
		CampaignID: "pricing",
		SessionID:  "s-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", contentID)
}

func TestFetchUserVariants(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/app-1/user-variants", r.URL.Path)

		var req transport.UserVariantsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "app-1", req.AppID, "app id is stamped by the client")

		_ = json.NewEncoder(w).Encode(transport.UserVariantsResponse{
			Variants:  map[string]string{"pricing": "10"},
			UserID:    req.UserID,
			SessionID: req.SessionID,
		})
	}))

	resp, err := client.FetchUserVariants(context.Background(), transport.UserVariantsRequest{
		UserID:      "u-42",
		SessionID:   "s-1",
		CampaignIDs: []string{"pricing"},
	})
	require.NoError(t, err)
	assert.Equal(t, "10", resp.Variants["pricing"])
}

func TestLogEventBatch(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/app-1/log-event/batch", r.URL.Path)

		var batch []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		assert.Len(t, batch, 2)

		w.WriteHeader(http.StatusOK)
	}))

	err := client.LogEventBatch(context.Background(), []map[string]any{
		{"type": "IMPRESSION"},
		{"type": "CONVERSION"},
	})
	require.NoError(t, err)
}

func TestLogEvent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/app-1/pricing/log-event", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	err := client.LogEvent(context.Background(), "pricing", map[string]any{"type": "IMPRESSION"})
	require.NoError(t, err)
}

func TestSubmitForm(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/app-1/submit-form", r.URL.Path)

		var form transport.FormSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&form))
		assert.Equal(t, "s-1", form.SessionID)

		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	ok, err := client.SubmitForm(context.Background(), transport.FormSubmission{
		Fields:    map[string]any{"email": "a@b.c"},
		SessionID: "s-1",
	})
	require.NoError(t, err)
	assert.True(t, ok)
}
