package comments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ledgerline/lockbox-lens/internal/common"
	"github.com/ledgerline/lockbox-lens/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCommentServer is a minimal in-memory comment service.
type fakeCommentServer struct {
	mu       sync.Mutex
	comments map[string]commentPayload
	failures int // consume this many requests with 500s first
}

func newFakeCommentServer() *fakeCommentServer {
	return &fakeCommentServer{comments: make(map[string]commentPayload)}
}

func (f *fakeCommentServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/comments", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failures > 0 {
			f.failures--
			http.Error(w, "temporarily unavailable", http.StatusInternalServerError)
			return
		}
		switch r.Method {
		case http.MethodGet:
			key := r.URL.Query().Get("key")
			var list commentList
			for _, c := range f.comments {
				if c.Key == key {
					list.Comments = append(list.Comments, c)
				}
			}
			_ = json.NewEncoder(w).Encode(list)
		case http.MethodPost:
			var c commentPayload
			if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			c.CreatedAt = time.Now().UTC()
			c.UpdatedAt = c.CreatedAt
			f.comments[c.ID] = c
			_ = json.NewEncoder(w).Encode(c)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/comments/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.URL.Path[len("/comments/"):]
		switch r.Method {
		case http.MethodPut:
			existing, ok := f.comments[id]
			if !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			var update commentPayload
			if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			existing.Text = update.Text
			existing.UpdatedAt = time.Now().UTC()
			f.comments[id] = existing
			_ = json.NewEncoder(w).Encode(existing)
		case http.MethodDelete:
			if _, ok := f.comments[id]; !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			delete(f.comments, id)
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	return mux
}

func newTestClient(t *testing.T, server *fakeCommentServer) *Client {
	t.Helper()
	ts := httptest.NewServer(server.handler())
	t.Cleanup(ts.Close)

	client, err := NewClient(ts.URL)
	require.NoError(t, err)
	// Keep retries fast in tests
	client.retryOpts.InitialDelay = time.Millisecond
	client.retryOpts.MaxDelay = 5 * time.Millisecond
	return client
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("not-a-url")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestAddAndList(t *testing.T) {
	client := newTestClient(t, newFakeCommentServer())
	ctx := context.Background()

	added, err := client.Add(ctx, "lockbox-review", model.Comment{
		Text:   "Check ACME remittance against open invoice list",
		Author: "sam",
		Tab:    "payments",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "lockbox-review", added.Key)

	listed, err := client.List(ctx, "lockbox-review")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, added.ID, listed[0].ID)
	assert.Equal(t, "sam", listed[0].Author)

	// Other keys see nothing
	other, err := client.List(ctx, "other-prototype")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestUpdateLastWriteWins(t *testing.T) {
	client := newTestClient(t, newFakeCommentServer())
	ctx := context.Background()

	added, err := client.Add(ctx, "lockbox-review", model.Comment{Text: "first"})
	require.NoError(t, err)

	_, err = client.Update(ctx, added.ID, "second")
	require.NoError(t, err)
	updated, err := client.Update(ctx, added.ID, "third")
	require.NoError(t, err)
	assert.Equal(t, "third", updated.Text)

	listed, err := client.List(ctx, "lockbox-review")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "third", listed[0].Text)
}

func TestUpdateUnknownID(t *testing.T) {
	client := newTestClient(t, newFakeCommentServer())

	_, err := client.Update(context.Background(), "no-such-id", "text")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	client := newTestClient(t, newFakeCommentServer())
	ctx := context.Background()

	added, err := client.Add(ctx, "lockbox-review", model.Comment{Text: "to remove"})
	require.NoError(t, err)

	require.NoError(t, client.Delete(ctx, added.ID))

	listed, err := client.List(ctx, "lockbox-review")
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Deleting again hits the server's 404 path and is not an error
	assert.NoError(t, client.Delete(ctx, added.ID))
	assert.NoError(t, client.Delete(ctx, "never-existed"))
}

func TestRetriesTransientFailures(t *testing.T) {
	server := newFakeCommentServer()
	server.failures = 2 // first two requests 500, third succeeds
	client := newTestClient(t, server)

	listed, err := client.List(context.Background(), "lockbox-review")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestRetriesExhausted(t *testing.T) {
	server := newFakeCommentServer()
	server.failures = 10
	client := newTestClient(t, server)

	_, err := client.List(context.Background(), "lockbox-review")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMaxRetries)
}
