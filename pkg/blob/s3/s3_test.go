package s3_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sonsunin65/portfolio-lugsana/pkg/blob/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu       sync.Mutex
	puts     map[string][]byte
	deletes  []string
	denyKeys bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.puts[r.URL.Path] = body
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost && r.URL.Query().Has("delete"):
		body, _ := io.ReadAll(r.Body)
		f.deletes = append(f.deletes, string(body))
		w.Header().Set("Content-Type", "application/xml")
		if f.denyKeys {
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Error><Key>a.webp</Key><Code>AccessDenied</Code><Message>denied</Message></Error></DeleteResult>`)
			return
		}
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></DeleteResult>`)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newStore(t *testing.T) (*s3.S3Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{puts: make(map[string][]byte)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := s3.NewS3Store(context.Background(), s3.Config{
		Endpoint:   srv.URL,
		Region:     "us-east-1",
		AccessKey:  "key",
		SecretKey:  "secret",
		PublicBase: "https://abc.supabase.co/",
	}, zerolog.Nop())
	require.NoError(t, err)
	return store, fake
}

func TestS3Store_Upload(t *testing.T) {
	store, fake := newStore(t)

	url, err := store.Upload(context.Background(), "pa-images", "uploads/1.webp", []byte("data"), "image/webp")
	require.NoError(t, err)
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/pa-images/uploads/1.webp", url)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.puts, "/pa-images/uploads/1.webp")
}

func TestS3Store_Remove(t *testing.T) {
	store, fake := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Remove(ctx, "pa-images", nil))
	require.NoError(t, store.Remove(ctx, "pa-images", []string{"a.webp", "b.webp"}))

	fake.mu.Lock()
	require.Len(t, fake.deletes, 1)
	assert.Contains(t, fake.deletes[0], "<Key>a.webp</Key>")
	assert.Contains(t, fake.deletes[0], "<Key>b.webp</Key>")
	fake.denyKeys = true
	fake.mu.Unlock()

	err := store.Remove(ctx, "pa-images", []string{"a.webp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestNewS3Store_RequiresCredentials(t *testing.T) {
	_, err := s3.NewS3Store(context.Background(), s3.Config{PublicBase: "https://x"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = s3.NewS3Store(context.Background(), s3.Config{AccessKey: "a", SecretKey: "b"}, zerolog.Nop())
	assert.Error(t, err)
}
