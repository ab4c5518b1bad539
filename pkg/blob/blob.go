// Package blob defines the object storage client used for uploaded images and documents.
//
// Uploaded files are addressed by bucket and path and published under a public URL of the
// form
//
//	<base>/storage/v1/object/public/<bucket>/<path>
//
// Records store only that URL. To delete a file later the URL is parsed back into its
// bucket and path with [ParsePublicURL].
package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// PublicPathPrefix separates the storage base URL from "<bucket>/<path>".
const PublicPathPrefix = "/storage/v1/object/public/"

// ErrMalformedURL is returned by ParsePublicURL when the URL does not point into
// public object storage.
var ErrMalformedURL = errors.New("malformed storage URL")

// Store is an object storage client.
type Store interface {
	// Upload writes data to bucket/path, replacing any existing object, and returns
	// its public URL.
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)

	// PublicURL returns the public URL of bucket/path without contacting the store.
	PublicURL(bucket, path string) string

	// Remove deletes the given paths from bucket. Removing a missing object is not an
	// error.
	Remove(ctx context.Context, bucket string, paths []string) error
}

// BuildPublicURL joins base, bucket and path into a public URL.
func BuildPublicURL(base, bucket, path string) string {
	return strings.TrimSuffix(base, "/") + PublicPathPrefix + bucket + "/" + strings.TrimPrefix(path, "/")
}

// ParsePublicURL extracts the bucket and object path from a public URL.
func ParsePublicURL(raw string) (bucket, path string, err error) {
	if raw == "" {
		return "", "", fmt.Errorf("%w: empty URL", ErrMalformedURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	_, rest, ok := strings.Cut(u.Path, PublicPathPrefix)
	if !ok {
		return "", "", fmt.Errorf("%w: %q has no %s segment", ErrMalformedURL, raw, PublicPathPrefix)
	}
	bucket, path, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || path == "" {
		return "", "", fmt.Errorf("%w: %q has no bucket and path", ErrMalformedURL, raw)
	}
	return bucket, path, nil
}
