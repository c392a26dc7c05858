package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/liquid-labs/plugable-express-sub000/pkg/cache"
	perrors "github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations"
)

// DefaultRawURL serves raw file contents of public GitHub repositories.
const DefaultRawURL = "https://raw.githubusercontent.com"

// DefaultMaxBytes bounds the body read by [RawClient.Fetch].
const DefaultMaxBytes = 64 << 10

// RawClient fetches single files from GitHub repositories at a given ref.
// It handles HTTP requests with automatic retries and optional authentication.
type RawClient struct {
	*integrations.Client
	baseURL  string
	maxBytes int64
}

// NewRawClient creates a raw file client for baseURL (empty selects
// [DefaultRawURL]). Pass an empty token for unauthenticated requests.
func NewRawClient(baseURL, token string) *RawClient {
	if baseURL == "" {
		baseURL = DefaultRawURL
	}
	var headers map[string]string
	if token != "" {
		headers = map[string]string{"Authorization": "Bearer " + token}
	}
	return &RawClient{
		Client:   integrations.NewClient(nil, "github:", 0, headers),
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		maxBytes: DefaultMaxBytes,
	}
}

// SetMaxBytes changes the number of body bytes Fetch reads. Callers that
// enforce their own size cap set it to cap+1 so oversized files are detected.
func (c *RawClient) SetMaxBytes(n int64) {
	if n > 0 {
		c.maxBytes = n
	}
}

// Fetch returns the contents of path in owner/repo at ref.
//
// Returns:
//   - [integrations.ErrNotFound] if the repository, ref or file doesn't exist
//   - [integrations.ErrNetwork] for any other non-2xx response or transport failure
func (c *RawClient) Fetch(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
	if err := ValidateRepoRef(owner, repo); err != nil {
		return nil, err
	}
	if err := perrors.ValidatePath(path); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/%s/%s/%s/%s", c.baseURL, owner, repo, url.PathEscape(ref), path)

	var data []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = c.GetBytes(ctx, u, c.maxBytes)
		return err
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s@%s:%s", err, owner, repo, ref, path)
		}
		return nil, err
	}
	return data, nil
}
