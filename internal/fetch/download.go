package fetch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

var (
	defaultRetryableClient     *retryablehttp.Client
	defaultRetryableClientInit sync.Once
)

func getDefaultRetryableClient() *retryablehttp.Client {
	defaultRetryableClientInit.Do(func() {
		defaultRetryableClient = retryablehttp.NewClient()
		defaultRetryableClient.Logger = nil
		defaultRetryableClient.HTTPClient.Timeout = 3 * time.Minute
	})
	return defaultRetryableClient
}

// Download fetches url and verifies the hex encoded SHA-256 checksum of the
// body if one is given.
func Download(ctx context.Context, url, checksum string) ([]byte, error) {
	return download(ctx, getDefaultRetryableClient(), url, checksum)
}

func download(ctx context.Context, client *retryablehttp.Client, url, checksum string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	checksumHash := sha256.New()
	n, err := io.Copy(io.MultiWriter(&buf, checksumHash), resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return nil, fmt.Errorf("unexpected content length: %d (should be %d)", n, resp.ContentLength)
	}
	if checksum != "" && hex.EncodeToString(checksumHash.Sum(nil)) != strings.ToLower(checksum) {
		return nil, fmt.Errorf("checksum verification failed")
	}
	return buf.Bytes(), nil
}
