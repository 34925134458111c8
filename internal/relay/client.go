package relay

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Client talks to the relay that receives the encoder feed and fans it out.
// One push request per provider ingest URL; the relay matches them to the
// feed by stream key.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Push registers every provider ingest URL for the stream key. All URLs are
// attempted; failures are aggregated into a single error.
func (c *Client) Push(ctx context.Context, streamKey string, streamURLs []string) error {
	var result *multierror.Error
	for _, streamURL := range streamURLs {
		if err := c.push(ctx, streamKey, streamURL); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (c *Client) push(ctx context.Context, streamKey, streamURL string) error {
	form := url.Values{}
	form.Set("app", "live")
	form.Set("name", streamKey)
	form.Set("url", streamURL)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/relay/push", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("relay push to %s failed: %w", streamURL, err)
	}
	defer response.Body.Close()
	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("relay push to %s failed: status %d", streamURL, response.StatusCode)
	}
	return nil
}
