package upstream

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 10 * time.Second

// NewRESTClient builds the shared HTTP client for upstream JSON APIs. Retries are left to
// the poller schedule.
func NewRESTClient(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", "airboard/1.0")
	return client
}
