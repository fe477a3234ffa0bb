package httputil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/matzehuels/stackscan/pkg/observability"
)

// DefaultConnectTimeout bounds dialing and the TLS handshake of a request.
const DefaultConnectTimeout = time.Second

// ErrTimeout is wrapped by errors returned from [Get] when the request
// timed out, either while connecting or because ctx expired.
var ErrTimeout = errors.New("request timed out")

// NewClient returns an HTTP client whose connection phase is bounded by
// connectTimeout. Reading the response is bounded only by the request
// context. A zero timeout means [DefaultConnectTimeout].
func NewClient(connectTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: 4 * connectTimeout,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
	}
	return &http.Client{Transport: transport}
}

// Get issues a single GET request and returns the live response. The
// caller must close the body. Timeouts are reported as errors wrapping
// [ErrTimeout]; other transport failures are returned as-is. Any HTTP
// status is a successful call.
func Get(ctx context.Context, client *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return Do(client, req)
}

// Do sends req with the package User-Agent (unless req sets one) and
// reports the call to the HTTP hooks. Errors follow [Get].
func Do(client *http.Client, req *http.Request) (*http.Response, error) {
	if client == nil {
		client = NewClient(0)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", UserAgent)
	}

	ctx := req.Context()
	method, host, path := req.Method, req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			err = fmt.Errorf("%w: %s %s: %v", ErrTimeout, method, req.URL, err)
		}
		observability.HTTP().OnError(ctx, method, host, path, err)
		return nil, err
	}
	observability.HTTP().OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))
	return resp, nil
}

// UserAgent is sent with every request made through this package.
var UserAgent = "stackscan"

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}
