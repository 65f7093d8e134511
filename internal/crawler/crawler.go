
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultUserAgent = "thronebutt-scraper/1.0 (+https://example.com)"

var errNonHTML = errors.New("non-html content")

// ErrBodyTooLarge is wrapped in a TransportError when a page body is longer
// than the client's size cap. Truncated pages are never handed to the parser.
var ErrBodyTooLarge = errors.New("response body exceeds size cap")

// TransportError is returned for anything that kept a page body from being
// retrieved: bad address, connection failure, non-success status.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type Response struct {
	Body        []byte
	FinalURL    string
	ContentType string
	Elapsed     time.Duration
}

type HTTPClient struct {
	client  *resty.Client
	sizeCap int64
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	client := resty.New().
		SetTransport(transport).
		SetTimeout(timeout).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("User-Agent", DefaultUserAgent)
	return &HTTPClient{client: client, sizeCap: sizeCap}
}

func (h *HTTPClient) SetUserAgent(ua string) *HTTPClient {
	if ua != "" {
		h.client.SetHeader("User-Agent", ua)
	}
	return h
}

func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Response{}, &TransportError{URL: rawURL, Err: errors.New("invalid url")}
	}

	resp, err := h.client.R().SetContext(ctx).Get(u.String())
	if err != nil {
		return Response{}, &TransportError{URL: rawURL, Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return Response{}, &TransportError{
			URL:        rawURL,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("http status %d", resp.StatusCode()),
		}
	}

	contentType := resp.Header().Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") && mediaType != "" {
		// still allow if empty (some servers omit), otherwise reject non-html
		return Response{}, &TransportError{URL: rawURL, Err: errNonHTML}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(body, h.sizeCap+1)); err != nil {
		return Response{}, &TransportError{URL: rawURL, Err: err}
	}
	if int64(buf.Len()) > h.sizeCap {
		return Response{}, &TransportError{URL: rawURL, Err: fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, h.sizeCap)}
	}

	finalURL := rawURL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}
	return Response{
		Body:        buf.Bytes(),
		FinalURL:    finalURL,
		ContentType: contentType,
		Elapsed:     resp.Time(),
	}, nil
}
