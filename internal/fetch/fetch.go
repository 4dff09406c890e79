// 包 fetch 封装 HTTP 客户端（代理/超时/重试），用于核对已发布的订阅。
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"
)

// DefaultUserAgent 可通过环境变量 PIPELINE_UA 覆盖。
const DefaultUserAgent = "go-content-pipeline/1.0 (+feed check)"

// Client 为带重试的 HTTP 客户端。
type Client struct {
	http  *http.Client
	retry int
	ua    string
}

// Options 为客户端构造参数。
type Options struct {
	Proxy     string
	Timeout   time.Duration
	Retry     int
	UserAgent string
}

// New 创建客户端；Proxy 为空时遵循环境变量代理设置。
func New(opts Options) (*Client, error) {
	proxy := http.ProxyFromEnvironment
	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy %s: %w", opts.Proxy, err)
		}
		proxy = http.ProxyURL(u)
	}
	transport := &http.Transport{
		Proxy:                 proxy,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = os.Getenv("PIPELINE_UA")
	}
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &Client{
		http:  &http.Client{Transport: transport, Timeout: opts.Timeout},
		retry: max(opts.Retry, 0),
		ua:    ua,
	}, nil
}

// Get 发起 GET 请求，非 2xx 或网络错误时线性回退重试。
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	for i := 0; i <= c.retry; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("User-Agent", c.ua)
		resp, err := c.http.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		if err == nil {
			lastErr = fmt.Errorf("http status: %s", resp.Status)
			resp.Body.Close()
		} else {
			lastErr = err
		}
		if i == c.retry {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 300 * time.Millisecond):
		}
	}
	return nil, lastErr
}
