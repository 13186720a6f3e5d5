// Package httpclient is the outbound HTTP client used for external lookups.
// It sets a User-Agent on every request, bounds each request with a timeout,
// and refuses to reach loopback, private and other special-use addresses
// unless explicitly allowed.
package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/teranos/cersei/errors"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxRedirects = 5
	maxErrorBody        = 512
)

// Options configure a Client.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxRedirects int
	// AllowPrivate disables the address guard. Only for tests against httptest servers.
	AllowPrivate bool
}

// Client wraps http.Client with a URL and dial-time address guard.
type Client struct {
	http         *http.Client
	userAgent    string
	allowPrivate bool
	maxRedirects int
}

// New creates a client. Zero options get defaults.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = defaultMaxRedirects
	}
	c := &Client{
		userAgent:    opts.UserAgent,
		allowPrivate: opts.AllowPrivate,
		maxRedirects: opts.MaxRedirects,
	}

	dialer := &net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   opts.Timeout,
		ExpectContinueTimeout: time.Second,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if !c.allowPrivate {
				if err := checkResolved(ctx, addr); err != nil {
					return nil, err
				}
			}
			return dialer.DialContext(ctx, network, addr)
		},
	}

	c.http = &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= c.maxRedirects {
				return errors.Newf("stopped after %d redirects", c.maxRedirects)
			}
			return errors.Wrap(c.checkURL(req.URL), "redirect blocked")
		},
	}
	return c
}

// Do sends req after checking its URL and setting the User-Agent.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.checkURL(req.URL); err != nil {
		return nil, errors.Wrap(err, "request blocked")
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.http.Do(req)
}

// GetJSON issues a GET and decodes a 2xx JSON body into dest.
func (c *Client) GetJSON(ctx context.Context, rawURL string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "invalid request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.Newf("GET %s: status %d: %s", req.URL.Host, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrapf(err, "failed to decode response from %s", req.URL.Host)
	}
	return nil
}

// CheckURL validates rawURL against the scheme and address rules.
func (c *Client) CheckURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}
	return u, c.checkURL(u)
}

func (c *Client) checkURL(u *url.URL) error {
	if u == nil {
		return errors.New("missing URL")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return errors.Newf("scheme %q not allowed", u.Scheme)
	}
	if u.User != nil {
		return errors.New("URL must not carry credentials")
	}
	host := u.Hostname()
	if host == "" {
		return errors.New("URL missing hostname")
	}
	if c.allowPrivate {
		return nil
	}
	if isLocalhost(host) {
		return errors.New("localhost access blocked")
	}
	if addr, err := netip.ParseAddr(host); err == nil && isSpecialUse(addr) {
		return errors.Newf("address %s blocked", addr)
	}
	return nil
}

// checkResolved guards against names that resolve to special-use addresses.
func checkResolved(ctx context.Context, hostport string) error {
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return errors.Wrap(err, "invalid address")
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve host %q", host)
	}
	for _, addr := range addrs {
		if isSpecialUse(addr) {
			return errors.Newf("address %s of %q blocked", addr, host)
		}
	}
	return nil
}

var specialUse = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("224.0.0.0/4"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("::/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("fec0::/10"),
	netip.MustParsePrefix("ff00::/8"),
	netip.MustParsePrefix("2001:db8::/32"),
}

func isSpecialUse(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range specialUse {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func isLocalhost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return host == "localhost" || host == "localhost.localdomain" || strings.HasSuffix(host, ".localhost")
}
