package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"ytrelated/internal/domain"
)

const (
	DefaultTimeout = 10 * time.Second
	defaultBaseURL = "https://www.youtube.com"

	maxResponseBytes = 8 << 20
	maxErrorSnippet  = 256
)

var ErrRateLimited = errors.New("scraper: rate limited by upstream")

// Logger is the logging capability the scraper needs; *log.Logger satisfies it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
}

// RoutePlanner selects the egress address of a scrape. A nil RoutePlanner means
// the system default egress.
type RoutePlanner interface {
	NextAddress(ctx context.Context) (netip.Addr, error)
	MarkFailing(ctx context.Context, addr netip.Addr) error
}

type Options struct {
	Timeout time.Duration
	Log     Logger

	// ProxyURL routes every request through an upstream http, https or socks5 proxy.
	ProxyURL string

	// BaseURL overrides https://www.youtube.com.
	BaseURL string
}

// Scraper fetches the related videos of a video. Its configuration is fixed at
// construction and it is safe for concurrent use.
type Scraper struct {
	timeout  time.Duration
	log      Logger
	proxyURL *url.URL
	baseURL  string
}

func New(opts Options) (*Scraper, error) {
	s := &Scraper{
		timeout: opts.Timeout,
		log:     opts.Log,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.log == nil {
		s.log = nopLogger{}
	}
	if s.baseURL == "" {
		s.baseURL = defaultBaseURL
	}

	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("scraper: parse proxy url: %w", err)
		}
		switch strings.ToLower(proxyURL.Scheme) {
		case "http", "https", "socks5", "socks5h":
		default:
			return nil, fmt.Errorf("scraper: unsupported proxy scheme %q", proxyURL.Scheme)
		}
		if proxyURL.Host == "" {
			return nil, fmt.Errorf("scraper: proxy url %q has no host", opts.ProxyURL)
		}
		s.proxyURL = proxyURL
	}

	return s, nil
}

func (s *Scraper) Timeout() time.Duration {
	return s.timeout
}

// Scrape returns the related videos of videoID, or nil when there are none.
func (s *Scraper) Scrape(ctx context.Context, videoID string, planner RoutePlanner) ([]domain.RelatedVideo, error) {
	var source netip.Addr
	if planner != nil {
		addr, err := planner.NextAddress(ctx)
		if err != nil {
			return nil, fmt.Errorf("scraper: select source address: %w", err)
		}
		source = addr
	}

	client, err := s.newHTTPClient(source)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(newNextRequest(videoID))
	if err != nil {
		return nil, fmt.Errorf("scraper: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+nextPath+"?prettyPrint=false", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("scraper: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Youtube-Client-Name", webClientNameID)
	req.Header.Set("X-Youtube-Client-Version", webClientVersion)
	req.Header.Set("Origin", "https://www.youtube.com")
	req.Header.Set("Referer", "https://www.youtube.com/watch?v="+url.QueryEscape(videoID))

	started := time.Now()
	s.log.Debug("scraping related videos", "video_id", videoID, "source", sourceLabel(source))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper: request related videos of %s: %w", videoID, err)
	}
	defer resp.Body.Close()

	s.log.Debug("upstream responded", "video_id", videoID, "status", resp.StatusCode, "elapsed", time.Since(started))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if planner != nil && source.IsValid() {
			if err := planner.MarkFailing(ctx, source); err != nil {
				s.log.Debug("failed to mark source address", "source", source.String(), "error", err)
			} else {
				s.log.Info("source address rate limited", "source", source.String())
			}
		}
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
		return nil, fmt.Errorf("scraper: upstream returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("scraper: read response: %w", err)
	}

	videos, err := parseRelatedVideos(payload)
	if err != nil {
		return nil, fmt.Errorf("scraper: %w", err)
	}
	if len(videos) == 0 {
		return nil, nil
	}

	s.log.Debug("related videos parsed", "video_id", videoID, "count", len(videos))
	return videos, nil
}

// newHTTPClient builds a one-shot client whose connections originate from source.
func (s *Scraper) newHTTPClient(source netip.Addr) (*http.Client, error) {
	dialer := &sourceDialer{
		dialer: &net.Dialer{Timeout: s.timeout},
	}
	if source.IsValid() {
		dialer.dialer.LocalAddr = &net.TCPAddr{IP: source.AsSlice()}
		if source.Is4() {
			dialer.network = "tcp4"
		} else {
			dialer.network = "tcp6"
		}
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		DisableKeepAlives:     true,
		MaxIdleConns:          0,
		IdleConnTimeout:       0,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	if s.proxyURL != nil {
		switch strings.ToLower(s.proxyURL.Scheme) {
		case "http", "https":
			transport.Proxy = http.ProxyURL(s.proxyURL)
		default:
			socksDialer, err := proxy.FromURL(s.proxyURL, dialer)
			if err != nil {
				return nil, fmt.Errorf("scraper: socks proxy: %w", err)
			}
			if contextDialer, ok := socksDialer.(proxy.ContextDialer); ok {
				transport.DialContext = contextDialer.DialContext
			} else {
				transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
					return socksDialer.Dial(network, addr)
				}
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   s.timeout,
	}, nil
}

// sourceDialer pins the address family to the bound local address.
type sourceDialer struct {
	dialer  *net.Dialer
	network string
}

func (d *sourceDialer) Dial(network, addr string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, addr)
}

func (d *sourceDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if d.network != "" && strings.HasPrefix(network, "tcp") {
		network = d.network
	}
	return d.dialer.DialContext(ctx, network, addr)
}

func sourceLabel(addr netip.Addr) string {
	if !addr.IsValid() {
		return "default"
	}
	return addr.String()
}

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(interface{}, ...interface{})  {}
