package rod

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"web-agent/internal/application/port/output"
	"web-agent/internal/domain/entity"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	defaultTimeout = 15 * time.Second
	idleTimeout    = 2 * time.Second
	statusTimeout  = time.Second
)

var ErrInvalidURL = errors.New("invalid URL")

var _ output.PageLoader = (*BrowserAdapter)(nil)

// BrowserAdapter renders pages in a shared headless browser. Loads are
// serialized; each one gets a fresh tab.
type BrowserAdapter struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
	closed   bool
}

type BrowserConfig struct {
	Headless  bool
	Timeout   time.Duration
	NoSandbox bool
	// Bin is an explicit browser binary; empty lets rod locate or download one.
	Bin string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:  true,
		Timeout:   defaultTimeout,
		NoSandbox: false,
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		timeout:  cfg.Timeout,
	}, nil
}

func (b *BrowserAdapter) Load(ctx context.Context, rawURL string) (*entity.PageContent, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("browser is closed")
	}

	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	defer func() { _ = page.Close() }()

	p := page.Context(ctx).Timeout(b.timeout)

	// Subscribed before navigating so the document response is not missed.
	statusCh := make(chan int, 1)
	go p.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			statusCh <- e.Response.Status
			return true
		}
		return false
	})()

	if err := p.Navigate(rawURL); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("page load failed: %w", err)
	}
	_ = p.WaitIdle(idleTimeout)

	var status int
	select {
	case status = <-statusCh:
	case <-time.After(statusTimeout):
	}

	if status != 0 && (status < 200 || status >= 300) {
		return nil, fmt.Errorf("fetch %s: http %d", rawURL, status)
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to get HTML: %w", err)
	}
	info, err := p.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to get page info: %w", err)
	}

	return &entity.PageContent{
		URL:         info.URL,
		Title:       info.Title,
		HTML:        html,
		Status:      status,
		ContentType: "text/html",
	}, nil
}

func (b *BrowserAdapter) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.browser != nil && !b.closed
}

func (b *BrowserAdapter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	return nil
}
