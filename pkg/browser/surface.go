package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Surface is a single browsable page (a tab). Agents interact with a
// surface through selectors and receive raw observations back; higher
// layers decide what the observations mean.
type Surface interface {
	// ID returns the surface identifier, unique within its session.
	ID() string

	// URL returns the current page URL.
	URL() string

	// Title returns the current page title, or "" when unavailable.
	Title() string

	// Navigate loads the given URL and waits for DOM content.
	Navigate(ctx context.Context, url string) error

	// Back navigates one entry back in the surface history.
	Back(ctx context.Context) error

	// Refresh reloads the current page.
	Refresh(ctx context.Context) error

	// Screenshot captures the visible viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)

	// Evaluate runs a JavaScript expression in the page and returns
	// its JSON-serializable result.
	Evaluate(ctx context.Context, script string) (interface{}, error)

	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error

	// Fill replaces the value of the input matching selector.
	Fill(ctx context.Context, selector, value string) error

	// Press sends a keyboard key to the element matching selector.
	Press(ctx context.Context, selector, key string) error

	// Scroll scrolls the page vertically by deltaY CSS pixels.
	Scroll(ctx context.Context, deltaY float64) error

	// WaitForSettle waits for network activity to quiet down after a
	// state-mutating interaction. Best effort: a timeout is not an error.
	WaitForSettle(ctx context.Context)
}

// playwrightSurface implements Surface on top of a Playwright page.
type playwrightSurface struct {
	id   string
	page playwright.Page

	navTimeout    float64
	settleTimeout float64

	mu     sync.Mutex
	closed bool
}

func newPlaywrightSurface(id string, page playwright.Page, navTimeoutMS, settleTimeoutMS int) *playwrightSurface {
	return &playwrightSurface{
		id:            id,
		page:          page,
		navTimeout:    float64(navTimeoutMS),
		settleTimeout: float64(settleTimeoutMS),
	}
}

func (s *playwrightSurface) ID() string {
	return s.id
}

func (s *playwrightSurface) URL() string {
	return s.page.URL()
}

func (s *playwrightSurface) Title() string {
	title, err := s.page.Title()
	if err != nil {
		return ""
	}
	return title
}

func (s *playwrightSurface) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(s.navTimeout),
	})
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (s *playwrightSurface) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.GoBack(playwright.PageGoBackOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(s.navTimeout),
	})
	if err != nil {
		return fmt.Errorf("back navigation failed: %w", err)
	}
	return nil
}

func (s *playwrightSurface) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(s.navTimeout),
	})
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	return nil
}

func (s *playwrightSurface) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

func (s *playwrightSurface) Evaluate(ctx context.Context, script string) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := s.page.Evaluate(script)
	if err != nil {
		return nil, fmt.Errorf("script evaluation failed: %w", err)
	}
	return result, nil
}

func (s *playwrightSurface) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.page.Click(selector, playwright.PageClickOptions{
		Timeout: playwright.Float(s.navTimeout),
	})
	if err != nil {
		return fmt.Errorf("click on %s failed: %w", selector, err)
	}
	return nil
}

func (s *playwrightSurface) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.page.Fill(selector, value, playwright.PageFillOptions{
		Timeout: playwright.Float(s.navTimeout),
	})
	if err != nil {
		return fmt.Errorf("fill on %s failed: %w", selector, err)
	}
	return nil
}

func (s *playwrightSurface) Press(ctx context.Context, selector, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.page.Press(selector, key, playwright.PagePressOptions{
		Timeout: playwright.Float(s.navTimeout),
	})
	if err != nil {
		return fmt.Errorf("press %s on %s failed: %w", key, selector, err)
	}
	return nil
}

func (s *playwrightSurface) Scroll(ctx context.Context, deltaY float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.page.Mouse().Wheel(0, deltaY); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	return nil
}

func (s *playwrightSurface) WaitForSettle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	// Pages with long-polling or streaming never reach network idle.
	// A timeout here just means we proceed with whatever loaded.
	_ = s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(s.settleTimeout),
	})
}

func (s *playwrightSurface) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *playwrightSurface) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *playwrightSurface) close() error {
	s.markClosed()
	return s.page.Close()
}
