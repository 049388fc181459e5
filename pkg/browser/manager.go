// Package browser provides isolated browser sessions backed by
// Playwright. Each execution path gets its own Session (an isolated
// browser context) so concurrent agents never share cookies, storage,
// or tabs.
package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/webpilot-ai/webpilot/pkg/config"
	"github.com/webpilot-ai/webpilot/pkg/logging"
)

var browserLog *logging.Logger

func init() {
	var err error
	browserLog, err = logging.NewLogger("browser")
	if err != nil {
		browserLog.Warnf("Failed to initialize browser logger, using stderr fallback: %v", err)
	}
}

// Manager owns the Playwright runtime and a single shared browser
// process. Sessions are cheap isolated contexts on top of it.
type Manager struct {
	cfg config.BrowserConfig

	mu          sync.Mutex
	playwright  *playwright.Playwright
	browser     playwright.Browser
	sessions    map[string]*Session
	initialized bool
}

// NewManager creates a manager. The browser process is not started
// until Initialize or the first NewSession call.
func NewManager(cfg config.BrowserConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Initialize installs browser binaries if needed and starts the shared
// browser process. Safe to call more than once.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initializeLocked()
}

func (m *Manager) initializeLocked() error {
	if m.initialized {
		return nil
	}

	// Discard driver output so it cannot interleave with event rendering.
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.cfg.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	m.playwright = pw
	m.browser = browser
	m.initialized = true
	browserLog.Printf("browser runtime started (headless=%v)", m.cfg.Headless)
	return nil
}

// NewSession creates an isolated session for an execution path.
func (m *Manager) NewSession(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.initializeLocked(); err != nil {
		return nil, err
	}
	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("session %q already exists", id)
	}

	context, err := m.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  m.cfg.ViewportWidth,
			Height: m.cfg.ViewportHeight,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	session, err := newSession(id, context, m.cfg.NavigationTimeoutMS, m.cfg.SettleTimeoutMS)
	if err != nil {
		_ = context.Close()
		return nil, err
	}

	m.sessions[id] = session
	browserLog.Debugf("session %s created", id)
	return session, nil
}

// CloseSession closes and forgets a session.
func (m *Manager) CloseSession(id string) error {
	m.mu.Lock()
	session, exists := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("session %q not found", id)
	}
	return session.Close()
}

// Shutdown closes all sessions, the browser, and the Playwright runtime.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, session := range m.sessions {
		if err := session.Close(); err != nil {
			browserLog.Warnf("closing session %s: %v", id, err)
		}
		delete(m.sessions, id)
	}

	if m.browser != nil {
		_ = m.browser.Close()
		m.browser = nil
	}
	if m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.playwright = nil
	}
	m.initialized = false
	return nil
}
