package browser

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Session owns an isolated browser context for a single execution path.
// The first surface is the primary surface; popups opened by the page
// become secondary surfaces and are tracked automatically.
type Session struct {
	id      string
	context playwright.BrowserContext

	navTimeoutMS    int
	settleTimeoutMS int

	mu       sync.Mutex
	surfaces []*playwrightSurface
	active   int
	nextID   int
	closed   bool
}

// SurfaceInfo describes a tracked surface for prompt rendering.
type SurfaceInfo struct {
	ID     string
	URL    string
	Title  string
	Active bool
}

func newSession(id string, context playwright.BrowserContext, navTimeoutMS, settleTimeoutMS int) (*Session, error) {
	s := &Session{
		id:              id,
		context:         context,
		navTimeoutMS:    navTimeoutMS,
		settleTimeoutMS: settleTimeoutMS,
	}

	// Popups (window.open, target=_blank) arrive through the context.
	// Track them as secondary surfaces and make the newest one active,
	// since the page the user action opened is where the flow continues.
	context.OnPage(func(page playwright.Page) {
		s.adoptPage(page, true)
	})

	page, err := context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create primary surface: %w", err)
	}
	s.adoptPage(page, false)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) adoptPage(page playwright.Page, activate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, surf := range s.surfaces {
		if surf.page == page {
			return
		}
	}

	s.nextID++
	surf := newPlaywrightSurface(fmt.Sprintf("tab-%d", s.nextID), page, s.navTimeoutMS, s.settleTimeoutMS)
	s.surfaces = append(s.surfaces, surf)
	if activate {
		s.active = len(s.surfaces) - 1
	}

	page.OnClose(func(playwright.Page) {
		s.dropSurface(surf)
	})
}

func (s *Session) dropSurface(surf *playwrightSurface) {
	s.mu.Lock()
	defer s.mu.Unlock()

	surf.markClosed()
	for i, candidate := range s.surfaces {
		if candidate == surf {
			s.surfaces = append(s.surfaces[:i], s.surfaces[i+1:]...)
			if s.active >= len(s.surfaces) {
				s.active = 0
			} else if s.active > i {
				s.active--
			}
			return
		}
	}
}

// Active returns the currently active surface.
func (s *Session) Active() (Surface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.surfaces) == 0 {
		return nil, fmt.Errorf("session %s has no open surfaces", s.id)
	}
	return s.surfaces[s.active], nil
}

// Surfaces returns metadata for every tracked surface.
func (s *Session) Surfaces() []SurfaceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]SurfaceInfo, 0, len(s.surfaces))
	for i, surf := range s.surfaces {
		infos = append(infos, SurfaceInfo{
			ID:     surf.id,
			URL:    surf.URL(),
			Title:  surf.Title(),
			Active: i == s.active,
		})
	}
	return infos
}

// SwitchTo makes the surface with the given id active.
func (s *Session) SwitchTo(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, surf := range s.surfaces {
		if surf.id == id {
			s.active = i
			return nil
		}
	}
	return fmt.Errorf("no surface %q in session %s", id, s.id)
}

// CloseSurface closes a secondary surface. The primary surface cannot
// be closed; close the session instead.
func (s *Session) CloseSurface(id string) error {
	s.mu.Lock()
	var target *playwrightSurface
	for i, surf := range s.surfaces {
		if surf.id == id {
			if i == 0 {
				s.mu.Unlock()
				return fmt.Errorf("cannot close the primary surface %q", id)
			}
			target = surf
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return fmt.Errorf("no surface %q in session %s", id, s.id)
	}
	// Page close fires OnClose, which removes the surface from the list.
	return target.close()
}

// CleanupSecondary closes every surface except the primary and makes
// the primary active again. Called when a task loop finishes so the
// next task starts from a predictable state.
func (s *Session) CleanupSecondary() {
	s.mu.Lock()
	extras := make([]*playwrightSurface, 0, len(s.surfaces))
	if len(s.surfaces) > 1 {
		extras = append(extras, s.surfaces[1:]...)
	}
	s.active = 0
	s.mu.Unlock()

	for _, surf := range extras {
		_ = surf.close()
	}
}

// Close closes every surface and the underlying browser context.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	surfaces := append([]*playwrightSurface(nil), s.surfaces...)
	s.surfaces = nil
	s.mu.Unlock()

	for _, surf := range surfaces {
		_ = surf.close()
	}
	return s.context.Close()
}
