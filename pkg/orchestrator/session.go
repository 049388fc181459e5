package orchestrator

import (
	"github.com/webpilot-ai/webpilot/pkg/agent"
	"github.com/webpilot-ai/webpilot/pkg/browser"
)

// BrowserSessions adapts the Playwright-backed session manager to the
// SessionFactory the orchestrator expects.
func BrowserSessions(manager *browser.Manager) SessionFactory {
	return func(pathID string) (agent.Session, func(), error) {
		session, err := manager.NewSession(pathID)
		if err != nil {
			return nil, nil, err
		}
		release := func() {
			if err := manager.CloseSession(pathID); err != nil {
				orchLog.Warnf("releasing session %s: %v", pathID, err)
			}
		}
		return browserSession{session}, release, nil
	}
}

// browserSession bridges the browser package's concrete session to the
// agent's Session interface.
type browserSession struct {
	s *browser.Session
}

func (b browserSession) Active() (agent.Surface, error) {
	return b.s.Active()
}

func (b browserSession) Surfaces() []agent.SurfaceInfo {
	infos := b.s.Surfaces()
	out := make([]agent.SurfaceInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, agent.SurfaceInfo{
			ID:     info.ID,
			URL:    info.URL,
			Title:  info.Title,
			Active: info.Active,
		})
	}
	return out
}

func (b browserSession) SwitchTo(id string) error     { return b.s.SwitchTo(id) }
func (b browserSession) CloseSurface(id string) error { return b.s.CloseSurface(id) }
func (b browserSession) CleanupSecondary()            { b.s.CleanupSecondary() }
