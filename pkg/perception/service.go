// Package perception builds the agent's view of a live page: a
// simplified numbered element tree plus a screenshot annotated with
// matching numbers (Set-of-Mark prompting). A snapshot is a point-in-
// time capture; its markers stop resolving as soon as the surface is
// traversed again.
package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"github.com/webpilot-ai/webpilot/pkg/logging"
)

var perceptionLog *logging.Logger

func init() {
	var err error
	perceptionLog, err = logging.NewLogger("perception")
	if err != nil {
		perceptionLog.Warnf("Failed to initialize perception logger, using stderr fallback: %v", err)
	}
}

// Surface is the minimal page access perception needs. The browser
// package's Surface satisfies it.
type Surface interface {
	URL() string
	Title() string
	Evaluate(ctx context.Context, script string) (interface{}, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// interactiveTags are the semantic tags that are interactive on their own.
var interactiveTags = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"option":   true,
	"label":    true,
	"summary":  true,
	"details":  true,
}

// interactiveRoles are ARIA roles that imply interactivity.
var interactiveRoles = map[string]bool{
	"button":    true,
	"link":      true,
	"checkbox":  true,
	"radio":     true,
	"tab":       true,
	"menuitem":  true,
	"option":    true,
	"switch":    true,
	"slider":    true,
	"combobox":  true,
	"textbox":   true,
	"searchbox": true,
}

// sitePatterns match class or id fragments that mark clickable widgets
// on sites that build them out of bare divs. Matched case-insensitively
// against the element's class list and id.
var sitePatterns = []string{
	"*video-thumbnail*",
	"*thumbnail-overlay*",
	"ytd-thumbnail*",
	"*play-button*",
	"*search-result*link*",
	"*dropdown-toggle*",
}

// Service captures perception snapshots from surfaces. Construct one
// per process; it is safe for concurrent use across paths.
type Service struct {
	scriptOnce sync.Once
	script     string

	patterns []glob.Glob
}

// NewService compiles the site-specific interactivity patterns.
func NewService() *Service {
	patterns := make([]glob.Glob, 0, len(sitePatterns))
	for _, p := range sitePatterns {
		patterns = append(patterns, glob.MustCompile(p))
	}
	return &Service{patterns: patterns}
}

func (s *Service) traversalScript() string {
	s.scriptOnce.Do(func() {
		s.script = traversalScript
	})
	return s.script
}

// Snapshot captures the current state of a surface: element tree,
// marker map, raw screenshot, and the annotated copy. The result is
// valid only until the next Snapshot call on the same surface.
func (s *Service) Snapshot(ctx context.Context, surf Surface) (*Snapshot, error) {
	result, err := surf.Evaluate(ctx, s.traversalScript())
	if err != nil {
		return nil, fmt.Errorf("page traversal failed: %w", err)
	}

	page, err := decodePage(result)
	if err != nil {
		return nil, err
	}

	roots, byID := buildTree(page, s.isInteractive)

	snap := &Snapshot{
		URL:   surf.URL(),
		Title: surf.Title(),
		Roots: roots,
		DPR:   page.DPR,
		byID:  byID,
	}

	screenshot, err := surf.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}
	snap.Screenshot = screenshot

	annotated, err := annotate(screenshot, snap.InteractiveNodes(), page.DPR)
	if err != nil {
		// The tree alone is still workable for the reasoner.
		perceptionLog.Warnf("screenshot annotation failed, using raw capture: %v", err)
		annotated = screenshot
	}
	snap.Annotated = annotated

	return snap, nil
}

// decodePage converts the script's result into a typed page via a
// JSON round trip, which tolerates both Playwright value shapes and
// plain Go maps.
func decodePage(result interface{}) (rawPage, error) {
	var page rawPage
	data, err := json.Marshal(result)
	if err != nil {
		return page, fmt.Errorf("unexpected traversal result: %w", err)
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return page, fmt.Errorf("malformed traversal result: %w", err)
	}
	if page.DPR <= 0 {
		page.DPR = 1
	}
	return page, nil
}

func (s *Service) isInteractive(n rawNode) bool {
	if n.Disabled {
		return false
	}
	if interactiveTags[n.Tag] {
		return true
	}
	if interactiveRoles[strings.ToLower(n.Role)] {
		return true
	}
	if n.ClickHandler || n.Editable {
		return true
	}
	if n.PointerCursor && n.Tag != "body" && n.Tag != "html" {
		return true
	}
	if n.TabIndex >= 0 && n.Tag != "body" {
		return true
	}

	haystack := strings.ToLower(n.Classes + " " + n.DOMID)
	for _, p := range s.patterns {
		for _, token := range strings.Fields(haystack) {
			if p.Match(token) {
				return true
			}
		}
	}
	return false
}

// Snapshot is a point-in-time perception capture for one surface.
type Snapshot struct {
	URL        string
	Title      string
	Roots      []*Node
	Screenshot []byte
	Annotated  []byte
	DPR        float64

	byID map[int]*Node
}

// NewSnapshot builds a snapshot directly from prebuilt nodes. Capture
// paths go through Service.Snapshot; this exists for callers that
// already hold a tree, such as tests of snapshot consumers.
func NewSnapshot(url, title string, roots []*Node) *Snapshot {
	snap := &Snapshot{
		URL:   url,
		Title: title,
		Roots: roots,
		DPR:   1,
		byID:  make(map[int]*Node),
	}
	var index func(*Node)
	index = func(n *Node) {
		snap.byID[n.ID] = n
		for _, child := range n.Children {
			index(child)
		}
	}
	for _, root := range roots {
		index(root)
	}
	return snap
}

// Selector resolves an element id from this snapshot into a CSS
// selector. Ids from older snapshots fail here with an error the
// reasoner can act on.
func (s *Snapshot) Selector(id int) (string, error) {
	node, ok := s.byID[id]
	if !ok {
		return "", fmt.Errorf("element [%d] is not in the current view; the page may have changed, observe it again", id)
	}
	return fmt.Sprintf("[%s=%q]", markerAttribute, fmt.Sprint(node.Marker)), nil
}

// Lookup returns the node for an element id, if it is in this snapshot.
func (s *Snapshot) Lookup(id int) (*Node, bool) {
	node, ok := s.byID[id]
	return node, ok
}

// InteractiveNodes returns the snapshot's interactive nodes ordered by id.
func (s *Snapshot) InteractiveNodes() []*Node {
	nodes := make([]*Node, 0, len(s.byID))
	for _, node := range s.byID {
		if node.Interactive {
			nodes = append(nodes, node)
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Describe renders the element tree as indented text for the prompt.
func (s *Snapshot) Describe() string {
	var sb strings.Builder
	for _, root := range s.Roots {
		describeNode(root, &sb)
	}
	if sb.Len() == 0 {
		return "(no visible elements)"
	}
	return sb.String()
}
