package perception

import (
	"fmt"
	"strings"
)

// Node is one element in the simplified page tree. ID is the number
// the reasoner sees; it is assigned in traversal order over the nodes
// that survive visibility filtering.
type Node struct {
	ID          int
	Tag         string
	Text        string
	Role        string
	Type        string
	AriaLabel   string
	Placeholder string
	Value       string
	Href        string
	Interactive bool
	Rect        Rect
	Children    []*Node

	// Marker is the attribute value used to re-resolve this element
	// in the live page without another traversal.
	Marker int

	depth int
}

// Rect is an element's bounding box in CSS pixels.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// rawNode mirrors one record emitted by the traversal script.
type rawNode struct {
	Marker        int     `json:"marker"`
	Parent        int     `json:"parent"`
	Tag           string  `json:"tag"`
	Rect          Rect    `json:"rect"`
	OwnText       string  `json:"ownText"`
	FullText      string  `json:"fullText"`
	Role          string  `json:"role"`
	AriaLabel     string  `json:"ariaLabel"`
	Placeholder   string  `json:"placeholder"`
	InputType     string  `json:"inputType"`
	Href          string  `json:"href"`
	DOMID         string  `json:"domId"`
	Classes       string  `json:"classes"`
	Value         string  `json:"value"`
	TabIndex      int     `json:"tabIndex"`
	Disabled      bool    `json:"disabled"`
	Editable      bool    `json:"editable"`
	ClickHandler  bool    `json:"clickHandler"`
	PointerCursor bool    `json:"pointerCursor"`
}

// rawPage mirrors the full script result.
type rawPage struct {
	DPR      float64 `json:"dpr"`
	Viewport struct {
		W float64 `json:"w"`
		H float64 `json:"h"`
	} `json:"viewport"`
	Nodes []rawNode `json:"nodes"`
}

const (
	// minNodePixels excludes decorative slivers like 1px spacers.
	minNodePixels = 3

	// textCap bounds the text kept for any single node.
	textCap = 200
)

// visible reports whether a raw node survives filtering: it must have
// real size and intersect the viewport.
func visible(n rawNode, viewportW, viewportH float64) bool {
	if n.Rect.W < minNodePixels || n.Rect.H < minNodePixels {
		return false
	}
	if n.Rect.X+n.Rect.W <= 0 || n.Rect.Y+n.Rect.H <= 0 {
		return false
	}
	if n.Rect.X >= viewportW || n.Rect.Y >= viewportH {
		return false
	}
	return true
}

// buildTree filters raw nodes, numbers the survivors in traversal
// order, and reconstructs parent/child structure. A filtered-out
// parent's children reattach to the nearest surviving ancestor.
func buildTree(page rawPage, isInteractive func(rawNode) bool) (roots []*Node, byID map[int]*Node) {
	byID = make(map[int]*Node)
	// raw index -> built node, for ancestor reattachment
	built := make(map[int]*Node, len(page.Nodes))

	nextID := 0
	for i, raw := range page.Nodes {
		if !visible(raw, page.Viewport.W, page.Viewport.H) {
			continue
		}

		interactive := isInteractive(raw)
		text := raw.OwnText
		if interactive {
			text = raw.FullText
		}
		text = capText(text)

		nextID++
		node := &Node{
			ID:          nextID,
			Tag:         raw.Tag,
			Text:        text,
			Role:        raw.Role,
			Type:        raw.InputType,
			AriaLabel:   capText(raw.AriaLabel),
			Placeholder: capText(raw.Placeholder),
			Value:       capText(raw.Value),
			Href:        raw.Href,
			Interactive: interactive,
			Rect:        raw.Rect,
			Marker:      raw.Marker,
		}

		parent := nearestBuiltAncestor(page.Nodes, built, raw.Parent)
		if parent == nil {
			roots = append(roots, node)
		} else {
			node.depth = parent.depth + 1
			parent.Children = append(parent.Children, node)
		}

		built[i] = node
		byID[node.ID] = node
	}
	return roots, byID
}

func nearestBuiltAncestor(raw []rawNode, built map[int]*Node, parentIdx int) *Node {
	for parentIdx >= 0 {
		if node, ok := built[parentIdx]; ok {
			return node
		}
		parentIdx = raw[parentIdx].Parent
	}
	return nil
}

func capText(s string) string {
	if len(s) <= textCap {
		return s
	}
	return s[:textCap] + "…"
}

// describeNode renders one tree line for the reasoner. Interactive
// nodes lead with their bracketed id so the model can reference them;
// container nodes appear unnumbered for context only.
func describeNode(n *Node, sb *strings.Builder) {
	hasContent := n.Text != "" || n.AriaLabel != "" || n.Placeholder != "" || n.Value != ""
	if n.Interactive || hasContent {
		sb.WriteString(strings.Repeat("  ", n.depth))
		if n.Interactive {
			fmt.Fprintf(sb, "[%d] ", n.ID)
		} else {
			sb.WriteString("- ")
		}
		fmt.Fprintf(sb, "<%s>", n.Tag)
		if n.Text != "" {
			sb.WriteString(" " + n.Text)
		}
		writeHint(sb, "aria-label", n.AriaLabel)
		writeHint(sb, "placeholder", n.Placeholder)
		writeHint(sb, "value", n.Value)
		if n.Interactive && n.Href != "" {
			writeHint(sb, "href", n.Href)
		}
		sb.WriteString("\n")
	}
	for _, child := range n.Children {
		describeNode(child, sb)
	}
}

func writeHint(sb *strings.Builder, name, value string) {
	if value != "" {
		fmt.Fprintf(sb, " (%s=%q)", name, value)
	}
}
