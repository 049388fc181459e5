package perception

// markerAttribute is the DOM attribute used to re-resolve elements
// after a traversal without walking the tree again. Selectors built
// from it stay valid until the next traversal rewrites the attribute.
const markerAttribute = "data-wp-marker"

// traversalScript walks the document and emits one record per candidate
// element, together with the viewport geometry needed for filtering on
// the Go side. Markers are reassigned on every run so records from an
// older traversal can never resolve against a newer page state.
const traversalScript = `(() => {
  const ATTR = "` + markerAttribute + `";

  for (const el of document.querySelectorAll("[" + ATTR + "]")) {
    el.removeAttribute(ATTR);
  }

  const nodes = [];
  let marker = 0;

  const ownText = (el) => {
    let text = "";
    for (const child of el.childNodes) {
      if (child.nodeType === Node.TEXT_NODE) {
        text += child.textContent;
      }
    }
    return text.replace(/\s+/g, " ").trim();
  };

  const walk = (el, parentIdx) => {
    if (!(el instanceof Element)) return;
    const tag = el.tagName.toLowerCase();
    if (tag === "script" || tag === "style" || tag === "noscript" ||
        tag === "svg" || tag === "path" || tag === "meta" || tag === "link") {
      return;
    }

    const style = window.getComputedStyle(el);
    if (style.display === "none" || style.visibility === "hidden" ||
        parseFloat(style.opacity) === 0) {
      return;
    }

    const rect = el.getBoundingClientRect();
    marker += 1;
    el.setAttribute(ATTR, String(marker));

    const idx = nodes.length;
    nodes.push({
      marker: marker,
      parent: parentIdx,
      tag: tag,
      rect: { x: rect.x, y: rect.y, w: rect.width, h: rect.height },
      ownText: ownText(el).slice(0, 1000),
      fullText: (el.innerText || "").replace(/\s+/g, " ").trim().slice(0, 1000),
      role: el.getAttribute("role") || "",
      ariaLabel: el.getAttribute("aria-label") || "",
      placeholder: el.getAttribute("placeholder") || "",
      inputType: el.getAttribute("type") || "",
      href: el.getAttribute("href") || "",
      domId: el.id || "",
      classes: (typeof el.className === "string" ? el.className : ""),
      value: ("value" in el && typeof el.value === "string") ? el.value.slice(0, 200) : "",
      tabIndex: el.tabIndex,
      disabled: el.disabled === true,
      editable: el.isContentEditable === true,
      clickHandler: el.onclick != null || el.hasAttribute("onclick") ||
                    el.hasAttribute("jsaction") || el.hasAttribute("ng-click"),
      pointerCursor: style.cursor === "pointer"
    });

    for (const child of el.children) {
      walk(child, idx);
    }
  };

  walk(document.body, -1);

  return {
    dpr: window.devicePixelRatio || 1,
    viewport: { w: window.innerWidth, h: window.innerHeight },
    nodes: nodes
  };
})()`
