package sanitize

import (
	"bytes"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jcadam/veil/pkg/mode"
)

// imageRemovedNotice replaces stripped images so the reduced content is
// visible to the reader.
const imageRemovedNotice = "[image removed]"

// ContentResult is the outcome of the script/content policy.
type ContentResult struct {
	Body            []byte
	ScriptsRemoved  bool
	RequiresScripts bool
}

// ApplyContentPolicy enforces the script and image policy on a response
// body. Non-HTML content passes through, except executable content types
// which are emptied outright when scripts are disallowed. Passive tracking
// vectors (frames, embeds, 1x1 pixels) are removed regardless of mode.
func ApplyContentPolicy(p mode.Policy, contentType string, body []byte) (ContentResult, error) {
	mediaType := parseMediaType(contentType)

	if !p.ScriptsAllowed && isExecutableType(mediaType) {
		return ContentResult{Body: []byte{}, ScriptsRemoved: true}, nil
	}
	if !isHTMLType(mediaType) {
		return ContentResult{Body: body}, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ContentResult{}, err
	}

	res := ContentResult{RequiresScripts: detectScriptRequirement(doc)}

	// Always-on passive vector removal.
	doc.Find("iframe, embed, object").Remove()
	removeTrackingPixels(doc)

	if !p.ScriptsAllowed {
		res.ScriptsRemoved = stripExecutable(doc)
	}
	if !p.ImagesAllowed {
		stripImages(doc)
	}

	html, err := doc.Html()
	if err != nil {
		return ContentResult{}, err
	}
	res.Body = []byte(html)
	return res, nil
}

func parseMediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func isHTMLType(mediaType string) bool {
	return mediaType == "" ||
		mediaType == "text/html" ||
		mediaType == "application/xhtml+xml"
}

func isExecutableType(mediaType string) bool {
	switch mediaType {
	case "text/javascript", "application/javascript", "application/x-javascript", "application/ecmascript":
		return true
	}
	return false
}

// detectScriptRequirement mirrors the heuristics a reduced-content notice
// needs: external scripts, heavy inline script use, or an explicit
// "enable JavaScript" plea.
func detectScriptRequirement(doc *goquery.Document) bool {
	if doc.Find("script[src]").Length() > 0 {
		return true
	}
	if doc.Find("script").Length() > 5 {
		return true
	}
	plea := false
	doc.Find("noscript").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(s.Text()), "enable javascript") {
			plea = true
			return false
		}
		return true
	})
	if plea {
		return true
	}
	found := false
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if strings.Contains(text, "document.write") || strings.Contains(text, "window.onload") {
			found = true
			return false
		}
		return true
	})
	return found
}

// stripExecutable removes every executable vector: script elements, inline
// event-handler attributes, and javascript: URIs. Returns whether anything
// was removed.
func stripExecutable(doc *goquery.Document) bool {
	removed := false

	if scripts := doc.Find("script"); scripts.Length() > 0 {
		scripts.Remove()
		removed = true
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		for _, attr := range s.Nodes[0].Attr {
			key := strings.ToLower(attr.Key)
			if strings.HasPrefix(key, "on") {
				s.RemoveAttr(attr.Key)
				removed = true
				continue
			}
			switch key {
			case "href", "src", "action", "formaction":
				if strings.HasPrefix(strings.TrimSpace(strings.ToLower(attr.Val)), "javascript:") {
					s.SetAttr(attr.Key, "#")
					removed = true
				}
			}
		}
	})

	return removed
}

// removeTrackingPixels drops 1x1 images used as passive beacons.
func removeTrackingPixels(doc *goquery.Document) {
	doc.Find(`img[width="1"][height="1"], img[width="0"][height="0"]`).Remove()
}

// stripImages removes image-fetching directives so no passive beacon
// traffic can originate from the rendered document.
func stripImages(doc *goquery.Document) {
	doc.Find("img").ReplaceWithHtml(imageRemovedNotice)
	doc.Find("picture source, source[srcset]").Remove()
	doc.Find(`link[rel="preload"][as="image"], link[rel="prefetch"]`).Remove()
}
