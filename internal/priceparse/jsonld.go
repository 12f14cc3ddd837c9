package priceparse

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DecodeStructuredBlocks returns every JSON-LD object embedded in doc, in
// document order.
//
// A script block may hold a single object or an array of objects; arrays are
// flattened and non-object entries dropped. Empty and undecodable blocks are
// skipped silently: broken JSON-LD is common in the wild and must not stop
// extraction.
func DecodeStructuredBlocks(doc *goquery.Document) []map[string]any {
	if doc == nil {
		return nil
	}

	var blocks []map[string]any
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		typ, _ := s.Attr("type")
		if !isJSONLDType(typ) {
			return
		}
		txt := strings.TrimSpace(s.Text())
		if txt == "" {
			return
		}
		blocks = append(blocks, decodeBlock(txt)...)
	})
	return blocks
}

// isJSONLDType reports whether a script type attribute declares JSON-LD.
// Media type parameters ("; charset=utf-8") are ignored.
func isJSONLDType(typ string) bool {
	if i := strings.IndexByte(typ, ';'); i >= 0 {
		typ = typ[:i]
	}
	return strings.EqualFold(strings.TrimSpace(typ), "application/ld+json")
}

func decodeBlock(txt string) []map[string]any {
	var data any
	if err := json.Unmarshal([]byte(txt), &data); err != nil {
		return nil
	}

	switch v := data.(type) {
	case map[string]any:
		return []map[string]any{v}
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	default:
		return nil
	}
}

// HasType reports whether a JSON-LD object declares @type want. Both the
// string form and the array form ("@type": ["Product", "Thing"]) are accepted.
func HasType(obj map[string]any, want string) bool {
	switch t := obj["@type"].(type) {
	case string:
		return t == want
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}
