package portal

import (
	"strings"

	"github.com/maheshrjl/reraharvest/api/schemas"
)

// ReconcileDocuments joins document metadata with the independently harvested
// link set. For each document, the first link whose visible text is a
// substring of the document's file name, or vice versa, wins; no scoring. A
// document with no matching link gets the "not available" sentinel as its
// URL. The two inputs come from independently rendered page sections, so
// names are not guaranteed character-identical; substring containment is the
// deliberate approximation.
func ReconcileDocuments(documents []schemas.DocumentRecord, links []schemas.DocumentLinkRecord) []schemas.DocumentRecord {
	out := make([]schemas.DocumentRecord, len(documents))
	for i, doc := range documents {
		doc.DownloadURL = schemas.NotAvailable
		name := normalizeName(doc.FileName)
		if name != "" {
			for _, link := range links {
				text := normalizeName(link.Text)
				if text == "" {
					continue
				}
				if strings.Contains(name, text) || strings.Contains(text, name) {
					doc.DownloadURL = link.URL
					break
				}
			}
		}
		out[i] = doc
	}
	return out
}

func normalizeName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == schemas.NotAvailable {
		return ""
	}
	return s
}
