package perception

import (
	"strings"

	"google.golang.org/genai"

	"patchpanel/internal/catalog"
)

// ExtractSources collects the web citations attached to the first candidate.
// Chunks without a URI are skipped; a missing title falls back to the URI.
func ExtractSources(resp *genai.GenerateContentResponse) []catalog.GroundingLink {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}

	var links []catalog.GroundingLink
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		uri := strings.TrimSpace(chunk.Web.URI)
		if uri == "" {
			continue
		}
		title := strings.TrimSpace(chunk.Web.Title)
		if title == "" {
			title = uri
		}
		links = append(links, catalog.GroundingLink{URI: uri, Title: title})
	}
	return links
}
