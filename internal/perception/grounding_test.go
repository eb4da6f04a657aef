package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"patchpanel/internal/catalog"
)

func TestExtractSources(t *testing.T) {
	resp := textResponse("[]")
	resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{URI: "https://github.com/ReVanced/revanced-patches", Title: "revanced-patches"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://example.com/untitled"}},
			{Web: &genai.GroundingChunkWeb{Title: "no uri"}},
			{},
			nil,
		},
	}

	got := ExtractSources(resp)
	assert.Equal(t, []catalog.GroundingLink{
		{URI: "https://github.com/ReVanced/revanced-patches", Title: "revanced-patches"},
		{URI: "https://example.com/untitled", Title: "https://example.com/untitled"},
	}, got)
}

func TestExtractSources_Empty(t *testing.T) {
	assert.Nil(t, ExtractSources(nil))
	assert.Nil(t, ExtractSources(&genai.GenerateContentResponse{}))
	assert.Nil(t, ExtractSources(textResponse("x")))
}
