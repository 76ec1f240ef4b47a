package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Close match. "), genai.Blob{MIMEType: "image/png"}, genai.Text("📍Score: 8/10")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	assert.Equal(t, "Close match. 📍Score: 8/10", firstText(resp))

	assert.Empty(t, firstText(nil))
	assert.Empty(t, firstText(&genai.GenerateContentResponse{}))
	assert.Empty(t, firstText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), " ", "gemini-2.5-flash")
	require.Error(t, err)
}

func TestWithModel(t *testing.T) {
	e := &Engine{Model: "gemini-2.5-flash"}
	other := e.WithModel("gemini-2.5-pro")

	assert.Equal(t, "gemini-2.5-pro", other.GetModel())
	assert.Equal(t, "gemini-2.5-flash", e.GetModel())
	assert.Equal(t, "gemini", other.Name())
}
