package generation

import (
	"context"
	"fmt"
	"hash/fnv"

	"storyrunner/internal/models"
)

// mockClient fabricates structurally valid chapters without any external
// dependency. Output is a pure function of the prompt and chapter index, so
// the degraded mode stays reproducible.
type mockClient struct{}

// NewMockClient returns the deterministic local generator.
func NewMockClient() Client {
	return &mockClient{}
}

var mockMoods = []string{"quiet", "uneasy", "triumphant", "strange", "bitter"}

var mockChoices = [][]string{
	{"Press on into the dark", "Turn back while you can", "Call out to whoever is listening"},
	{"Follow the stranger", "Hold your ground", "Slip away unseen"},
	{"Open the letter", "Burn it unread", "Hand it to your companion"},
	{"Trust the map", "Trust your memory", "Trust no one"},
}

func (m *mockClient) GenerateChapter(_ context.Context, prompt string, chapterIndex int) (*models.GeneratedChapter, error) {
	h := fnv.New32a()
	h.Write([]byte(prompt))
	seed := h.Sum32() + uint32(chapterIndex)

	mood := mockMoods[seed%uint32(len(mockMoods))]
	choices := mockChoices[seed%uint32(len(mockChoices))]

	body := fmt.Sprintf(
		"The story continues in a %s register. What was set in motion earlier now presses toward its consequence, and the narrator lingers on the details the instruction asked for.\n\n"+
			"Nothing here came from a live generation service: this chapter was produced by the local fallback, which shapes placeholder prose around the same structure a real chapter would have. The thread picks up exactly where chapter %d demands.",
		mood, chapterIndex)

	return &models.GeneratedChapter{
		Title:   fmt.Sprintf("Chapter %d: A %s turn", chapterIndex, mood),
		Body:    body,
		Choices: append([]string(nil), choices...),
	}, nil
}
