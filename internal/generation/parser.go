package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"storyrunner/internal/models"
)

// ParseChapterResponse parses a model response into a GeneratedChapter.
// Models frequently wrap their JSON in markdown fences despite instructions,
// so fenced blocks are unwrapped before decoding.
func ParseChapterResponse(responseText string) (*models.GeneratedChapter, error) {
	if strings.TrimSpace(responseText) == "" {
		return nil, errors.New("empty response text")
	}

	payload := extractJSONBlock(responseText)

	chapter := &models.GeneratedChapter{}
	if err := json.Unmarshal([]byte(payload), chapter); err != nil {
		return nil, fmt.Errorf("response is not valid chapter JSON: %w", err)
	}
	if strings.TrimSpace(chapter.Body) == "" {
		return nil, errors.New("chapter body is empty")
	}
	if chapter.Title == "" {
		chapter.Title = "Untitled chapter"
	}
	if chapter.Choices == nil {
		chapter.Choices = []string{}
	}
	return chapter, nil
}

// extractJSONBlock strips a ```json fence when present, otherwise cuts from
// the first '{' to the last '}' so leading prose does not break decoding.
func extractJSONBlock(text string) string {
	trimmed := strings.TrimSpace(text)

	if idx := strings.Index(trimmed, "```"); idx >= 0 {
		rest := trimmed[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return trimmed[start : end+1]
	}
	return trimmed
}
