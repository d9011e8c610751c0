// Package prompt builds the instruction text sent to the chapter generator by
// substituting {{NAME}} placeholder tokens in a story's template.
package prompt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Placeholder tokens recognized in story templates.
const (
	TokenToneStyle             = "TONE_STYLE"
	TokenToneStyleDescription  = "TONE_STYLE_DESCRIPTION"
	TokenTimeFlavor            = "TIME_FLAVOR"
	TokenTimeFlavorDescription = "TIME_FLAVOR_DESCRIPTION"
	TokenStoryTitle            = "STORY_TITLE"
	TokenStoryAuthor           = "STORY_AUTHOR"
	TokenStoryDescription      = "STORY_DESCRIPTION"
	TokenOpeningBeats          = "OPENING_BEATS"
	TokenGuardrails            = "GUARDRAILS"
	TokenChapterIndex          = "CHAPTER_INDEX"
	TokenPreviousChapter       = "PREVIOUS_CHAPTER"
	TokenChosenBranch          = "CHOSEN_BRANCH"
)

var tokenPattern = regexp.MustCompile(`\{\{([A-Z0-9_]+)\}\}`)

// Compose substitutes every {{NAME}} occurrence for each key in replacements.
// Tokens absent from the map are left verbatim: templates may carry tokens a
// given composition step does not know about (continuation tokens in the
// initial prompt, for example), and generation must not fail on them.
func Compose(template string, replacements map[string]string) string {
	result := template
	for name, value := range replacements {
		result = strings.ReplaceAll(result, wrap(name), value)
	}
	return result
}

// ComposeStrict substitutes like Compose but returns an error naming the
// unresolved tokens left in the result. Used by admin/story validation, never
// on the generation path.
func ComposeStrict(template string, replacements map[string]string) (string, error) {
	result := Compose(template, replacements)
	unresolved := UnresolvedTokens(result)
	if len(unresolved) > 0 {
		return "", fmt.Errorf("template has unresolved tokens: %s", strings.Join(unresolved, ", "))
	}
	return result, nil
}

// UnresolvedTokens returns the sorted, de-duplicated token names still present
// in text.
func UnresolvedTokens(text string) []string {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	sort.Strings(names)
	return names
}

// FormatList renders items as a bulleted list for interpolation into a
// template ({{OPENING_BEATS}}, {{GUARDRAILS}}).
func FormatList(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}

func wrap(name string) string {
	return "{{" + name + "}}"
}
