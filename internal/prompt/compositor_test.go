package prompt_test

import (
	"strings"
	"testing"

	"storyrunner/internal/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	t.Run("substitutes known tokens byte-for-byte", func(t *testing.T) {
		template := "Narrate {{STORY_TITLE}} in a {{TONE_STYLE}} voice. Title again: {{STORY_TITLE}}."
		result := prompt.Compose(template, map[string]string{
			prompt.TokenStoryTitle: "The Hollow Crown",
			prompt.TokenToneStyle:  "grim",
		})

		assert.Equal(t, "Narrate The Hollow Crown in a grim voice. Title again: The Hollow Crown.", result)
		assert.NotContains(t, result, "{{STORY_TITLE}}")
	})

	t.Run("leaves unknown tokens verbatim", func(t *testing.T) {
		template := "Chapter {{CHAPTER_INDEX}} of {{STORY_TITLE}}"
		result := prompt.Compose(template, map[string]string{
			prompt.TokenStoryTitle: "Mist",
		})

		assert.Equal(t, "Chapter {{CHAPTER_INDEX}} of Mist", result)
	})

	t.Run("is a no-op on templates without tokens", func(t *testing.T) {
		template := "No placeholders here."
		assert.Equal(t, template, prompt.Compose(template, map[string]string{
			prompt.TokenStoryTitle: "ignored",
		}))
	})

	t.Run("substitutes empty replacement values", func(t *testing.T) {
		result := prompt.Compose("A{{STORY_AUTHOR}}B", map[string]string{
			prompt.TokenStoryAuthor: "",
		})
		assert.Equal(t, "AB", result)
	})
}

func TestComposeStrict(t *testing.T) {
	t.Run("passes when every token resolves", func(t *testing.T) {
		result, err := prompt.ComposeStrict("{{STORY_TITLE}}: {{GUARDRAILS}}", map[string]string{
			prompt.TokenStoryTitle: "Mist",
			prompt.TokenGuardrails: "- no gore",
		})
		require.NoError(t, err)
		assert.Equal(t, "Mist: - no gore", result)
	})

	t.Run("errors naming the unresolved tokens", func(t *testing.T) {
		_, err := prompt.ComposeStrict("{{STORY_TITLE}} {{TIME_FLAVOR}} {{TONE_STYLE}}", map[string]string{
			prompt.TokenStoryTitle: "Mist",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TIME_FLAVOR")
		assert.Contains(t, err.Error(), "TONE_STYLE")
	})
}

func TestUnresolvedTokens(t *testing.T) {
	tokens := prompt.UnresolvedTokens("{{B_TOKEN}} {{A_TOKEN}} {{B_TOKEN}} plain")
	assert.Equal(t, []string{"A_TOKEN", "B_TOKEN"}, tokens)

	assert.Nil(t, prompt.UnresolvedTokens("nothing to see"))
}

func TestFormatList(t *testing.T) {
	t.Run("bullets each item", func(t *testing.T) {
		out := prompt.FormatList([]string{"a storm rolls in", "the gate is barred"})
		assert.Equal(t, "- a storm rolls in\n- the gate is barred", out)
		assert.Equal(t, 2, strings.Count(out, "- "))
	})

	t.Run("empty list renders a placeholder", func(t *testing.T) {
		assert.Equal(t, "(none)", prompt.FormatList(nil))
	})
}
