package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StoryStatus is the catalog lifecycle state of a story.
type StoryStatus string

const (
	StoryStatusDraft     StoryStatus = "draft"
	StoryStatusPublished StoryStatus = "published"
)

// StoryCharacter is a named figure attached to a story.
type StoryCharacter struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// StoryRole is a narrative role characters can be cast into (hero, villain,
// side, ...).
type StoryRole struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// CastEntry maps one character to one or more narrative roles.
type CastEntry struct {
	CharacterID string   `json:"characterId"`
	RoleIDs     []string `json:"roleIds"`
}

// Story is a catalog entry: a prompt template with its interpolation material
// plus the character/role cast and the per-chapter price.
type Story struct {
	ID             uuid.UUID        `json:"id"`
	Title          string           `json:"title"`
	Author         string           `json:"author"`
	Description    string           `json:"description"`
	Template       string           `json:"template"`
	OpeningBeats   []string         `json:"openingBeats"`
	Guardrails     []string         `json:"guardrails"`
	Characters     []StoryCharacter `json:"characters"`
	Roles          []StoryRole      `json:"roles"`
	Cast           []CastEntry      `json:"cast"`
	CostPerChapter int64            `json:"costPerChapter"`
	Status         StoryStatus      `json:"status"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// IsPublished reports whether players may start sessions on the story.
func (s *Story) IsPublished() bool {
	return s.Status == StoryStatusPublished
}

// ValidateCast checks that every cast entry references a character and roles
// declared on the story itself.
func (s *Story) ValidateCast() error {
	characterIDs := make(map[string]struct{}, len(s.Characters))
	for _, c := range s.Characters {
		characterIDs[c.ID] = struct{}{}
	}
	roleIDs := make(map[string]struct{}, len(s.Roles))
	for _, r := range s.Roles {
		roleIDs[r.ID] = struct{}{}
	}

	for _, entry := range s.Cast {
		if _, ok := characterIDs[entry.CharacterID]; !ok {
			return fmt.Errorf("%w: unknown character %q", ErrInvalidCast, entry.CharacterID)
		}
		if len(entry.RoleIDs) == 0 {
			return fmt.Errorf("%w: character %q has no roles", ErrInvalidCast, entry.CharacterID)
		}
		for _, roleID := range entry.RoleIDs {
			if _, ok := roleIDs[roleID]; !ok {
				return fmt.Errorf("%w: unknown role %q for character %q", ErrInvalidCast, roleID, entry.CharacterID)
			}
		}
	}
	return nil
}

// MarshalCast serializes the cast columns for storage as jsonb.
func (s *Story) MarshalCast() (characters, roles, cast []byte, err error) {
	if characters, err = json.Marshal(s.Characters); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal characters: %w", err)
	}
	if roles, err = json.Marshal(s.Roles); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal roles: %w", err)
	}
	if cast, err = json.Marshal(s.Cast); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal cast: %w", err)
	}
	return characters, roles, cast, nil
}

// UnmarshalCast restores the cast columns read back from jsonb. Null columns
// leave the slices empty.
func (s *Story) UnmarshalCast(characters, roles, cast []byte) error {
	s.Characters = nil
	s.Roles = nil
	s.Cast = nil
	if len(characters) > 0 {
		if err := json.Unmarshal(characters, &s.Characters); err != nil {
			return fmt.Errorf("failed to unmarshal characters: %w", err)
		}
	}
	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &s.Roles); err != nil {
			return fmt.Errorf("failed to unmarshal roles: %w", err)
		}
	}
	if len(cast) > 0 {
		if err := json.Unmarshal(cast, &s.Cast); err != nil {
			return fmt.Errorf("failed to unmarshal cast: %w", err)
		}
	}
	return nil
}
