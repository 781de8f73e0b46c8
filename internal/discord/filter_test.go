package discord

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soyeahso/guildboard/internal/domain"
)

func boolPtr(b bool) *bool { return &b }

func filterFixture() []domain.Message {
	return []domain.Message{
		{ID: "1", Author: domain.AuthorSummary{ID: "a"}, Attachments: []domain.Attachment{{ID: "x"}},
			Reactions: []domain.ReactionSummary{{Name: "pog", Count: 1}}},
		{ID: "2", Author: domain.AuthorSummary{ID: "b"}, Attachments: []domain.Attachment{{ID: "y"}}},
		{ID: "3", Author: domain.AuthorSummary{ID: "a"},
			Reactions: []domain.ReactionSummary{{Name: "pog", Count: 2}}},
		{ID: "4", Author: domain.AuthorSummary{ID: "a"}, Attachments: []domain.Attachment{{ID: "z"}},
			Reactions: []domain.ReactionSummary{{Name: "Pog", Count: 1}}},
	}
}

func TestApplyFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter *domain.MessageFilter
		want   []string
	}{
		{"nil filter keeps all", nil, []string{"1", "2", "3", "4"}},
		{"empty filter keeps all", &domain.MessageFilter{}, []string{"1", "2", "3", "4"}},
		{"has attachments", &domain.MessageFilter{HasAttachments: boolPtr(true)}, []string{"1", "2", "4"}},
		{"has attachments false is no constraint", &domain.MessageFilter{HasAttachments: boolPtr(false)}, []string{"1", "2", "3", "4"}},
		{"emoji exact match", &domain.MessageFilter{EmojiName: "pog"}, []string{"1", "3"}},
		{"author", &domain.MessageFilter{AuthorID: "a"}, []string{"1", "3", "4"}},
		{"conditions are ANDed", &domain.MessageFilter{EmojiName: "pog", HasAttachments: boolPtr(true), AuthorID: "a"}, []string{"1"}},
		{"nothing matches", &domain.MessageFilter{AuthorID: "nobody"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilter(filterFixture(), tt.filter)
			assert.Equal(t, tt.want, messageIDs(got))
		})
	}
}

func numbered(n int) []domain.Message {
	msgs := make([]domain.Message, n)
	for i := range msgs {
		msgs[i].ID = strconv.Itoa(i)
	}
	return msgs
}

func TestShuffle_Deterministic(t *testing.T) {
	a, b := numbered(50), numbered(50)
	Shuffle(a, 7)
	Shuffle(b, 7)
	assert.Equal(t, messageIDs(a), messageIDs(b))
}

func TestShuffle_IsPermutation(t *testing.T) {
	msgs := numbered(50)
	Shuffle(msgs, 99)
	assert.ElementsMatch(t, messageIDs(numbered(50)), messageIDs(msgs))
}

func TestShuffle_SeedChangesOrder(t *testing.T) {
	a, b := numbered(50), numbered(50)
	Shuffle(a, 1)
	Shuffle(b, 2)
	assert.NotEqual(t, messageIDs(a), messageIDs(b))
}

func TestShuffle_SmallInputs(t *testing.T) {
	Shuffle(nil, 1)
	one := numbered(1)
	Shuffle(one, 1)
	assert.Equal(t, []string{"0"}, messageIDs(one))
}
