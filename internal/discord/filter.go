package discord

import (
	"math/rand/v2"

	"github.com/soyeahso/guildboard/internal/domain"
)

// ApplyFilter keeps the messages satisfying every condition set on f. A nil
// filter keeps everything.
func ApplyFilter(msgs []domain.Message, f *domain.MessageFilter) []domain.Message {
	if f == nil {
		return msgs
	}
	kept := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		if matches(m, f) {
			kept = append(kept, m)
		}
	}
	return kept
}

func matches(m domain.Message, f *domain.MessageFilter) bool {
	if f.HasAttachments != nil && *f.HasAttachments && len(m.Attachments) == 0 {
		return false
	}
	if f.EmojiName != "" && !m.HasReaction(f.EmojiName) {
		return false
	}
	if f.AuthorID != "" && m.Author.ID != f.AuthorID {
		return false
	}
	return true
}

// Shuffle permutes msgs in place with a Fisher-Yates pass driven only by
// seed. The same input order and seed always give the same output order.
func Shuffle(msgs []domain.Message, seed uint64) {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := len(msgs) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
