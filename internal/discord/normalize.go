package discord

import (
	"github.com/soyeahso/guildboard/internal/domain"
)

// normalize converts a raw Discord message into the front-end shape.
func normalize(m wireMessage) domain.Message {
	attachments := make([]domain.Attachment, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, domain.Attachment{
			ID:          a.ID,
			URL:         a.URL,
			Size:        a.Size,
			Width:       a.Width,
			Height:      a.Height,
			Description: a.Description,
			ContentType: a.ContentType,
		})
	}

	return domain.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
		Author: domain.AuthorSummary{
			ID:            m.Author.ID,
			Username:      m.Author.Username,
			GlobalName:    m.Author.GlobalName,
			Discriminator: m.Author.Discriminator,
			AccentColor:   m.Author.AccentColor,
			AvatarURL:     avatarURL(m.Author.ID, m.Author.Avatar),
		},
		Attachments: attachments,
		Reactions:   collapseReactions(m.Reactions),
	}
}

// collapseReactions merges reactions into one entry per distinct emoji,
// keyed by id for custom emoji and by name for unicode emoji. First-seen
// order is kept.
func collapseReactions(reactions []wireReaction) []domain.ReactionSummary {
	out := make([]domain.ReactionSummary, 0, len(reactions))
	index := make(map[string]int, len(reactions))

	for _, r := range reactions {
		var id, name string
		if r.Emoji.ID != nil {
			id = *r.Emoji.ID
		}
		if r.Emoji.Name != nil {
			name = *r.Emoji.Name
		}

		key := id
		if key == "" {
			key = name
		}
		if key == "" {
			continue
		}
		if name == "" {
			name = id
		}

		if i, ok := index[key]; ok {
			out[i].Count += r.Count
			continue
		}

		summary := domain.ReactionSummary{ID: key, Name: name, Count: r.Count}
		if id != "" {
			u := emojiURL(id, r.Emoji.Animated)
			summary.ImageURL = &u
		}
		index[key] = len(out)
		out = append(out, summary)
	}
	return out
}
