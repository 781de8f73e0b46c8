package domain

import "time"

// AuthorSummary is the flattened author of a message.
type AuthorSummary struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	GlobalName    *string `json:"globalName,omitempty"`
	Discriminator string  `json:"discriminator"`
	AccentColor   *int    `json:"accentColor,omitempty"`
	AvatarURL     *string `json:"avatarURL,omitempty"`
}

// Attachment is a file attached to a message.
type Attachment struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Size        int64   `json:"size"`
	Width       *int    `json:"width,omitempty"`
	Height      *int    `json:"height,omitempty"`
	Description *string `json:"description,omitempty"`
	ContentType *string `json:"contentType,omitempty"`
}

// ReactionSummary is one distinct emoji on a message with its total count.
type ReactionSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"imageURL,omitempty"`
	Count    int     `json:"count"`
}

// Message is the normalized shape of a Discord channel message.
type Message struct {
	ID          string            `json:"id"`
	ChannelID   string            `json:"channelId"`
	Content     string            `json:"content"`
	Timestamp   time.Time         `json:"timestamp"`
	Author      AuthorSummary     `json:"author"`
	Attachments []Attachment      `json:"attachments"`
	Reactions   []ReactionSummary `json:"reactions"`
}

// HasReaction reports whether any reaction on the message is named exactly name.
func (m Message) HasReaction(name string) bool {
	for _, r := range m.Reactions {
		if r.Name == name {
			return true
		}
	}
	return false
}
