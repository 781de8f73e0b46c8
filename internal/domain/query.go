package domain

// MessageFilter narrows a fetched batch. All set conditions must hold.
type MessageFilter struct {
	AuthorID       string `json:"authorId,omitempty"`
	EmojiName      string `json:"emojiName,omitempty"`
	HasAttachments *bool  `json:"hasAttachments,omitempty"`
}

// ChannelQuery selects a window of messages in one channel. At most one of
// Before, After and Around positions the window.
type ChannelQuery struct {
	ID      string         `json:"id"`
	Limit   int            `json:"limit,omitempty"`
	Before  string         `json:"before,omitempty"`
	After   string         `json:"after,omitempty"`
	Around  string         `json:"around,omitempty"`
	Filters *MessageFilter `json:"filters,omitempty"`
}

// MessageQuery is a multi-channel message request for one guild.
type MessageQuery struct {
	GuildID  string         `json:"guildId"`
	Channels []ChannelQuery `json:"channels"`
	Shuffle  bool           `json:"shuffle,omitempty"`
}
