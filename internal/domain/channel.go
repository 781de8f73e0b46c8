package domain

// MaxChannelType is the highest Discord channel type accepted in queries.
const MaxChannelType = 16

// Discord channel types used by the front end.
const (
	ChannelTypeGuildText  = 0
	ChannelTypeGuildVoice = 2
	ChannelTypeCategory   = 4
	ChannelTypeNews       = 5
	ChannelTypeForum      = 15
	ChannelTypeMedia      = 16
)

// Channel is a guild channel.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type int    `json:"type"`
	URL  string `json:"url"`
}

// Emoji is a custom guild emoji.
type Emoji struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageURL"`
}
