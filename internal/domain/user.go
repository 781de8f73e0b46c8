package domain

import "time"

// Credentials are the OAuth tokens obtained at login. They are replaced
// wholesale on re-login and never mutated.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
	Scope        string `json:"scope"`
}

// Guild is a Discord server the user belongs to.
type Guild struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Icon     *string  `json:"icon,omitempty"`
	Owner    bool     `json:"owner"`
	Features []string `json:"features"`
}

// AccessWindow is the entitlement record for a username.
type AccessWindow struct {
	LastPayment *time.Time `json:"lastPayment,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Active reports whether the window grants access at t.
func (a AccessWindow) Active(t time.Time) bool {
	return a.DueDate != nil && !t.After(*a.DueDate)
}

// User is the logged-in Discord user with their owned guilds.
type User struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Email       *string      `json:"email,omitempty"`
	Avatar      *string      `json:"avatar,omitempty"`
	Guilds      []Guild      `json:"guilds"`
	Access      AccessWindow `json:"access"`
	Credentials *Credentials `json:"credentials,omitempty"`
}

// OwnedGuilds returns only the guilds the user owns, preserving order.
func OwnedGuilds(guilds []Guild) []Guild {
	owned := make([]Guild, 0, len(guilds))
	for _, g := range guilds {
		if g.Owner {
			owned = append(owned, g)
		}
	}
	return owned
}
