package pdb

// Tokens is the credential triple issued by the identity provider.
// ExpireAt is a millisecond epoch, matching the provider's wire format.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpireAt     int64  `json:"expireAt"`
}

// OTPResult is the response to a send-digits request.
type OTPResult struct {
	Email     string `json:"email"`
	IsNewUser bool   `json:"isNewUser"`
}

// LoginResult bundles the tokens and account returned by an OTP login.
type LoginResult struct {
	Tokens
	User           AccountInfo `json:"user"`
	IsNewUser      bool        `json:"isNewUser"`
	NeedReactivate bool        `json:"needReactivate"`
}

type AccountInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// UserInfo is the chat identity of the current user: the Stream credentials
// the transport connects with.
type UserInfo struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	ChatToken  string    `json:"token"`
	ChatAPIKey string    `json:"apiKey"`
	Image      UserImage `json:"image"`
}

type UserImage struct {
	PicURL string `json:"picURL"`
}

// ChatInfo describes a direct chat channel with another user.
type ChatInfo struct {
	ID              string       `json:"id"`
	APIKey          string       `json:"apiKey"`
	Token           string       `json:"token"`
	ChatChannelInfo *ChannelInfo `json:"chatChannelInfo"`
}

type ChannelInfo struct {
	ChannelID   string `json:"channelID"`
	ChannelType string `json:"channelType"`
}

// WSToken carries realtime endpoint credentials.
type WSToken struct {
	Server string `json:"server"`
	Token  string `json:"token"`
}
