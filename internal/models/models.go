package models

import "time"

// User represents an account within the ClipTube platform. Password holds the
// bcrypt hash, never the plaintext. RefreshToken is the single active refresh
// credential for the account; an empty string means none is outstanding.
type User struct {
	ID           string
	Username     string
	Email        string
	Password     string
	FullName     string
	Avatar       string
	CoverImage   string
	WatchHistory []string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Redacted returns a copy of the user with credential material cleared,
// safe to attach to a request or serialize in a response.
func (u User) Redacted() User {
	u.Password = ""
	u.RefreshToken = ""
	return u
}

// Video is an uploaded video and its cached asset state.
type Video struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Thumbnail   string
	Duration    float64
	Views       int64
	CreatedAt   time.Time
	AssetURL    string
	AssetStatus string
	AssetSize   int64
}

const (
	AssetStatusPending = "pending"
	AssetStatusReady   = "ready"
	AssetStatusFailed  = "failed"
)

// Tweet is a short text post owned by a single account.
type Tweet struct {
	ID        string
	OwnerID   string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment attaches a piece of text to exactly one video or tweet.
type Comment struct {
	ID        string
	OwnerID   string
	Content   string
	Target    TargetRef
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Like records that an account liked exactly one video, tweet, or comment.
// The (OwnerID, Target) pair is unique.
type Like struct {
	ID        string
	OwnerID   string
	Target    TargetRef
	CreatedAt time.Time
}

// Subscription links a subscriber account to a channel account.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// TokenPair groups the signed credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
