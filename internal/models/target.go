package models

// TargetKind discriminates which content entity an engagement points at.
type TargetKind string

const (
	TargetVideo   TargetKind = "video"
	TargetTweet   TargetKind = "tweet"
	TargetComment TargetKind = "comment"
)

// Valid reports whether the kind is one of the three recognized tags.
func (k TargetKind) Valid() bool {
	switch k {
	case TargetVideo, TargetTweet, TargetComment:
		return true
	}
	return false
}

// TargetRef is a tagged reference to exactly one content entity. Engagements
// carry a TargetRef internally even though the store persists it as three
// optional columns; construction goes through the engagement resolver, which
// guarantees a single populated arm.
type TargetRef struct {
	Kind TargetKind
	ID   string
}
