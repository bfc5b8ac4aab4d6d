package embedbuilder

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Discord platform limits enforced before dispatch.
const (
	MaxTitleLen       = 256
	MaxDescriptionLen = 4096
	MaxFieldNameLen   = 256
	MaxFieldValueLen  = 1024
	MaxFields         = 25
)

const (
	// DefaultColor is Discord blurple, used when no color is set.
	DefaultColor = 0x7289DA

	// DefaultMaxSegments caps how many messages a long description may
	// fan out into.
	DefaultMaxSegments = 10

	// DefaultPaginationTimeout is how long navigation controls stay live
	// without interaction.
	DefaultPaginationTimeout = 3 * time.Minute

	// DefaultAutoArchiveMinutes is the auto-archive duration for created
	// threads (one day).
	DefaultAutoArchiveMinutes = 1440
)

// Field is one name/value pair on an embed.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// MessageConfig is the immutable snapshot of the rich message body taken at
// Send time.
type MessageConfig struct {
	Title         string
	Description   string
	Color         int
	URL           string
	Timestamp     time.Time
	AuthorName    string
	AuthorIconURL string
	AuthorURL     string
	FooterText    string
	FooterIconURL string
	ThumbnailURL  string
	ImageURL      string
	Fields        []Field
	Gradient      bool
	Location      *time.Location
}

func (c MessageConfig) baseColor() int {
	if c.Color != 0 {
		return c.Color
	}
	return DefaultColor
}

// timestampString renders the configured timestamp for the wire, applying
// the configured timezone when one is set.
func (c MessageConfig) timestampString() string {
	if c.Timestamp.IsZero() {
		return ""
	}
	ts := c.Timestamp
	if c.Location != nil {
		ts = ts.In(c.Location)
	}
	return ts.Format(time.RFC3339)
}

// OverflowPolicy decides what happens when a chunked description does not
// fit within the segment budget.
type OverflowPolicy int

const (
	// OverflowTruncate folds the excess into the last segment, cut at the
	// size limit. Lossy.
	OverflowTruncate OverflowPolicy = iota
	// OverflowError fails the send instead of dropping text.
	OverflowError
)

// DeliveryOptions is the immutable snapshot of how a message is delivered,
// separate from its rich body.
type DeliveryOptions struct {
	Content         string
	Files           []*discordgo.File
	Reply           bool
	Ephemeral       bool
	DeleteAfter     time.Duration
	AllowedMentions *discordgo.MessageAllowedMentions
	MaxSegments     int
	Overflow        OverflowPolicy
	EditTarget      *discordgo.Message
}

// ThreadConfig carries the caller's thread-creation intent. Forum threads
// are created during resolution; regular threads are started from the
// primary message after it is sent.
type ThreadConfig struct {
	Create             bool
	Forum              bool
	Name               string
	AutoArchiveMinutes int
	StarterContent     string
}

func (t ThreadConfig) autoArchiveOrDefault() int {
	if t.AutoArchiveMinutes > 0 {
		return t.AutoArchiveMinutes
	}
	return DefaultAutoArchiveMinutes
}
