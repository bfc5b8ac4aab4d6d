// Package embedbuilder assembles rich Discord messages once and delivers
// them correctly wherever the request originated: a channel, a DM, a slash
// command interaction, a forum container or an edit of an earlier message.
//
// A Builder accumulates configuration through fluent setters; Send snapshots
// it into immutable values, resolves the origin into a delivery target and
// picks one of four strategies: edit, paginated, single or multi-message.
package embedbuilder

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Ypuf/EmbedBuilder/chunk"
	"github.com/Ypuf/EmbedBuilder/internal/logging"
)

// Builder accumulates message configuration. It is not safe for concurrent
// use; each Send call owns its own snapshot, so independent sends from
// separate builders may run concurrently.
type Builder struct {
	session Session
	origin  Origin
	logger  *slog.Logger

	cfg      MessageConfig
	opts     DeliveryOptions
	thread   ThreadConfig
	timezone string
	filePath string

	paginate        bool
	paginateTimeout time.Duration
	pages           []Page
	pager           *Paginator
}

// New creates a Builder that sends through session on behalf of origin.
func New(session Session, origin Origin) *Builder {
	return &Builder{
		session: session,
		origin:  origin,
		logger:  logging.Discard(),
		opts: DeliveryOptions{
			Reply:       true,
			MaxSegments: DefaultMaxSegments,
		},
	}
}

// WithLogger sets the logger used for delivery and pagination events.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) SetTitle(title string) *Builder {
	b.cfg.Title = title
	return b
}

func (b *Builder) SetDescription(description string) *Builder {
	b.cfg.Description = description
	return b
}

func (b *Builder) SetColor(color int) *Builder {
	b.cfg.Color = color
	return b
}

// SetColour is an alias for SetColor.
func (b *Builder) SetColour(colour int) *Builder {
	return b.SetColor(colour)
}

func (b *Builder) SetURL(url string) *Builder {
	b.cfg.URL = url
	return b
}

func (b *Builder) SetTimestamp(ts time.Time) *Builder {
	b.cfg.Timestamp = ts
	return b
}

// SetTimestampNow stamps the embed with the current time.
func (b *Builder) SetTimestampNow() *Builder {
	return b.SetTimestamp(time.Now())
}

func (b *Builder) SetAuthor(name, iconURL, url string) *Builder {
	b.cfg.AuthorName = name
	b.cfg.AuthorIconURL = iconURL
	b.cfg.AuthorURL = url
	return b
}

func (b *Builder) SetFooter(text, iconURL string) *Builder {
	b.cfg.FooterText = text
	b.cfg.FooterIconURL = iconURL
	return b
}

func (b *Builder) SetThumbnail(url string) *Builder {
	b.cfg.ThumbnailURL = url
	return b
}

func (b *Builder) SetImage(url string) *Builder {
	b.cfg.ImageURL = url
	return b
}

func (b *Builder) AddField(name, value string, inline bool) *Builder {
	b.cfg.Fields = append(b.cfg.Fields, Field{Name: name, Value: value, Inline: inline})
	return b
}

func (b *Builder) AddFields(fields ...Field) *Builder {
	b.cfg.Fields = append(b.cfg.Fields, fields...)
	return b
}

// SetTimezone sets the IANA zone the embed timestamp is rendered in.
// Validated at Send time.
func (b *Builder) SetTimezone(tz string) *Builder {
	b.timezone = tz
	return b
}

// EnableGradientColors tints each segment of a multi-message body
// progressively lighter than the base color.
func (b *Builder) EnableGradientColors() *Builder {
	b.cfg.Gradient = true
	return b
}

// SetContent sets the plain-text content sent above the embed.
func (b *Builder) SetContent(content string) *Builder {
	b.opts.Content = content
	return b
}

func (b *Builder) AddFile(file *discordgo.File) *Builder {
	b.opts.Files = append(b.opts.Files, file)
	return b
}

// SetFilePath attaches a local file. The path must reference a readable
// file; it is read synchronously during validation, before any network call.
func (b *Builder) SetFilePath(path string) *Builder {
	b.filePath = path
	return b
}

// SetReply controls whether a message origin is replied to rather than just
// written after. On by default.
func (b *Builder) SetReply(reply bool) *Builder {
	b.opts.Reply = reply
	return b
}

// SetEphemeral makes interaction responses visible only to the invoking
// user. Ignored for non-interaction targets.
func (b *Builder) SetEphemeral(ephemeral bool) *Builder {
	b.opts.Ephemeral = ephemeral
	return b
}

// SetDeleteAfter deletes every sent message after d. Ephemeral responses are
// exempt. The deletion timers run inside the calling process; a process that
// exits before d elapses never issues the deletions.
func (b *Builder) SetDeleteAfter(d time.Duration) *Builder {
	b.opts.DeleteAfter = d
	return b
}

func (b *Builder) SetAllowedMentions(m *discordgo.MessageAllowedMentions) *Builder {
	b.opts.AllowedMentions = m
	return b
}

// SetMaxSegments caps how many messages a long description may fan out
// into. Defaults to DefaultMaxSegments.
func (b *Builder) SetMaxSegments(n int) *Builder {
	b.opts.MaxSegments = n
	return b
}

// SetOverflowPolicy decides between truncating text that exceeds the
// segment budget (the default) and failing the send.
func (b *Builder) SetOverflowPolicy(p OverflowPolicy) *Builder {
	b.opts.Overflow = p
	return b
}

// EditMessage delivers by editing msg instead of sending anything new.
// Mutually exclusive with pagination.
func (b *Builder) EditMessage(msg *discordgo.Message) *Builder {
	b.opts.EditTarget = msg
	return b
}

// CreateThread starts a thread named name from the primary sent message.
// autoArchiveMinutes of 0 means one day.
func (b *Builder) CreateThread(name string, autoArchiveMinutes int) *Builder {
	b.thread = ThreadConfig{Create: true, Name: name, AutoArchiveMinutes: autoArchiveMinutes}
	return b
}

// CreateForumThread creates a thread in a forum channel origin and delivers
// into it. starterContent seeds the thread's required first message.
func (b *Builder) CreateForumThread(name, starterContent string) *Builder {
	b.thread = ThreadConfig{Create: true, Forum: true, Name: name, StarterContent: starterContent}
	return b
}

// EnablePagination switches delivery to a single interactive message with
// navigation controls. The controls expire after timeout without any
// interaction; each navigation starts the countdown over. A timeout of 0
// means DefaultPaginationTimeout.
func (b *Builder) EnablePagination(timeout time.Duration) *Builder {
	b.paginate = true
	b.paginateTimeout = timeout
	return b
}

// AddPage appends a pre-rendered page for paginated delivery.
func (b *Builder) AddPage(page Page) *Builder {
	b.pages = append(b.pages, page)
	return b
}

// Paginator returns the controller created by a paginated Send, or nil
// before one.
func (b *Builder) Paginator() *Paginator {
	return b.pager
}

// Send validates the accumulated configuration, resolves the origin into a
// delivery target (at most once per call) and dispatches. It returns the
// sent message handles in send order. A failure partway through a
// multi-segment delivery returns the handles sent so far with the error;
// nothing is rolled back.
func (b *Builder) Send(ctx context.Context) ([]*discordgo.Message, error) {
	cfg := b.cfg
	cfg.Fields = slices.Clone(b.cfg.Fields)
	opts := b.opts
	opts.Files = slices.Clone(b.opts.Files)

	if err := b.validate(&cfg, &opts); err != nil {
		return nil, err
	}

	target, err := resolveTarget(ctx, b.session, b.origin, b.thread, opts, b.logger)
	if err != nil {
		return nil, err
	}

	if b.paginate {
		b.pager = newPaginator(b.session, cfg, slices.Clone(b.pages), b.paginateTimeout, b.logger)
		return dispatchPaginated(ctx, b.session, target, opts, b.pager, b.logger)
	}

	segments, truncated, err := segmentDescription(cfg.Description, opts)
	if err != nil {
		return nil, err
	}
	if truncated && opts.Overflow == OverflowError {
		return nil, validationErrf("description does not fit in %d segments of %d", opts.MaxSegments, MaxDescriptionLen)
	}
	return dispatch(ctx, b.session, target, cfg, opts, b.thread, segments, b.logger)
}

// segmentDescription chunks the description only when it exceeds a single
// embed; short and empty descriptions stay a single segment.
func segmentDescription(desc string, opts DeliveryOptions) ([]string, bool, error) {
	if len(desc) <= MaxDescriptionLen {
		return []string{desc}, false, nil
	}
	return chunk.Split(desc, MaxDescriptionLen, opts.MaxSegments)
}

// validate enforces platform limits and reads the attachment before any
// network effect. It also finalizes snapshot fields that need parsing.
func (b *Builder) validate(cfg *MessageConfig, opts *DeliveryOptions) error {
	if cfg.AuthorName == "" {
		return &ValidationError{Reason: "author name must be non-empty"}
	}
	if len(cfg.Title) > MaxTitleLen {
		return validationErrf("title length %d exceeds limit of %d", len(cfg.Title), MaxTitleLen)
	}
	if len(cfg.Fields) > MaxFields {
		return validationErrf("%d fields exceed limit of %d", len(cfg.Fields), MaxFields)
	}
	for i, f := range cfg.Fields {
		if f.Name == "" {
			return validationErrf("field %d has an empty name", i)
		}
		if len(f.Name) > MaxFieldNameLen {
			return validationErrf("field %d name length %d exceeds limit of %d", i, len(f.Name), MaxFieldNameLen)
		}
		if len(f.Value) > MaxFieldValueLen {
			return validationErrf("field %d value length %d exceeds limit of %d", i, len(f.Value), MaxFieldValueLen)
		}
	}
	if b.timezone != "" {
		loc, err := time.LoadLocation(b.timezone)
		if err != nil {
			return validationErrf("invalid timezone %q", b.timezone)
		}
		cfg.Location = loc
	}
	if b.filePath != "" {
		data, err := os.ReadFile(b.filePath)
		if err != nil {
			return validationErrf("attachment %q is not readable: %v", b.filePath, err)
		}
		opts.Files = append(opts.Files, &discordgo.File{
			Name:   filepath.Base(b.filePath),
			Reader: bytes.NewReader(data),
		})
	}
	if b.paginate {
		if len(b.pages) == 0 {
			return &ValidationError{Reason: "pagination enabled with no pages"}
		}
		if opts.EditTarget != nil {
			return &ValidationError{Reason: "cannot paginate a message edit"}
		}
	}
	if opts.MaxSegments < 1 {
		opts.MaxSegments = DefaultMaxSegments
	}
	return nil
}
