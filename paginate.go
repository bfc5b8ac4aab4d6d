package embedbuilder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// Page is one fully rendered screen of a paginated message. Zero-value
// fields inherit from the builder's configuration.
type Page struct {
	Title        string
	Description  string
	Color        int
	Fields       []Field
	ImageURL     string
	ThumbnailURL string
	FooterText   string
}

// PaginatorState tracks the controller lifecycle.
type PaginatorState int

const (
	// PaginatorIdle means no interactive message has been sent yet.
	PaginatorIdle PaginatorState = iota
	// PaginatorBound means the controller is attached to a sent message.
	PaginatorBound
	// PaginatorExpired is terminal: the timeout elapsed or the controls
	// were closed.
	PaginatorExpired
)

const (
	actionFirst = "first"
	actionPrev  = "prev"
	actionNext  = "next"
	actionLast  = "last"
	actionStop  = "stop"
)

// ErrPaginatorExpired is returned by navigation on an expired controller.
var ErrPaginatorExpired = errors.New("embedbuilder: paginator expired")

// Paginator owns an ordered list of pages and the current index. All
// navigation, programmatic or component-driven, is serialized by one mutex
// so near-simultaneous clicks cannot race the index. Navigation at a
// boundary is a no-op that still succeeds.
type Paginator struct {
	id      string
	session Session
	logger  *slog.Logger
	cfg     MessageConfig
	timeout time.Duration

	mu      sync.Mutex
	pages   []Page
	index   int
	state   PaginatorState
	message *discordgo.Message
	timer   *time.Timer
}

func newPaginator(session Session, cfg MessageConfig, pages []Page, timeout time.Duration, logger *slog.Logger) *Paginator {
	if timeout <= 0 {
		timeout = DefaultPaginationTimeout
	}
	return &Paginator{
		id:      uuid.NewString(),
		session: session,
		logger:  logger,
		cfg:     cfg,
		timeout: timeout,
		pages:   pages,
	}
}

// CurrentIndex returns the 0-based index of the displayed page.
func (p *Paginator) CurrentIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// PageCount returns the number of pages.
func (p *Paginator) PageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pages)
}

// State returns the controller lifecycle state.
func (p *Paginator) State() PaginatorState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Next advances one page; a no-op at the last page.
func (p *Paginator) Next() error { return p.navigate(actionNext) }

// Previous goes back one page; a no-op at the first page.
func (p *Paginator) Previous() error { return p.navigate(actionPrev) }

// First jumps to the first page.
func (p *Paginator) First() error { return p.navigate(actionFirst) }

// Last jumps to the last page.
func (p *Paginator) Last() error { return p.navigate(actionLast) }

func (p *Paginator) navigate(action string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PaginatorExpired {
		return ErrPaginatorExpired
	}
	p.touchLocked()
	next := p.moveFor(action)
	if next == p.index {
		return nil
	}
	p.index = next
	return p.refreshLocked()
}

// moveFor clamps the index movement for action; wrap-around is disallowed.
func (p *Paginator) moveFor(action string) int {
	last := len(p.pages) - 1
	switch action {
	case actionFirst:
		return 0
	case actionPrev:
		return max(p.index-1, 0)
	case actionNext:
		return min(p.index+1, last)
	case actionLast:
		return last
	}
	return p.index
}

// AddPage appends a page; valid while Idle or Bound.
func (p *Paginator) AddPage(page Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PaginatorExpired {
		return ErrPaginatorExpired
	}
	p.pages = append(p.pages, page)
	return p.refreshLocked()
}

// RemovePage deletes the page at index. If the current index now exceeds
// the last page it is clamped to it.
func (p *Paginator) RemovePage(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PaginatorExpired {
		return ErrPaginatorExpired
	}
	if index < 0 || index >= len(p.pages) {
		return fmt.Errorf("embedbuilder: page index %d out of range", index)
	}
	if len(p.pages) == 1 {
		return errors.New("embedbuilder: cannot remove the only page")
	}
	p.pages = append(p.pages[:index], p.pages[index+1:]...)
	if p.index > len(p.pages)-1 {
		p.index = len(p.pages) - 1
	}
	return p.refreshLocked()
}

// Close explicitly ends pagination and disables the controls. Terminal.
func (p *Paginator) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expireLocked("closed")
}

// HandleInteraction processes a navigation button press belonging to this
// paginator and reports whether the interaction was consumed. Boundary
// presses and presses after expiry are acknowledged without a content
// change so the client never shows a stuck loading state. Register it from
// a discordgo component handler:
//
//	session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
//		pager.HandleInteraction(i)
//	})
func (p *Paginator) HandleInteraction(i *discordgo.InteractionCreate) bool {
	if i.Type != discordgo.InteractionMessageComponent {
		return false
	}
	action, ok := p.parseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != PaginatorBound {
		p.acknowledge(i.Interaction)
		return true
	}
	p.touchLocked()

	if action == actionStop {
		p.acknowledge(i.Interaction)
		p.expireLocked("stopped")
		return true
	}

	next := p.moveFor(action)
	if next == p.index {
		p.acknowledge(i.Interaction)
		return true
	}
	p.index = next

	err := p.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{p.renderPage(p.index)},
			Components: p.components(),
		},
	})
	if err != nil {
		p.logger.Error("pagination update failed", "error", err, "paginator_id", p.id)
	}
	return true
}

// acknowledge resolves a component interaction without changing the message.
func (p *Paginator) acknowledge(i *discordgo.Interaction) {
	err := p.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		p.logger.Error("pagination ack failed", "error", err, "paginator_id", p.id)
	}
}

// touchLocked pushes the expiry deadline out to a full timeout from now.
// Called on every navigation so the controller only expires after a quiet
// period, not at a fixed point after binding.
func (p *Paginator) touchLocked() {
	if p.state == PaginatorBound && p.timer != nil {
		p.timer.Reset(p.timeout)
	}
}

// bind attaches the controller to its sent message and arms the expiry
// timer. Expiry is passive: it only disables further navigation.
func (p *Paginator) bind(msg *discordgo.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.message = msg
	p.state = PaginatorBound
	p.timer = time.AfterFunc(p.timeout, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.expireLocked("timeout")
	})
}

func (p *Paginator) expireLocked(reason string) {
	if p.state != PaginatorBound {
		return
	}
	p.state = PaginatorExpired
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	embeds := []*discordgo.MessageEmbed{p.renderPage(p.index)}
	components := p.components()
	edit := discordgo.NewMessageEdit(p.message.ChannelID, p.message.ID)
	edit.Embeds = &embeds
	edit.Components = &components
	if _, err := p.session.ChannelMessageEditComplex(edit); err != nil {
		p.logger.Error("disabling pagination controls", "error", err, "message_id", p.message.ID)
	}
	p.logger.Info("pagination ended", "reason", reason, "message_id", p.message.ID)
}

// refreshLocked pushes the current page to the bound message. Before
// binding it is a no-op so pages can be staged freely.
func (p *Paginator) refreshLocked() error {
	if p.state != PaginatorBound {
		return nil
	}
	embeds := []*discordgo.MessageEmbed{p.renderPage(p.index)}
	components := p.components()
	edit := discordgo.NewMessageEdit(p.message.ChannelID, p.message.ID)
	edit.Embeds = &embeds
	edit.Components = &components
	if _, err := p.session.ChannelMessageEditComplex(edit); err != nil {
		return fmt.Errorf("update paginated message: %w", err)
	}
	return nil
}

// renderPage builds the embed for page i, filling unset page fields from
// the builder configuration and stamping a position footer.
func (p *Paginator) renderPage(i int) *discordgo.MessageEmbed {
	page := p.pages[i]
	cfg := p.cfg

	color := page.Color
	if color == 0 {
		color = cfg.baseColor()
	}
	title := page.Title
	if title == "" {
		title = cfg.Title
	}
	e := &discordgo.MessageEmbed{
		Title:       title,
		Description: page.Description,
		Color:       color,
		URL:         cfg.URL,
	}
	if cfg.AuthorName != "" {
		e.Author = &discordgo.MessageEmbedAuthor{
			Name:    cfg.AuthorName,
			IconURL: cfg.AuthorIconURL,
			URL:     cfg.AuthorURL,
		}
	}
	for _, f := range page.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if page.ThumbnailURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: page.ThumbnailURL}
	}
	if page.ImageURL != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: page.ImageURL}
	}
	footer := page.FooterText
	if footer == "" {
		footer = fmt.Sprintf("Page %d/%d", i+1, len(p.pages))
	}
	e.Footer = &discordgo.MessageEmbedFooter{Text: footer, IconURL: cfg.FooterIconURL}
	return e
}

// components builds the navigation row. Single-page paginations carry no
// controls; expired ones carry disabled controls.
func (p *Paginator) components() []discordgo.MessageComponent {
	if len(p.pages) < 2 {
		return nil
	}
	atFirst := p.index == 0
	atLast := p.index == len(p.pages)-1
	expired := p.state == PaginatorExpired

	btn := func(label, action string, style discordgo.ButtonStyle, disabled bool) discordgo.Button {
		return discordgo.Button{
			Label:    label,
			Style:    style,
			CustomID: p.customID(action),
			Disabled: disabled || expired,
		}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			btn("First", actionFirst, discordgo.SecondaryButton, atFirst),
			btn("Prev", actionPrev, discordgo.SecondaryButton, atFirst),
			btn("Next", actionNext, discordgo.SecondaryButton, atLast),
			btn("Last", actionLast, discordgo.SecondaryButton, atLast),
			btn("Stop", actionStop, discordgo.DangerButton, false),
		}},
	}
}

func (p *Paginator) customID(action string) string {
	return "pager:" + p.id + ":" + action
}

func (p *Paginator) parseCustomID(customID string) (action string, ok bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != "pager" || parts[1] != p.id {
		return "", false
	}
	return parts[2], true
}

// dispatchPaginated sends the current page with navigation controls through
// the target's primitive and binds the controller to the sent message.
func dispatchPaginated(ctx context.Context, s Session, target *ResolvedTarget, opts DeliveryOptions, pager *Paginator, logger *slog.Logger) ([]*discordgo.Message, error) {
	pager.mu.Lock()
	embed := pager.renderPage(pager.index)
	components := pager.components()
	pager.mu.Unlock()

	var msg *discordgo.Message
	var err error
	switch target.Kind {
	case TargetInteractionInitial:
		data := &discordgo.InteractionResponseData{
			Content:         opts.Content,
			Embeds:          []*discordgo.MessageEmbed{embed},
			Components:      components,
			AllowedMentions: opts.AllowedMentions,
		}
		if opts.Ephemeral {
			data.Flags = discordgo.MessageFlagsEphemeral
		}
		err = s.InteractionRespond(target.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		})
		if err != nil {
			return nil, fmt.Errorf("interaction respond: %w", err)
		}
		msg, err = s.InteractionResponse(target.Interaction)
		if err != nil {
			return nil, fmt.Errorf("fetch interaction response: %w", err)
		}

	case TargetInteractionFollowup:
		params := &discordgo.WebhookParams{
			Content:         opts.Content,
			Embeds:          []*discordgo.MessageEmbed{embed},
			Components:      components,
			AllowedMentions: opts.AllowedMentions,
		}
		if opts.Ephemeral {
			params.Flags = discordgo.MessageFlagsEphemeral
		}
		msg, err = s.FollowupMessageCreate(target.Interaction, true, params)
		if err != nil {
			return nil, fmt.Errorf("followup create: %w", err)
		}

	default:
		msg, err = s.ChannelMessageSendComplex(target.ChannelID, &discordgo.MessageSend{
			Content:         opts.Content,
			Embeds:          []*discordgo.MessageEmbed{embed},
			Components:      components,
			AllowedMentions: opts.AllowedMentions,
			Reference:       target.ReplyTo,
		})
		if err != nil {
			return nil, fmt.Errorf("send message: %w", err)
		}
	}

	pager.bind(msg)
	logger.InfoContext(ctx, "paginated message sent", "pages", pager.PageCount(), "message_id", msg.ID)
	return []*discordgo.Message{msg}, nil
}
