package embedbuilder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

type originKind int

const (
	originNone originKind = iota
	originChannel
	originInteraction
	originMessage
	originUser
)

// Origin is the caller-supplied reference a destination is derived from.
// Construct one with ChannelOrigin, InteractionOrigin, MessageOrigin or
// UserOrigin; the zero value resolves to nothing.
type Origin struct {
	kind        originKind
	channel     *discordgo.Channel
	interaction *discordgo.Interaction
	message     *discordgo.Message
	user        *discordgo.User
	responded   bool
}

// ChannelOrigin wraps a channel of any type, including DMs, threads and
// forum containers.
func ChannelOrigin(ch *discordgo.Channel) Origin {
	return Origin{kind: originChannel, channel: ch}
}

// InteractionOrigin wraps an interaction. responded reports whether the
// interaction's single initial response has already been used; it is
// threaded explicitly so two independent sends for the same interaction
// cannot interfere through hidden state.
func InteractionOrigin(i *discordgo.Interaction, responded bool) Origin {
	return Origin{kind: originInteraction, interaction: i, responded: responded}
}

// MessageOrigin wraps a message; delivery goes to its parent channel,
// replying to it when the reply option is on.
func MessageOrigin(m *discordgo.Message) Origin {
	return Origin{kind: originMessage, message: m}
}

// UserOrigin wraps a user; delivery goes to their DM channel.
func UserOrigin(u *discordgo.User) Origin {
	return Origin{kind: originUser, user: u}
}

// TargetKind tags a ResolvedTarget variant.
type TargetKind int

const (
	TargetChannel TargetKind = iota
	TargetDM
	TargetThread
	TargetInteractionInitial
	TargetInteractionFollowup
	TargetEdit
)

// ResolvedTarget is the canonical delivery contract every origin shape
// normalizes into. It is produced once per Send and never mutated.
type ResolvedTarget struct {
	Kind          TargetKind
	ChannelID     string
	Interaction   *discordgo.Interaction
	EditChannelID string
	EditMessageID string
	ReplyTo       *discordgo.MessageReference
}

// resolveTarget classifies origin into a ResolvedTarget. An edit target
// short-circuits everything else; forum thread creation is the only side
// effect and happens at most once per call.
func resolveTarget(ctx context.Context, s Session, origin Origin, thread ThreadConfig, opts DeliveryOptions, logger *slog.Logger) (*ResolvedTarget, error) {
	if opts.EditTarget != nil {
		return &ResolvedTarget{
			Kind:          TargetEdit,
			EditChannelID: opts.EditTarget.ChannelID,
			EditMessageID: opts.EditTarget.ID,
		}, nil
	}

	switch origin.kind {
	case originInteraction:
		kind := TargetInteractionInitial
		if origin.responded {
			kind = TargetInteractionFollowup
		}
		return &ResolvedTarget{
			Kind:        kind,
			ChannelID:   origin.interaction.ChannelID,
			Interaction: origin.interaction,
		}, nil

	case originChannel:
		return resolveChannel(ctx, s, origin.channel, thread, logger)

	case originMessage:
		m := origin.message
		if m.ChannelID == "" {
			return nil, &ResolutionError{Reason: "message has no parent channel"}
		}
		t := &ResolvedTarget{Kind: TargetChannel, ChannelID: m.ChannelID}
		if opts.Reply {
			t.ReplyTo = &discordgo.MessageReference{
				MessageID: m.ID,
				ChannelID: m.ChannelID,
				GuildID:   m.GuildID,
			}
		}
		return t, nil

	case originUser:
		ch, err := s.UserChannelCreate(origin.user.ID)
		if err != nil {
			return nil, fmt.Errorf("create dm channel: %w", err)
		}
		return &ResolvedTarget{Kind: TargetDM, ChannelID: ch.ID}, nil
	}

	return nil, &ResolutionError{Reason: "no destination can be derived from origin"}
}

func resolveChannel(ctx context.Context, s Session, ch *discordgo.Channel, thread ThreadConfig, logger *slog.Logger) (*ResolvedTarget, error) {
	switch ch.Type {
	case discordgo.ChannelTypeGuildForum:
		if !thread.Create {
			return nil, &ResolutionError{Reason: "forum channel requires thread creation"}
		}
		th, err := startForumThread(s, ch.ID, thread)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "created forum thread", "thread_id", th.ID, "channel_id", ch.ID, "name", thread.Name)
		return &ResolvedTarget{Kind: TargetThread, ChannelID: th.ID}, nil

	case discordgo.ChannelTypeDM, discordgo.ChannelTypeGroupDM:
		return &ResolvedTarget{Kind: TargetDM, ChannelID: ch.ID}, nil

	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
		return &ResolvedTarget{Kind: TargetChannel, ChannelID: ch.ID}, nil

	case discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread, discordgo.ChannelTypeGuildNewsThread:
		if md := ch.ThreadMetadata; md != nil && (md.Archived || md.Locked) {
			return nil, &ResolutionError{Reason: "thread is archived or locked"}
		}
		return &ResolvedTarget{Kind: TargetThread, ChannelID: ch.ID}, nil
	}

	return nil, &ResolutionError{Reason: fmt.Sprintf("channel type %d is not writable", ch.Type)}
}

// startForumThread creates the forum thread that will receive the message.
// Forum threads must start with a message, so the starter content (falling
// back to the thread name) seeds it.
func startForumThread(s Session, channelID string, thread ThreadConfig) (*discordgo.Channel, error) {
	starter := thread.StarterContent
	if starter == "" {
		starter = thread.Name
	}
	th, err := s.ForumThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                thread.Name,
		AutoArchiveDuration: thread.autoArchiveOrDefault(),
	}, &discordgo.MessageSend{Content: starter})
	if err != nil {
		return nil, fmt.Errorf("start forum thread: %w", err)
	}
	return th, nil
}
