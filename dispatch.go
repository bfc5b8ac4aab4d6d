package embedbuilder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// dispatch executes the selected delivery strategy and returns the sent
// message handles in send order. On a mid-delivery failure the messages
// already sent stay sent; the handles collected so far are returned
// alongside the error.
func dispatch(ctx context.Context, s Session, target *ResolvedTarget, cfg MessageConfig, opts DeliveryOptions, thread ThreadConfig, segments []string, logger *slog.Logger) ([]*discordgo.Message, error) {
	embeds := renderSegments(cfg, segments)

	if target.Kind == TargetEdit {
		edit := discordgo.NewMessageEdit(target.EditChannelID, target.EditMessageID)
		edit.Embeds = &embeds
		if opts.Content != "" {
			edit.Content = &opts.Content
		}
		msg, err := s.ChannelMessageEditComplex(edit)
		if err != nil {
			return nil, fmt.Errorf("edit message: %w", err)
		}
		logger.InfoContext(ctx, "edited message", "message_id", target.EditMessageID, "embeds", len(embeds))
		return []*discordgo.Message{msg}, nil
	}

	sent := make([]*discordgo.Message, 0, len(embeds))
	responded := target.Kind == TargetInteractionFollowup

	for i, embed := range embeds {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		msg, err := sendOne(s, target, opts, embed, i == 0, &responded)
		if err != nil {
			return sent, fmt.Errorf("send segment %d of %d: %w", i+1, len(embeds), err)
		}
		sent = append(sent, msg)
		if i == 0 {
			if err := startThreadFromMessage(ctx, s, target, thread, msg, logger); err != nil {
				return sent, err
			}
		}
	}

	scheduleDeletion(s, sent, opts, logger)
	logger.InfoContext(ctx, "delivered message", "segments", len(sent))
	return sent, nil
}

// sendOne delivers a single embed through the primitive the target calls
// for. The responded flag guarantees the interaction's initial response is
// used at most once; everything after goes through follow-ups.
func sendOne(s Session, target *ResolvedTarget, opts DeliveryOptions, embed *discordgo.MessageEmbed, first bool, responded *bool) (*discordgo.Message, error) {
	switch target.Kind {
	case TargetInteractionInitial, TargetInteractionFollowup:
		if !*responded {
			*responded = true
			data := &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{embed},
			}
			if first {
				data.Content = opts.Content
				data.Files = opts.Files
				data.AllowedMentions = opts.AllowedMentions
			}
			if opts.Ephemeral {
				data.Flags = discordgo.MessageFlagsEphemeral
			}
			err := s.InteractionRespond(target.Interaction, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponseChannelMessageWithSource,
				Data: data,
			})
			if err != nil {
				return nil, fmt.Errorf("interaction respond: %w", err)
			}
			msg, err := s.InteractionResponse(target.Interaction)
			if err != nil {
				return nil, fmt.Errorf("fetch interaction response: %w", err)
			}
			return msg, nil
		}

		params := &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{embed},
		}
		if first {
			params.Content = opts.Content
			params.Files = opts.Files
			params.AllowedMentions = opts.AllowedMentions
		}
		if opts.Ephemeral {
			params.Flags = discordgo.MessageFlagsEphemeral
		}
		msg, err := s.FollowupMessageCreate(target.Interaction, true, params)
		if err != nil {
			return nil, fmt.Errorf("followup create: %w", err)
		}
		return msg, nil

	default:
		data := &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{embed},
		}
		if first {
			data.Content = opts.Content
			data.Files = opts.Files
			data.AllowedMentions = opts.AllowedMentions
			data.Reference = target.ReplyTo
		}
		msg, err := s.ChannelMessageSendComplex(target.ChannelID, data)
		if err != nil {
			return nil, fmt.Errorf("send message: %w", err)
		}
		return msg, nil
	}
}

// startThreadFromMessage starts a thread from the primary message when
// non-forum thread creation was requested. Forum threads were already
// created during resolution.
func startThreadFromMessage(ctx context.Context, s Session, target *ResolvedTarget, thread ThreadConfig, msg *discordgo.Message, logger *slog.Logger) error {
	if !thread.Create || thread.Forum || target.Kind != TargetChannel {
		return nil
	}
	th, err := s.MessageThreadStartComplex(target.ChannelID, msg.ID, &discordgo.ThreadStart{
		Name:                thread.Name,
		AutoArchiveDuration: thread.autoArchiveOrDefault(),
	})
	if err != nil {
		return fmt.Errorf("start thread from message: %w", err)
	}
	logger.InfoContext(ctx, "created thread", "thread_id", th.ID, "message_id", msg.ID)
	return nil
}

// scheduleDeletion arms a one-shot deletion timer per sent message.
// Ephemeral interaction responses cannot be deleted and are skipped.
func scheduleDeletion(s Session, sent []*discordgo.Message, opts DeliveryOptions, logger *slog.Logger) {
	if opts.DeleteAfter <= 0 || opts.Ephemeral {
		return
	}
	for _, msg := range sent {
		m := msg
		time.AfterFunc(opts.DeleteAfter, func() {
			if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
				logger.Error("auto-delete failed", "error", err, "message_id", m.ID)
			}
		})
	}
}
