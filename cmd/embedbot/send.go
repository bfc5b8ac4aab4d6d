package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	embedbuilder "github.com/Ypuf/EmbedBuilder"
	"github.com/Ypuf/EmbedBuilder/chunk"
	"github.com/Ypuf/EmbedBuilder/internal/config"
	"github.com/Ypuf/EmbedBuilder/internal/logging"
	"github.com/Ypuf/EmbedBuilder/internal/scheduler"
)

// maxPages caps how many pages --paginate will stage.
const maxPages = 100

type sendFlags struct {
	channel     string
	title       string
	text        string
	textFile    string
	content     string
	footer      string
	url         string
	image       string
	thumbnail   string
	color       string
	filePath    string
	timestamp   bool
	deleteAfter time.Duration
	paginate    bool
	pageSize    int
	timeout     time.Duration
}

func addSendFlags(cmd *cobra.Command, f *sendFlags) {
	cmd.Flags().StringVar(&f.channel, "channel", "", "Channel ID to deliver to (required)")
	cmd.Flags().StringVar(&f.title, "title", "", "Embed title")
	cmd.Flags().StringVar(&f.text, "text", "", "Embed description text")
	cmd.Flags().StringVar(&f.textFile, "text-file", "", "Read the description from a file instead of --text")
	cmd.Flags().StringVar(&f.content, "content", "", "Plain message content above the embed")
	cmd.Flags().StringVar(&f.footer, "footer", "", "Footer text")
	cmd.Flags().StringVar(&f.url, "url", "", "Title URL")
	cmd.Flags().StringVar(&f.image, "image", "", "Image URL")
	cmd.Flags().StringVar(&f.thumbnail, "thumbnail", "", "Thumbnail URL")
	cmd.Flags().StringVar(&f.color, "color", "", "Embed color as hex, e.g. 7289DA")
	cmd.Flags().StringVar(&f.filePath, "file", "", "Attach a local file")
	cmd.Flags().BoolVar(&f.timestamp, "timestamp", false, "Stamp the embed with the current time")
	cmd.Flags().DurationVar(&f.deleteAfter, "delete-after", 0, "Delete sent messages after this duration")
	_ = cmd.MarkFlagRequired("channel")
}

func newSendCmd() *cobra.Command {
	f := &sendFlags{}
	cmd := &cobra.Command{
		Use:     "send",
		Aliases: []string{"s"},
		Short:   "Build an embed from flags and deliver it once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSend(cmd.Context(), f)
		},
	}
	addSendFlags(cmd, f)
	cmd.Flags().BoolVar(&f.paginate, "paginate", false, "Deliver as a paginated message with navigation buttons")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 1024, "Characters per page when paginating")
	cmd.Flags().DurationVar(&f.timeout, "pagination-timeout", 3*time.Minute, "How long navigation stays live")
	return cmd
}

func newScheduleCmd() *cobra.Command {
	f := &sendFlags{}
	var cronSpec string
	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"sch"},
		Short:   "Deliver the embed on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchedule(cmd.Context(), f, cronSpec)
		},
	}
	addSendFlags(cmd, f)
	cmd.Flags().StringVar(&cronSpec, "cron", "", "Standard 5-field cron expression (required)")
	_ = cmd.MarkFlagRequired("cron")
	return cmd
}

func runSend(ctx context.Context, f *sendFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("creating discord session: %w", err)
	}

	builder, err := buildFromFlags(session, cfg, f, logger)
	if err != nil {
		return err
	}

	if !f.paginate {
		msgs, err := builder.Send(ctx)
		if err != nil {
			return fmt.Errorf("sending embed: %w", err)
		}
		logger.Info("embed delivered", "messages", len(msgs), "channel_id", f.channel)
		if f.deleteAfter > 0 {
			// Deletion timers run in this process; stay alive until
			// they have fired.
			logger.Info("waiting for auto-delete", "delete_after", f.deleteAfter)
			waitForDeletion(ctx, f.deleteAfter)
		}
		return nil
	}

	// Pagination needs the gateway so button presses reach us.
	if err := session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}
	defer session.Close()

	if _, err := builder.Send(ctx); err != nil {
		return fmt.Errorf("sending paginated embed: %w", err)
	}
	pager := builder.Paginator()
	removeHandler := session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		pager.HandleInteraction(i)
	})
	defer removeHandler()
	logger.Info("paginated message live", "pages", pager.PageCount(), "timeout", f.timeout)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			pager.Close()
			return nil
		case <-ticker.C:
			if pager.State() == embedbuilder.PaginatorExpired {
				return nil
			}
		}
	}
}

// waitForDeletion blocks for d plus a grace period for the delete REST
// calls, or until ctx is cancelled.
func waitForDeletion(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d + time.Second)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func runSchedule(ctx context.Context, f *sendFlags, cronSpec string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("creating discord session: %w", err)
	}
	builder, err := buildFromFlags(session, cfg, f, logger)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(cronSpec, func(ctx context.Context) error {
		_, err := builder.Send(ctx)
		return err
	}, logger)
	if err != nil {
		return err
	}

	logger.Info("schedule armed", "cron", cronSpec, "next_run", sched.NextRun())
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildFromFlags(session embedbuilder.Session, cfg *config.Config, f *sendFlags, logger *slog.Logger) (*embedbuilder.Builder, error) {
	text := f.text
	if f.textFile != "" {
		data, err := os.ReadFile(f.textFile)
		if err != nil {
			return nil, fmt.Errorf("reading text file: %w", err)
		}
		text = string(data)
	}

	color := cfg.EmbedColor
	if f.color != "" {
		parsed, err := strconv.ParseInt(strings.TrimPrefix(f.color, "#"), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("parsing color %q: %w", f.color, err)
		}
		color = int(parsed)
	}

	origin := embedbuilder.ChannelOrigin(&discordgo.Channel{
		ID:   f.channel,
		Type: discordgo.ChannelTypeGuildText,
	})
	b := embedbuilder.New(session, origin).
		WithLogger(logger).
		SetAuthor(cfg.AuthorName, cfg.AuthorIconURL, "").
		SetTitle(f.title).
		SetColor(color).
		SetContent(f.content)

	if cfg.Timezone != "" {
		b.SetTimezone(cfg.Timezone)
	}
	if f.footer != "" {
		b.SetFooter(f.footer, "")
	}
	if f.url != "" {
		b.SetURL(f.url)
	}
	if f.image != "" {
		b.SetImage(f.image)
	}
	if f.thumbnail != "" {
		b.SetThumbnail(f.thumbnail)
	}
	if f.filePath != "" {
		b.SetFilePath(f.filePath)
	}
	if f.timestamp {
		b.SetTimestampNow()
	}
	if f.deleteAfter > 0 {
		b.SetDeleteAfter(f.deleteAfter)
	}

	if f.paginate {
		pages, _, err := chunk.Split(text, f.pageSize, maxPages)
		if err != nil {
			return nil, fmt.Errorf("splitting pages: %w", err)
		}
		b.EnablePagination(f.timeout)
		for _, p := range pages {
			b.AddPage(embedbuilder.Page{Description: p})
		}
		return b, nil
	}

	b.SetDescription(text)
	return b, nil
}
