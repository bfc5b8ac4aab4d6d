package embedbuilder

import "github.com/bwmarrin/discordgo"

// renderSegments builds one embed per description segment. The first segment
// carries title, author, URL and thumbnail; the last carries fields, footer,
// image and timestamp, so a multi-message body reads as one document.
func renderSegments(cfg MessageConfig, segments []string) []*discordgo.MessageEmbed {
	n := len(segments)
	embeds := make([]*discordgo.MessageEmbed, 0, n)
	for i, seg := range segments {
		e := &discordgo.MessageEmbed{
			Description: seg,
			Color:       segmentColor(cfg, i, n),
		}
		if i == 0 {
			e.Title = cfg.Title
			e.URL = cfg.URL
			if cfg.AuthorName != "" {
				e.Author = &discordgo.MessageEmbedAuthor{
					Name:    cfg.AuthorName,
					IconURL: cfg.AuthorIconURL,
					URL:     cfg.AuthorURL,
				}
			}
			if cfg.ThumbnailURL != "" {
				e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: cfg.ThumbnailURL}
			}
		}
		if i == n-1 {
			for _, f := range cfg.Fields {
				e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
					Name:   f.Name,
					Value:  f.Value,
					Inline: f.Inline,
				})
			}
			if cfg.FooterText != "" {
				e.Footer = &discordgo.MessageEmbedFooter{
					Text:    cfg.FooterText,
					IconURL: cfg.FooterIconURL,
				}
			}
			if cfg.ImageURL != "" {
				e.Image = &discordgo.MessageEmbedImage{URL: cfg.ImageURL}
			}
			e.Timestamp = cfg.timestampString()
		}
		embeds = append(embeds, e)
	}
	return embeds
}

// segmentColor interpolates from the base color toward a lighter tint across
// the segments of a multi-embed message when gradient colors are enabled.
func segmentColor(cfg MessageConfig, i, n int) int {
	base := cfg.baseColor()
	if !cfg.Gradient || n < 2 {
		return base
	}
	t := float64(i) / float64(n-1) * 0.5
	r := lighten(base>>16&0xFF, t)
	g := lighten(base>>8&0xFF, t)
	b := lighten(base&0xFF, t)
	return r<<16 | g<<8 | b
}

func lighten(c int, t float64) int {
	return c + int(float64(255-c)*t)
}
