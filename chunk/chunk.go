// Package chunk splits long message text into bounded segments while keeping
// paragraph and word boundaries intact.
package chunk

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// DefaultSuffix is appended to text that Truncate cuts short.
const DefaultSuffix = "..."

// wordBreakLookback is how far back from a forced cut point a whitespace
// boundary is still preferred over splitting mid-word.
const wordBreakLookback = 64

// ErrEmptyInput is returned by Split when there is no text to segment.
var ErrEmptyInput = errors.New("chunk: empty input")

// Split breaks text into at most maxSegments pieces of at most maxSize bytes
// each, in original order. Double newlines are the primary split points and
// consecutive paragraphs are packed greedily; a paragraph that alone exceeds
// maxSize is split on single newlines, and as a last resort hard-split at the
// largest boundary under the limit. Once the segment budget is reached the
// remaining text is folded into the final segment and cut at maxSize; the
// truncated return reports whether any text was dropped that way.
func Split(text string, maxSize, maxSegments int) ([]string, bool, error) {
	if text == "" {
		return nil, false, ErrEmptyInput
	}
	if maxSize < 1 || maxSegments < 1 {
		return nil, false, errors.New("chunk: size and segment limits must be positive")
	}
	if len(text) <= maxSize {
		return []string{text}, false, nil
	}

	var segments []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			segments = append(segments, cur.String())
			cur.Reset()
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		if len(para) > maxSize {
			flush()
			segments = append(segments, splitParagraph(para, maxSize)...)
			continue
		}
		switch {
		case cur.Len() == 0:
			cur.WriteString(para)
		case cur.Len()+len("\n\n")+len(para) <= maxSize:
			cur.WriteString("\n\n")
			cur.WriteString(para)
		default:
			flush()
			cur.WriteString(para)
		}
	}
	flush()

	if len(segments) <= maxSegments {
		return segments, false, nil
	}

	rest := strings.Join(segments[maxSegments-1:], "\n\n")
	segments = append(segments[:maxSegments-1], Truncate(rest, maxSize))
	return segments, len(rest) > maxSize, nil
}

// splitParagraph splits an oversized paragraph, first on single newlines,
// then hard at byte boundaries under the limit.
func splitParagraph(para string, maxSize int) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for _, line := range strings.Split(para, "\n") {
		if len(line) > maxSize {
			flush()
			out = append(out, hardSplit(line, maxSize)...)
			continue
		}
		switch {
		case cur.Len() == 0:
			cur.WriteString(line)
		case cur.Len()+1+len(line) <= maxSize:
			cur.WriteByte('\n')
			cur.WriteString(line)
		default:
			flush()
			cur.WriteString(line)
		}
	}
	flush()
	return out
}

// hardSplit cuts text into pieces of at most maxSize bytes, preferring a
// whitespace break within the lookback window and never splitting a rune.
func hardSplit(text string, maxSize int) []string {
	var out []string
	for len(text) > maxSize {
		cut := maxSize
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if idx := strings.LastIndexAny(text[:cut], " \t"); idx > 0 && cut-idx <= wordBreakLookback {
			cut = idx + 1
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// Truncate returns text unchanged when it fits within max bytes, otherwise
// the longest prefix that leaves room for DefaultSuffix, followed by it.
func Truncate(text string, max int) string {
	return TruncateWith(text, max, DefaultSuffix)
}

// TruncateWith is Truncate with a caller-chosen suffix. Pure.
func TruncateWith(text string, max int, suffix string) string {
	if len(text) <= max {
		return text
	}
	if max <= 0 {
		return ""
	}
	if max <= len(suffix) {
		return suffix[:max]
	}
	cut := max - len(suffix)
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + suffix
}
