package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ContinuedSuffix marks every non-final segment of a chunked message.
const ContinuedSuffix = " (continued…)"

// sentenceEnders are the boundaries tried after paragraph splitting fails to
// produce small enough pieces.
var sentenceEnders = []string{". ", "! ", "? ", "\n"}

// Chunker splits long payloads into transport-sized segments. Splitting is
// greedy and tiered: paragraph boundaries first, then sentences, then words,
// then a hard cut for pathological unbroken runs. Concatenating all segments
// with the continued suffixes stripped reproduces the input exactly.
type Chunker struct {
	limit int
}

// NewChunker builds a chunker for the given segment limit. The limit should
// sit safely below the gateway's hard message cap.
func NewChunker(limit int) *Chunker {
	if limit <= len(ContinuedSuffix)+1 {
		limit = len(ContinuedSuffix) + 2
	}
	return &Chunker{limit: limit}
}

// Limit returns the configured segment limit.
func (c *Chunker) Limit() int {
	return c.limit
}

// Split breaks text into ordered segments, each at most the configured limit.
func (c *Chunker) Split(text string) []string {
	if len(text) <= c.limit {
		return []string{text}
	}

	budget := c.limit - len(ContinuedSuffix)
	pieces := c.explode(text, budget)

	var segments []string
	var current strings.Builder
	for _, piece := range pieces {
		if current.Len()+len(piece) > budget && current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}

	for i := 0; i < len(segments)-1; i++ {
		segments[i] += ContinuedSuffix
	}
	return segments
}

// explode reduces text to pieces no larger than budget, descending through
// the boundary tiers only where a piece is still too large.
func (c *Chunker) explode(text string, budget int) []string {
	var pieces []string
	for _, paragraph := range strings.SplitAfter(text, "\n\n") {
		if len(paragraph) <= budget {
			pieces = append(pieces, paragraph)
			continue
		}
		for _, sentence := range splitAfterAny(paragraph, sentenceEnders) {
			if len(sentence) <= budget {
				pieces = append(pieces, sentence)
				continue
			}
			for _, word := range strings.SplitAfter(sentence, " ") {
				if len(word) <= budget {
					pieces = append(pieces, word)
					continue
				}
				pieces = append(pieces, hardCut(word, budget)...)
			}
		}
	}
	return pieces
}

// splitAfterAny cuts s after every occurrence of any separator, keeping the
// separator attached to the preceding piece.
func splitAfterAny(s string, seps []string) []string {
	var pieces []string
	start := 0
	for i := 0; i < len(s); {
		matched := ""
		for _, sep := range seps {
			if strings.HasPrefix(s[i:], sep) {
				matched = sep
				break
			}
		}
		if matched == "" {
			i++
			continue
		}
		i += len(matched)
		pieces = append(pieces, s[start:i])
		start = i
	}
	if start < len(s) {
		pieces = append(pieces, s[start:])
	}
	return pieces
}

// hardCut slices an unbroken run into budget-sized chunks on rune boundaries.
func hardCut(s string, budget int) []string {
	var pieces []string
	current := strings.Builder{}
	for _, r := range s {
		if current.Len()+len(string(r)) > budget {
			pieces = append(pieces, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}
	return pieces
}

// SendTarget abstracts where chunked segments are delivered. The first
// segment may use the reply or interaction-response form of the triggering
// context; follow-ups are plain sends.
type SendTarget interface {
	SendFirst(ctx context.Context, content string) error
	SendFollowUp(ctx context.Context, content string) error
}

// ChunkedSender splits a payload and delivers its segments strictly in order
// with a pacing delay between them. A mid-sequence failure aborts the
// remaining sends and is returned to the caller; there are no retries.
type ChunkedSender struct {
	chunker *Chunker
	delay   time.Duration
}

// NewChunkedSender builds a sender with the given segment limit and pacing delay.
func NewChunkedSender(limit int, delay time.Duration) *ChunkedSender {
	return &ChunkedSender{chunker: NewChunker(limit), delay: delay}
}

// Chunker exposes the underlying splitter.
func (s *ChunkedSender) Chunker() *Chunker {
	return s.chunker
}

// Send delivers text to target, chunked when necessary.
func (s *ChunkedSender) Send(ctx context.Context, target SendTarget, text string) error {
	segments := s.chunker.Split(text)
	for i, segment := range segments {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.delay):
			}
		}

		var err error
		if i == 0 {
			err = target.SendFirst(ctx, segment)
		} else {
			err = target.SendFollowUp(ctx, segment)
		}
		if err != nil {
			return fmt.Errorf("send segment %d/%d: %w", i+1, len(segments), err)
		}
	}
	return nil
}
