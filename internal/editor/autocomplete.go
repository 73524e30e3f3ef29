package editor

import (
	"context"
	"strings"

	"github.com/vovakirdan/wirecode/internal/proto"
)

type suggestionResult struct {
	seq  uint64
	req  proto.AutocompleteRequest
	resp *proto.AutocompleteResponse
	err  error
}

func (c *Controller) scheduleSuggestion() {
	c.stopDebounce()
	c.debounceTimer = c.clock.Timer(c.debounce)
	c.debounceC = c.debounceTimer.C
}

func (c *Controller) stopDebounce() {
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.debounceTimer = nil
	c.debounceC = nil
}

// requestSuggestion fires only with the cursor at the end of a non-blank buffer.
// The request runs in its own goroutine and is never canceled.
func (c *Controller) requestSuggestion(ctx context.Context) {
	if c.buf.Blank() || !c.buf.AtEnd() {
		c.clearSuggestion()
		c.view.SetSuggestionPanel(PlaceholderIdle, true)
		return
	}

	c.seq++
	res := suggestionResult{
		seq: c.seq,
		req: proto.AutocompleteRequest{
			Code:           c.buf.Text,
			CursorPosition: c.buf.Cursor,
			Language:       c.ref.Language,
		},
	}

	go func() {
		res.resp, res.err = c.completer.Autocomplete(ctx, res.req)
		select {
		case c.results <- res:
		case <-ctx.Done():
		}
	}()
}

// applySuggestion drops answers to superseded requests or to a buffer that
// has changed since the request was made.
func (c *Controller) applySuggestion(res suggestionResult) {
	if res.seq != c.seq || res.req.Code != c.buf.Text || res.req.CursorPosition != c.buf.Cursor {
		c.log.Debug().Uint64("seq", res.seq).Uint64("latest", c.seq).Msg("discard stale suggestion")
		return
	}
	if res.err != nil {
		c.log.Warn().Err(res.err).Msg("autocomplete request")
	}
	if res.err != nil || res.resp == nil || strings.TrimSpace(res.resp.Suggestion) == "" {
		c.clearSuggestion()
		c.view.SetSuggestionPanel(PlaceholderNoSuggestions, true)
		return
	}

	c.suggestion = res.resp.Suggestion
	c.view.SetGhost(c.suggestion)
	c.view.SetSuggestionPanel(c.suggestion, false)
}

func (c *Controller) acceptSuggestion(ctx context.Context) {
	if c.suggestion == "" {
		return
	}
	b := c.buf.Insert(c.suggestion)
	c.clearSuggestion()
	c.setBuffer(b, OriginLocal)
	c.propagate(ctx)
}

func (c *Controller) clearSuggestion() {
	c.suggestion = ""
	c.view.SetGhost("")
}
