// package video resolves playable video identifiers for canonical tracks.
//
// Search results are noisy, so the resolver layers filters that trade recall
// for precision: an undesired-keyword blocklist, per-template title signals,
// a channel-authority heuristic, and a duration tolerance check. A wrong
// video breaks gameplay; no video just shrinks the day's challenge.
package video

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tunetrivia/curator/internal/match"
	"github.com/tunetrivia/curator/internal/services"
	"github.com/tunetrivia/curator/internal/shared"
)

// queryTemplate is one entry in the ordered search plan, most specific
// first.
type queryTemplate struct {
	suffix         string // appended to "<title> <artist>" when searching
	requirePhrase  string // normalized phrase the result title must carry
	requireChannel bool   // apply the channel-authority heuristic
}

// templates are tried in order; the first surviving result wins and later
// templates are never consulted.
var templates = []queryTemplate{
	{suffix: "Official Audio", requirePhrase: "official audio"},
	{suffix: "Lyric Video", requirePhrase: "lyric"},
	{suffix: "(Lyrics)", requirePhrase: "lyrics"},
	{suffix: "Audio", requirePhrase: "audio"},
	{suffix: "Topic", requireChannel: true},
	{suffix: ""},
}

// undesiredKeywords disqualify a result regardless of template. Single
// words match whole tokens of the normalized title; phrases match as
// substrings. "official video" and "music video" are banned because full
// videos often carry intros and skits that break the duration check, but a
// title that also signals a lyric video is exempted.
var undesiredKeywords = []string{
	"live",
	"cover",
	"remix",
	"interview",
	"teaser",
	"reaction",
	"parody",
	"tutorial",
	"instrumental",
	"karaoke",
	"official video",
	"music video",
}

// videoBanKeywords are the subset of undesiredKeywords exempted when the
// title also signals a lyric video.
var videoBanKeywords = map[string]bool{
	"official video": true,
	"music video":    true,
}

// Resolver finds an acceptable video for a track, or reports none.
type Resolver struct {
	source       services.VideoSource
	logger       *log.Logger
	toleranceMs  int
	tolerancePct float64
	searchLimit  int
}

// Opts configures a [Resolver]. Tolerances default to the empirically
// chosen production values when unset.
type Opts struct {
	Source       services.VideoSource
	Logger       *log.Logger
	ToleranceMs  int     // fixed duration-difference cap (default 30000)
	TolerancePct float64 // proportional cap relative to target (default 0.2)
	SearchLimit  int     // results fetched per template (default 5)
}

// NewResolver creates a video resolver.
func NewResolver(opts Opts) *Resolver {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.ToleranceMs <= 0 {
		opts.ToleranceMs = 30000
	}
	if opts.TolerancePct <= 0 {
		opts.TolerancePct = 0.2
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 5
	}
	return &Resolver{
		source:       opts.Source,
		logger:       shared.WithLogger(opts.Logger, "component", "video_resolver"),
		toleranceMs:  opts.ToleranceMs,
		tolerancePct: opts.TolerancePct,
		searchLimit:  opts.SearchLimit,
	}
}

// Resolve returns the first video surviving all filters, or "" when every
// template exhausts without one. Quota and auth errors propagate so the
// caller can stop resolving; transient and permanent search failures just
// advance to the next template.
func (r *Resolver) Resolve(ctx context.Context, title, artist string, durationMs int) (string, error) {
	logger := shared.WithLogger(r.logger, "title", title, "artist", artist)

	for _, tpl := range templates {
		query := strings.TrimSpace(fmt.Sprintf("%s %s %s", title, artist, tpl.suffix))

		results, err := r.source.Search(ctx, query, r.searchLimit)
		if err != nil {
			if errors.Is(err, shared.ErrQuotaExhausted) || errors.Is(err, shared.ErrSourceAuth) || errors.Is(err, context.Canceled) {
				return "", err
			}
			logger.Warn("video search failed, trying next template", "template", tpl.suffix, "error", err)
			continue
		}

		for _, result := range results {
			ok, err := r.acceptable(ctx, result, tpl, artist, durationMs)
			if err != nil {
				return "", err
			}
			if ok {
				logger.Debug("video resolved", "video_id", result.ID, "template", tpl.suffix)
				return result.ID, nil
			}
		}
	}

	logger.Debug("no acceptable video found")
	return "", nil
}

// acceptable applies the filter chain to one search result.
func (r *Resolver) acceptable(ctx context.Context, result services.VideoSearchResult, tpl queryTemplate, artist string, durationMs int) (bool, error) {
	normTitle := match.Normalize(result.Title)

	if hasUndesiredKeyword(normTitle) {
		return false, nil
	}

	if tpl.requirePhrase != "" && !strings.Contains(normTitle, tpl.requirePhrase) {
		return false, nil
	}

	if tpl.requireChannel && !reputableChannel(result.ChannelTitle, artist) {
		return false, nil
	}

	if durationMs > 0 {
		actual, err := r.source.VideoDuration(ctx, result.ID)
		if err != nil {
			if errors.Is(err, shared.ErrQuotaExhausted) || errors.Is(err, shared.ErrSourceAuth) || errors.Is(err, context.Canceled) {
				return false, err
			}
			return false, nil
		}
		if !WithinTolerance(durationMs, actual, r.toleranceMs, r.tolerancePct) {
			return false, nil
		}
	}

	return true, nil
}

// hasUndesiredKeyword reports whether a normalized title carries any
// blocklisted keyword, honoring the lyric-video exemption.
func hasUndesiredKeyword(normTitle string) bool {
	tokens := map[string]bool{}
	for _, tok := range strings.Fields(normTitle) {
		tokens[tok] = true
	}

	lyricSignal := strings.Contains(normTitle, "lyric")

	for _, kw := range undesiredKeywords {
		var hit bool
		if strings.Contains(kw, " ") {
			hit = strings.Contains(normTitle, kw)
		} else {
			hit = tokens[kw]
		}
		if !hit {
			continue
		}
		if videoBanKeywords[kw] && lyricSignal {
			continue
		}
		return true
	}

	return false
}

// reputableChannel applies the channel-authority heuristic: the channel
// must carry the artist's first name token, a "vevo" or "official" marker,
// or be an auto-generated topic channel.
func reputableChannel(channelTitle, artist string) bool {
	channel := match.Normalize(channelTitle)
	if channel == "" {
		return false
	}

	if strings.Contains(channel, "vevo") || strings.Contains(channel, "official") || strings.HasSuffix(channel, "topic") {
		return true
	}

	artistTokens := strings.Fields(match.Normalize(artist))
	return len(artistTokens) > 0 && strings.Contains(channel, artistTokens[0])
}

// WithinTolerance reports whether a candidate duration is close enough to
// the target: the absolute difference must not exceed the lesser of the
// fixed cap and the proportional cap. Tight for short tracks, loose for
// long ones.
func WithinTolerance(targetMs, actualMs, capMs int, pct float64) bool {
	diff := targetMs - actualMs
	if diff < 0 {
		diff = -diff
	}

	allowed := capMs
	if proportional := int(float64(targetMs) * pct); proportional < allowed {
		allowed = proportional
	}

	return diff <= allowed
}
