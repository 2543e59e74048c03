package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/glimmerlab/mira-go-sdk/core"
)

// GetRelevantContext retrieves memories relevant to a query across the
// episodic, preference and relationship collections and renders them as a
// single bounded context string for prompt injection. Episodic records whose
// decayed weight has fallen below the importance threshold are hidden.
//
// The read path never fails: a collection fault degrades to an empty section
// and the current-state block is always present.
func (s *System) GetRelevantContext(ctx context.Context, query string) string {
	return s.assembleContext(ctx, query, false)
}

// GetFullContext is GetRelevantContext without the decay-based display
// filter, and with per-record emotion annotations. Meant for administrative
// dumps and debugging, not prompts.
func (s *System) GetFullContext(ctx context.Context, query string) string {
	return s.assembleContext(ctx, query, true)
}

func (s *System) assembleContext(ctx context.Context, query string, full bool) string {
	var episodic, preferences, relationship []SearchResult

	// The relationship gate is policy, not performance: deeper
	// relationships surface more personal history.
	level := s.tracker.State().RelationshipLevel

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.SemanticSearch(gctx, CollectionEpisodic, query, s.cfg.EpisodicResults, s.cfg.SearchThreshold)
		if err != nil {
			s.log.Warn().Err(err).Msg("episodic retrieval failed")
			return nil
		}
		episodic = res
		return nil
	})
	g.Go(func() error {
		res, err := s.SemanticSearch(gctx, CollectionPreferences, query, s.cfg.PreferenceResults, s.cfg.SearchThreshold)
		if err != nil {
			s.log.Warn().Err(err).Msg("preference retrieval failed")
			return nil
		}
		preferences = res
		return nil
	})
	if level >= s.cfg.RelationshipGate {
		g.Go(func() error {
			res, err := s.SemanticSearch(gctx, CollectionRelationship, query, s.cfg.RelationshipResults, s.cfg.SearchThreshold)
			if err != nil {
				s.log.Warn().Err(err).Msg("relationship retrieval failed")
				return nil
			}
			relationship = res
			return nil
		})
	}
	_ = g.Wait()

	var b strings.Builder
	b.WriteString("## Relevant Memories\n\n")
	s.renderEpisodic(&b, episodic, full)
	s.renderPreferences(&b, preferences)
	s.renderRelationship(&b, relationship)
	s.renderCurrentState(&b)
	return b.String()
}

func (s *System) renderEpisodic(b *strings.Builder, memories []SearchResult, full bool) {
	shown := 0
	for _, m := range memories {
		decay := metaFloat(m.Metadata, "decay_factor", 1.0)
		importance := metaFloat(m.Metadata, "importance", DefaultImportance)
		if decay*importance <= s.cfg.ImportanceThreshold && !full {
			continue
		}
		if shown == 0 {
			b.WriteString("### Past Conversations\n")
		}
		shown++
		fmt.Fprintf(b, "%d. %s%s\n", shown, displayTimestamp(m.Metadata), m.Content)
		if full {
			if raw, ok := m.Metadata["user_emotion"]; ok {
				var emotion core.Emotion
				if err := json.Unmarshal([]byte(raw), &emotion); err == nil {
					fmt.Fprintf(b, "   User emotion: %s\n", emotion.Label)
				}
			}
		}
	}
	if shown > 0 {
		b.WriteString("\n")
	}
}

func (s *System) renderPreferences(b *strings.Builder, preferences []SearchResult) {
	if len(preferences) == 0 {
		return
	}
	b.WriteString("### User Preferences\n")
	for _, p := range preferences {
		certainty := metaFloat(p.Metadata, "certainty", 0.8)
		tag := "likely"
		if certainty > s.cfg.PreferenceTrustThreshold {
			tag = "certain"
		}
		fmt.Fprintf(b, "- %s (%s)\n", p.Content, tag)
	}
	b.WriteString("\n")
}

func (s *System) renderRelationship(b *strings.Builder, events []SearchResult) {
	if len(events) == 0 {
		return
	}
	b.WriteString("### Relationship Milestones\n")
	for _, e := range events {
		fmt.Fprintf(b, "- %s\n", e.Content)
	}
	b.WriteString("\n")
}

func (s *System) renderCurrentState(b *strings.Builder) {
	summary := s.tracker.Summary()
	b.WriteString("### Current State\n")
	fmt.Fprintf(b, "- Emotion: %s\n", summary.Emotion)
	fmt.Fprintf(b, "- Intensity: %.1f\n", summary.Intensity)
	fmt.Fprintf(b, "- Relationship level: %.1f/10\n", summary.RelationshipLevel)
	fmt.Fprintf(b, "- Stage: %s\n", summary.RelationshipStage)
}

// displayTimestamp renders a record's creation time in the local zone,
// best-effort: an unparseable timestamp is simply omitted.
func displayTimestamp(metadata map[string]string) string {
	at := metaTime(metadata, "timestamp", time.Time{})
	if at.IsZero() {
		return ""
	}
	return "[" + at.Local().Format("2006-01-02 15:04") + "] "
}
