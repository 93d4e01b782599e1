package content

import (
	"github.com/ivpopov/articlepipe/app/database"
)

// Stage is one step of the enrichment pipeline. StageRewrite exists in
// the set for completeness but is never scheduled on its own: rewriting
// happens inside the clean stage when an LLM client is configured, and
// rewritten_content carries its output.
type Stage string

const (
	StageClean     Stage = "clean"
	StageRewrite   Stage = "rewrite"
	StageTranslate Stage = "translate"
	StagePublish   Stage = "publish"
	StageNone      Stage = "none"
)

// NextStage derives the pending pipeline stage from an item's stored
// state. The derivation is pure and idempotent: consulting it twice
// without an intervening stage execution yields the same answer, and an
// item past a stage is never sent back to it. Transitions are strictly
// forward:
//
//	not cleaned                      -> Clean
//	cleaned, no translated content   -> Translate
//	translated, not published        -> Publish
//	otherwise                        -> None (terminal)
func NextStage(item *database.Item) Stage {
	if !item.IsCleaned {
		return StageClean
	}
	if item.TranslatedContent == "" {
		return StageTranslate
	}
	if item.IsTranslated && !item.IsPublished {
		return StagePublish
	}
	return StageNone
}
