package resolver

import (
	"stray/internal/engine/parser"
)

// UsageVerdict classifies one resolved import: used, unused, or broken
// (unresolved statuses keep Used=false so a broken import is never
// conflated with a merely unnecessary one).
type UsageVerdict struct {
	Import ResolvedImport
	Used   bool
	Refs   []parser.Location
}

// TrackUsage scans the file's references for each resolved import. A
// reference counts when its name matches the binding's local name (or the
// wildcard-expanded name), it occurs in the binding's scope or a nested
// one, and no scope between the reference and the binding re-introduces
// the name. Textual order is irrelevant: forward references are legal.
//
// Verdicts are returned in the order the imports were given, which
// ResolveFile guarantees to be source order. The only error condition is a
// corrupt scope table, which poisons the whole analysis.
func TrackUsage(file *parser.SourceFile, imports []ResolvedImport) ([]UsageVerdict, error) {
	verdicts := make([]UsageVerdict, 0, len(imports))

	for _, ri := range imports {
		verdict := UsageVerdict{Import: ri}

		if ri.Resolution.Status != StatusResolved {
			verdicts = append(verdicts, verdict)
			continue
		}

		for _, ref := range file.Refs {
			if ref.Name != ri.Name {
				continue
			}
			within, err := file.Scopes.Within(ref.ScopeID, ri.Binding.ScopeID)
			if err != nil {
				return nil, err
			}
			if !within {
				continue
			}
			shadowed, err := file.Scopes.ShadowedBetween(ri.Name, ref.ScopeID, ri.Binding.ScopeID)
			if err != nil {
				return nil, err
			}
			if shadowed {
				continue
			}
			verdict.Used = true
			verdict.Refs = append(verdict.Refs, ref.Location)
		}

		verdicts = append(verdicts, verdict)
	}

	return verdicts, nil
}
