package engine

import "github.com/dcg-project/dcg/internal/catalog"

// graduationInputs bundles the table's variables (spec.md §4.8.1).
type graduationInputs struct {
	Mode               string
	Severity           catalog.Severity
	SessionCount       int
	HistoryCount       int
	SessionThreshold   int
	HistoryThreshold   int
	CriticalAlwaysHard bool
}

// graduate selects a ResponseLevel from the mode/severity/occurrence table
// in spec.md §4.8.1.
func graduate(in graduationInputs) ResponseLevel {
	if in.CriticalAlwaysHard && in.Severity == catalog.SeverityCritical {
		return LevelHardBlock
	}

	switch in.Mode {
	case "paranoid":
		return LevelHardBlock
	case "lenient":
		if in.SessionCount >= in.SessionThreshold {
			return LevelSoftBlock
		}
		return LevelWarning
	case "strict", "standard":
		fallthrough
	default:
		if in.HistoryCount >= in.HistoryThreshold {
			return LevelHardBlock
		}
		if in.SessionCount >= in.SessionThreshold {
			return LevelSoftBlock
		}
		return LevelWarning
	}
}
