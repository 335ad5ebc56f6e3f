package discovery

import "strings"

// ScoreConfig tunes the keyword relevance heuristic. The keyword list is
// deployment-specific configuration, not part of the algorithm.
type ScoreConfig struct {
	Keywords  []string
	Increment int
	Min       int
	Max       int
}

// DefaultScoreConfig matches the deployed keyword set for the fan-club site.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		Keywords: []string{
			"lou gehrig",
			"als",
			"amyotrophic lateral sclerosis",
			"iron horse",
			"yankees",
		},
		Increment: 2,
		Min:       1,
		Max:       10,
	}
}

// Scorer computes coarse relevance scores from title and snippet text.
type Scorer struct {
	cfg ScoreConfig
}

// NewScorer builds a Scorer, falling back to defaults for unset fields.
func NewScorer(cfg ScoreConfig) *Scorer {
	def := DefaultScoreConfig()
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = def.Keywords
	}
	if cfg.Increment <= 0 {
		cfg.Increment = def.Increment
	}
	if cfg.Max <= 0 {
		cfg.Min = def.Min
		cfg.Max = def.Max
	}
	return &Scorer{cfg: cfg}
}

// Score scans the lowercase concatenation of title and snippet for each
// configured keyword; every match adds the fixed increment and the result is
// clamped to [Min, Max].
func (s *Scorer) Score(title, snippet string) int {
	text := strings.ToLower(title + " " + snippet)
	score := 0
	for _, kw := range s.cfg.Keywords {
		if strings.Contains(text, kw) {
			score += s.cfg.Increment
		}
	}
	if score < s.cfg.Min {
		score = s.cfg.Min
	}
	if score > s.cfg.Max {
		score = s.cfg.Max
	}
	return score
}

// WordCount counts whitespace-delimited tokens in the snippet text. The
// snippet is the only text counted, matching the stored metric even for
// sources that return full article bodies as the snippet.
func WordCount(snippet string) int {
	return len(strings.Fields(snippet))
}
