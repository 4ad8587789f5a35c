package scoring

import (
	"sort"
	"strconv"
)

// DefaultGeneralSelector is the target that asks for a ranking of every
// condition instead of a single one.
const DefaultGeneralSelector = "General Questions"

// Condition is the minimal view of a catalog condition needed for scoring.
type Condition struct {
	Name          string
	QuestionCount int
}

// Percentage scores one condition with n questions against the answers.
// Keys that do not parse as an index in [0, n) are ignored.
func Percentage(n int, answers map[string]Label) float64 {
	score := 0
	for k, label := range answers {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= n {
			continue
		}
		score += Weight(label)
	}
	maxScore := MaxWeight * n
	if maxScore <= 0 {
		return 0
	}
	return clamp(float64(score) / float64(maxScore) * 100)
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	GeneralSelector string
	TopN            int
}

func WithGeneralSelector(s string) Option { return func(c *config) { c.GeneralSelector = s } }
func WithTopN(n int) Option               { return func(c *config) { c.TopN = n } }

// Engine scores answer sets against the catalog and selects the result set.
// It is stateless after construction and safe for concurrent use.
type Engine struct {
	general string
	topN    int
}

func NewEngine(opts ...Option) *Engine {
	cfg := &config{
		GeneralSelector: DefaultGeneralSelector,
		TopN:            2,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.TopN < 1 {
		cfg.TopN = 1
	}
	return &Engine{general: cfg.GeneralSelector, topN: cfg.TopN}
}

// GeneralSelector returns the target value that triggers ranking.
func (e *Engine) GeneralSelector() string { return e.general }

// ScoreAll computes a percentage for every condition, in catalog order.
func (e *Engine) ScoreAll(conditions []Condition, answers map[string]Label) Result {
	out := make(Result, 0, len(conditions))
	for _, c := range conditions {
		out = append(out, Score{Condition: c.Name, Percentage: Percentage(c.QuestionCount, answers)})
	}
	return out
}

// Select narrows the scores to what target asks for: the top N when target
// is the general selector, otherwise the single named condition.
func (e *Engine) Select(scores Result, target string) (Result, error) {
	if target == e.general {
		ranked := make(Result, len(scores))
		copy(ranked, scores)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Percentage > ranked[j].Percentage
		})
		if len(ranked) > e.topN {
			ranked = ranked[:e.topN]
		}
		return ranked, nil
	}
	for _, s := range scores {
		if s.Condition == target {
			return Result{s}, nil
		}
	}
	return nil, &UnknownConditionError{Name: target}
}

// Evaluate is ScoreAll followed by Select.
func (e *Engine) Evaluate(conditions []Condition, answers map[string]Label, target string) (Result, error) {
	return e.Select(e.ScoreAll(conditions, answers), target)
}
