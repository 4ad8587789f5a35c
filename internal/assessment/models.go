package assessment

import (
	"time"

	"github.com/mind-engage/neurocare/internal/scoring"
)

type Question struct {
	ID       string   `json:"id" yaml:"id"`
	Text     string   `json:"question" yaml:"text"`
	Group    string   `json:"group,omitempty" yaml:"group"`
	Order    int      `json:"order" yaml:"order"`
	Options  []string `json:"options,omitempty" yaml:"options"`
	ImageKey string   `json:"imagekey,omitempty" yaml:"image_key"`
	ImageURL string   `json:"image_url,omitempty" yaml:"-"` // filled by the HTTP layer
}

type Condition struct {
	Name      string     `json:"name" yaml:"name"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// ScoringView drops the question bodies; the engine only needs the count.
func (c Condition) ScoringView() scoring.Condition {
	return scoring.Condition{Name: c.Name, QuestionCount: len(c.Questions)}
}

type ConditionSummary struct {
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count"`
}

// StructuredAnswer is an answer resolved against the catalog so the stored
// record keeps the question text the user actually saw.
type StructuredAnswer struct {
	QuestionID     string `json:"question_id"`
	Question       string `json:"question"`
	SelectedOption string `json:"selected_option"`
}

type Submission struct {
	ID         string             `json:"id"`
	Name       string             `json:"name,omitempty"`
	Email      string             `json:"email,omitempty"`
	Gender     string             `json:"gender,omitempty"`
	Condition  string             `json:"condition"`
	Answers    map[string]string  `json:"answers"`
	Structured []StructuredAnswer `json:"structured_answers,omitempty"`
	Results    scoring.Result     `json:"results"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// Labels converts raw answers into engine labels. Callers validate first.
func (s Submission) Labels() map[string]scoring.Label {
	out := make(map[string]scoring.Label, len(s.Answers))
	for k, v := range s.Answers {
		out[k] = scoring.Label(v)
	}
	return out
}
