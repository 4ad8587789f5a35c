package assessment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/mind-engage/neurocare/internal/scoring"
)

// EventSink receives a notification after every stored submission.
type EventSink interface {
	Record(ctx context.Context, typ, key string, data []byte) error
}

// Metrics observes service outcomes.
type Metrics interface {
	ObserveSubmission(variant, outcome string)
	ObserveScores(r scoring.Result)
	ObserveCatalogRead(d time.Duration, err error)
}

const (
	VariantUpsert = "upsert"
	VariantAutoID = "auto_id"

	EventSubmissionRecorded = "SubmissionRecorded"
)

type Service struct {
	catalog  CatalogReader
	recorder ResultRecorder
	engine   *scoring.Engine
	validate *validator.Validate
	events   EventSink
	metrics  Metrics
	timeout  time.Duration
	now      func() time.Time
	newID    func() string
	reads    singleflight.Group
}

type ServiceOption func(*Service)

func WithEvents(e EventSink) ServiceOption         { return func(s *Service) { s.events = e } }
func WithMetrics(m Metrics) ServiceOption          { return func(s *Service) { s.metrics = m } }
func WithTimeout(d time.Duration) ServiceOption    { return func(s *Service) { s.timeout = d } }
func WithClock(now func() time.Time) ServiceOption { return func(s *Service) { s.now = now } }
func WithIDFunc(f func() string) ServiceOption     { return func(s *Service) { s.newID = f } }

func NewService(catalog CatalogReader, recorder ResultRecorder, engine *scoring.Engine, opts ...ServiceOption) *Service {
	s := &Service{
		catalog:  catalog,
		recorder: recorder,
		engine:   engine,
		validate: newValidator(),
		metrics:  nopMetrics{},
		timeout:  5 * time.Second,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("neurocare/assessment").Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, span
}

// Submit scores an email-keyed submission and upserts it.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (sub Submission, err error) {
	ctx, span := s.startSpan(ctx, "Service.Submit", attribute.String("condition", req.Condition))
	defer func() { s.finish(span, VariantUpsert, err) }()

	if err := s.validate.Struct(req); err != nil {
		return Submission{}, toValidationError(err)
	}
	conds, err := s.conditions(ctx)
	if err != nil {
		return Submission{}, err
	}
	sub = Submission{
		ID:        req.Email,
		Name:      req.Name,
		Email:     req.Email,
		Gender:    req.Gender,
		Condition: req.Condition,
		Answers:   req.Answers,
	}
	sub.Results, err = s.engine.Evaluate(scoringViews(conds), sub.Labels(), req.Condition)
	if err != nil {
		return Submission{}, err
	}
	sub.CreatedAt = s.now().UTC()
	sub.UpdatedAt = sub.CreatedAt

	err = s.withRetry(ctx, "upsert submission", func(ctx context.Context) error {
		stored, err := s.recorder.UpsertSubmission(ctx, sub)
		if err == nil {
			sub = stored
		}
		return err
	})
	if err != nil {
		return Submission{}, err
	}
	s.metrics.ObserveScores(sub.Results)
	s.emit(ctx, sub)
	return sub, nil
}

// RecordResponses stores an anonymous submission under a fresh id. The
// condition defaults to the general selector.
func (s *Service) RecordResponses(ctx context.Context, req ResponsesRequest) (sub Submission, err error) {
	if req.Condition == "" {
		req.Condition = s.engine.GeneralSelector()
	}
	ctx, span := s.startSpan(ctx, "Service.RecordResponses", attribute.String("condition", req.Condition))
	defer func() { s.finish(span, VariantAutoID, err) }()

	if err := s.validate.Struct(req); err != nil {
		return Submission{}, toValidationError(err)
	}
	conds, err := s.conditions(ctx)
	if err != nil {
		return Submission{}, err
	}
	sub = Submission{
		ID:         s.newID(),
		Gender:     req.Gender,
		Condition:  req.Condition,
		Answers:    req.Answers,
		Structured: structure(conds, req.Condition, req.Answers),
	}
	sub.Results, err = s.engine.Evaluate(scoringViews(conds), sub.Labels(), req.Condition)
	if err != nil {
		return Submission{}, err
	}
	sub.CreatedAt = s.now().UTC()
	sub.UpdatedAt = sub.CreatedAt

	attempted := false
	err = s.withRetry(ctx, "insert submission", func(ctx context.Context) error {
		stored, err := s.recorder.InsertSubmission(ctx, sub)
		if attempted && errors.Is(err, ErrAlreadyExists) {
			// the earlier attempt committed before it failed
			stored, err = s.recorder.GetSubmission(ctx, sub.ID)
		}
		attempted = true
		if err == nil {
			sub = stored
		}
		return err
	})
	if err != nil {
		return Submission{}, err
	}
	s.metrics.ObserveScores(sub.Results)
	s.emit(ctx, sub)
	return sub, nil
}

// GetUser returns the email-keyed submission for email. Anonymous records
// are not users, even when their id is asked for.
func (s *Service) GetUser(ctx context.Context, email string) (Submission, error) {
	sub, err := s.GetSubmission(ctx, email)
	if err != nil {
		return Submission{}, err
	}
	if sub.Email == "" {
		return Submission{}, fmt.Errorf("user %q: %w", email, ErrNotFound)
	}
	return sub, nil
}

func (s *Service) GetSubmission(ctx context.Context, id string) (Submission, error) {
	var sub Submission
	err := s.withRetry(ctx, "get submission", func(ctx context.Context) error {
		var err error
		sub, err = s.recorder.GetSubmission(ctx, id)
		return err
	})
	return sub, err
}

func (s *Service) ListSubmissions(ctx context.Context, opts ListOpts) ([]Submission, error) {
	var list []Submission
	err := s.withRetry(ctx, "list submissions", func(ctx context.Context) error {
		var err error
		list, err = s.recorder.ListSubmissions(ctx, opts)
		return err
	})
	return list, err
}

// Questions returns the ordered questions of one condition.
func (s *Service) Questions(ctx context.Context, condition string) ([]Question, error) {
	var c Condition
	err := s.withRetry(ctx, "get condition", func(ctx context.Context) error {
		var err error
		c, err = s.catalog.GetCondition(ctx, condition)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, &scoring.UnknownConditionError{Name: condition}
	}
	if err != nil {
		return nil, err
	}
	return c.Questions, nil
}

// QuestionGroups buckets every catalog question by its group, falling back
// to the owning condition's name, each bucket sorted by order.
func (s *Service) QuestionGroups(ctx context.Context) (map[string][]Question, error) {
	conds, err := s.conditions(ctx)
	if err != nil {
		return nil, err
	}
	groups := map[string][]Question{}
	for _, c := range conds {
		for _, q := range c.Questions {
			g := q.Group
			if g == "" {
				g = c.Name
			}
			groups[g] = append(groups[g], q)
		}
	}
	for _, qs := range groups {
		sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })
	}
	return groups, nil
}

func (s *Service) Conditions(ctx context.Context) ([]ConditionSummary, error) {
	conds, err := s.conditions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ConditionSummary, 0, len(conds))
	for _, c := range conds {
		out = append(out, ConditionSummary{Name: c.Name, QuestionCount: len(c.Questions)})
	}
	return out, nil
}

// conditions reads the catalog once per call. Concurrent callers share one
// in-flight read; the result is not cached. Callers must not mutate it.
func (s *Service) conditions(ctx context.Context) ([]Condition, error) {
	ctx, span := s.startSpan(ctx, "Service.conditions")
	defer span.End()

	v, err, _ := s.reads.Do("conditions", func() (any, error) {
		start := time.Now()
		var conds []Condition
		err := s.withRetry(context.WithoutCancel(ctx), "list conditions", func(ctx context.Context) error {
			var err error
			conds, err = s.catalog.ListConditions(ctx)
			return err
		})
		s.metrics.ObserveCatalogRead(time.Since(start), err)
		return conds, err
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	conds := v.([]Condition)
	span.SetAttributes(attribute.Int("conditions", len(conds)))
	return conds, nil
}

// withRetry bounds fn by the store timeout and retries it once when the
// failure is not a lookup miss, an id conflict or a caller cancellation.
func (s *Service) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.attempt(ctx, fn)
		if err == nil || terminal(err) || ctx.Err() != nil {
			break
		}
	}
	if err == nil || terminal(err) {
		return err
	}
	return unavailable(op, err)
}

func terminal(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyExists)
}

func (s *Service) attempt(ctx context.Context, fn func(context.Context) error) error {
	if s.timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}

func (s *Service) finish(span trace.Span, variant string, err error) {
	defer span.End()
	outcome := outcomeOf(err)
	s.metrics.ObserveSubmission(variant, outcome)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

func (s *Service) emit(ctx context.Context, sub Submission) {
	if s.events == nil {
		return
	}
	data, err := sub.Results.MarshalJSON()
	if err == nil {
		err = s.events.Record(ctx, EventSubmissionRecorded, sub.ID, data)
	}
	if err != nil {
		log.Printf("event log: submission %s: %v", sub.ID, err)
	}
}

func outcomeOf(err error) string {
	var (
		verr    *ValidationError
		unknown *scoring.UnknownConditionError
		cu      *CatalogUnavailableError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return "invalid"
	case errors.As(err, &unknown):
		return "unknown_condition"
	case errors.As(err, &cu):
		return "unavailable"
	default:
		return "error"
	}
}

func scoringViews(conds []Condition) []scoring.Condition {
	out := make([]scoring.Condition, len(conds))
	for i, c := range conds {
		out[i] = c.ScoringView()
	}
	return out
}

// structure resolves answer keys against the catalog, first by question id
// and then by position within the targeted condition. Unresolved keys are
// left out; the raw answers keep them.
func structure(conds []Condition, condition string, answers map[string]string) []StructuredAnswer {
	byID := map[string]Question{}
	var target []Question
	for _, c := range conds {
		for _, q := range c.Questions {
			if _, ok := byID[q.ID]; !ok && q.ID != "" {
				byID[q.ID] = q
			}
		}
		if c.Name == condition {
			target = c.Questions
		}
	}

	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return answerKeyLess(keys[i], keys[j]) })

	out := []StructuredAnswer{}
	for _, k := range keys {
		q, ok := byID[k]
		if !ok {
			idx, err := strconv.Atoi(k)
			if err != nil || idx < 0 || idx >= len(target) {
				continue
			}
			q = target[idx]
		}
		out = append(out, StructuredAnswer{QuestionID: k, Question: q.Text, SelectedOption: answers[k]})
	}
	return out
}

// answerKeyLess orders numeric keys numerically ahead of other keys.
func answerKeyLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveSubmission(string, string)        {}
func (nopMetrics) ObserveScores(scoring.Result)            {}
func (nopMetrics) ObserveCatalogRead(time.Duration, error) {}
