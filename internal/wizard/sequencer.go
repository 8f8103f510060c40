// Package wizard drives linear multi-step forms: a fixed ordered step list,
// per-step gating, and a best-effort draft saved after every change.
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ajharbinger/dealscope/internal/drafts"
	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/logger"
)

// ErrNotComplete is returned by Complete when the wizard is not on its last
// step or the last step does not validate.
var ErrNotComplete = errors.New("wizard is not ready to submit")

// Step is one page of a wizard. A nil Enabled means always shown, a nil
// Valid means always passable.
type Step[T any] struct {
	ID      string
	Title   string
	Enabled func(T) bool
	Valid   func(T) bool
}

func (s Step[T]) enabled(data T) bool {
	return s.Enabled == nil || s.Enabled(data)
}

func (s Step[T]) valid(data T) bool {
	return s.Valid == nil || s.Valid(data)
}

// Definition is a named, ordered list of steps
type Definition[T any] struct {
	ID    string
	Steps []Step[T]
}

// ActiveSteps filters the step list against data. It is recomputed on every
// call; it is never stored.
func (d Definition[T]) ActiveSteps(data T) []Step[T] {
	active := make([]Step[T], 0, len(d.Steps))
	for _, s := range d.Steps {
		if s.enabled(data) {
			active = append(active, s)
		}
	}
	return active
}

// Validate checks every active step against data. The error is a validation
// error with one field per failing step, keyed by step id.
func (d Definition[T]) Validate(data T) error {
	var fields []apperrors.FieldError
	for _, s := range d.ActiveSteps(data) {
		if !s.valid(data) {
			fields = append(fields, apperrors.FieldError{Field: s.ID, Message: s.Title + " is incomplete"})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return apperrors.ValidationError(d.ID+" is incomplete", nil).WithFields(fields)
}

// Draft is the persisted in-progress state of a wizard
type Draft[T any] struct {
	Step      int       `json:"step"`
	Data      T         `json:"data"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Sequencer is the state machine for a single user's pass through a wizard.
// It is not safe for concurrent use.
type Sequencer[T any] struct {
	def     Definition[T]
	store   drafts.Store
	key     string
	log     logger.Logger
	current int
	data    T
}

// New starts a sequencer at step 0 with initial data
func New[T any](def Definition[T], store drafts.Store, scope string, initial T, log logger.Logger) *Sequencer[T] {
	if log == nil {
		log = logger.NewNop()
	}
	return &Sequencer[T]{
		def:   def,
		store: store,
		key:   DraftKey(def.ID, scope),
		log:   log,
		data:  initial,
	}
}

// Resume starts a sequencer from a saved draft when one exists. A missing or
// unreadable draft falls back to initial.
func Resume[T any](ctx context.Context, def Definition[T], store drafts.Store, scope string, initial T, log logger.Logger) *Sequencer[T] {
	s := New(def, store, scope, initial, log)
	if store == nil {
		return s
	}

	raw, err := store.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, drafts.ErrNotFound) {
			s.log.Warn("wizard draft unavailable", "key", s.key, "error", err.Error())
		}
		return s
	}

	var draft Draft[T]
	if err := json.Unmarshal(raw, &draft); err != nil {
		s.log.Warn("discarding unreadable wizard draft", "key", s.key, "error", err.Error())
		return s
	}
	s.data = draft.Data
	s.current = s.clamp(draft.Step)
	return s
}

// DraftKey scopes a draft to a wizard and an owner
func DraftKey(wizardID, scope string) string {
	return fmt.Sprintf("wizard:%s:%s", wizardID, scope)
}

// Data returns the current form data
func (s *Sequencer[T]) Data() T {
	return s.data
}

// Current returns the index into the active step list
func (s *Sequencer[T]) Current() int {
	return s.clamp(s.current)
}

// CurrentStep returns the active step at the current index
func (s *Sequencer[T]) CurrentStep() Step[T] {
	return s.ActiveSteps()[s.Current()]
}

// ActiveSteps returns the step list derived from the current data
func (s *Sequencer[T]) ActiveSteps() []Step[T] {
	return s.def.ActiveSteps(s.data)
}

// LastStep is the index of the final active step
func (s *Sequencer[T]) LastStep() int {
	n := len(s.ActiveSteps())
	if n == 0 {
		return 0
	}
	return n - 1
}

// IsStepValid evaluates the gate of the active step at index i
func (s *Sequencer[T]) IsStepValid(i int) bool {
	steps := s.ActiveSteps()
	if i < 0 || i >= len(steps) {
		return false
	}
	return steps[i].valid(s.data)
}

// Next advances one step when the current step validates. It is a no-op on
// an invalid step and on the last step. Reports whether the index moved.
func (s *Sequencer[T]) Next(ctx context.Context) bool {
	cur := s.Current()
	if !s.IsStepValid(cur) || cur >= s.LastStep() {
		return false
	}
	s.current = cur + 1
	s.persist(ctx)
	return true
}

// Previous moves back one step. No-op at the first step.
func (s *Sequencer[T]) Previous(ctx context.Context) bool {
	cur := s.Current()
	if cur == 0 {
		return false
	}
	s.current = cur - 1
	s.persist(ctx)
	return true
}

// FastForward calls Next until it stops moving and returns the index reached
func (s *Sequencer[T]) FastForward(ctx context.Context) int {
	for s.Next(ctx) {
	}
	return s.Current()
}

// Update applies mutate to a copy of the data, swaps it in, and saves the
// draft. Steps are not validated here; gating happens on Next and Complete.
func (s *Sequencer[T]) Update(ctx context.Context, mutate func(*T)) {
	next := s.data
	mutate(&next)
	s.data = next
	s.persist(ctx)
}

// Reset drops the saved draft and returns to step 0 with initial data
func (s *Sequencer[T]) Reset(ctx context.Context, initial T) {
	s.data = initial
	s.current = 0
	s.clear(ctx)
}

// CanComplete reports whether Complete would call submit
func (s *Sequencer[T]) CanComplete() bool {
	return s.Current() == s.LastStep() && s.IsStepValid(s.LastStep())
}

// Complete runs submit when the wizard sits on a valid last step. On success
// the draft is cleared.
func (s *Sequencer[T]) Complete(ctx context.Context, submit func(context.Context, T) error) error {
	if !s.CanComplete() {
		return ErrNotComplete
	}
	if err := submit(ctx, s.data); err != nil {
		return err
	}
	s.clear(ctx)
	return nil
}

// Submit runs submit for a finished form and clears the scope's draft when it
// succeeds. Every active step must validate, not just the last one.
func Submit[T any](ctx context.Context, def Definition[T], store drafts.Store, scope string, data T, log logger.Logger, submit func(context.Context, T) error) error {
	if err := def.Validate(data); err != nil {
		return err
	}
	s := New(def, store, scope, data, log)
	s.current = s.LastStep()
	return s.Complete(ctx, submit)
}

// StepStatus describes one active step for clients rendering the wizard
type StepStatus struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Valid bool   `json:"valid"`
}

// Evaluation is the full state of a wizard for a given data object
type Evaluation struct {
	Current     int          `json:"current"`
	Steps       []StepStatus `json:"steps"`
	CanComplete bool         `json:"canComplete"`
}

// Evaluate snapshots the sequencer for API responses
func (s *Sequencer[T]) Evaluate() Evaluation {
	steps := s.ActiveSteps()
	ev := Evaluation{
		Current:     s.Current(),
		Steps:       make([]StepStatus, len(steps)),
		CanComplete: s.CanComplete(),
	}
	for i, st := range steps {
		ev.Steps[i] = StepStatus{Index: i, ID: st.ID, Title: st.Title, Valid: st.valid(s.data)}
	}
	return ev
}

// clamp keeps an index inside the active list, which can shrink when a flag
// disables steps.
func (s *Sequencer[T]) clamp(i int) int {
	last := s.LastStep()
	if i > last {
		return last
	}
	if i < 0 {
		return 0
	}
	return i
}

func (s *Sequencer[T]) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	raw, err := json.Marshal(Draft[T]{Step: s.Current(), Data: s.data, UpdatedAt: time.Now().UTC()})
	if err != nil {
		s.log.Warn("wizard draft not serializable", "key", s.key, "error", err.Error())
		return
	}
	if err := s.store.Save(ctx, s.key, raw); err != nil {
		s.log.Warn("wizard draft not saved", "key", s.key, "error", err.Error())
	}
}

func (s *Sequencer[T]) clear(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, s.key); err != nil {
		s.log.Warn("wizard draft not cleared", "key", s.key, "error", err.Error())
	}
}
