package story

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/storyloom-dev/storyloom/internal/gen"
	"github.com/storyloom-dev/storyloom/pkg/observability"
)

// ErrCreateFailed is returned when session setup cannot produce a usable
// cast; no session is registered in that case.
var ErrCreateFailed = errors.New("session creation failed")

// Stage temperatures. The actor and narrator run hot for creativity, the
// state update runs cold for parseable output.
const (
	castTemperature      = 0.7
	actTemperature       = 0.8
	reactTemperature     = 0.6
	updateTemperature    = 0.2
	narrateTemperature   = 0.85
	visualizeTemperature = 0.7
	summaryTemperature   = 0.7
)

// compactEvery is the compaction cadence in turns.
const compactEvery = 3

// protagonistRole is the cast role marked eligible for the actor rotation.
// Everyone else is narrated through via reactions instead of driving turns.
const protagonistRole = "Protagonist"

// passSentinel suppresses a reaction when it appears anywhere in the
// reactor output. Substring match tolerates verbose model output at the
// cost of false positives when the token appears incidentally.
const passSentinel = "PASS"

// Engine runs the six-stage turn pipeline against sessions in a Store.
// It is stateless apart from the per-session lock registry; both
// generation capabilities are injected, so tests substitute fakes.
type Engine struct {
	text         gen.TextGenerator
	image        gen.ImageGenerator
	store        Store
	compactor    *Compactor
	locks        *sessionLocks
	stageTimeout time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithStageTimeout bounds each generation call. A timeout is treated
// exactly like a generation failure: the stage degrades to empty output.
func WithStageTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.stageTimeout = d
	}
}

// NewEngine creates a turn engine over the given capabilities and store.
func NewEngine(text gen.TextGenerator, image gen.ImageGenerator, store Store, opts ...EngineOption) *Engine {
	e := &Engine{
		text:      text,
		image:     image,
		store:     store,
		compactor: NewCompactor(text),
		locks:     newSessionLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateSession generates a cast, visual style and starting location for
// the scenario and registers a fresh session. Any failure in this flow
// yields ErrCreateFailed and leaves nothing registered.
func (e *Engine) CreateSession(ctx context.Context, scenario string) (*Session, error) {
	ctx, span := observability.StartSpan(ctx, "session.create", map[string]any{"scenario": scenario})
	defer span.End()

	stageCtx, cancel := e.stageContext(ctx)
	defer cancel()

	raw, err := e.text.Structured(stageCtx, gen.Request{
		System:      castSystem,
		User:        scenario,
		Temperature: castTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: cast generation: %v", ErrCreateFailed, err)
	}

	var cast castResult
	if err := json.Unmarshal(raw, &cast); err != nil {
		return nil, fmt.Errorf("%w: malformed cast: %v", ErrCreateFailed, err)
	}
	if len(cast.Agents) == 0 {
		return nil, fmt.Errorf("%w: empty cast", ErrCreateFailed)
	}

	agents := make([]Agent, 0, len(cast.Agents))
	for _, a := range cast.Agents {
		agents = append(agents, Agent{
			Name:        a.Name,
			Role:        a.Role,
			Description: a.Description,
			Personality: a.Personality,
			Eligible:    strings.EqualFold(a.Role, protagonistRole),
		})
	}

	style := cast.VisualStyle
	if style == "" {
		style = "Cinematic"
	}

	sess := NewSession(scenario, agents, style)
	if cast.StartingLocation != "" {
		sess.State.Location = cast.StartingLocation
	}

	if err := e.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: register session: %v", ErrCreateFailed, err)
	}
	observability.IncActiveSessions()
	return sess, nil
}

// ProcessTurn advances one session by one turn through the six stages:
// act, react, update state, narrate, visualize and (every third turn)
// compact. Stage failures degrade to empty output and the pipeline
// continues; only an unknown session ID or an agentless session cross the
// boundary as errors. Concurrent turns for the same session are serialized
// in submission order.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, intervention string) (*Session, error) {
	release := e.locks.acquire(sessionID)
	defer release()

	ctx, span := observability.StartSpan(ctx, "turn.process", map[string]any{"session_id": sessionID})
	defer span.End()

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.TurnCount++
	actor, err := sess.ActiveActor(sess.TurnCount)
	if err != nil {
		return nil, err
	}
	promptCtx := sess.ContextForLLM()

	action := e.stageAct(ctx, sess, actor, promptCtx, intervention)
	reaction := e.stageReact(ctx, sess, actor, action)
	delta := e.stageUpdate(ctx, sess, action, intervention)
	prose := e.stageNarrate(ctx, sess, actor, action, reaction, delta.Success)

	// Appended even when empty to keep one entry per turn.
	sess.NarrativeHistory = append(sess.NarrativeHistory, prose)

	sess.LastImageURL = e.stageVisualize(ctx, sess, prose)

	if sess.TurnCount%compactEvery == 0 {
		compactCtx, span := observability.StartSpan(ctx, "turn.compact", nil)
		stageCtx, cancel := e.stageContext(compactCtx)
		e.compactor.Compact(stageCtx, sess)
		cancel()
		span.End()
	}

	sess.Touch()
	if err := e.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	observability.RecordTurn()
	return sess, nil
}

// DeleteSession removes a session from the registry.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	if err := e.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	observability.DecActiveSessions()
	return nil
}

// stageAct asks the current actor for an action and dialogue.
func (e *Engine) stageAct(ctx context.Context, sess *Session, actor *Agent, promptCtx, intervention string) string {
	ctx, span := observability.StartSpan(ctx, "turn.act", map[string]any{"actor": actor.Name})
	defer span.End()
	return e.completeOrEmpty(ctx, "act", gen.Request{
		System:      actorSystem(actor, sess.State.CurrentQuest),
		User:        actorUser(promptCtx, intervention),
		Temperature: actTemperature,
	})
}

// stageReact collects a collective reaction from the non-acting agents, or
// nothing when the reactor passes.
func (e *Engine) stageReact(ctx context.Context, sess *Session, actor *Agent, action string) string {
	bystanders := make([]Agent, 0, len(sess.Agents))
	for _, a := range sess.Agents {
		if a.Name != actor.Name {
			bystanders = append(bystanders, a)
		}
	}
	if len(bystanders) == 0 {
		return ""
	}

	ctx, span := observability.StartSpan(ctx, "turn.react", nil)
	defer span.End()

	raw := e.completeOrEmpty(ctx, "react", gen.Request{
		System:      reactSystem,
		User:        reactUser(actor.Name, action, bystanders),
		Temperature: reactTemperature,
	})
	if strings.Contains(raw, passSentinel) {
		return ""
	}
	return raw
}

// stageUpdate requests a structured world-state delta and applies it.
func (e *Engine) stageUpdate(ctx context.Context, sess *Session, action, intervention string) StateDelta {
	ctx, span := observability.StartSpan(ctx, "turn.update_state", nil)
	defer span.End()

	raw := e.structuredOrEmpty(ctx, "update_state", gen.Request{
		System:      updateSystem,
		User:        updateUser(sess.State, action, intervention),
		Temperature: updateTemperature,
	})
	delta := parseStateDelta(raw)
	delta.apply(sess.State)
	return delta
}

// stageNarrate synthesizes the turn's prose from the raw stage artifacts.
func (e *Engine) stageNarrate(ctx context.Context, sess *Session, actor *Agent, action, reaction string, success bool) string {
	ctx, span := observability.StartSpan(ctx, "turn.narrate", nil)
	defer span.End()
	return e.completeOrEmpty(ctx, "narrate", gen.Request{
		System:      narratorSystem,
		User:        narratorUser(sess, actor, action, reaction, success),
		Temperature: narrateTemperature,
	})
}

// stageVisualize derives an image prompt from the prose and generates the
// illustration, returning its URL or empty on any failure.
func (e *Engine) stageVisualize(ctx context.Context, sess *Session, prose string) string {
	ctx, span := observability.StartSpan(ctx, "turn.visualize", nil)
	defer span.End()

	prompt := e.completeOrEmpty(ctx, "visualize", gen.Request{
		System:      artSystem,
		User:        artUser(sess.VisualStyle, prose),
		Temperature: visualizeTemperature,
	})
	if prompt == "" {
		return ""
	}

	stageCtx, cancel := e.stageContext(ctx)
	defer cancel()
	start := time.Now()
	url, err := e.image.Generate(stageCtx, prompt)
	observability.ObserveStageDuration("image", time.Since(start).Seconds())
	if err != nil {
		observability.RecordGenerationFailure("image")
		log.Printf("stage image degraded for session %s: %v", sess.ID, err)
		return ""
	}
	return url
}

// completeOrEmpty runs a free-text generation, degrading any failure
// (including timeout) to an empty string.
func (e *Engine) completeOrEmpty(ctx context.Context, stage string, req gen.Request) string {
	stageCtx, cancel := e.stageContext(ctx)
	defer cancel()

	start := time.Now()
	out, err := e.text.Complete(stageCtx, req)
	observability.ObserveStageDuration(stage, time.Since(start).Seconds())
	if err != nil {
		observability.RecordGenerationFailure(stage)
		log.Printf("stage %s degraded: %v", stage, err)
		return ""
	}
	return out
}

// structuredOrEmpty runs a structured generation, degrading any failure to
// an empty payload.
func (e *Engine) structuredOrEmpty(ctx context.Context, stage string, req gen.Request) json.RawMessage {
	stageCtx, cancel := e.stageContext(ctx)
	defer cancel()

	start := time.Now()
	out, err := e.text.Structured(stageCtx, req)
	observability.ObserveStageDuration(stage, time.Since(start).Seconds())
	if err != nil {
		observability.RecordGenerationFailure(stage)
		log.Printf("stage %s degraded: %v", stage, err)
		return nil
	}
	return out
}

func (e *Engine) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.stageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.stageTimeout)
}
