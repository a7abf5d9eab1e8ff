// Package answer builds ranked answer cards for open biomedical questions.
// A deterministic plan of source calls is run concurrently, the payloads
// are normalized into records, and publications, trials and genes are
// ranked against the question's slots.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/henrybloomingdale/biofan/internal/merge"
	"github.com/henrybloomingdale/biofan/internal/normalize"
	"github.com/henrybloomingdale/biofan/internal/rank"
	"github.com/henrybloomingdale/biofan/internal/record"
	"github.com/henrybloomingdale/biofan/internal/runner"
)

// Request is an open question with optional known slots.
type Request struct {
	Question string     `json:"question"`
	Slots    rank.Slots `json:"slots"`
}

// Card is a ranked answer.
type Card struct {
	ID           string          `json:"id"`
	Question     string          `json:"question"`
	Slots        rank.Slots      `json:"slots"`
	CreatedAt    time.Time       `json:"created_at"`
	Publications []record.Record `json:"publications"`
	Trials       []record.Record `json:"trials"`
	Genes        []record.Record `json:"genes"`
	Targets      []record.Record `json:"targets"`
	Calls        []runner.Result `json:"calls"`
	Failures     int             `json:"failures"`
}

// ErrEmptyRequest is returned when a request has neither a question nor
// slots to search for.
var ErrEmptyRequest = errors.New("question or slots are required")

// Plan sizes.
const (
	literaturePageSize = 25
	trialPageSize      = 20
	maxGeneLookups     = 5
)

// Query builds the search string for a request: the question, or the
// known slots when the question is blank.
func Query(req Request) string {
	if q := strings.TrimSpace(req.Question); q != "" {
		return q
	}
	var parts []string
	for _, group := range [][]string{req.Slots.Genes, req.Slots.Variants, req.Slots.Drugs, req.Slots.Diseases} {
		parts = append(parts, group...)
	}
	return strings.Join(parts, " ")
}

// Plan returns the tool calls for req. The plan depends only on req.
func Plan(req Request) []runner.Call {
	q := Query(req)
	if q == "" {
		return nil
	}
	calls := []runner.Call{
		{Server: normalize.ServerEuropePMC, Tool: normalize.ToolSearch, Args: map[string]any{"query": q, "page_size": literaturePageSize}},
		{Server: normalize.ServerOpenAlex, Tool: normalize.ToolWorks, Args: map[string]any{"search": q, "per_page": literaturePageSize}},
		{Server: normalize.ServerPubMed, Tool: normalize.ToolESearch, Args: map[string]any{"term": q, "retmax": literaturePageSize}},
		{Server: normalize.ServerClinicalTrials, Tool: normalize.ToolStudies, Args: map[string]any{"term": q, "page_size": trialPageSize}},
	}
	for _, id := range req.Slots.NCTIDs {
		calls = append(calls, runner.Call{Server: normalize.ServerClinicalTrials, Tool: normalize.ToolStudies, Args: map[string]any{"term": id, "page_size": 1}})
	}
	for i, g := range req.Slots.Genes {
		if i == maxGeneLookups {
			break
		}
		calls = append(calls, runner.Call{Server: normalize.ServerUniProt, Tool: normalize.ToolSearch, Args: map[string]any{"query": g, "size": 1}})
	}
	return calls
}

// ProgressPhase indicates where the engine is.
type ProgressPhase string

const (
	ProgressPlan  ProgressPhase = "plan"
	ProgressFetch ProgressPhase = "fetch"
	ProgressRank  ProgressPhase = "rank"
)

// ProgressUpdate is emitted as the engine advances.
type ProgressUpdate struct {
	Phase   ProgressPhase
	Message string
}

// ProgressCallback receives progress updates. It must be fast and must not
// block.
type ProgressCallback func(ProgressUpdate)

// Engine answers questions.
type Engine struct {
	invoke   runner.InvokeFunc
	runner   *runner.Runner
	registry *normalize.Registry
	caps     rank.Caps
	logger   *zap.Logger
	progress ProgressCallback
}

// Option configures an Engine.
type Option func(*Engine)

// WithCaps sets display caps.
func WithCaps(c rank.Caps) Option {
	return func(e *Engine) { e.caps = c }
}

// WithRegistry replaces the default normalizer registry.
func WithRegistry(r *normalize.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine that runs calls through r using invoke.
func NewEngine(invoke runner.InvokeFunc, r *runner.Runner, opts ...Option) *Engine {
	e := &Engine{
		invoke:   invoke,
		runner:   r,
		registry: normalize.DefaultRegistry(),
		caps:     rank.DefaultCaps(),
		logger:   zap.NewNop(),
	}
	if e.runner == nil {
		e.runner = runner.New(0, 0, e.logger)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithProgress sets an optional progress callback.
func (e *Engine) WithProgress(cb ProgressCallback) *Engine {
	if e == nil {
		return nil
	}
	e.progress = cb
	return e
}

func (e *Engine) report(phase ProgressPhase, msg string) {
	if e.progress != nil {
		e.progress(ProgressUpdate{Phase: phase, Message: msg})
	}
}

// Answer runs the plan for req and ranks what comes back. Failed calls are
// reported on the card; the card is returned even when every call fails.
func (e *Engine) Answer(ctx context.Context, req Request) (*Card, error) {
	if e == nil || e.invoke == nil {
		return nil, errors.New("answer engine has no source invoker")
	}
	req.Question = strings.TrimSpace(req.Question)
	slots := rank.ExtractSlots(req.Question, req.Slots)
	req.Slots = slots

	e.report(ProgressPlan, "Planning source calls...")
	calls := Plan(req)
	if len(calls) == 0 {
		return nil, ErrEmptyRequest
	}

	e.report(ProgressFetch, fmt.Sprintf("Querying %d sources...", len(calls)))
	batch := e.runner.Run(ctx, calls, e.invoke)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var recs []record.Record
	for _, res := range batch.Results {
		if !res.OK {
			continue
		}
		out, ok := e.registry.Normalize(res.Call.Server, res.Call.Tool, res.Payload, res.Call.Args)
		if !ok {
			e.logger.Warn("no normalizer for tool", zap.String("server", res.Call.Server), zap.String("tool", res.Call.Tool))
			continue
		}
		recs = append(recs, out...)
	}

	e.report(ProgressRank, "Ranking evidence...")
	pubs, trials, targets := partition(recs)
	rank.AttachEvidence(pubs)
	genes := rank.MineGenes(pubs, slots, e.caps.Genes)

	all := append(append(append(pubs, trials...), targets...), rank.GeneRecords(genes, slots)...)
	groups := rank.Rank(all, slots, e.caps)

	card := &Card{
		ID:           uuid.NewString(),
		Question:     req.Question,
		Slots:        slots,
		CreatedAt:    time.Now().UTC(),
		Publications: groups[record.KindPublication],
		Trials:       groups[record.KindTrial],
		Genes:        groups[record.KindGene],
		Targets:      groups[record.KindTarget],
		Calls:        batch.Results,
		Failures:     batch.Failures,
	}
	e.logger.Info("answer card built",
		zap.String("card_id", card.ID),
		zap.Int("calls", len(calls)),
		zap.Int("failures", card.Failures),
		zap.Int("publications", len(card.Publications)),
		zap.Int("trials", len(card.Trials)),
	)
	return card, nil
}

// partition splits records by kind, merging duplicate publications by key
// and keeping the first trial and target per id.
func partition(recs []record.Record) (pubs, trials, targets []record.Record) {
	var lit []record.Literature
	src := make(map[string]*record.Provenance)
	seenTrial := make(map[string]bool)
	seenTarget := make(map[string]bool)
	for _, r := range recs {
		switch {
		case r.Publication != nil:
			lit = append(lit, *r.Publication)
			if _, ok := src[r.ID]; !ok {
				src[r.ID] = r.Source
			}
		case r.Kind == record.KindTrial:
			if r.ID == "" || !seenTrial[r.ID] {
				seenTrial[r.ID] = true
				trials = append(trials, r)
			}
		case r.Kind == record.KindTarget:
			if !seenTarget[r.ID] {
				seenTarget[r.ID] = true
				targets = append(targets, r)
			}
		}
	}
	for _, l := range merge.DedupLiterature(lit) {
		pubs = append(pubs, record.FromLiterature(l, src[l.Key]))
	}
	return pubs, trials, targets
}
