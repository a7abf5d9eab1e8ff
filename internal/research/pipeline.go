package research

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/henrybloomingdale/biofan/internal/merge"
	"github.com/henrybloomingdale/biofan/internal/normalize"
	"github.com/henrybloomingdale/biofan/internal/quality"
	"github.com/henrybloomingdale/biofan/internal/record"
	"github.com/henrybloomingdale/biofan/internal/xref"
)

// DefaultDelay is the pause between consecutive source calls.
const DefaultDelay = 50 * time.Millisecond

// Invoker performs one source tool call.
type Invoker interface {
	Invoke(ctx context.Context, server, tool string, args map[string]any) (any, error)
}

// CallLog records the outcome of one source call.
type CallLog struct {
	Server  string         `json:"server"`
	Tool    string         `json:"tool"`
	Args    map[string]any `json:"args,omitempty"`
	OK      bool           `json:"ok"`
	Error   string         `json:"error,omitempty"`
	Elapsed time.Duration  `json:"elapsed_ns"`
	Records int            `json:"records"`
}

// Result is the output of one research run.
type Result struct {
	RunID                string         `json:"run_id"`
	Spec                 Spec           `json:"spec"`
	StartedAt            time.Time      `json:"started_at"`
	FinishedAt           time.Time      `json:"finished_at"`
	Dataset              record.Dataset `json:"dataset"`
	Report               quality.Report `json:"report"`
	Calls                []CallLog      `json:"calls"`
	Failures             int            `json:"failures"`
	CompoundAugmentation xref.Stats     `json:"compound_augmentation"`
	TargetAugmentation   xref.Stats     `json:"target_augmentation"`
}

// ProgressPhase indicates where a run is in the pipeline.
type ProgressPhase string

const (
	ProgressCompounds  ProgressPhase = "compounds"
	ProgressTargets    ProgressPhase = "targets"
	ProgressActivities ProgressPhase = "activities"
	ProgressLiterature ProgressPhase = "literature"
	ProgressAugment    ProgressPhase = "augment"
	ProgressQuality    ProgressPhase = "quality"
)

// ProgressUpdate is emitted as the pipeline advances.
type ProgressUpdate struct {
	Phase   ProgressPhase
	Message string
}

// ProgressCallback receives progress updates. It must be fast and must not
// block.
type ProgressCallback func(ProgressUpdate)

// Pipeline runs research specifications against a set of sources.
type Pipeline struct {
	invoker   Invoker
	registry  *normalize.Registry
	augmenter *xref.Augmenter
	delay     time.Duration
	logger    *zap.Logger
	progress  ProgressCallback
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDelay sets the throttle between consecutive calls.
func WithDelay(d time.Duration) Option {
	return func(p *Pipeline) {
		if d >= 0 {
			p.delay = d
		}
	}
}

// WithAugmenter enables cross-reference augmentation.
func WithAugmenter(a *xref.Augmenter) Option {
	return func(p *Pipeline) { p.augmenter = a }
}

// WithRegistry replaces the default normalizer registry.
func WithRegistry(r *normalize.Registry) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a pipeline that calls sources through inv.
func New(inv Invoker, opts ...Option) *Pipeline {
	p := &Pipeline{
		invoker:  inv,
		registry: normalize.DefaultRegistry(),
		delay:    DefaultDelay,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithProgress sets an optional progress callback.
func (p *Pipeline) WithProgress(cb ProgressCallback) *Pipeline {
	if p == nil {
		return nil
	}
	p.progress = cb
	return p
}

func (p *Pipeline) report(phase ProgressPhase, msg string) {
	if p.progress != nil {
		p.progress(ProgressUpdate{Phase: phase, Message: msg})
	}
}

// Run executes spec. Source failures are recorded in the result and never
// returned; only an invalid spec or a canceled context fail the run.
func (p *Pipeline) Run(ctx context.Context, spec Spec) (*Result, error) {
	if p == nil || p.invoker == nil {
		return nil, errors.New("research pipeline has no source invoker")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	r := &run{p: p, res: &Result{RunID: uuid.NewString(), Spec: spec, StartedAt: time.Now().UTC()}}
	var (
		compounds []record.Compound
		targets   []record.Target
		actRows   []map[string]any
		lit       []record.Literature
	)

	if spec.uses(normalize.ServerPubChem) && len(spec.Compounds) > 0 {
		p.report(ProgressCompounds, "Resolving compounds...")
		for _, name := range spec.Compounds {
			recs, _, err := r.call(ctx, normalize.ServerPubChem, normalize.ToolProperties, map[string]any{"name": name})
			if err != nil {
				return nil, err
			}
			compounds = append(compounds, record.Split(recs).Compounds...)
		}
	}

	var chemblTargets, uniprotTargets []record.Target
	if len(spec.Targets) > 0 {
		p.report(ProgressTargets, "Searching targets...")
	}
	for _, q := range spec.Targets {
		if spec.uses(normalize.ServerChEMBL) {
			recs, _, err := r.call(ctx, normalize.ServerChEMBL, normalize.ToolTargetSearch, map[string]any{"query": q, "limit": 5})
			if err != nil {
				return nil, err
			}
			chemblTargets = append(chemblTargets, record.Split(recs).Targets...)
		}
		if spec.uses(normalize.ServerUniProt) {
			recs, _, err := r.call(ctx, normalize.ServerUniProt, normalize.ToolSearch, map[string]any{"query": q, "size": 5})
			if err != nil {
				return nil, err
			}
			uniprotTargets = append(uniprotTargets, record.Split(recs).Targets...)
		}
	}
	targets = merge.Targets(chemblTargets, uniprotTargets)

	if ids := activityTargets(chemblTargets); len(ids) > 0 {
		p.report(ProgressActivities, "Fetching activities...")
		for _, id := range ids {
			args := map[string]any{"target_chembl_id": id, "limit": spec.activityLimit(), "pchembl_only": spec.PChEMBLOnly}
			_, payload, err := r.call(ctx, normalize.ServerChEMBL, normalize.ToolActivities, args)
			if err != nil {
				return nil, err
			}
			actRows = append(actRows, normalize.ActivityRows(payload)...)
		}
	}

	if q := spec.literatureQuery(); q != "" {
		p.report(ProgressLiterature, "Searching literature...")
		n := spec.literatureLimit()
		for _, c := range []struct {
			server, tool string
			args         map[string]any
		}{
			{normalize.ServerPubMed, normalize.ToolESearch, map[string]any{"term": q, "retmax": n}},
			{normalize.ServerEuropePMC, normalize.ToolSearch, map[string]any{"query": q, "page_size": n}},
			{normalize.ServerOpenAlex, normalize.ToolWorks, map[string]any{"search": q, "per_page": n}},
		} {
			if !spec.uses(c.server) {
				continue
			}
			recs, _, err := r.call(ctx, c.server, c.tool, c.args)
			if err != nil {
				return nil, err
			}
			lit = append(lit, record.Split(recs).Literature...)
		}
	}

	if p.augmenter != nil {
		p.report(ProgressAugment, "Augmenting cross-references...")
		compounds, r.res.CompoundAugmentation = p.augmenter.AugmentCompounds(ctx, compounds)
		targets, r.res.TargetAugmentation = p.augmenter.AugmentTargets(ctx, targets)
	}

	lookup := merge.TargetLookup(targets)
	ds := record.Dataset{
		Compounds:  compounds,
		Targets:    targets,
		Assays:     merge.RelinkActivities(actRows, lookup),
		Literature: merge.DedupLiterature(lit),
	}

	p.report(ProgressQuality, "Summarizing quality...")
	r.res.Report = quality.Summarize(ds)
	if spec.Collapse {
		ds.Compounds = merge.CollapseCompounds(ds.Compounds)
		ds.Targets = merge.CollapseTargets(ds.Targets)
	}
	r.res.Dataset = ds
	r.res.FinishedAt = time.Now().UTC()

	p.logger.Info("research run complete",
		zap.String("run_id", r.res.RunID),
		zap.Int("calls", len(r.res.Calls)),
		zap.Int("failures", r.res.Failures),
		zap.Int("compounds", len(ds.Compounds)),
		zap.Int("targets", len(ds.Targets)),
		zap.Int("assays", len(ds.Assays)),
		zap.Int("literature", len(ds.Literature)),
	)
	return r.res, nil
}

// activityTargets returns the distinct ChEMBL target ids to fetch
// activities for, in first-seen order.
func activityTargets(targets []record.Target) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, t := range targets {
		id := t.ChEMBLTargetID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if len(ids) == maxActivityTargets {
			break
		}
	}
	return ids
}

type run struct {
	p   *Pipeline
	res *Result
}

// call performs one throttled, awaited source call. A source failure is
// logged and recorded; the returned error is non-nil only when ctx ends.
func (r *run) call(ctx context.Context, server, tool string, args map[string]any) ([]record.Record, any, error) {
	if len(r.res.Calls) > 0 && r.p.delay > 0 {
		if err := sleep(ctx, r.p.delay); err != nil {
			return nil, nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	payload, err := r.p.invoker.Invoke(ctx, server, tool, args)
	log := CallLog{Server: server, Tool: tool, Args: args, Elapsed: time.Since(start)}
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		log.Error = err.Error()
		r.res.Calls = append(r.res.Calls, log)
		r.res.Failures++
		r.p.logger.Warn("source call failed",
			zap.String("source", server),
			zap.String("tool", tool),
			zap.Duration("elapsed", log.Elapsed),
			zap.Error(err),
		)
		return nil, nil, nil
	}

	recs, _ := r.p.registry.Normalize(server, tool, payload, args)
	log.OK = true
	log.Records = len(recs)
	r.res.Calls = append(r.res.Calls, log)
	r.p.logger.Debug("source call",
		zap.String("source", server),
		zap.String("tool", tool),
		zap.Int("records", log.Records),
		zap.Duration("elapsed", log.Elapsed),
	)
	return recs, payload, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
