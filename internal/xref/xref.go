// Package xref fills missing cross-references on normalized records with
// best-effort upstream lookups. Lookup failures never reach the caller: the
// affected record is returned unchanged and the failure is counted.
package xref

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/henrybloomingdale/biofan/internal/identity"
	"github.com/henrybloomingdale/biofan/internal/record"
)

// DefaultMaxLookups caps distinct target detail lookups per pass.
const DefaultMaxLookups = 25

// CompoundResolver resolves a PubChem CID to identity fields.
type CompoundResolver interface {
	LookupCID(ctx context.Context, cid string) (record.Compound, bool, error)
}

// TargetFetcher returns the full ChEMBL target payload for an id.
type TargetFetcher interface {
	TargetDetail(ctx context.Context, chemblID string) (map[string]any, error)
}

// Recorder observes lookup outcomes.
type Recorder interface {
	ObserveAugmentation(kind, outcome string)
}

// Lookup outcomes reported to a Recorder.
const (
	OutcomeResolved = "resolved"
	OutcomeMissing  = "missing"
	OutcomeFailed   = "failed"
	OutcomeCached   = "cached"
	OutcomeSkipped  = "skipped"
)

// Stats summarizes one augmentation pass. Counts are per distinct id.
type Stats struct {
	Attempted int `json:"attempted"`
	Resolved  int `json:"resolved"`
	Missing   int `json:"missing"`
	Failed    int `json:"failed"`
	Cached    int `json:"cached"`
	Skipped   int `json:"skipped"`
}

// Augmenter runs the compound and target enrichment passes.
type Augmenter struct {
	compounds  CompoundResolver
	targets    TargetFetcher
	cache      Cache
	maxLookups int
	retries    int
	backoff    time.Duration
	logger     *zap.Logger
	recorder   Recorder
	group      singleflight.Group
}

// Option configures an Augmenter.
type Option func(*Augmenter)

// WithMaxLookups bounds distinct target lookups per pass. Non-positive
// values keep the default.
func WithMaxLookups(n int) Option {
	return func(a *Augmenter) {
		if n > 0 {
			a.maxLookups = n
		}
	}
}

// WithRetries enables bounded retries with linear backoff on lookup errors.
// A missing match is not retried.
func WithRetries(n int, backoff time.Duration) Option {
	return func(a *Augmenter) {
		if n >= 0 {
			a.retries = n
		}
		a.backoff = backoff
	}
}

// WithCache sets a resolution cache.
func WithCache(c Cache) Option {
	return func(a *Augmenter) { a.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Augmenter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Augmenter) { a.recorder = r }
}

// New creates an Augmenter. Either collaborator may be nil, which disables
// the corresponding pass.
func New(compounds CompoundResolver, targets TargetFetcher, opts ...Option) *Augmenter {
	a := &Augmenter{
		compounds:  compounds,
		targets:    targets,
		maxLookups: DefaultMaxLookups,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type cidIdentity struct {
	InChIKey string `json:"inchikey,omitempty"`
	SMILES   string `json:"smiles,omitempty"`
}

// AugmentCompounds resolves CID-only compounds to an InChIKey and SMILES.
// Fields already populated are never overwritten. The input is not modified.
func (a *Augmenter) AugmentCompounds(ctx context.Context, compounds []record.Compound) ([]record.Compound, Stats) {
	out := make([]record.Compound, len(compounds))
	copy(out, compounds)
	var st Stats
	if a.compounds == nil {
		return out, st
	}

	resolved := make(map[string]*cidIdentity)
	for i := range out {
		c := &out[i]
		if c.InChIKey != "" || c.CID == "" {
			continue
		}
		id, seen := resolved[c.CID]
		if !seen {
			id = a.resolveCID(ctx, c.CID, &st)
			resolved[c.CID] = id
		}
		if id == nil {
			continue
		}
		if c.InChIKey == "" && id.InChIKey != "" {
			c.InChIKey = id.InChIKey
			c.InChIKey14 = identity.InChIKey14(id.InChIKey)
		}
		if c.SMILES == "" && id.SMILES != "" {
			c.SMILES = id.SMILES
		}
	}
	return out, st
}

func (a *Augmenter) resolveCID(ctx context.Context, cid string, st *Stats) *cidIdentity {
	key := "cid:" + cid
	if a.cache != nil {
		if v, ok := a.cache.Get(ctx, key); ok {
			var id cidIdentity
			if json.Unmarshal([]byte(v), &id) == nil {
				st.Cached++
				a.record(record.KindCompound, OutcomeCached)
				return &id
			}
		}
	}

	st.Attempted++
	v, err, _ := a.group.Do(key, func() (any, error) {
		var found cidIdentity
		var ok bool
		err := a.withRetry(ctx, func() error {
			c, hit, err := a.compounds.LookupCID(ctx, cid)
			if err != nil {
				return err
			}
			ok = hit
			found = cidIdentity{SMILES: c.SMILES}
			if identity.IsInChIKey(c.InChIKey) {
				found.InChIKey = c.InChIKey
			}
			return nil
		})
		if err != nil || !ok {
			return nil, err
		}
		return &found, nil
	})
	if err != nil {
		st.Failed++
		a.record(record.KindCompound, OutcomeFailed)
		a.logger.Warn("compound identity lookup failed", zap.String("cid", cid), zap.Error(err))
		return nil
	}
	id, _ := v.(*cidIdentity)
	if id == nil || (id.InChIKey == "" && id.SMILES == "") {
		st.Missing++
		a.record(record.KindCompound, OutcomeMissing)
		return nil
	}
	st.Resolved++
	a.record(record.KindCompound, OutcomeResolved)
	if a.cache != nil {
		if b, err := json.Marshal(id); err == nil {
			a.cache.Set(ctx, key, string(b))
		}
	}
	return id
}

// AugmentTargets resolves the UniProt accession of targets that carry only a
// ChEMBL id. At most maxLookups distinct ids are looked up, in first-seen
// order; cached ids do not count against the cap. Ids beyond the cap are left
// unaugmented. The input is not modified.
func (a *Augmenter) AugmentTargets(ctx context.Context, targets []record.Target) ([]record.Target, Stats) {
	out := make([]record.Target, len(targets))
	copy(out, targets)
	var st Stats
	if a.targets == nil {
		return out, st
	}

	var pending []string
	seen := make(map[string]bool)
	for _, t := range out {
		if t.UniProt != "" || t.ChEMBLTargetID == "" || seen[t.ChEMBLTargetID] {
			continue
		}
		seen[t.ChEMBLTargetID] = true
		pending = append(pending, t.ChEMBLTargetID)
	}

	accessions := make(map[string]string)
	lookups := 0
	for _, id := range pending {
		if a.cache != nil {
			if acc, ok := a.cache.Get(ctx, "chembl:"+id); ok && acc != "" {
				accessions[id] = acc
				st.Cached++
				a.record(record.KindTarget, OutcomeCached)
				continue
			}
		}
		if lookups >= a.maxLookups {
			st.Skipped++
			a.record(record.KindTarget, OutcomeSkipped)
			continue
		}
		lookups++
		if acc := a.resolveTarget(ctx, id, &st); acc != "" {
			accessions[id] = acc
		}
	}
	if st.Skipped > 0 {
		a.logger.Info("target augmentation capped",
			zap.Int("max_lookups", a.maxLookups),
			zap.Int("skipped", st.Skipped))
	}

	for i := range out {
		t := &out[i]
		if t.UniProt != "" {
			continue
		}
		acc, ok := accessions[t.ChEMBLTargetID]
		if !ok {
			continue
		}
		wasChEMBL := t.TargetID == t.ChEMBLTargetID || identity.IsChEMBLID(t.TargetID)
		t.UniProt = acc
		if wasChEMBL {
			t.TargetID = acc
		}
	}
	return out, st
}

func (a *Augmenter) resolveTarget(ctx context.Context, id string, st *Stats) string {
	st.Attempted++
	key := "chembl:" + id
	v, err, _ := a.group.Do(key, func() (any, error) {
		var acc string
		err := a.withRetry(ctx, func() error {
			detail, err := a.targets.TargetDetail(ctx, id)
			if err != nil {
				return err
			}
			acc, _ = identity.ExtractAccession(detail)
			if !identity.IsUniProtAccession(acc) {
				acc = ""
			}
			return nil
		})
		return acc, err
	})
	if err != nil {
		st.Failed++
		a.record(record.KindTarget, OutcomeFailed)
		a.logger.Warn("target detail lookup failed", zap.String("chembl_target_id", id), zap.Error(err))
		return ""
	}
	acc, _ := v.(string)
	if acc == "" {
		st.Missing++
		a.record(record.KindTarget, OutcomeMissing)
		return ""
	}
	st.Resolved++
	a.record(record.KindTarget, OutcomeResolved)
	if a.cache != nil {
		a.cache.Set(ctx, key, acc)
	}
	return acc
}

func (a *Augmenter) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= a.retries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(a.backoff * time.Duration(attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				return errors.Join(err, ctx.Err())
			case <-t.C:
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (a *Augmenter) record(kind record.Kind, outcome string) {
	if a.recorder != nil {
		a.recorder.ObserveAugmentation(string(kind), outcome)
	}
}
