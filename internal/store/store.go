// Package store persists research run snapshots in PostgreSQL via gorm.
// Each run is one row plus one row per dataset record; typed payloads are
// kept as JSON next to the indexed identity columns.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/henrybloomingdale/biofan/internal/quality"
	"github.com/henrybloomingdale/biofan/internal/record"
	"github.com/henrybloomingdale/biofan/internal/research"
	"github.com/henrybloomingdale/biofan/internal/xref"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Run is the snapshot header of one research run.
type Run struct {
	ID         string    `gorm:"primaryKey;size:36"`
	CreatedAt  time.Time `gorm:"index"`
	Question   string    `gorm:"type:text"`
	StartedAt  time.Time
	FinishedAt time.Time
	Calls      int
	Failures   int
	Spec       string `gorm:"type:text"`
	Report     string `gorm:"type:text"`
	CallLog    string `gorm:"type:text"`
	Augment    string `gorm:"type:text"`
}

// CompoundRow is one compound of a run.
type CompoundRow struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"index;size:36"`
	Position   int
	CompoundID string
	InChIKey14 string `gorm:"column:inchikey14;index"`
	Payload    string `gorm:"type:text"`
}

// TargetRow is one target of a run.
type TargetRow struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index;size:36"`
	Position int
	TargetID string
	UniProt  string `gorm:"column:uniprot;index"`
	Payload  string `gorm:"type:text"`
}

// AssayRow is one activity of a run.
type AssayRow struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index;size:36"`
	Position int
	AssayID  string
	TargetID string `gorm:"index"`
	Payload  string `gorm:"type:text"`
}

// LiteratureRow is one publication of a run.
type LiteratureRow struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index;size:36"`
	Position int
	Key      string `gorm:"index"`
	PMID     string `gorm:"column:pmid"`
	DOI      string `gorm:"column:doi"`
	Payload  string `gorm:"type:text"`
}

// Models lists every table managed by the store.
var Models = []any{&Run{}, &CompoundRow{}, &TargetRow{}, &AssayRow{}, &LiteratureRow{}}

// Store wraps a gorm handle.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to PostgreSQL and migrates the schema.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return New(db, log)
}

// New wraps an existing handle and migrates the schema.
func New(db *gorm.DB, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db, logger: log}, nil
}

// SaveRun writes a run and its dataset in one transaction.
func (s *Store) SaveRun(ctx context.Context, res *research.Result) error {
	run, err := runRow(res)
	if err != nil {
		return err
	}
	rows, err := datasetRows(res.RunID, res.Dataset)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		return rows.create(tx)
	})
	if err != nil {
		return fmt.Errorf("saving run %s: %w", res.RunID, err)
	}
	s.logger.Debug("run saved", zap.String("run_id", res.RunID),
		zap.Int("compounds", len(rows.compounds)),
		zap.Int("literature", len(rows.literature)))
	return nil
}

// LoadRun reads a run snapshot back.
func (s *Store) LoadRun(ctx context.Context, id string) (*research.Result, error) {
	db := s.db.WithContext(ctx)
	var run Run
	if err := db.First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	var rows rowSet
	for _, dst := range []any{&rows.compounds, &rows.targets, &rows.assays, &rows.literature} {
		if err := db.Where("run_id = ?", id).Order("position").Find(dst).Error; err != nil {
			return nil, fmt.Errorf("loading run %s: %w", id, err)
		}
	}
	return fromRows(run, rows)
}

// Summary is a run header for listings.
type Summary struct {
	ID         string    `json:"run_id"`
	Question   string    `json:"question,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
	Calls      int       `json:"calls"`
	Failures   int       `json:"failures"`
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	err := s.db.WithContext(ctx).
		Select("id", "question", "finished_at", "calls", "failures").
		Order("created_at desc").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	out := make([]Summary, len(runs))
	for i, r := range runs {
		out[i] = Summary{ID: r.ID, Question: r.Question, FinishedAt: r.FinishedAt, Calls: r.Calls, Failures: r.Failures}
	}
	return out, nil
}

type augmentation struct {
	Compounds xref.Stats `json:"compounds"`
	Targets   xref.Stats `json:"targets"`
}

type rowSet struct {
	compounds  []CompoundRow
	targets    []TargetRow
	assays     []AssayRow
	literature []LiteratureRow
}

const batchSize = 200

func (rs rowSet) create(tx *gorm.DB) error {
	if len(rs.compounds) > 0 {
		if err := tx.CreateInBatches(&rs.compounds, batchSize).Error; err != nil {
			return err
		}
	}
	if len(rs.targets) > 0 {
		if err := tx.CreateInBatches(&rs.targets, batchSize).Error; err != nil {
			return err
		}
	}
	if len(rs.assays) > 0 {
		if err := tx.CreateInBatches(&rs.assays, batchSize).Error; err != nil {
			return err
		}
	}
	if len(rs.literature) > 0 {
		if err := tx.CreateInBatches(&rs.literature, batchSize).Error; err != nil {
			return err
		}
	}
	return nil
}

func runRow(res *research.Result) (Run, error) {
	spec, err := json.Marshal(res.Spec)
	if err != nil {
		return Run{}, err
	}
	report, err := json.Marshal(res.Report)
	if err != nil {
		return Run{}, err
	}
	calls, err := json.Marshal(res.Calls)
	if err != nil {
		return Run{}, err
	}
	aug, err := json.Marshal(augmentation{Compounds: res.CompoundAugmentation, Targets: res.TargetAugmentation})
	if err != nil {
		return Run{}, err
	}
	return Run{
		ID:         res.RunID,
		Question:   res.Spec.Question,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Calls:      len(res.Calls),
		Failures:   res.Failures,
		Spec:       string(spec),
		Report:     string(report),
		CallLog:    string(calls),
		Augment:    string(aug),
	}, nil
}

func datasetRows(runID string, d record.Dataset) (rowSet, error) {
	var rs rowSet
	for i, c := range d.Compounds {
		p, err := json.Marshal(c)
		if err != nil {
			return rs, err
		}
		rs.compounds = append(rs.compounds, CompoundRow{RunID: runID, Position: i, CompoundID: c.CompoundID, InChIKey14: c.InChIKey14, Payload: string(p)})
	}
	for i, t := range d.Targets {
		p, err := json.Marshal(t)
		if err != nil {
			return rs, err
		}
		rs.targets = append(rs.targets, TargetRow{RunID: runID, Position: i, TargetID: t.TargetID, UniProt: t.UniProt, Payload: string(p)})
	}
	for i, a := range d.Assays {
		p, err := json.Marshal(a)
		if err != nil {
			return rs, err
		}
		rs.assays = append(rs.assays, AssayRow{RunID: runID, Position: i, AssayID: a.AssayID, TargetID: a.TargetID, Payload: string(p)})
	}
	for i, l := range d.Literature {
		p, err := json.Marshal(l)
		if err != nil {
			return rs, err
		}
		rs.literature = append(rs.literature, LiteratureRow{RunID: runID, Position: i, Key: l.Key, PMID: l.PMID, DOI: l.DOI, Payload: string(p)})
	}
	return rs, nil
}

func fromRows(run Run, rs rowSet) (*research.Result, error) {
	res := &research.Result{
		RunID:      run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Failures:   run.Failures,
	}
	var aug augmentation
	for _, f := range []struct {
		src string
		dst any
	}{
		{run.Spec, &res.Spec},
		{run.Report, &res.Report},
		{run.CallLog, &res.Calls},
		{run.Augment, &aug},
	} {
		if f.src == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("decoding run %s: %w", run.ID, err)
		}
	}
	res.CompoundAugmentation = aug.Compounds
	res.TargetAugmentation = aug.Targets

	var err error
	if res.Dataset.Compounds, err = decodeAll[record.Compound](rs.compounds, func(r CompoundRow) string { return r.Payload }); err != nil {
		return nil, err
	}
	if res.Dataset.Targets, err = decodeAll[record.Target](rs.targets, func(r TargetRow) string { return r.Payload }); err != nil {
		return nil, err
	}
	if res.Dataset.Assays, err = decodeAll[record.Assay](rs.assays, func(r AssayRow) string { return r.Payload }); err != nil {
		return nil, err
	}
	if res.Dataset.Literature, err = decodeAll[record.Literature](rs.literature, func(r LiteratureRow) string { return r.Payload }); err != nil {
		return nil, err
	}
	if res.Report.Metrics == nil {
		res.Report = quality.Summarize(res.Dataset)
	}
	return res, nil
}

func decodeAll[T, R any](rows []R, payload func(R) string) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		var v T
		if err := json.Unmarshal([]byte(payload(r)), &v); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
