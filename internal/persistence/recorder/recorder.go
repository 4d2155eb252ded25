// Package recorder fans one run's output into the persistence layers:
// compressed JSONL logs, the sqlite archive, periodic snapshots and the
// optional object-store mirror. Binaries hand it tick summaries; it
// never touches the engine's internals.
package recorder

import (
	"encoding/json"
	stdlog "log"
	"path/filepath"
	"sync"

	"harvestsim.ai/internal/persistence/archive"
	runlog "harvestsim.ai/internal/persistence/log"
	"harvestsim.ai/internal/persistence/r2s3"
	"harvestsim.ai/internal/persistence/rundb"
	"harvestsim.ai/internal/persistence/snapshot"
	"harvestsim.ai/internal/sim/engine"
)

type Recorder struct {
	dataDir string
	db      *rundb.DB
	mirror  *r2s3.Mirror // nil: mirroring disabled
	logger  *stdlog.Logger

	mu   sync.Mutex
	runs map[string]*runRec
}

type runRec struct {
	cfg           engine.Config
	itemsDigest   string
	recipesDigest string
	snapshotEvery int
	lastSnapshot  string

	ticks  *runlog.TickLogger
	events *runlog.EventLogger
}

func New(dataDir string, db *rundb.DB, mirror *r2s3.Mirror, logger *stdlog.Logger) *Recorder {
	return &Recorder{
		dataDir: dataDir,
		db:      db,
		mirror:  mirror,
		logger:  logger,
		runs:    map[string]*runRec{},
	}
}

// OnRun registers a freshly initialized run.
func (r *Recorder) OnRun(runID string, e *engine.Engine) {
	cfg := e.Config()
	cat := e.Catalog()
	runDir := filepath.Join(r.dataDir, "runs", runID)
	rec := &runRec{
		cfg:           cfg,
		itemsDigest:   cat.ItemsDigest,
		recipesDigest: cat.RecipesDigest,
		snapshotEvery: cfg.Tuning.Decisions.SnapshotEveryTick,
		ticks:         runlog.NewTickLogger(runDir),
		events:        runlog.NewEventLogger(runDir),
	}
	r.mu.Lock()
	r.runs[runID] = rec
	r.mu.Unlock()

	if err := r.db.StartRun(runID, cfg.Seed, cfg.Policy, cat.ItemsDigest, cat.RecipesDigest); err != nil {
		r.logger.Printf("rundb start %s: %v", runID, err)
	}
}

// OnTick persists one tick summary.
func (r *Recorder) OnTick(runID string, sum *engine.TickSummary) {
	r.mu.Lock()
	rec := r.runs[runID]
	r.mu.Unlock()
	if rec == nil {
		return
	}

	raw, _ := json.Marshal(sum)
	if err := rec.ticks.WriteTick(sum); err != nil {
		r.logger.Printf("tick log %s: %v", runID, err)
	}
	for _, ev := range sum.Events {
		if err := rec.events.WriteEvent(ev); err != nil {
			r.logger.Printf("event log %s: %v", runID, err)
			break
		}
		evRaw, _ := json.Marshal(ev)
		r.db.WriteEvent(rundb.EventRow{
			RunID:   runID,
			Tick:    ev.Tick,
			Type:    ev.Type,
			Level:   string(ev.Level),
			RawJSON: string(evRaw),
		})
	}

	row := rundb.TickRow{
		RunID:    runID,
		Tick:     sum.Tick,
		Day:      sum.Day,
		Minute:   sum.Minute,
		Level:    sum.World.Progression.Level,
		Energy:   sum.World.Resources.Energy.Current,
		Water:    sum.World.Resources.Water.Current,
		Gold:     sum.World.Resources.Gold.Current,
		NoAction: sum.NoAction,
		RawJSON:  string(raw),
	}
	if sum.Action != nil {
		row.ActionKind = string(sum.Action.Kind)
		row.Executed = sum.Action.Executed
	}
	r.db.WriteTick(row)

	if rec.snapshotEvery > 0 && sum.Tick > 0 && sum.Tick%uint64(rec.snapshotEvery) == 0 {
		r.writeSnapshot(runID, rec, sum)
	}
}

// OnComplete closes out the run: final snapshot, archive, db row.
func (r *Recorder) OnComplete(runID string, c *engine.Completion) {
	r.mu.Lock()
	rec := r.runs[runID]
	delete(r.runs, runID)
	r.mu.Unlock()
	if rec == nil {
		return
	}

	snap := r.buildSnapshot(runID, rec, c.FinalState.Clock.Tick, c)
	path := snapshot.PathFor(r.dataDir, runID, snap.Header.Tick)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		r.logger.Printf("final snapshot %s: %v", runID, err)
	} else {
		r.db.RecordSnapshot(runID, snap.Header.Tick, path)
		if archived, err := archive.ArchiveRun(r.dataDir, path, string(c.Reason), snap); err != nil {
			r.logger.Printf("archive %s: %v", runID, err)
		} else if r.mirror != nil {
			r.mirror.Enqueue(archived)
		}
	}

	statsJSON, _ := json.Marshal(c.Stats)
	if err := r.db.FinishRun(runID, string(c.Reason), c.FinalState.Clock.Tick,
		c.FinalState.Clock.Day(), c.FinalState.Progression.Level, string(statsJSON)); err != nil {
		r.logger.Printf("rundb finish %s: %v", runID, err)
	}

	_ = rec.ticks.Close()
	_ = rec.events.Close()
}

func (r *Recorder) writeSnapshot(runID string, rec *runRec, sum *engine.TickSummary) {
	snap := snapshot.SnapshotV1{
		Header:        snapshot.Header{Version: 1, RunID: runID, Tick: sum.Tick},
		Seed:          rec.cfg.Seed,
		Policy:        rec.cfg.Policy,
		Speed:         rec.cfg.Speed,
		ItemsDigest:   rec.itemsDigest,
		RecipesDigest: rec.recipesDigest,
		Tuning:        rec.cfg.Tuning,
		World:         sum.World,
	}
	path := snapshot.PathFor(r.dataDir, runID, sum.Tick)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		r.logger.Printf("snapshot %s tick %d: %v", runID, sum.Tick, err)
		return
	}
	rec.lastSnapshot = path
	r.db.RecordSnapshot(runID, sum.Tick, path)
	if r.mirror != nil {
		r.mirror.Enqueue(path)
	}
}

func (r *Recorder) buildSnapshot(runID string, rec *runRec, tick uint64, c *engine.Completion) snapshot.SnapshotV1 {
	return snapshot.SnapshotV1{
		Header:        snapshot.Header{Version: 1, RunID: runID, Tick: tick},
		Seed:          rec.cfg.Seed,
		Policy:        rec.cfg.Policy,
		Speed:         rec.cfg.Speed,
		ItemsDigest:   rec.itemsDigest,
		RecipesDigest: rec.recipesDigest,
		Tuning:        rec.cfg.Tuning,
		World:         c.FinalState,
	}
}
