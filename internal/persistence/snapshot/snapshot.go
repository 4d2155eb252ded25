// Package snapshot writes periodic full-world captures so a long run can
// be inspected or resumed without replaying every tick. The file is a
// one-line JSON header (greppable without decompressing much) followed
// by a zstd-compressed gob body.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"harvestsim.ai/internal/sim/state"
	"harvestsim.ai/internal/sim/tuning"
)

type Header struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 captures everything needed to resume or audit a run at one
// tick: the full world, the run's configuration, and the digests that
// pin the catalog it was balanced against.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed   int64  `json:"seed"`
	Policy string `json:"policy"`
	Speed  float64 `json:"speed"`

	ItemsDigest   string `json:"items_digest"`
	RecipesDigest string `json:"recipes_digest"`

	Tuning tuning.Tuning `json:"tuning"`
	World  *state.World  `json:"world"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line; the gob body carries it too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// PathFor names the snapshot file for a run/tick pair under dataDir.
func PathFor(dataDir, runID string, tick uint64) string {
	return filepath.Join(dataDir, "runs", runID, "snapshots", fmt.Sprintf("tick_%012d.snap.zst", tick))
}
