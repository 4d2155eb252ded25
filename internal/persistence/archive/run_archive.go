// Package archive preserves completed runs: the final snapshot plus a
// small meta file land under dataDir/archives/<run_id>/, out of the way
// of the hot run directories.
package archive

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"harvestsim.ai/internal/persistence/snapshot"
)

type RunArchiveMeta struct {
	RunID     string `json:"run_id"`
	Seed      int64  `json:"seed"`
	Policy    string `json:"policy"`
	Reason    string `json:"reason"`
	EndTick   uint64 `json:"end_tick"`
	Days      int    `json:"days"`
	Level     int    `json:"level"`
	Snapshot  string `json:"snapshot"`
	CreatedAt string `json:"created_at"`
}

// ArchiveRun copies the run's final snapshot into the archive directory
// and writes the run meta beside it. Returns the archived snapshot path.
func ArchiveRun(dataDir, snapshotPath, reason string, snap snapshot.SnapshotV1) (string, error) {
	archiveDir := filepath.Join(dataDir, "archives", snap.Header.RunID)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", err
	}

	meta := RunArchiveMeta{
		RunID:     snap.Header.RunID,
		Seed:      snap.Seed,
		Policy:    snap.Policy,
		Reason:    reason,
		EndTick:   snap.Header.Tick,
		Days:      snap.World.Clock.Day(),
		Level:     snap.World.Progression.Level,
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
