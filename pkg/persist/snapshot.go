package persist

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Sumatoshi-tech/typetrail/pkg/history"
)

// SnapshotBasename names snapshot files inside a snapshot directory.
const SnapshotBasename = "typetrail-snapshot"

// SnapshotVersion is the format version written by SaveSnapshot.
const SnapshotVersion = 1

var (
	// ErrNoSnapshot is returned when a directory holds no snapshot file.
	ErrNoSnapshot = errors.New("no snapshot found")
	// ErrSnapshotVersion is returned for snapshots written by an incompatible version.
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
)

// Snapshot is a parsed project forest on disk.
type Snapshot struct {
	Version   int                `json:"version"`
	CreatedAt time.Time          `json:"created_at"`
	Sources   []string           `json:"sources"`
	Projects  []*history.Project `json:"projects"`
}

func snapshotPersister(compress bool) *Persister[Snapshot] {
	if compress {
		return NewPersister[Snapshot](SnapshotBasename, NewLZ4Codec())
	}

	return NewPersister[Snapshot](SnapshotBasename, NewJSONCodec())
}

// SaveSnapshot writes snap to dir, LZ4-compressed when compress is set, and
// returns the written path. Version is filled in.
func SaveSnapshot(dir string, snap *Snapshot, compress bool) (string, error) {
	snap.Version = SnapshotVersion
	if snap.Projects == nil {
		snap.Projects = []*history.Project{}
	}

	persister := snapshotPersister(compress)

	err := persister.Save(dir, snap)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	return persister.Path(dir), nil
}

// LoadSnapshot reads the snapshot in dir. A compressed snapshot takes
// precedence over a plain one.
func LoadSnapshot(dir string) (*Snapshot, error) {
	for _, compress := range []bool{true, false} {
		persister := snapshotPersister(compress)

		if _, statErr := os.Stat(persister.Path(dir)); statErr != nil {
			continue
		}

		snap, err := persister.Load(dir)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}

		if snap.Version != SnapshotVersion {
			return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, snap.Version)
		}

		return snap, nil
	}

	return nil, fmt.Errorf("%w in %s", ErrNoSnapshot, dir)
}
