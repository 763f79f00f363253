// Package watch upgrades legacy .3d files to the current revision, either
// one file at a time or continuously for watched directories.
package watch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Faultbox/meshcodec/pkg/formats"
)

// Result describes what UpgradeFile did with one file.
type Result struct {
	Path     string
	Revision formats.Revision // layout found on disk
	Meshes   int
	Upgraded bool
	Backup   string // empty when no backup was written
}

// UpgradeFile rewrites a legacy .3d file as the current revision.
// Files already in the current revision are left untouched. When
// backupSuffix is not empty the original bytes are kept at
// path+backupSuffix. The rewrite goes through a temporary file and a
// rename so readers never see a partial file.
func UpgradeFile(path, backupSuffix string) (Result, error) {
	res := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("reading %s: %w", path, err)
	}

	meshes, revision, err := formats.ParseThreeDRevision(data)
	if err != nil {
		return res, fmt.Errorf("decoding %s: %w", path, err)
	}
	res.Revision = revision
	res.Meshes = len(meshes)

	if revision == formats.RevisionCurrent {
		return res, nil
	}

	encoded, err := formats.SerializeThreeD(meshes)
	if err != nil {
		return res, err
	}

	if backupSuffix != "" {
		res.Backup = path + backupSuffix
		if err := os.WriteFile(res.Backup, data, 0644); err != nil {
			return res, fmt.Errorf("writing backup: %w", err)
		}
	}

	if err := replaceFile(path, encoded); err != nil {
		return res, err
	}
	res.Upgraded = true

	return res, nil
}

func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
