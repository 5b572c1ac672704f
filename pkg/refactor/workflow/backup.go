package workflow

import (
	"archive/tar"
	"compress/gzip"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/rowanlane/cleave/pkg/models"
)

// ErrBackupNotFound means no backup matches the requested workflow.
var ErrBackupNotFound = errors.New("backup not found")

const (
	snapshotName = "snapshot.tar.gz"
	metadataName = "metadata.json"
)

// BackupManager snapshots the files a workflow is about to rewrite and
// restores them on rollback. Each workflow gets its own directory holding a
// tar.gz snapshot and a metadata record with the snapshot's checksum.
type BackupManager struct {
	root string // project root, paths in the archive are relative to it
	dir  string // backup directory, resolved against root when relative
}

// NewBackupManager creates a manager rooted at the project directory.
func NewBackupManager(root, dir string) *BackupManager {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return &BackupManager{root: root, dir: dir}
}

// Create snapshots the given files into a new backup and returns its
// metadata. The checksum covers the compressed archive, so a corrupted
// snapshot is detected before any restore touches the tree.
func (m *BackupManager) Create(workflowID string, files []string) (*models.BackupInfo, error) {
	now := time.Now()
	entry := filepath.Join(m.dir, fmt.Sprintf("%s_%s", workflowID, now.Format("20060102_150405")))
	if err := os.MkdirAll(entry, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}

	snapshot := filepath.Join(entry, snapshotName)
	if err := m.writeSnapshot(snapshot, files); err != nil {
		os.RemoveAll(entry)
		return nil, err
	}

	checksum, err := fileChecksum(snapshot)
	if err != nil {
		os.RemoveAll(entry)
		return nil, err
	}

	info := &models.BackupInfo{
		WorkflowID:  workflowID,
		Timestamp:   now,
		ProjectRoot: m.root,
		BackupPath:  entry,
		Checksum:    checksum,
	}

	meta, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		os.RemoveAll(entry)
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(entry, metadataName), meta, 0o644); err != nil {
		os.RemoveAll(entry)
		return nil, fmt.Errorf("failed to write backup metadata: %w", err)
	}

	return info, nil
}

func (m *BackupManager) writeSnapshot(path string, files []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	for _, file := range files {
		if err := m.addFile(tw, file); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}
	return f.Close()
}

func (m *BackupManager) addFile(tw *tar.Writer, path string) error {
	rel, err := filepath.Rel(m.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("file %s is outside project root", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(rel)
	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}

// Restore extracts the most recent backup for a workflow over the project
// root, returning the files to their pre-workflow content byte for byte.
// The snapshot checksum is verified first.
func (m *BackupManager) Restore(workflowID string) (*models.BackupInfo, error) {
	info, err := m.find(workflowID)
	if err != nil {
		return nil, err
	}

	snapshot := filepath.Join(info.BackupPath, snapshotName)
	checksum, err := fileChecksum(snapshot)
	if err != nil {
		return nil, err
	}
	if info.Checksum != "" && checksum != info.Checksum {
		return nil, fmt.Errorf("snapshot checksum mismatch for workflow %s", workflowID)
	}

	f, err := os.Open(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		target := filepath.Join(m.root, filepath.FromSlash(header.Name))
		if rel, err := filepath.Rel(m.root, target); err != nil || strings.HasPrefix(rel, "..") {
			return nil, fmt.Errorf("snapshot entry %s escapes project root", header.Name)
		}

		if err := restoreFile(target, tr, header.FileInfo().Mode()); err != nil {
			return nil, err
		}
	}

	return info, nil
}

func restoreFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns every backup's metadata, newest first.
func (m *BackupManager) List() ([]models.BackupInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []models.BackupInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := os.ReadFile(filepath.Join(m.dir, entry.Name(), metadataName))
		if err != nil {
			continue
		}
		var info models.BackupInfo
		if err := json.Unmarshal(meta, &info); err != nil {
			continue
		}
		backups = append(backups, info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (m *BackupManager) find(workflowID string) (*models.BackupInfo, error) {
	backups, err := m.List()
	if err != nil {
		return nil, err
	}
	for i := range backups {
		if backups[i].WorkflowID == workflowID {
			return &backups[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, workflowID)
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
