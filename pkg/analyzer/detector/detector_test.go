package detector

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowanlane/cleave/pkg/config"
)

func writeFile(t *testing.T, dir, name string, lines int) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < lines; i++ {
		b.WriteString("x = 1\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestDetectEmpty(t *testing.T) {
	det := New(config.DefaultConfig().Detector)
	oversized, summary := det.Detect(nil, nil)
	if len(oversized) != 0 {
		t.Errorf("Expected no oversized files, got %d", len(oversized))
	}
	if summary.FilesScanned != 0 {
		t.Errorf("Expected 0 scanned, got %d", summary.FilesScanned)
	}
}

func TestDetectThresholdAndOrder(t *testing.T) {
	dir := t.TempDir()
	small := writeFile(t, dir, "small.py", 10)
	big := writeFile(t, dir, "big.py", 60)
	bigger := writeFile(t, dir, "bigger.py", 80)

	det := New(config.DetectorConfig{OversizedLines: 50})
	oversized, summary := det.Detect([]string{small, big, bigger}, nil)

	if len(oversized) != 2 {
		t.Fatalf("Expected 2 oversized files, got %d", len(oversized))
	}
	if oversized[0].Path != bigger || oversized[1].Path != big {
		t.Errorf("Expected descending order by lines, got %s then %s",
			oversized[0].Path, oversized[1].Path)
	}
	if summary.FilesScanned != 3 || summary.OversizedN != 2 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if summary.MaxLines != 80 {
		t.Errorf("Expected max 80, got %d", summary.MaxLines)
	}
	if summary.MeanLines != 50 {
		t.Errorf("Expected mean 50, got %f", summary.MeanLines)
	}
}

func TestDetectExactThresholdNotFlagged(t *testing.T) {
	dir := t.TempDir()
	exact := writeFile(t, dir, "exact.py", 50)

	det := New(config.DetectorConfig{OversizedLines: 50})
	oversized, _ := det.Detect([]string{exact}, nil)
	if len(oversized) != 0 {
		t.Error("A file exactly at the threshold must not be flagged")
	}
}

func TestDetectSkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.py", 60)
	missing := filepath.Join(dir, "missing.py")

	det := New(config.DetectorConfig{OversizedLines: 50})
	oversized, summary := det.Detect([]string{ok, missing}, nil)
	if len(oversized) != 1 {
		t.Fatalf("Expected 1 oversized file, got %d", len(oversized))
	}
	if summary.FilesScanned != 1 {
		t.Errorf("Unreadable files must be skipped, scanned %d", summary.FilesScanned)
	}
}
