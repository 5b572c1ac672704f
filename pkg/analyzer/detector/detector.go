// Package detector finds oversized source files by physical line count.
package detector

import (
	"os"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/rowanlane/cleave/internal/fileproc"
	"github.com/rowanlane/cleave/pkg/config"
	"github.com/rowanlane/cleave/pkg/parser"
)

// OversizedFile is one file whose physical line count exceeds the threshold.
type OversizedFile struct {
	Path          string `json:"path"`
	PhysicalLines int    `json:"physical_lines"`
	TotalLines    int    `json:"total_lines"`
}

// Summary aggregates line-count statistics across every scanned file, not
// just the oversized ones.
type Summary struct {
	FilesScanned  int     `json:"files_scanned"`
	OversizedN    int     `json:"oversized"`
	Threshold     int     `json:"threshold"`
	MeanLines     float64 `json:"mean_lines"`
	MedianLines   float64 `json:"median_lines"`
	StdDevLines   float64 `json:"stddev_lines"`
	MaxLines      int     `json:"max_lines"`
	TotalPhysical int     `json:"total_physical"`
}

// Detector flags files whose physical line count exceeds a threshold.
type Detector struct {
	cfg config.DetectorConfig
}

// New creates a detector using the configured threshold.
func New(cfg config.DetectorConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Threshold returns the physical line count above which files are flagged.
func (d *Detector) Threshold() int {
	return d.cfg.OversizedLines
}

type fileLines struct {
	path     string
	physical int
	total    int
}

// Detect counts physical lines in each file concurrently and returns the
// oversized ones sorted by line count descending, largest offender first.
// Files that cannot be read are skipped. An empty input yields an empty
// result, never an error.
func (d *Detector) Detect(files []string, onProgress fileproc.ProgressFunc) ([]OversizedFile, Summary) {
	counts := fileproc.ForEachFileN(files, 0, func(path string) (fileLines, error) {
		source, err := os.ReadFile(path)
		if err != nil {
			return fileLines{}, err
		}
		return fileLines{
			path:     path,
			physical: parser.CountPhysicalLines(source),
			total:    parser.TotalLines(source),
		}, nil
	}, onProgress)

	oversized := make([]OversizedFile, 0)
	for _, fl := range counts {
		if fl.physical > d.cfg.OversizedLines {
			oversized = append(oversized, OversizedFile{
				Path:          fl.path,
				PhysicalLines: fl.physical,
				TotalLines:    fl.total,
			})
		}
	}

	sort.Slice(oversized, func(i, j int) bool {
		if oversized[i].PhysicalLines != oversized[j].PhysicalLines {
			return oversized[i].PhysicalLines > oversized[j].PhysicalLines
		}
		return oversized[i].Path < oversized[j].Path
	})

	return oversized, d.summarize(counts, len(oversized))
}

func (d *Detector) summarize(counts []fileLines, oversizedN int) Summary {
	s := Summary{
		FilesScanned: len(counts),
		OversizedN:   oversizedN,
		Threshold:    d.cfg.OversizedLines,
	}
	if len(counts) == 0 {
		return s
	}

	lines := make([]float64, len(counts))
	for i, fl := range counts {
		lines[i] = float64(fl.physical)
		s.TotalPhysical += fl.physical
		if fl.physical > s.MaxLines {
			s.MaxLines = fl.physical
		}
	}
	sort.Float64s(lines)

	s.MeanLines = stat.Mean(lines, nil)
	s.MedianLines = stat.Quantile(0.5, stat.Empirical, lines, nil)
	if len(lines) > 1 {
		s.StdDevLines = stat.StdDev(lines, nil)
	}

	return s
}
