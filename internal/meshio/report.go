package meshio

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshsplit/internal/pipeline"
)

// ReportFile is the name of the run report inside an output directory.
const ReportFile = "report.yaml"

// FragmentName is the artifact name of a fragment: source name plus a
// 1-based, zero-padded ordinal.
func FragmentName(source string, ordinal int) string {
	return fmt.Sprintf("%s_%02d", source, ordinal+1)
}

// OutputDir is the per-source folder fragments are written to.
func OutputDir(root, source string) string {
	return filepath.Join(root, source+"_split")
}

// WriteReport writes rep as YAML.
func WriteReport(path string, rep *pipeline.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*pipeline.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rep pipeline.Report
	if err := yaml.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}
	return &rep, nil
}

// WriteResult writes every fragment of res as <root>/<source>_split/<name>.glb
// and, if withReport, a report.yaml next to them. Returns the written paths.
func WriteResult(root string, res *pipeline.Result, withGLB, withReport bool) ([]string, error) {
	dir := OutputDir(root, res.Source.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var written []string
	if withGLB {
		for _, f := range res.Fragments {
			name := FragmentName(res.Source.Name, f.Ordinal)
			path := filepath.Join(dir, name+".glb")
			named := *f.Mesh
			named.Name = name
			if err := SaveGLB(path, &named); err != nil {
				return written, fmt.Errorf("writing fragment %d: %w", f.Ordinal, err)
			}
			written = append(written, path)
		}
	}

	if withReport {
		path := filepath.Join(dir, ReportFile)
		if err := WriteReport(path, res.Report()); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
