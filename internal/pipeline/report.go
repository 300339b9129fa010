package pipeline

import (
	"go.uber.org/multierr"

	"github.com/Faultbox/meshsplit/pkg/mesh"
	"github.com/Faultbox/meshsplit/pkg/resolve"
	"github.com/Faultbox/meshsplit/pkg/transfer"
)

// Counts is a vertex and face tally.
type Counts struct {
	Vertices int `yaml:"vertices"`
	Faces    int `yaml:"faces"`
}

// SourceReport describes the input and its partition.
type SourceReport struct {
	Name          string           `yaml:"name"`
	Vertices      int              `yaml:"vertices"`
	Faces         int              `yaml:"faces"`
	Materials     int              `yaml:"materials"`
	Strategy      string           `yaml:"strategy"`
	PreWeld       *mesh.CleanStats `yaml:"pre_weld,omitempty"`
	Groups        int              `yaml:"groups"`
	EmptyGroups   int              `yaml:"empty_groups"`
	BoundaryFaces int              `yaml:"boundary_faces"` // faces no group fully contains
}

// FragmentReport is the per-fragment record.
type FragmentReport struct {
	Ordinal   int            `yaml:"ordinal"`
	Group     int            `yaml:"group"`
	GroupSize int            `yaml:"group_size"`
	Extracted Counts         `yaml:"extracted"`
	Final     Counts         `yaml:"final"`
	Resolve   resolve.Report `yaml:"resolve"`
	Transfer  transfer.Stats `yaml:"transfer"`
	Materials []string       `yaml:"materials"`
}

// Report is the serializable summary of a Result.
type Report struct {
	Source    SourceReport     `yaml:"source"`
	Fragments []FragmentReport `yaml:"fragments"`
	Warnings  []string         `yaml:"warnings,omitempty"`
	Elapsed   string           `yaml:"elapsed"`
}

// Report builds the serializable summary.
func (r *Result) Report() *Report {
	rep := &Report{
		Source:  r.Source,
		Elapsed: r.Elapsed.String(),
	}
	for _, f := range r.Fragments {
		rep.Fragments = append(rep.Fragments, f.Report)
	}
	for _, w := range multierr.Errors(r.Warnings) {
		rep.Warnings = append(rep.Warnings, w.Error())
	}
	return rep
}
