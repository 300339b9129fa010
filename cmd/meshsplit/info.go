package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/Faultbox/meshsplit/internal/meshio"
	"github.com/Faultbox/meshsplit/pkg/mesh"
)

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshsplit info <file.glb>")
		os.Exit(1)
	}

	m, err := meshio.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	b := m.Bounds()
	size := b.Size()
	fmt.Printf("Mesh:      %s\n", m.Name)
	fmt.Printf("Vertices:  %d\n", m.VertexCount())
	fmt.Printf("Faces:     %d\n", m.FaceCount())
	fmt.Printf("Bounds:    (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	fmt.Printf("Size:      %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
	if err := m.Validate(); err != nil {
		fmt.Printf("Invalid:   %v\n", err)
	}
	fmt.Println()
	fmt.Println("Faces by material:")

	counts := make(map[int]int)
	for _, f := range m.Faces {
		counts[f.Material]++
	}
	type matStat struct {
		name  string
		count int
	}
	var stats []matStat
	for mat, count := range counts {
		name := "(none)"
		if mat != mesh.NoMaterial && mat < len(m.Materials) {
			name = m.Materials[mat].Name
		}
		stats = append(stats, matStat{name, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].count > stats[j].count
	})
	for _, s := range stats {
		fmt.Printf("  %-24s %d\n", s.name, s.count)
	}
}
