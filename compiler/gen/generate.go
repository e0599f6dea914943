package gen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/dynrepo/compiler/load"
)

// Generate validates the schemas and writes one file per entity to
// cfg.Target.
func Generate(ctx context.Context, schemas []*load.Schema, cfg Config) error {
	if cfg.Target == "" {
		return &ConfigError{Option: "Target", Message: "missing target directory"}
	}
	g, err := NewGraph(&cfg, schemas...)
	if err != nil {
		return err
	}
	return NewGenerator(g).Generate(ctx)
}

// Generator renders the files of a Graph with jennifer.
type Generator struct {
	graph   *Graph
	workers int
	outDir  string
	pkg     string
}

// NewGenerator creates a generator writing to the target of the graph.
func NewGenerator(g *Graph) *Generator {
	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Generator{
		graph:   g,
		workers: workers,
		outDir:  g.Target,
		pkg:     g.pkg(),
	}
}

// Graph returns the graph being generated.
func (g *Generator) Graph() *Graph { return g.graph }

// Generate writes the entity files in parallel.
func (g *Generator) Generate(ctx context.Context) error {
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return &GenerationError{File: g.outDir, Op: "create", Err: err}
	}
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(g.workers)
	for _, t := range g.graph.Nodes {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return g.writeFile(g.Entity(t), t.Filename())
		})
	}
	return errg.Wait()
}

// writeFile renders f and formats it with goimports before writing.
func (g *Generator) writeFile(f *jen.File, filename string) error {
	path := filepath.Join(g.outDir, filename)
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return &GenerationError{File: filename, Op: "render", Err: err}
	}
	out, err := imports.Process(path, buf.Bytes(), &imports.Options{Comments: true, TabIndent: true, TabWidth: 8, FormatOnly: true})
	if err != nil {
		return &GenerationError{File: filename, Op: "format", Err: err}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return &GenerationError{File: filename, Op: "write", Err: err}
	}
	return nil
}

// newFile creates a new jennifer file with the header comment.
func (g *Generator) newFile() *jen.File {
	f := jen.NewFile(g.pkg)
	f.HeaderComment("Code generated by dynrepo. DO NOT EDIT.")
	return f
}
