package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/conduit-lang/schemagen/internal/cli/ui"
	"github.com/conduit-lang/schemagen/internal/declare"
	"github.com/conduit-lang/schemagen/internal/document"
	"github.com/conduit-lang/schemagen/internal/processor"
	"github.com/conduit-lang/schemagen/internal/schema"
	"github.com/conduit-lang/schemagen/internal/store"
	"github.com/conduit-lang/schemagen/internal/watch"
)

type buildFlags struct {
	output  string
	format  string
	workers int
	persist bool
	watch   bool
}

// buildResult is one written document
type buildResult struct {
	doc     *document.Document
	path    string
	version int
	changed bool
}

func newBuildCommand(opts *rootOptions) *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the schema document of every collection and index",
		Long: `Build every collection and search index declared and write one document per
class to <output>/collections/<name><ext> and <output>/indexes/<name><ext>.

With --store the documents are also saved to the configured document store.
A document whose content did not change keeps its current version.

With --watch the declarations are rebuilt whenever a declaration file
changes, until interrupted.`,
		Example: `  schemagen build
  schemagen build -o dist/schemas -f yaml
  schemagen build --store --workers 8
  schemagen build --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output directory (default: output.dir)")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "json, yaml or msgpack (default: output.format)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "parallel builds (default: build.workers)")
	cmd.Flags().BoolVar(&flags.persist, "store", false, "save documents to the configured store")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "rebuild when declarations change")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *rootOptions, flags *buildFlags) error {
	cfg := opts.cfg

	target := buildTarget{
		outputDir: cfg.Output.Dir,
		format:    cfg.OutputFormat(),
		workers:   cfg.Build.Workers,
	}
	if flags.output != "" {
		target.outputDir = flags.output
	}
	if flags.format != "" {
		f, err := document.ParseFormat(flags.format)
		if err != nil {
			return err
		}
		target.format = f
	}
	if flags.workers > 0 {
		target.workers = flags.workers
	}

	if flags.persist {
		docs, err := store.Open(cmd.Context(), cfg.StoreConfig())
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer docs.Close()
		target.docs = docs
	}

	err := buildOnce(cmd.Context(), cmd, opts, target)
	if !flags.watch {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watch.New([]string{declare.Dir(cfg.Declarations)}, watch.DefaultDelay, opts.logger,
		func(ctx context.Context, files []string) error {
			return buildOnce(ctx, cmd, opts, target)
		})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes, press Ctrl+C to stop")
	return w.Run(ctx)
}

// buildTarget is where and how documents are written
type buildTarget struct {
	outputDir string
	format    document.Format
	workers   int
	docs      store.Store
}

// buildOnce loads the declarations and builds every document once
func buildOnce(ctx context.Context, cmd *cobra.Command, opts *rootOptions, target buildTarget) error {
	start := time.Now()

	registry, err := opts.loadRegistry()
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.BuildFailed(err, opts.noColor))
		return reported(err)
	}

	proc := processor.New(registry, processor.WithLogger(opts.logger))
	results, err := buildAll(ctx, registry, proc, target)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.BuildFailed(err, opts.noColor))
		return reported(err)
	}

	out := cmd.OutOrStdout()
	table := ui.NewTable(out, []string{"KIND", "NAME", "PATH", "VERSION"}, &ui.TableOptions{NoColor: opts.noColor})
	for _, r := range results {
		version := "-"
		if target.docs != nil {
			version = fmt.Sprintf("%d", r.version)
			if !r.changed {
				version += " (unchanged)"
			}
		}
		table.AddRow(string(r.doc.Kind), r.doc.Name, r.path, version)
	}
	table.Render()

	opts.logger.Info("build finished",
		zap.Int("documents", len(results)),
		zap.String("format", string(target.format)),
		zap.Duration("duration", time.Since(start)),
	)
	ui.WriteSuccess(out, fmt.Sprintf("Built %d documents in %s", len(results), time.Since(start).Round(time.Millisecond)), opts.noColor)
	return nil
}

// buildAll builds every collection and index with at most workers builds in
// flight. Results are sorted by kind and name. The first failure cancels the
// remaining builds.
func buildAll(ctx context.Context, registry *schema.Registry, proc *processor.Processor, target buildTarget) ([]buildResult, error) {
	var targets []*schema.Class
	targets = append(targets, registry.ListKind(schema.KindCollection)...)
	targets = append(targets, registry.ListKind(schema.KindIndex)...)

	for _, dir := range []string{"collections", "indexes"} {
		if err := os.MkdirAll(filepath.Join(target.outputDir, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var (
		mu      sync.Mutex
		results = make([]buildResult, 0, len(targets))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(target.workers)
	for _, class := range targets {
		class := class
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := buildOne(ctx, proc, class.Ref, target)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].doc.Kind != results[j].doc.Kind {
			return results[i].doc.Kind < results[j].doc.Kind
		}
		return results[i].doc.Name < results[j].doc.Name
	})
	return results, nil
}

func buildOne(ctx context.Context, proc *processor.Processor, ref schema.ClassRef, target buildTarget) (buildResult, error) {
	doc, err := proc.Process(ref)
	if err != nil {
		return buildResult{}, err
	}

	data, err := document.Encode(doc, target.format)
	if err != nil {
		return buildResult{}, err
	}

	path := documentPath(target.outputDir, doc, target.format)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return buildResult{}, fmt.Errorf("failed to write %s: %w", path, err)
	}

	result := buildResult{doc: doc, path: path}
	if target.docs != nil {
		rec, changed, err := target.docs.Save(ctx, doc)
		if err != nil {
			return buildResult{}, fmt.Errorf("failed to store %s %s: %w", doc.Kind, doc.Name, err)
		}
		result.version = rec.Version
		result.changed = changed
	}
	return result, nil
}

func documentPath(outputDir string, doc *document.Document, format document.Format) string {
	dir := "collections"
	if doc.Kind == document.KindIndex {
		dir = "indexes"
	}
	return filepath.Join(outputDir, dir, doc.Name+format.Extension())
}
