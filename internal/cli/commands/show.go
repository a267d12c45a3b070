package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/schemagen/internal/cli/ui"
	"github.com/conduit-lang/schemagen/internal/document"
	"github.com/conduit-lang/schemagen/internal/processor"
	"github.com/conduit-lang/schemagen/internal/schema"
	"github.com/conduit-lang/schemagen/internal/store"
)

func newShowCommand(opts *rootOptions) *cobra.Command {
	var (
		format string
		info   bool
	)

	cmd := &cobra.Command{
		Use:   "show <class>",
		Short: "Print the schema document of one collection or index",
		Long: `Print the document of a class. The argument is either the class reference
(Order) or its registered name (orders).

With --info a summary of the class is printed instead of the document. When
a store is configured the summary includes the latest stored version.`,
		Example: `  schemagen show Order
  schemagen show order_search -f yaml
  schemagen show Order --info`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts, args[0], format, info)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or yaml")
	cmd.Flags().BoolVar(&info, "info", false, "Print a summary instead of the document")
	return cmd
}

func runShow(cmd *cobra.Command, opts *rootOptions, name, formatName string, info bool) error {
	format, err := document.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if format == document.FormatMsgPack {
		return fmt.Errorf("msgpack output is binary; use build -f msgpack instead")
	}

	registry, err := opts.loadRegistry()
	if err != nil {
		return err
	}

	ref, ok := findClass(registry, name)
	if !ok {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ClassNotFound(name, classNames(registry), opts.noColor))
		return reported(fmt.Errorf("class %s not found", name))
	}

	doc, err := processor.New(registry, processor.WithLogger(opts.logger)).Process(ref)
	if err != nil {
		return err
	}

	if info {
		class, _ := registry.Class(ref)
		return writeInfo(cmd.Context(), cmd.OutOrStdout(), opts, class, doc)
	}

	data, err := document.Encode(doc, format)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	out.Write(data)
	if format == document.FormatJSON {
		fmt.Fprintln(out)
	}
	return nil
}

// writeInfo prints the summary of a class and its document
func writeInfo(ctx context.Context, w io.Writer, opts *rootOptions, class *schema.Class, doc *document.Document) error {
	ui.Header(w, string(class.Ref), opts.noColor)

	table := ui.NewKeyValueTable(w, opts.noColor)
	table.AddRow("kind", class.Kind.String())
	table.AddRow("name", class.Name)
	table.AddRow("fields", strconv.Itoa(len(class.Fields)))
	table.AddRow("search fields", strconv.Itoa(len(class.SearchFields)))
	table.AddRow("primary keys", strconv.Itoa(len(class.PrimaryKeys)))
	table.AddRow("document fields", strconv.Itoa(doc.Schema.Len()))

	if opts.cfg.HasStore() {
		version, err := latestVersion(ctx, opts, doc)
		if err != nil {
			return err
		}
		table.AddRow("stored version", version)
	}

	table.Render()
	return nil
}

func latestVersion(ctx context.Context, opts *rootOptions, doc *document.Document) (string, error) {
	docs, err := store.Open(ctx, opts.cfg.StoreConfig())
	if err != nil {
		return "", fmt.Errorf("failed to open store: %w", err)
	}
	defer docs.Close()

	rec, err := docs.Latest(ctx, doc.Kind, doc.Name)
	switch {
	case store.IsNotFound(err):
		return "none", nil
	case err != nil:
		return "", err
	}

	canonical, err := document.Canonical(doc)
	if err != nil {
		return "", err
	}
	version := fmt.Sprintf("%d (%s)", rec.Version, rec.CreatedAt.Format(time.RFC3339))
	if rec.Digest != store.Digest(canonical) {
		version += ", declarations changed since"
	}
	return version, nil
}

// findClass resolves a class reference or a collection or index name
func findClass(registry *schema.Registry, name string) (schema.ClassRef, bool) {
	ref := schema.ClassRef(name)
	if c, ok := registry.Class(ref); ok && c.Kind != schema.KindEmbedded {
		return ref, true
	}
	if ref, ok := registry.Lookup(schema.KindCollection, name); ok {
		return ref, true
	}
	return registry.Lookup(schema.KindIndex, name)
}

// classNames lists the references and names a user may pass to show
func classNames(registry *schema.Registry) []string {
	var names []string
	for _, kind := range []schema.Kind{schema.KindCollection, schema.KindIndex} {
		for _, c := range registry.ListKind(kind) {
			names = append(names, string(c.Ref), c.Name)
		}
	}
	return names
}
