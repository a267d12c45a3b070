package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/go-openapi/inflect"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/schemagen/internal/cli/ui"
	"github.com/conduit-lang/schemagen/internal/declare"
	"github.com/conduit-lang/schemagen/internal/schema"
)

type newFlags struct {
	kind    string
	name    string
	fields  []string
	keys    []string
	out     string
	noInput bool
	force   bool
}

var fieldTypes = []string{
	"string", "boolean", "int32", "int64", "number", "bigint",
	"date-time", "byte", "uuid", "array", "object",
}

func newNewCommand(opts *rootOptions) *cobra.Command {
	flags := &newFlags{}

	cmd := &cobra.Command{
		Use:   "new <ClassRef>",
		Short: "Write a declaration file for a new class",
		Long: `Scaffold a class declaration. Missing details are asked for interactively
unless --no-input is given.

Fields are given as name:type. Arrays take their element type or embedded
class as a third part (tags:array:string, lines:array:OrderLine) and objects
take their embedded class (address:object:Address).`,
		Example: `  schemagen new Order
  schemagen new Order --kind collection --field id:int64 --field lines:array:OrderLine --key id --no-input`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd, opts, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.kind, "kind", "", "collection, index or embedded")
	cmd.Flags().StringVar(&flags.name, "name", "", "registered name (default: derived from the reference)")
	cmd.Flags().StringArrayVar(&flags.fields, "field", nil, "field as name:type[:element] (repeatable)")
	cmd.Flags().StringArrayVar(&flags.keys, "key", nil, "primary key field (repeatable, collections only)")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "declaration file to write")
	cmd.Flags().BoolVar(&flags.noInput, "no-input", false, "never prompt")
	cmd.Flags().BoolVar(&flags.force, "force", false, "overwrite an existing file")

	return cmd
}

func runNew(cmd *cobra.Command, opts *rootOptions, flags *newFlags, ref string) error {
	if !flags.noInput {
		if err := promptNew(flags); err != nil {
			return err
		}
	}

	class, err := newClass(ref, flags)
	if err != nil {
		return err
	}
	if err := schema.NewValidator().ValidateStructural(class); err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ValidationFailed(problemLines(err), opts.noColor))
		return reported(err)
	}

	path := flags.out
	if path == "" {
		path = filepath.Join(declare.Dir(opts.cfg.Declarations), inflect.Underscore(ref)+".yml")
	}
	if _, err := os.Stat(path); err == nil && !flags.force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := declare.SaveFile(path, []*schema.Class{class}); err != nil {
		return err
	}

	ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Created %s", path), opts.noColor)
	return nil
}

// newClass assembles the class described by the flags
func newClass(ref string, flags *newFlags) (*schema.Class, error) {
	kind, err := schema.ParseKind(flags.kind)
	if err != nil {
		return nil, err
	}

	class := schema.NewClass(schema.ClassRef(ref), flags.name, kind)
	if class.Name == "" {
		class.Name = schema.DefaultName(class.Ref, kind)
	}

	types := make(map[string]schema.DataType, len(flags.fields))
	for _, spec := range flags.fields {
		f, err := parseFieldSpec(spec)
		if err != nil {
			return nil, err
		}
		types[f.Name] = f.Type
		if kind == schema.KindIndex {
			class.SearchFields = append(class.SearchFields, f)
		} else {
			class.Fields = append(class.Fields, f)
		}
	}

	for i, key := range flags.keys {
		typ, ok := types[key]
		if !ok {
			return nil, fmt.Errorf("primary key %s is not a declared field", key)
		}
		pk := schema.PrimaryKeyDescriptor{Name: key, Type: typ}
		if len(flags.keys) > 1 {
			pk.Order = schema.Some(i + 1)
		}
		class.PrimaryKeys = append(class.PrimaryKeys, pk)
	}

	return class, nil
}

// parseFieldSpec parses name:type[:element]
func parseFieldSpec(spec string) (schema.FieldDescriptor, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return schema.FieldDescriptor{}, fmt.Errorf("invalid field %q, expected name:type[:element]", spec)
	}

	typ, err := schema.ParseDataType(parts[1])
	if err != nil {
		return schema.FieldDescriptor{}, fmt.Errorf("field %s: %w", parts[0], err)
	}
	f := schema.FieldDescriptor{Name: parts[0], Type: typ}

	if len(parts) == 3 {
		switch typ {
		case schema.TypeArray:
			if elem, err := schema.ParseDataType(parts[2]); err == nil {
				f.Embed = schema.EmbedScalar(elem)
			} else {
				f.Embed = schema.EmbedClass(schema.ClassRef(parts[2]))
			}
		case schema.TypeObject:
			f.Embed = schema.EmbedClass(schema.ClassRef(parts[2]))
		default:
			return f, fmt.Errorf("field %s: only array and object fields take an element", parts[0])
		}
	}
	return f, nil
}

func promptNew(flags *newFlags) error {
	if flags.kind == "" {
		prompt := &survey.Select{
			Message: "Kind:",
			Options: []string{"collection", "index", "embedded"},
			Default: "collection",
		}
		if err := survey.AskOne(prompt, &flags.kind); err != nil {
			return err
		}
	}

	if len(flags.fields) == 0 {
		for {
			var name string
			prompt := &survey.Input{Message: "Field name (empty to finish):"}
			if err := survey.AskOne(prompt, &name); err != nil {
				return err
			}
			if name == "" {
				break
			}

			var typ string
			if err := survey.AskOne(&survey.Select{Message: "Type of " + name + ":", Options: fieldTypes}, &typ); err != nil {
				return err
			}

			spec := name + ":" + typ
			if typ == "array" || typ == "object" {
				var elem string
				prompt := &survey.Input{Message: "Element type or embedded class:"}
				if err := survey.AskOne(prompt, &elem, survey.WithValidator(survey.Required)); err != nil {
					return err
				}
				spec += ":" + elem
			}
			flags.fields = append(flags.fields, spec)
		}
	}

	if flags.kind == "collection" && len(flags.keys) == 0 && len(flags.fields) > 0 {
		options := []string{"(none)"}
		for _, spec := range flags.fields {
			options = append(options, strings.SplitN(spec, ":", 2)[0])
		}
		var key string
		if err := survey.AskOne(&survey.Select{Message: "Primary key:", Options: options}, &key); err != nil {
			return err
		}
		if key != "(none)" {
			flags.keys = append(flags.keys, key)
		}
	}

	return nil
}
