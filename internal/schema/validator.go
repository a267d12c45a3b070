package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a declaration error with context
type ValidationError struct {
	Class   ClassRef
	Field   string
	Message string
	Hint    string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Class != "" {
		b.WriteString(string(e.Class))
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// ValidationErrors is the aggregate returned when a class has several problems
type ValidationErrors []*ValidationError

// Error implements the error interface
func (errs ValidationErrors) Error() string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed with %d errors:\n%s", len(errs), strings.Join(msgs, "\n"))
}

// Validator checks class declarations
type Validator struct {
	errors   []*ValidationError
	warnings []string
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors:   make([]*ValidationError, 0),
		warnings: make([]string, 0),
	}
}

// Warnings returns the warnings collected by the last validation
func (v *Validator) Warnings() []string {
	return v.warnings
}

// ValidateStructural validates a single class without looking at other
// classes. Embedded class references are resolved later by ValidateAll so
// that classes can be registered in any order.
func (v *Validator) ValidateStructural(class *Class) error {
	v.errors = make([]*ValidationError, 0)
	v.warnings = make([]string, 0)

	if class.Ref == "" {
		v.addError(class, "", "class reference is empty", "")
	}
	if class.Name == "" {
		v.addError(class, "", "class name is empty", "")
	}

	v.validateFieldSet(class, class.Fields, "field")
	v.validateFieldSet(class, class.SearchFields, "search field")
	v.validatePrimaryKeys(class)

	if len(v.errors) > 0 {
		errs := make(ValidationErrors, len(v.errors))
		copy(errs, v.errors)
		return errs
	}
	return nil
}

func (v *Validator) validateFieldSet(class *Class, fields []FieldDescriptor, source string) {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			v.addError(class, "", source+" name is empty", "")
			continue
		}
		if seen[f.Name] {
			v.addError(class, f.Name, fmt.Sprintf("%s declared twice", source), "")
		}
		seen[f.Name] = true

		v.validateField(class, f)
	}
}

func (v *Validator) validateField(class *Class, f FieldDescriptor) {
	if !f.Type.IsValid() {
		v.addError(class, f.Name, fmt.Sprintf("invalid data type %d", int(f.Type)), "")
		return
	}

	if f.ArrayDepth < 0 {
		v.addError(class, f.Name, "array depth must be at least 1", "")
	}
	if f.ArrayDepth > 0 && f.Type != TypeArray {
		v.addError(class, f.Name,
			fmt.Sprintf("array depth set on %s field", f.Type),
			"array depth only applies to array fields")
	}

	if f.Embed != nil {
		if !f.Type.IsContainer() {
			v.addError(class, f.Name,
				fmt.Sprintf("embedded type %s set on %s field", f.Embed, f.Type),
				"only array and object fields embed another type")
		}
		if !f.Embed.IsClass() && !f.Embed.Scalar.IsValid() {
			v.addError(class, f.Name, "embedded scalar type is invalid", "")
		}
	} else if f.Type == TypeArray {
		v.warnings = append(v.warnings,
			fmt.Sprintf("%s.%s: array field has no element type", class.Ref, f.Name))
	}

	opts := f.Options
	if opts.MaxLength.Set {
		switch {
		case f.Type != TypeString:
			v.warnings = append(v.warnings,
				fmt.Sprintf("%s.%s: maxLength is ignored on %s fields", class.Ref, f.Name, f.Type))
		case opts.MaxLength.V <= 0:
			v.addError(class, f.Name, "maxLength must be positive", "")
		}
	}
	if opts.Dimensions.Set && opts.Dimensions.V <= 0 {
		v.addError(class, f.Name, "dimensions must be positive", "")
	}
	if opts.Timestamp.Set {
		switch opts.Timestamp.V {
		case TimestampCreatedAt, TimestampUpdatedAt:
		default:
			v.addError(class, f.Name,
				fmt.Sprintf("unknown timestamp kind %q", opts.Timestamp.V),
				"use createdAt or updatedAt")
		}
	}
}

// validatePrimaryKeys checks key shape. A multi-key declaration with a missing
// order is accepted here; the processor reports it when the collection is built.
func (v *Validator) validatePrimaryKeys(class *Class) {
	if len(class.PrimaryKeys) == 0 {
		return
	}
	if class.Kind == KindIndex {
		v.addError(class, "", "index classes do not declare primary keys", "")
		return
	}

	names := make(map[string]bool, len(class.PrimaryKeys))
	orders := make(map[int]string, len(class.PrimaryKeys))
	for _, pk := range class.PrimaryKeys {
		if pk.Name == "" {
			v.addError(class, "", "primary key name is empty", "")
			continue
		}
		if names[pk.Name] {
			v.addError(class, pk.Name, "primary key declared twice", "")
		}
		names[pk.Name] = true

		if !pk.Type.IsValid() {
			v.addError(class, pk.Name, fmt.Sprintf("invalid primary key type %d", int(pk.Type)), "")
		} else if pk.Type.IsContainer() {
			v.addError(class, pk.Name, fmt.Sprintf("primary key cannot be of type %s", pk.Type), "")
		}

		if order, ok := pk.Order.Get(); ok {
			if order < 1 {
				v.addError(class, pk.Name, "primary key order must be at least 1", "")
			} else if other, dup := orders[order]; dup {
				v.addError(class, pk.Name,
					fmt.Sprintf("primary key order %d already used by %s", order, other), "")
			} else {
				orders[order] = pk.Name
			}
		}
	}
}

func (v *Validator) addError(class *Class, field, message, hint string) {
	v.errors = append(v.errors, &ValidationError{
		Class:   class.Ref,
		Field:   field,
		Message: message,
		Hint:    hint,
	})
}
