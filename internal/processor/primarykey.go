package processor

import (
	"github.com/conduit-lang/schemagen/internal/document"
	"github.com/conduit-lang/schemagen/internal/schema"
)

// addPrimaryKeys marks the primary key fields of a collection schema in
// place. A key that is not otherwise declared as a field gets a node of its
// own. With more than one key every key must carry an explicit order.
func (p *Processor) addPrimaryKeys(target *document.Schema, ref schema.ClassRef) error {
	keys, err := p.metadata.PrimaryKeys(ref)
	if err != nil {
		return err
	}

	if len(keys) > 1 {
		for _, pk := range keys {
			if !pk.Order.Set {
				return &IncompletePrimaryKeyOrderError{Class: ref, Field: pk.Name}
			}
		}
	}

	for _, pk := range keys {
		node, ok := target.Get(pk.Name)
		if !ok {
			node = document.NewNode(pk.Type.String())
			target.Set(pk.Name, node)
		}
		node.PrimaryKey = &document.PrimaryKey{
			Order:        pk.Order.Or(1),
			AutoGenerate: pk.AutoGenerate,
		}
	}

	return nil
}
