package schema

import (
	"github.com/go-openapi/inflect"
)

// DefaultName derives the registered name of a class whose declaration does
// not carry one. Collections and indexes get the pluralized snake_case form
// of the reference ("OrderItem" -> "order_items"); embedded classes keep the
// reference as is.
func DefaultName(ref ClassRef, kind Kind) string {
	if kind == KindEmbedded {
		return string(ref)
	}
	return inflect.Underscore(inflect.Pluralize(string(ref)))
}
