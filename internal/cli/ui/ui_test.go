package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	out := Format(Message{
		Context:     "class not found",
		Problem:     "No class named 'Ordr' is declared.",
		Suggestions: []string{"Order"},
		Help:        []string{"List classes: schemagen list"},
		NoColor:     true,
	})

	want := "✗ CLASS NOT FOUND\n" +
		"   No class named 'Ordr' is declared.\n" +
		"\n" +
		"   Did you mean: Order?\n" +
		"\n" +
		"   → List classes: schemagen list\n"
	assert.Equal(t, want, out)
}

func TestFormat_Levels(t *testing.T) {
	assert.Equal(t, "! careful\n", Warning("careful", true))
	assert.Equal(t, "i note\n", Format(Message{Level: LevelInfo, Problem: "note", NoColor: true}))
}

func TestValidationFailed(t *testing.T) {
	out := ValidationFailed([]string{"Order.id: bad", "Line.qty: bad"}, true)
	assert.Contains(t, out, "2 problem(s)")
	assert.Contains(t, out, "   - Order.id: bad\n")
	assert.Contains(t, out, "   - Line.qty: bad\n")
}

func TestBuildAndConfigFailed(t *testing.T) {
	assert.Contains(t, BuildFailed(errors.New("cyclic embedding: A -> A"), true), "cyclic embedding")
	assert.Contains(t, ConfigFailed(errors.New("bad port"), true), "CONFIGURATION ERROR")
}

func TestWriteSuccess(t *testing.T) {
	var buf bytes.Buffer
	WriteSuccess(&buf, "done", true)
	assert.Equal(t, "✓ done\n", buf.String())
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"Order", "OrderLine", "Account", "Address"}

	assert.Equal(t, []string{"Order"}, FindSimilar("ordr", candidates))
	assert.Equal(t, []string{"Account"}, FindSimilar("Acount", candidates))
	assert.Empty(t, FindSimilar("Zebra", candidates))
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "ab", 2},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Distance(tt.a, tt.b), "%q -> %q", tt.a, tt.b)
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"CLASS", "KIND"}, &TableOptions{NoColor: true})
	table.AddRow("Order", "collection")
	table.AddRow("Line", "embedded")
	table.Render()

	want := "CLASS  KIND\n" +
		"─────  ──────────\n" +
		"Order  collection\n" +
		"Line   embedded\n"
	assert.Equal(t, want, buf.String())
}

func TestTable_Alignment(t *testing.T) {
	tests := []struct {
		name  string
		align Align
		rows  [][]string
		want  string
	}{
		{
			name: "numeric column right aligned",
			rows: [][]string{{"orders", "12", "x"}, {"ö", "3", ""}, {"skipped", "-", "y"}},
			want: "NAME     FIELDS  NOTE\n" +
				"───────  ──────  ────\n" +
				"orders       12  x\n" +
				"ö             3\n" +
				"skipped       -  y\n",
		},
		{
			name: "mixed column left aligned",
			rows: [][]string{{"a", "1 (unchanged)", ""}, {"b", "2", ""}},
			want: "NAME  FIELDS         NOTE\n" +
				"────  ─────────────  ────\n" +
				"a     1 (unchanged)\n" +
				"b     2\n",
		},
		{
			name:  "forced left",
			align: AlignLeft,
			rows:  [][]string{{"a", "10", ""}, {"b", "2", ""}},
			want: "NAME  FIELDS  NOTE\n" +
				"────  ──────  ────\n" +
				"a     10\n" +
				"b     2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			table := NewTable(&buf, []string{"NAME", "FIELDS", "NOTE"}, &TableOptions{NoColor: true})
			table.SetAlign(1, tt.align)
			for _, row := range tt.rows {
				table.AddRow(row...)
			}
			table.Render()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestTable_ShortAndLongRows(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"A", "B"}, &TableOptions{NoColor: true})
	table.AddRow("x")
	table.AddRow("y", "z", "dropped")
	table.Render()

	assert.Equal(t, "A  B\n─  ─\nx\ny  z\n", buf.String())
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewKeyValueTable(&buf, true)
	table.AddRow("name", "orders")
	table.AddRow("fields", "2")
	table.Render()

	assert.Equal(t, "name:   orders\nfields: 2\n", buf.String())
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Order", true)
	assert.Equal(t, "Order\n─────\n", buf.String())
}
