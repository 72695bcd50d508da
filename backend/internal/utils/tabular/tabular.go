// Package tabular serializes a header plus string rows into spreadsheet formats.
package tabular

import (
	"fmt"
	"sort"
)

type Table struct {
	Header []string
	Rows   [][]string
}

type Format interface {
	Name() string
	Extension() string
	ContentType() string
	Encode(t Table) ([]byte, error)
}

var formats = map[string]Format{
	"csv":  CSV{},
	"xlsx": XLSX{SheetName: "Studenti"},
	"ods":  ODS{SheetName: "Studenti"},
}

// ByName resolves a configured format name such as "csv".
func ByName(name string) (Format, error) {
	f, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q (known: %v)", name, Names())
	}
	return f, nil
}

func Names() []string {
	names := make([]string, 0, len(formats))
	for n := range formats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByNames resolves every name, failing on the first unknown one.
func ByNames(names []string) ([]Format, error) {
	out := make([]Format, 0, len(names))
	for _, n := range names {
		f, err := ByName(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (t Table) check() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("row %d has %d cells, header has %d", i, len(row), len(t.Header))
		}
	}
	return nil
}
