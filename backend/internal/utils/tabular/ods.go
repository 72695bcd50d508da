package tabular

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

const odsMimeType = "application/vnd.oasis.opendocument.spreadsheet"

// ODS writes a minimal OpenDocument spreadsheet: one table of string cells.
type ODS struct {
	SheetName string
}

func (ODS) Name() string        { return "ods" }
func (ODS) Extension() string   { return "ods" }
func (ODS) ContentType() string { return odsMimeType }

const odsManifest = `<?xml version="1.0" encoding="UTF-8"?>
<manifest:manifest xmlns:manifest="urn:oasis:names:tc:opendocument:xmlns:manifest:1.0" manifest:version="1.2">
 <manifest:file-entry manifest:full-path="/" manifest:version="1.2" manifest:media-type="` + odsMimeType + `"/>
 <manifest:file-entry manifest:full-path="content.xml" manifest:media-type="text/xml"/>
</manifest:manifest>
`

const odsContentHead = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" office:version="1.2">
<office:body><office:spreadsheet>`

const odsContentTail = `</office:spreadsheet></office:body></office:document-content>
`

func (o ODS) Encode(t Table) ([]byte, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// the mimetype entry must come first and be stored uncompressed
	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(mw, odsMimeType); err != nil {
		return nil, err
	}

	if err := writeEntry(zw, "META-INF/manifest.xml", []byte(odsManifest)); err != nil {
		return nil, err
	}
	content, err := o.content(t)
	if err != nil {
		return nil, err
	}
	if err := writeEntry(zw, "content.xml", content); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish ods archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (o ODS) content(t Table) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(odsContentHead)
	b.WriteString(`<table:table table:name="`)
	if err := xml.EscapeText(&b, []byte(o.SheetName)); err != nil {
		return nil, err
	}
	b.WriteString(`">`)
	for _, row := range append([][]string{t.Header}, t.Rows...) {
		b.WriteString("<table:table-row>")
		for _, cell := range row {
			b.WriteString(`<table:table-cell office:value-type="string"><text:p>`)
			if err := xml.EscapeText(&b, []byte(cell)); err != nil {
				return nil, err
			}
			b.WriteString("</text:p></table:table-cell>")
		}
		b.WriteString("</table:table-row>")
	}
	b.WriteString("</table:table>")
	b.WriteString(odsContentTail)
	return b.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
