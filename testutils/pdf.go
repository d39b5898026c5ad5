// Package testutils provides shared testing utilities across the application.
package testutils

import (
	"bytes"
	"fmt"
	"strings"
)

// BuildPDF returns a single-page PDF whose page shows text and carries one URI
// link annotation per entry in links.
func BuildPDF(text string, links ...string) []byte {
	return BuildPDFPages([]string{text}, links...)
}

// BuildPDFPages returns a PDF with one page per entry in pages, each showing
// that text. The link annotations are placed on the first page.
func BuildPDFPages(pages []string, links ...string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled in below once page numbers are known
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	pageRefs := make([]string, 0, len(pages))
	pageObjs := make([]int, 0, len(pages))
	for _, text := range pages {
		stream := fmt.Sprintf("BT /F1 24 Tf 72 712 Td (%s) Tj ET", escapePDFString(text))
		objects = append(objects, "", fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
		pageObjs = append(pageObjs, len(objects)-2)
		pageRefs = append(pageRefs, fmt.Sprintf("%d 0 R", len(objects)-1))
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(pageRefs, " "), len(pages))

	annotRefs := make([]string, 0, len(links))
	for _, link := range links {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Annot /Subtype /Link /Rect [72 700 300 730] /A << /S /URI /URI (%s) >> >>",
			escapePDFString(link),
		))
		annotRefs = append(annotRefs, fmt.Sprintf("%d 0 R", len(objects)))
	}

	for i, idx := range pageObjs {
		page := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R", idx+2)
		if i == 0 && len(annotRefs) > 0 {
			page += " /Annots [" + strings.Join(annotRefs, " ") + "]"
		}
		objects[idx] = page + " >>"
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
