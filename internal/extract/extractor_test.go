package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractPlainReplacesInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte{'o', 'k', 0xff, '!'}, ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "ok") || !strings.HasSuffix(text, "!") {
		t.Errorf("text = %q", text)
	}
	if strings.ContainsRune(text, 0xff) {
		t.Error("invalid byte survived")
	}
}

func TestExtractMarkdownStripsFrontmatter(t *testing.T) {
	e := NewExtractor()
	md := "---\ntitle: Notes\ntags: [a, b]\n---\n# Heading\n\nbody text\n"
	text, err := e.ExtractBytes([]byte(md), ".md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "# Heading") {
		t.Errorf("frontmatter not stripped: %q", text)
	}
	if strings.Contains(text, "title: Notes") {
		t.Errorf("frontmatter leaked: %q", text)
	}
}

func TestExtractMarkdownKeepsUnclosedFrontmatter(t *testing.T) {
	e := NewExtractor()
	md := "---\ntitle: broken\nno closing fence\n"
	text, err := e.ExtractBytes([]byte(md), ".md")
	if err != nil {
		t.Fatal(err)
	}
	if text != md {
		t.Errorf("unclosed frontmatter should keep content intact, got %q", text)
	}
}

func TestExtractMarkdownWithoutFrontmatter(t *testing.T) {
	e := NewExtractor()
	md := "# Plain heading\n\ncontent"
	text, err := e.ExtractBytes([]byte(md), ".md")
	if err != nil || text != md {
		t.Errorf("text = %q, err = %v", text, err)
	}
}

func TestExtractCSV(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte("name,age\nalice,30\nbob,25\n"), ".csv")
	if err != nil {
		t.Fatal(err)
	}
	want := "name\tage\nalice\t30\nbob\t25"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestExtractJSONFlattens(t *testing.T) {
	e := NewExtractor()
	raw := `{"name":"alice","tags":["x","y"],"meta":{"age":30}}`
	text, err := e.ExtractBytes([]byte(raw), ".json")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"name: alice", "tags[0]: x", "tags[1]: y", "meta.age: 30"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
}

func TestExtractJSONInvalidFallsBackToRaw(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte("{not json"), ".json")
	if err != nil {
		t.Fatal(err)
	}
	if text != "{not json" {
		t.Errorf("text = %q, want raw content", text)
	}
}

func TestExtractJSONLFallsBackToRaw(t *testing.T) {
	e := NewExtractor()
	raw := `{"a":1}` + "\n" + `{"a":2}` + "\n"
	text, err := e.ExtractBytes([]byte(raw), ".jsonl")
	if err != nil {
		t.Fatal(err)
	}
	if text != raw {
		t.Errorf("text = %q, want raw JSONL stream", text)
	}
}

func TestExtractHTMLStripsTags(t *testing.T) {
	e := NewExtractor()
	html := `<html><head><style>body { color: red }</style>` +
		`<script type="text/javascript">var x = "<b>";</script></head>` +
		"<body>\n<h1>Title</h1>\n<p>first   line</p><p>second line</p></body></html>"
	text, err := e.ExtractBytes([]byte(html), ".html")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Title first line second line" {
		t.Errorf("text = %q", text)
	}
	for _, leaked := range []string{"<", "color: red", "var x"} {
		if strings.Contains(text, leaked) {
			t.Errorf("leaked %q in %q", leaked, text)
		}
	}
}

func TestExtractHTMUppercase(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte(`<DIV><SCRIPT>junk()</SCRIPT>kept</DIV>`), ".htm")
	if err != nil {
		t.Fatal(err)
	}
	if text != "kept" {
		t.Errorf("text = %q, want kept", text)
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	e := NewExtractor()
	xml := `<w:document><w:body><w:p w:rsidR="0"><w:r><w:t>Hello</w:t></w:r>` +
		`<w:r><w:t xml:space="preserve">world</w:t></w:r></w:p></w:body></w:document>`
	text, err := e.ExtractBytes(buildDocx(t, xml), ".docx")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Hello world" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractDOCXNotAZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("plain bytes"), ".docx"); err == nil {
		t.Error("non-zip docx should fail")
	}
}

func TestExtractExcel(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"name", "score"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]any{"alice", 42}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	text, err := e.ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "name\tscore") || !strings.Contains(text, "alice\t42") {
		t.Errorf("text = %q", text)
	}
}

func TestExtractUnknownExtensionFallsBackToPlain(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte("package main"), ".go")
	if err != nil || text != "package main" {
		t.Errorf("text = %q, err = %v", text, err)
	}
}
