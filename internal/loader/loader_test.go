package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleCSV = "Annee;Nom INSEE région;Production hydraulique renouvelable (GWh);Géo-point région\n" +
	"2020;Bretagne;12.5;\"48.1, -2.8\"\n" +
	"2021;Bretagne;;\"48.1, -2.8\"\n"

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}

	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeFile(t, "prod.csv", []byte(sampleCSV))

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(table.Header) != 4 {
		t.Fatalf("Header has %d columns, want 4", len(table.Header))
	}

	if table.Header[1] != "Nom INSEE région" {
		t.Errorf("Header[1] = %q, want Nom INSEE région", table.Header[1])
	}

	if len(table.Rows) != 2 {
		t.Fatalf("Got %d rows, want 2", len(table.Rows))
	}

	if table.Rows[0].Line != 2 || table.Rows[1].Line != 3 {
		t.Errorf("Lines = %d, %d, want 2, 3", table.Rows[0].Line, table.Rows[1].Line)
	}

	if got := table.Rows[0].Cell(3); got != "48.1, -2.8" {
		t.Errorf("quoted point = %q, want \"48.1, -2.8\"", got)
	}

	if got := table.Rows[1].Cell(2); got != "" {
		t.Errorf("empty production cell = %q, want empty", got)
	}

	if !strings.HasPrefix(table.Checksum, "sha256:") {
		t.Errorf("Checksum = %q, want sha256 prefix", table.Checksum)
	}

	if table.Path != path {
		t.Errorf("Path = %q, want %q", table.Path, path)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.csv")

	table, err := Load(missing)
	if table != nil {
		t.Error("expected nil table for missing file")
	}

	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("err = %v, want ErrFileNotFound", err)
	}

	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err is %T, want *LoadError", err)
	}

	if loadErr.Path != missing {
		t.Errorf("LoadError.Path = %q, want %q", loadErr.Path, missing)
	}
}

func TestLoad_Directory(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrNotRegularFile) {
		t.Errorf("err = %v, want ErrNotRegularFile", err)
	}
}

func TestLoad_InvalidEncoding(t *testing.T) {
	// Latin-1 "é" is not valid UTF-8.
	path := writeFile(t, "latin1.csv", []byte("Annee;Nom INSEE r\xe9gion\n2020;Bretagne\n"))

	table, err := Load(path)
	if table != nil {
		t.Error("expected nil table for invalid encoding")
	}

	if !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("err = %v, want ErrInvalidEncoding", err)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", nil)

	_, err := Load(path)
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}
}

func TestLoad_RowTooWide(t *testing.T) {
	path := writeFile(t, "wide.csv", []byte("Annee;Nom INSEE région\n2020;Bretagne;extra\n"))

	table, err := Load(path)
	if table != nil {
		t.Error("expected no partial table")
	}

	if !errors.Is(err, ErrRowTooWide) {
		t.Errorf("err = %v, want ErrRowTooWide", err)
	}
}

func TestParse_BOMAndShortRows(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Annee;Nom INSEE région;Production solaire (GWh)\n2020;Corse\n")...)

	table, err := NewLoader(';').Parse(content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if table.Header[0] != "Annee" {
		t.Errorf("Header[0] = %q, BOM not stripped", table.Header[0])
	}

	if len(table.Rows[0].Cells) != 3 || table.Rows[0].Cells[2] != "" {
		t.Errorf("short row not padded: %#v", table.Rows[0].Cells)
	}
}

func TestParse_CustomDelimiter(t *testing.T) {
	table, err := NewLoader(',').Parse([]byte("Annee,Nom INSEE région\n2020,Corse\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := table.Rows[0].Cell(1); got != "Corse" {
		t.Errorf("Cell(1) = %q, want Corse", got)
	}
}

func TestStat_FingerprintChangesWithContent(t *testing.T) {
	path := writeFile(t, "prod.csv", []byte(sampleCSV))

	first, err := Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	if !filepath.IsAbs(first.Path) {
		t.Errorf("Fingerprint path %q is not absolute", first.Path)
	}

	if err := os.WriteFile(path, []byte(sampleCSV+"2022;Bretagne;3;\n"), 0644); err != nil {
		t.Fatal(err)
	}

	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	second, err := Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	if first.Key() == second.Key() {
		t.Errorf("fingerprint key unchanged after rewrite: %s", first.Key())
	}
}
