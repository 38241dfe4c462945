package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/resulam/royalties/internal/reference"
)

func testTables(t *testing.T) *reference.Tables {
	t.Helper()
	tables, err := reference.Default()
	if err != nil {
		t.Fatalf("failed to load reference tables: %v", err)
	}
	return tables
}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	csvData := `id,title,authors,language_name,category,book_nick_name,paperback,ebook,hard_cover
1,"La grammaire des langues bamilekes : cas du nufi – June 23, 2015","Rodrigue Tchamna",Nufi,Grammar,nufi_grammaire,http://a,http://b,
2,"Guide de conversation trilingue français-anglais-douala: French-Duala-English Phrasebook","Shck Tchamna",Duala,Phrasebook,duala_phrasebook,,,
3,"  Conversation de base   en langue fe'efe'e  ","Josephine Ndonke",Nufi,Conversation,nufi_conv.base,,,
`
	entries, err := LoadCSV(writeCatalog(t, csvData), testTables(t))
	if err != nil {
		t.Fatalf("LoadCSV returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	// Trailing date suffix stripped from the title.
	if got, want := entries[0].Title, "La grammaire des langues bamilekes : cas du nufi"; got != want {
		t.Errorf("entry 0 title = %q, want %q", got, want)
	}

	// Author variant mapped to the canonical name.
	if got, want := entries[0].Authors, "Shck Tchamna"; got != want {
		t.Errorf("entry 0 authors = %q, want %q", got, want)
	}
	if got, want := entries[2].Authors, "Joséphine Ndonke"; got != want {
		t.Errorf("entry 2 authors = %q, want %q", got, want)
	}

	// Whitespace collapsed and title substitutions applied.
	if got, want := entries[2].Title, "Conversations de base en langue fe'efe'e"; got != want {
		t.Errorf("entry 2 title = %q, want %q", got, want)
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"), testTables(t))
	if err == nil {
		t.Fatal("expected error for missing catalog file")
	}
}

func TestLoadCSVMissingColumn(t *testing.T) {
	csvData := "id,name\n1,whatever\n"
	_, err := LoadCSV(writeCatalog(t, csvData), testTables(t))
	if err == nil {
		t.Fatal("expected error for catalog without title column")
	}
}

func TestNormalizeTitle(t *testing.T) {
	tables := testTables(t)

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "substitution expands short yemba title",
			title: "Guide de conversation trilingue français-anglais-yemba",
			want:  "Guide de conversation trilingue français-anglais-yemba: French-Yemba-English Phrasebook",
		},
		{
			name:  "date suffix with en dash",
			title: "Some Title – June 23, 2015",
			want:  "Some Title",
		},
		{
			name:  "date suffix with hyphen and trailing period",
			title: "Some Title - January 5, 2019.",
			want:  "Some Title",
		},
		{
			name:  "no suffix unchanged",
			title: "Le Grenier du Nguemba: Ntâŋ Ŋgə̂mbà : Ngemba Attic",
			want:  "Le Grenier du Nguemba: Ntâŋ Ŋgə̂mbà : Ngemba Attic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.title, tables.Titles); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
