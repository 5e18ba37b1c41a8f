package services

import (
	"bytes"
	"testing"
	"time"

	"codedoc/internal/models"
)

func fixedAssembler() *DocumentAssembler {
	a := NewDocumentAssembler()
	a.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return a
}

func sampleResults() []models.GenerationResult {
	return []models.GenerationResult{
		{Kind: models.RequestKindFunction, TargetName: "load", SourceRef: models.SourceRef{FilePath: "app/io.py", Line: 4}, GeneratedText: "Loads data.", Status: models.ResultStatusOK},
		{Kind: models.RequestKindClass, TargetName: "Store", SourceRef: models.SourceRef{FilePath: "app/store.py", Line: 8}, GeneratedText: "A store.", Status: models.ResultStatusOK},
		{Kind: models.RequestKindFunction, TargetName: "save", SourceRef: models.SourceRef{FilePath: "app/io.py", Line: 20}, GeneratedText: "Saves data.", Status: models.ResultStatusFallback},
	}
}

func TestAssemble_GroupsByFileInFirstAppearanceOrder(t *testing.T) {
	a := fixedAssembler()
	readme := models.GenerationResult{Kind: models.RequestKindReadme, GeneratedText: "A demo project.", Status: models.ResultStatusOK}

	doc := a.Assemble("demo", readme, sampleResults())

	if doc.Repository != "demo" || doc.Readme != "A demo project." {
		t.Fatalf("header: %+v", doc)
	}
	if len(doc.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(doc.Files))
	}
	if doc.Files[0].FilePath != "app/io.py" || doc.Files[1].FilePath != "app/store.py" {
		t.Fatalf("file order: %s, %s", doc.Files[0].FilePath, doc.Files[1].FilePath)
	}
	if len(doc.Files[0].Items) != 2 || doc.Files[0].Items[1].TargetName != "save" {
		t.Fatalf("io.py items: %+v", doc.Files[0].Items)
	}
}

func TestAssemble_Stats(t *testing.T) {
	doc := fixedAssembler().Assemble("demo", models.GenerationResult{}, sampleResults())

	want := models.DocumentStats{
		FilesProcessed:     2,
		TotalFunctions:     2,
		TotalClasses:       1,
		DocumentationItems: 3,
	}
	if doc.Stats != want {
		t.Fatalf("stats %+v, want %+v", doc.Stats, want)
	}
}

func TestAssemble_NoItemsMeansNoFiles(t *testing.T) {
	doc := fixedAssembler().Assemble("demo", models.GenerationResult{GeneratedText: "Readme only."}, nil)
	if len(doc.Files) != 0 {
		t.Fatalf("expected no files, got %+v", doc.Files)
	}
	if doc.Stats.FilesProcessed != 0 {
		t.Fatalf("stats: %+v", doc.Stats)
	}
}

func TestAssemble_DeterministicSerialization(t *testing.T) {
	a := fixedAssembler()
	readme := models.GenerationResult{GeneratedText: "A demo project."}

	first, err := a.Assemble("demo", readme, sampleResults()).MarshalStable()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := a.Assemble("demo", readme, sampleResults()).MarshalStable()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("serialization not byte-stable:\n%s\n---\n%s", first, second)
	}
}
