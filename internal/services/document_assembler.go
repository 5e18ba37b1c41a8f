package services

import (
	"time"

	"codedoc/internal/models"
)

// DocumentAssembler merges per-item generation results and the readme
// into one serializable document. Given the same inputs and clock it
// always produces identical output.
type DocumentAssembler struct {
	now func() time.Time
}

func NewDocumentAssembler() *DocumentAssembler {
	return &DocumentAssembler{now: time.Now}
}

// Assemble groups items by source file, preserving first-appearance
// order, which equals source order because the orchestrator keeps result
// order equal to request order. Files that produced no items do not
// appear in the document.
func (a *DocumentAssembler) Assemble(repoName string, readme models.GenerationResult, items []models.GenerationResult) *models.Document {
	doc := &models.Document{
		Repository:  repoName,
		GeneratedAt: a.now().UTC().Format(time.RFC3339),
		Readme:      readme.GeneratedText,
	}

	index := make(map[string]int)
	for _, item := range items {
		path := item.SourceRef.FilePath
		i, seen := index[path]
		if !seen {
			i = len(doc.Files)
			index[path] = i
			doc.Files = append(doc.Files, models.FileDocumentation{FilePath: path})
		}
		doc.Files[i].Items = append(doc.Files[i].Items, item)

		switch item.Kind {
		case models.RequestKindFunction:
			doc.Stats.TotalFunctions++
		case models.RequestKindClass:
			doc.Stats.TotalClasses++
		}
		doc.Stats.DocumentationItems++
	}
	doc.Stats.FilesProcessed = len(doc.Files)
	return doc
}
