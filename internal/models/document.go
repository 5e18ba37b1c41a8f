package models

import "encoding/json"

const (
	RequestKindFunction = "function"
	RequestKindClass    = "class"
	RequestKindReadme   = "readme"
)

const (
	ResultStatusOK       = "ok"
	ResultStatusFallback = "fallback"
	ResultStatusBlocked  = "blocked"
)

// SourceRef points a generated item back at the code it documents.
type SourceRef struct {
	FilePath string `json:"filePath"`
	Line     int    `json:"line"`
}

// GenerationRequest is one unit of work for the generation service:
// a single undocumented function or class, or the repository readme.
// Instances are immutable once built.
type GenerationRequest struct {
	Kind          string    `json:"kind"`
	TargetName    string    `json:"targetName"`
	PromptContext string    `json:"promptContext"`
	SourceRef     SourceRef `json:"sourceRef"`
}

// GenerationResult is the outcome for exactly one GenerationRequest.
// Fallback and blocked results still carry placeholder text; the
// pipeline never drops an item silently.
type GenerationResult struct {
	Kind          string    `json:"kind"`
	TargetName    string    `json:"targetName"`
	SourceRef     SourceRef `json:"sourceRef"`
	GeneratedText string    `json:"generatedText"`
	Status        string    `json:"status"`
}

// FileDocumentation groups the generated items of one source file.
type FileDocumentation struct {
	FilePath string             `json:"filePath"`
	Items    []GenerationResult `json:"items"`
}

type DocumentStats struct {
	FilesProcessed     int `json:"filesProcessed"`
	TotalFunctions     int `json:"totalFunctions"`
	TotalClasses       int `json:"totalClasses"`
	DocumentationItems int `json:"documentationItems"`
}

// Document is the final assembled payload stored on a completed job.
type Document struct {
	Repository  string              `json:"repository"`
	GeneratedAt string              `json:"generatedAt"`
	Readme      string              `json:"readme"`
	Files       []FileDocumentation `json:"files"`
	Stats       DocumentStats       `json:"stats"`
}

// MarshalStable serializes the document. Field order is fixed and no
// maps are involved, so identical inputs always produce identical bytes.
func (d *Document) MarshalStable() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
