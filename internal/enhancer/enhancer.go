// Package enhancer turns structural facts into generation-ready requests.
// It produces one request per undocumented function or class, plus one
// repository-level readme request per batch. Entities that already carry
// a docstring are skipped, so re-running the pipeline never regenerates
// existing documentation.
package enhancer

import (
	"fmt"
	"sort"
	"strings"

	"codedoc/internal/models"
	"codedoc/internal/sanitize"
	"codedoc/internal/structure"
)

const maxNeighborImports = 5

// RepoContext carries the repository metadata a prompt can mention.
type RepoContext struct {
	Name     string
	FullName string
}

// BatchStats aggregates what a batch analyzed, for the readme request.
type BatchStats struct {
	TotalFiles     int
	TotalFunctions int
	TotalClasses   int
	FunctionNames  []string
	ClassNames     []string
}

// Observe folds one file structure into the running batch stats, keeping
// a few entity names per file for readme flavor.
func (b *BatchStats) Observe(st *structure.FileStructure) {
	b.TotalFiles++
	m := st.Metrics()
	b.TotalFunctions += m.TotalFunctions
	b.TotalClasses += m.TotalClasses
	for i, f := range st.Functions {
		if i >= 3 {
			break
		}
		b.FunctionNames = append(b.FunctionNames, f.Name)
	}
	for i, c := range st.Classes {
		if i >= 2 {
			break
		}
		b.ClassNames = append(b.ClassNames, c.Name)
	}
}

// Enhance produces requests for every undocumented function, class and
// method in source order. Methods are requested as functions in their own
// right; a documented class does not excuse its undocumented methods.
func Enhance(st *structure.FileStructure, repo RepoContext) []models.GenerationRequest {
	purpose := InferFilePurpose(st)
	imports := neighborImports(st)

	type entity struct {
		kind string
		name string
		line int
		sig  string
		doc  string
	}
	var ordered []entity
	for _, f := range st.Functions {
		ordered = append(ordered, entity{
			kind: models.RequestKindFunction,
			name: f.Name,
			line: f.StartLine,
			sig:  functionSignature(f),
			doc:  f.Docstring,
		})
	}
	for _, c := range st.Classes {
		ordered = append(ordered, entity{
			kind: models.RequestKindClass,
			name: c.Name,
			line: c.StartLine,
			sig:  classSignature(c),
			doc:  c.Docstring,
		})
		for _, m := range c.Methods {
			ordered = append(ordered, entity{
				kind: models.RequestKindFunction,
				name: m.Name,
				line: m.StartLine,
				sig:  functionSignature(m),
				doc:  m.Docstring,
			})
		}
	}
	// Restore true source order across the two fact lists.
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].line < ordered[j].line })

	var requests []models.GenerationRequest
	for _, e := range ordered {
		if e.doc != "" {
			continue
		}
		ctx := promptContext(e.sig, st.Path, purpose, imports, repo)
		requests = append(requests, models.GenerationRequest{
			Kind:          e.kind,
			TargetName:    e.name,
			PromptContext: sanitize.Sanitize(ctx),
			SourceRef:     models.SourceRef{FilePath: st.Path, Line: e.line},
		})
	}
	return requests
}

// BuildReadmeRequest creates the single repository-level request for a
// batch, summarizing aggregate analysis stats.
func BuildReadmeRequest(repo RepoContext, stats BatchStats) models.GenerationRequest {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", repo.Name)
	fmt.Fprintf(&b, "Files analyzed: %d\n", stats.TotalFiles)
	fmt.Fprintf(&b, "Functions: %d\n", stats.TotalFunctions)
	fmt.Fprintf(&b, "Classes: %d\n", stats.TotalClasses)
	if len(stats.FunctionNames) > 0 {
		fmt.Fprintf(&b, "Key functions: %s\n", strings.Join(stats.FunctionNames, ", "))
	}
	if len(stats.ClassNames) > 0 {
		fmt.Fprintf(&b, "Key classes: %s\n", strings.Join(stats.ClassNames, ", "))
	}
	return models.GenerationRequest{
		Kind:          models.RequestKindReadme,
		TargetName:    repo.Name,
		PromptContext: sanitize.Sanitize(b.String()),
		SourceRef:     models.SourceRef{FilePath: "", Line: 0},
	}
}

func promptContext(signature, path, purpose string, imports []string, repo RepoContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Signature: %s\n", signature)
	fmt.Fprintf(&b, "File: %s\n", path)
	fmt.Fprintf(&b, "Purpose: %s\n", purpose)
	if repo.Name != "" {
		fmt.Fprintf(&b, "Repository: %s\n", repo.Name)
	}
	if len(imports) > 0 {
		fmt.Fprintf(&b, "Nearby imports: %s\n", strings.Join(imports, ", "))
	}
	return b.String()
}

func functionSignature(f structure.FunctionFact) string {
	var b strings.Builder
	if f.IsAsync {
		b.WriteString("async ")
	}
	fmt.Fprintf(&b, "def %s(%s)", f.Name, strings.Join(f.Params, ", "))
	if f.ReturnHint != "" {
		fmt.Fprintf(&b, " -> %s", f.ReturnHint)
	}
	return b.String()
}

func classSignature(c structure.ClassFact) string {
	if len(c.Bases) == 0 {
		return fmt.Sprintf("class %s", c.Name)
	}
	return fmt.Sprintf("class %s(%s)", c.Name, strings.Join(c.Bases, ", "))
}

func neighborImports(st *structure.FileStructure) []string {
	var out []string
	for _, imp := range st.Imports {
		if imp.Module != "" {
			out = append(out, imp.Module)
		}
		if len(out) >= maxNeighborImports {
			break
		}
	}
	return out
}
