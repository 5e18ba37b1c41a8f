package structure

import (
	"errors"
	"reflect"
	"testing"
)

const sampleSource = `"""Utility helpers."""

import os
from typing import Optional

MAX_RETRIES = 3


def parse(data: str, limit: int = 10) -> dict:
    """Parse data."""
    return {}


async def fetch(url):
    if not url:
        return None
    return await get(url)


@app.route("/health")
def health():
    return "ok"


class Worker(Base):
    """Runs tasks."""

    def run(self, task):
        for item in task:
            if item:
                handle(item)
`

func extract(t *testing.T, source string) *FileStructure {
	t.Helper()
	fs, err := NewExtractor().Extract("app/utils.py", []byte(source))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return fs
}

func TestExtract_ModuleFacts(t *testing.T) {
	fs := extract(t, sampleSource)

	if fs.ModuleDocstring != "Utility helpers." {
		t.Fatalf("module docstring %q", fs.ModuleDocstring)
	}
	if len(fs.Imports) != 2 {
		t.Fatalf("imports: %+v", fs.Imports)
	}
	if fs.Imports[0].Module != "os" {
		t.Fatalf("first import %+v", fs.Imports[0])
	}
	if fs.Imports[1].Module != "typing" || !reflect.DeepEqual(fs.Imports[1].Names, []string{"Optional"}) {
		t.Fatalf("second import %+v", fs.Imports[1])
	}
	if len(fs.Constants) != 1 || fs.Constants[0].Name != "MAX_RETRIES" || fs.Constants[0].Line != 6 {
		t.Fatalf("constants: %+v", fs.Constants)
	}
}

func TestExtract_Functions(t *testing.T) {
	fs := extract(t, sampleSource)

	if len(fs.Functions) != 3 {
		t.Fatalf("expected 3 functions, got %d", len(fs.Functions))
	}

	parse := fs.Functions[0]
	if parse.Name != "parse" || parse.StartLine != 9 {
		t.Fatalf("parse fact: %+v", parse)
	}
	if !reflect.DeepEqual(parse.Params, []string{"data", "limit"}) {
		t.Fatalf("parse params: %v", parse.Params)
	}
	if parse.ReturnHint != "dict" {
		t.Fatalf("parse return hint %q", parse.ReturnHint)
	}
	if parse.Docstring != "Parse data." {
		t.Fatalf("parse docstring %q", parse.Docstring)
	}
	if parse.Complexity != 1 {
		t.Fatalf("parse complexity %d", parse.Complexity)
	}

	fetch := fs.Functions[1]
	if fetch.Name != "fetch" || !fetch.IsAsync {
		t.Fatalf("fetch fact: %+v", fetch)
	}
	if fetch.Docstring != "" {
		t.Fatalf("fetch should be undocumented, got %q", fetch.Docstring)
	}
	if fetch.Complexity != 2 {
		t.Fatalf("fetch complexity %d", fetch.Complexity)
	}

	health := fs.Functions[2]
	if !reflect.DeepEqual(health.Decorators, []string{"app.route"}) {
		t.Fatalf("health decorators: %v", health.Decorators)
	}
}

func TestExtract_Classes(t *testing.T) {
	fs := extract(t, sampleSource)

	if len(fs.Classes) != 1 {
		t.Fatalf("expected 1 class, got %d", len(fs.Classes))
	}
	worker := fs.Classes[0]
	if worker.Name != "Worker" || !reflect.DeepEqual(worker.Bases, []string{"Base"}) {
		t.Fatalf("class fact: %+v", worker)
	}
	if worker.Docstring != "Runs tasks." {
		t.Fatalf("class docstring %q", worker.Docstring)
	}
	if len(worker.Methods) != 1 || worker.Methods[0].Name != "run" {
		t.Fatalf("methods: %+v", worker.Methods)
	}
	if worker.Methods[0].Complexity != 3 {
		t.Fatalf("run complexity %d", worker.Methods[0].Complexity)
	}
}

func TestExtract_Metrics(t *testing.T) {
	fs := extract(t, sampleSource)
	m := fs.Metrics()

	if m.TotalFunctions != 4 {
		t.Fatalf("total functions %d", m.TotalFunctions)
	}
	if m.TotalClasses != 1 || m.TotalImports != 2 {
		t.Fatalf("metrics: %+v", m)
	}
	if m.MaxFunctionComplexity != 3 {
		t.Fatalf("max complexity %d", m.MaxFunctionComplexity)
	}
}

func TestExtract_NestedFunctions(t *testing.T) {
	fs := extract(t, `def outer():
    def inner(x):
        return x
    return inner
`)
	if len(fs.Functions) != 2 {
		t.Fatalf("expected outer and inner, got %d", len(fs.Functions))
	}
	if fs.Functions[1].Name != "inner" {
		t.Fatalf("nested function: %+v", fs.Functions[1])
	}
}

func TestExtract_FunctionNestedInMethod(t *testing.T) {
	fs := extract(t, `class Outer:
    def method(self):
        def helper(x):
            return x
        return helper
`)
	if len(fs.Classes) != 1 || len(fs.Classes[0].Methods) != 1 {
		t.Fatalf("class facts: %+v", fs.Classes)
	}
	if len(fs.Functions) != 1 || fs.Functions[0].Name != "helper" {
		t.Fatalf("expected helper as a standalone function, got %+v", fs.Functions)
	}
}

func TestExtract_ClassDecorators(t *testing.T) {
	fs := extract(t, `@dataclass(frozen=True)
class Point:
    x: int
`)
	if len(fs.Classes) != 1 {
		t.Fatalf("classes: %+v", fs.Classes)
	}
	if !reflect.DeepEqual(fs.Classes[0].Decorators, []string{"dataclass"}) {
		t.Fatalf("class decorators: %v", fs.Classes[0].Decorators)
	}
}

func TestExtract_GuardedImports(t *testing.T) {
	fs := extract(t, `try:
    import ujson as json
except ImportError:
    import json
`)
	if len(fs.Imports) != 2 {
		t.Fatalf("guarded imports: %+v", fs.Imports)
	}
}

func TestExtract_InvalidSyntax(t *testing.T) {
	_, err := NewExtractor().Extract("bad.py", []byte("def broken(:\n"))
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestExtract_EmptyFile(t *testing.T) {
	fs := extract(t, "")
	if fs.ModuleDocstring != "" || len(fs.Functions)+len(fs.Classes)+len(fs.Imports) != 0 {
		t.Fatalf("empty file produced facts: %+v", fs)
	}
}
