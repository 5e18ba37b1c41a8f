// Package structure extracts shallow structural facts from Python source
// files: functions, classes, imports, docstrings and a naive complexity
// score. It performs no dataflow or type analysis.
package structure

// FunctionFact describes one function or method definition.
type FunctionFact struct {
	Name       string
	StartLine  int
	EndLine    int
	Params     []string
	ReturnHint string
	Docstring  string
	IsAsync    bool
	Decorators []string
	Complexity int
}

// ClassFact describes one class definition and its direct methods.
type ClassFact struct {
	Name       string
	StartLine  int
	EndLine    int
	Docstring  string
	Bases      []string
	Decorators []string
	Methods    []FunctionFact
}

// ImportFact records a module-level import and the names it binds.
type ImportFact struct {
	Module string
	Names  []string
}

// ConstantFact records a module-level UPPERCASE assignment.
type ConstantFact struct {
	Name string
	Line int
}

// FileStructure is the fact model for a single source file. It is built
// once per pipeline invocation and never mutated afterwards.
type FileStructure struct {
	Path            string
	ModuleDocstring string
	Functions       []FunctionFact
	Classes         []ClassFact
	Imports         []ImportFact
	Constants       []ConstantFact
}

// Metrics aggregates per-file complexity numbers.
type Metrics struct {
	TotalFunctions        int
	TotalClasses          int
	TotalImports          int
	MaxFunctionComplexity int
	AvgFunctionComplexity int
}

// Metrics computes aggregate counts over all facts, including methods.
func (fs *FileStructure) Metrics() Metrics {
	m := Metrics{
		TotalClasses: len(fs.Classes),
		TotalImports: len(fs.Imports),
	}
	var sum, n int
	tally := func(f FunctionFact) {
		n++
		sum += f.Complexity
		if f.Complexity > m.MaxFunctionComplexity {
			m.MaxFunctionComplexity = f.Complexity
		}
	}
	for _, f := range fs.Functions {
		tally(f)
	}
	for _, c := range fs.Classes {
		for _, f := range c.Methods {
			tally(f)
		}
	}
	m.TotalFunctions = n
	if n > 0 {
		m.AvgFunctionComplexity = sum / n
	}
	return m
}
