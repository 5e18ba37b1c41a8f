package structure

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrParse marks source text that is not syntactically valid Python.
var ErrParse = errors.New("parse error")

// Extractor turns raw Python source into a FileStructure. It is pure and
// safe for concurrent use; each call owns its parser state.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses source and walks the syntax tree once, capturing
// functions, classes, imports, the module docstring and module-level
// constants in source order. Dynamic constructs it cannot understand are
// simply omitted; only syntactically invalid input fails.
func (e *Extractor) Extract(path string, source []byte) (*FileStructure, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w: %s: invalid syntax", ErrParse, path)
	}

	fs := &FileStructure{
		Path:            path,
		ModuleDocstring: leadingDocstring(root, source),
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		e.collect(root.Child(i), source, fs)
	}
	return fs, nil
}

// collect dispatches one top-level (or nested) statement node. Methods
// stay attached to their class; nested function definitions are recorded
// as functions in their own right, matching a full-tree walk.
func (e *Extractor) collect(node *sitter.Node, source []byte, fs *FileStructure) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "import_statement", "import_from_statement":
		if imp := extractImport(node, source); imp != nil {
			fs.Imports = append(fs.Imports, *imp)
		}
	case "function_definition":
		fn := extractFunction(node, source, nil)
		fs.Functions = append(fs.Functions, fn)
		e.collectNested(bodyOf(node), source, fs)
	case "class_definition":
		fs.Classes = append(fs.Classes, extractClass(node, source, nil))
		e.collectMethodNested(node, source, fs)
	case "decorated_definition":
		decorators := extractDecorators(node, source)
		def := node.ChildByFieldName("definition")
		if def == nil {
			return
		}
		switch def.Type() {
		case "function_definition":
			fn := extractFunction(def, source, decorators)
			fs.Functions = append(fs.Functions, fn)
			e.collectNested(bodyOf(def), source, fs)
		case "class_definition":
			fs.Classes = append(fs.Classes, extractClass(def, source, decorators))
			e.collectMethodNested(def, source, fs)
		}
	case "expression_statement":
		if c := extractConstant(node, source); c != nil {
			fs.Constants = append(fs.Constants, *c)
		}
	case "if_statement", "try_statement", "with_statement", "for_statement", "while_statement",
		"elif_clause", "else_clause", "except_clause", "finally_clause":
		// Imports and defs guarded by module-level control flow still count.
		for i := 0; i < int(node.ChildCount()); i++ {
			e.collect(node.Child(i), source, fs)
		}
	case "block":
		for i := 0; i < int(node.ChildCount()); i++ {
			e.collect(node.Child(i), source, fs)
		}
	}
}

// collectNested records function definitions found inside a function body.
func (e *Extractor) collectNested(body *sitter.Node, source []byte, fs *FileStructure) {
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "function_definition":
			fs.Functions = append(fs.Functions, extractFunction(child, source, nil))
			e.collectNested(bodyOf(child), source, fs)
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def != nil && def.Type() == "function_definition" {
				fs.Functions = append(fs.Functions, extractFunction(def, source, extractDecorators(child, source)))
				e.collectNested(bodyOf(def), source, fs)
			}
		}
	}
}

// collectMethodNested scans method bodies of a class for function
// definitions. The methods themselves stay attached to the class; only
// functions defined inside them land in fs.Functions.
func (e *Extractor) collectMethodNested(classNode *sitter.Node, source []byte, fs *FileStructure) {
	body := bodyOf(classNode)
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		if child.Type() == "decorated_definition" {
			child = child.ChildByFieldName("definition")
		}
		if child != nil && child.Type() == "function_definition" {
			e.collectNested(bodyOf(child), source, fs)
		}
	}
}

func extractFunction(node *sitter.Node, source []byte, decorators []string) FunctionFact {
	fact := FunctionFact{
		Name:       text(node.ChildByFieldName("name"), source),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		Decorators: decorators,
		Docstring:  leadingDocstring(bodyOf(node), source),
		Complexity: complexityOf(bodyOf(node)),
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		fact.ReturnHint = text(ret, source)
	}
	fact.Params = extractParams(node.ChildByFieldName("parameters"), source)
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "async" {
			fact.IsAsync = true
			break
		}
	}
	return fact
}

func extractClass(node *sitter.Node, source []byte, decorators []string) ClassFact {
	fact := ClassFact{
		Name:       text(node.ChildByFieldName("name"), source),
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		Decorators: decorators,
		Docstring:  leadingDocstring(bodyOf(node), source),
	}
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := 0; i < int(supers.NamedChildCount()); i++ {
			base := supers.NamedChild(i)
			switch base.Type() {
			case "identifier", "attribute":
				fact.Bases = append(fact.Bases, text(base, source))
			case "keyword_argument":
				// metaclass=... and friends are not base classes
			default:
				fact.Bases = append(fact.Bases, text(base, source))
			}
		}
	}
	body := bodyOf(node)
	if body == nil {
		return fact
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "function_definition":
			fact.Methods = append(fact.Methods, extractFunction(child, source, nil))
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def != nil && def.Type() == "function_definition" {
				fact.Methods = append(fact.Methods, extractFunction(def, source, extractDecorators(child, source)))
			}
		}
	}
	return fact
}

// extractParams returns parameter names in declaration order. Splat
// parameters keep their * / ** prefix; defaults and annotations are
// reduced to the bare name.
func extractParams(params *sitter.Node, source []byte) []string {
	if params == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			out = append(out, text(p, source))
		case "typed_parameter":
			if id := firstChildOfType(p, "identifier"); id != nil {
				out = append(out, text(id, source))
			}
		case "default_parameter", "typed_default_parameter":
			if name := p.ChildByFieldName("name"); name != nil {
				out = append(out, text(name, source))
			}
		case "list_splat_pattern":
			if id := firstChildOfType(p, "identifier"); id != nil {
				out = append(out, "*"+text(id, source))
			}
		case "dictionary_splat_pattern":
			if id := firstChildOfType(p, "identifier"); id != nil {
				out = append(out, "**"+text(id, source))
			}
		}
	}
	return out
}

// extractDecorators captures decorator names on a decorated_definition,
// without call arguments.
func extractDecorators(node *sitter.Node, source []byte) []string {
	var out []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "decorator" {
			continue
		}
		name := strings.TrimPrefix(text(child, source), "@")
		if idx := strings.Index(name, "("); idx > 0 {
			name = name[:idx]
		}
		out = append(out, strings.TrimSpace(name))
	}
	return out
}

func extractImport(node *sitter.Node, source []byte) *ImportFact {
	switch node.Type() {
	case "import_statement":
		// import a.b, c as d
		imp := &ImportFact{}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "dotted_name":
				imp.Names = append(imp.Names, text(child, source))
			case "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					imp.Names = append(imp.Names, text(name, source))
				}
			}
		}
		if len(imp.Names) == 0 {
			return nil
		}
		imp.Module = imp.Names[0]
		return imp
	case "import_from_statement":
		imp := &ImportFact{}
		if mod := node.ChildByFieldName("module_name"); mod != nil {
			imp.Module = text(mod, source)
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "dotted_name":
				name := text(child, source)
				if name != imp.Module {
					imp.Names = append(imp.Names, name)
				}
			case "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					imp.Names = append(imp.Names, text(name, source))
				}
			case "wildcard_import":
				imp.Names = append(imp.Names, "*")
			}
		}
		return imp
	}
	return nil
}

// extractConstant detects module-level UPPERCASE assignments.
func extractConstant(stmt *sitter.Node, source []byte) *ConstantFact {
	assign := firstChildOfType(stmt, "assignment")
	if assign == nil {
		return nil
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return nil
	}
	name := text(left, source)
	if name == "" || name != strings.ToUpper(name) || !strings.ContainsAny(name, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return nil
	}
	return &ConstantFact{Name: name, Line: int(stmt.StartPoint().Row) + 1}
}

// complexityOf applies the additive heuristic: +1 per branching construct
// in the body, floor 1.
func complexityOf(body *sitter.Node) int {
	score := 1
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "if_statement", "elif_clause", "for_statement", "while_statement",
			"except_clause", "boolean_operator", "conditional_expression",
			"list_comprehension", "set_comprehension", "dictionary_comprehension",
			"generator_expression":
			score++
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
	return score
}

// leadingDocstring returns the docstring when the first statement of a
// block (or module) is a bare string literal.
func leadingDocstring(block *sitter.Node, source []byte) string {
	if block == nil {
		return ""
	}
	for i := 0; i < int(block.ChildCount()); i++ {
		child := block.Child(i)
		if child.Type() == "comment" {
			continue
		}
		if child.Type() != "expression_statement" {
			return ""
		}
		str := firstChildOfType(child, "string")
		if str == nil {
			return ""
		}
		return unquoteString(text(str, source))
	}
	return ""
}

// unquoteString strips Python string prefixes and quote delimiters.
func unquoteString(s string) string {
	s = strings.TrimLeft(s, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return strings.TrimSpace(s)
}

func bodyOf(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	return node.ChildByFieldName("body")
}

func firstChildOfType(node *sitter.Node, typ string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == typ {
			return node.Child(i)
		}
	}
	return nil
}

func text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}
