package enhancer

import (
	"strings"
	"testing"

	"codedoc/internal/models"
	"codedoc/internal/structure"
)

var testRepo = RepoContext{Name: "billing", FullName: "acme/billing"}

func TestEnhance_SkipsDocumentedEntities(t *testing.T) {
	st := &structure.FileStructure{
		Path: "app/billing.py",
		Functions: []structure.FunctionFact{
			{Name: "charge", StartLine: 10, Docstring: "Charges a card."},
			{Name: "refund", StartLine: 30},
		},
		Classes: []structure.ClassFact{
			{Name: "Invoice", StartLine: 50, Docstring: "An invoice."},
			{Name: "LedgerEntry", StartLine: 80},
		},
	}

	requests := Enhance(st, testRepo)
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d: %+v", len(requests), requests)
	}
	if requests[0].TargetName != "refund" || requests[0].Kind != models.RequestKindFunction {
		t.Fatalf("first request: %+v", requests[0])
	}
	if requests[1].TargetName != "LedgerEntry" || requests[1].Kind != models.RequestKindClass {
		t.Fatalf("second request: %+v", requests[1])
	}
}

func TestEnhance_UndocumentedMethodsAreRequested(t *testing.T) {
	st := &structure.FileStructure{
		Path: "app/orders.py",
		Classes: []structure.ClassFact{
			{
				Name:      "Order",
				StartLine: 5,
				Docstring: "A customer order.",
				Methods: []structure.FunctionFact{
					{Name: "total", StartLine: 9, Params: []string{"self"}},
					{Name: "cancel", StartLine: 15, Params: []string{"self"}, Docstring: "Cancels the order."},
				},
			},
		},
	}

	requests := Enhance(st, testRepo)
	if len(requests) != 1 {
		t.Fatalf("expected 1 request for the undocumented method, got %d: %+v", len(requests), requests)
	}
	req := requests[0]
	if req.Kind != models.RequestKindFunction || req.TargetName != "total" {
		t.Fatalf("method request: %+v", req)
	}
	if req.SourceRef.Line != 9 {
		t.Fatalf("method line: %+v", req.SourceRef)
	}
	if !strings.Contains(req.PromptContext, "def total(self)") {
		t.Fatalf("context missing method signature:\n%s", req.PromptContext)
	}
}

func TestEnhance_KeepsSourceOrderAcrossKinds(t *testing.T) {
	st := &structure.FileStructure{
		Path: "app/mixed.py",
		Functions: []structure.FunctionFact{
			{Name: "late_func", StartLine: 90},
			{Name: "early_func", StartLine: 5},
		},
		Classes: []structure.ClassFact{
			{Name: "Middle", StartLine: 40},
		},
	}

	requests := Enhance(st, testRepo)
	var names []string
	for _, r := range requests {
		names = append(names, r.TargetName)
	}
	want := []string{"early_func", "Middle", "late_func"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order %v, want %v", names, want)
		}
	}
}

func TestEnhance_RequestCarriesContext(t *testing.T) {
	st := &structure.FileStructure{
		Path:    "app/api.py",
		Imports: []structure.ImportFact{{Module: "requests"}, {Module: "json"}},
		Functions: []structure.FunctionFact{
			{Name: "fetch", StartLine: 3, Params: []string{"url", "timeout"}, ReturnHint: "dict", IsAsync: true},
		},
	}

	requests := Enhance(st, testRepo)
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	ctx := requests[0].PromptContext
	for _, want := range []string{
		"async def fetch(url, timeout) -> dict",
		"app/api.py",
		"billing",
		"requests",
	} {
		if !strings.Contains(ctx, want) {
			t.Fatalf("context missing %q:\n%s", want, ctx)
		}
	}
	if requests[0].SourceRef.FilePath != "app/api.py" || requests[0].SourceRef.Line != 3 {
		t.Fatalf("source ref: %+v", requests[0].SourceRef)
	}
}

func TestEnhance_SanitizesPromptContext(t *testing.T) {
	st := &structure.FileStructure{
		Path: "app/secrets.py",
		Functions: []structure.FunctionFact{
			{Name: "connect", StartLine: 1, Params: []string{`api_key="sk-live-12345"`}},
		},
	}

	requests := Enhance(st, testRepo)
	if strings.Contains(requests[0].PromptContext, "sk-live-12345") {
		t.Fatalf("secret leaked into prompt context:\n%s", requests[0].PromptContext)
	}
}

func TestBuildReadmeRequest(t *testing.T) {
	var stats BatchStats
	stats.Observe(&structure.FileStructure{
		Path: "a.py",
		Functions: []structure.FunctionFact{
			{Name: "alpha"}, {Name: "beta"}, {Name: "gamma"}, {Name: "delta"},
		},
		Classes: []structure.ClassFact{{Name: "First"}, {Name: "Second"}, {Name: "Third"}},
	})

	if stats.TotalFiles != 1 || stats.TotalFunctions != 4 || stats.TotalClasses != 3 {
		t.Fatalf("stats: %+v", stats)
	}
	if len(stats.FunctionNames) != 3 || len(stats.ClassNames) != 2 {
		t.Fatalf("name samples: %+v", stats)
	}

	req := BuildReadmeRequest(testRepo, stats)
	if req.Kind != models.RequestKindReadme || req.TargetName != "billing" {
		t.Fatalf("readme request: %+v", req)
	}
	for _, want := range []string{"Files analyzed: 1", "Functions: 4", "Classes: 3", "alpha"} {
		if !strings.Contains(req.PromptContext, want) {
			t.Fatalf("readme context missing %q:\n%s", want, req.PromptContext)
		}
	}
}

func TestInferFilePurpose(t *testing.T) {
	cases := []struct {
		name string
		st   *structure.FileStructure
		want string
	}{
		{"test file", &structure.FileStructure{Path: "pkg/test_models.py"}, "test_file"},
		{"package init", &structure.FileStructure{Path: "pkg/__init__.py"}, "package_init"},
		{"settings", &structure.FileStructure{Path: "proj/settings.py"}, "configuration"},
		{"models", &structure.FileStructure{Path: "app/models.py"}, "data_models"},
		{"views", &structure.FileStructure{Path: "app/views.py"}, "web_views"},
		{"urls", &structure.FileStructure{Path: "app/urls.py"}, "url_routing"},
		{"tasks", &structure.FileStructure{Path: "app/tasks.py"}, "background_tasks"},
		{"serializers", &structure.FileStructure{Path: "app/serializers.py"}, "data_serialization"},
		{"api client suffix", &structure.FileStructure{Path: "app/stripe_client.py"}, "api_interface"},
		{
			"executable script",
			&structure.FileStructure{
				Path:      "app/run.py",
				Functions: []structure.FunctionFact{{Name: "main"}},
			},
			"executable_script",
		},
		{
			"class definitions",
			&structure.FileStructure{
				Path:    "app/entities.py",
				Classes: []structure.ClassFact{{Name: "A"}, {Name: "B"}, {Name: "C"}},
			},
			"class_definitions",
		},
		{
			"function library",
			&structure.FileStructure{
				Path: "app/calc.py",
				Functions: []structure.FunctionFact{
					{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"},
				},
			},
			"function_library",
		},
		{"constants only", &structure.FileStructure{Path: "app/enums.py"}, "constants_or_config"},
		{
			"general module",
			&structure.FileStructure{
				Path:      "app/thing.py",
				Functions: []structure.FunctionFact{{Name: "one"}},
				Classes:   []structure.ClassFact{{Name: "One"}},
			},
			"general_module",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InferFilePurpose(tc.st); got != tc.want {
				t.Fatalf("InferFilePurpose(%s) = %q, want %q", tc.st.Path, got, tc.want)
			}
		})
	}
}
