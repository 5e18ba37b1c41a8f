package enhancer

import (
	"path/filepath"
	"strings"

	"codedoc/internal/structure"
)

// InferFilePurpose derives a short heuristic label for a file from its
// name and structural shape. The label only biases prompt tone; it never
// changes what gets generated.
func InferFilePurpose(st *structure.FileStructure) string {
	name := strings.ToLower(filepath.Base(st.Path))

	switch {
	case strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test.py") || strings.Contains(name, "test"):
		return "test_file"
	case name == "__init__.py":
		return "package_init"
	case name == "settings.py" || name == "config.py" || name == "configuration.py":
		return "configuration"
	case name == "models.py" || name == "model.py":
		return "data_models"
	case name == "views.py" || name == "view.py":
		return "web_views"
	case name == "urls.py" || name == "routing.py":
		return "url_routing"
	case name == "utils.py" || name == "utilities.py" || name == "helpers.py":
		return "utilities"
	case name == "admin.py":
		return "admin_interface"
	case name == "tasks.py" || name == "jobs.py":
		return "background_tasks"
	case name == "serializers.py":
		return "data_serialization"
	case strings.HasSuffix(name, "_api.py") || strings.HasSuffix(name, "_client.py"):
		return "api_interface"
	}

	// No filename convention matched; fall back to content shape.
	m := st.Metrics()
	funcs := len(st.Functions)
	classes := len(st.Classes)
	switch {
	case hasMainGuard(st):
		return "executable_script"
	case classes > funcs && classes > 2:
		return "class_definitions"
	case funcs > classes && funcs > 3:
		return "function_library"
	case m.TotalFunctions == 0 && classes == 0:
		return "constants_or_config"
	default:
		return "general_module"
	}
}

// hasMainGuard approximates detection of the `if __name__ == "__main__"`
// pattern. The extractor does not keep raw expressions, so executable
// scripts are recognized by their conventional shape: module-level code
// with an entry function named main.
func hasMainGuard(st *structure.FileStructure) bool {
	for _, f := range st.Functions {
		if f.Name == "main" {
			return true
		}
	}
	return false
}
