package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/veilwork/grimoire/internal/registry"
	"github.com/veilwork/grimoire/internal/settings"
)

// ProjectFileName is the project file looked for when a directory is given.
const ProjectFileName = "grimoire.yml"

// PropertiesFileName is the property document looked for next to the models.
const PropertiesFileName = "properties.yml"

// ModelFileExt is the extension of query model files.
const ModelFileExt = ".prql"

// Error codes shared by every command.
const (
	ErrCodeNotFound      = "E001" // project path not found
	ErrCodeUnreadable    = "E002" // file or directory not readable
	ErrCodeBadProject    = "E003" // project file failed validation
	ErrCodeBadProperties = "E004" // property document invalid
	ErrCodeNoQueries     = "E005" // no model files found

	ErrCodeGraph     = "E101" // graph construction failed
	ErrCodeTranslate = "E102" // SQL translation failed
	ErrCodeCatalog   = "E103" // catalog database unavailable or import failed
	ErrCodeQuery     = "E104" // query rejected at registration
)

// Workspace is a fully loaded project: the settings, the optional
// property document, and the raw text of every enabled model.
type Workspace struct {
	Root       string
	Project    *settings.Project
	Properties *settings.Properties // nil when the document is absent
	Queries    []registry.RawQuery
}

// LoadError is a workspace loading failure with a stable code.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Detail returns the message with the underlying cause, without the code.
func (e *LoadError) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// LoadWorkspace loads the project at path, which may be the project
// file itself or a directory containing one. Model files are found
// under the project's model path: every *.prql file whose stem is not
// disabled becomes a raw query named after the stem. A properties.yml
// in the model directory is loaded and validated when present.
func LoadWorkspace(path string) (*Workspace, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("project path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeUnreadable, Message: fmt.Sprintf("cannot access %s", path), Err: err}
	}

	root := path
	projectFile := filepath.Join(path, ProjectFileName)
	if !info.IsDir() {
		root = filepath.Dir(path)
		projectFile = path
	}
	if _, err := os.Stat(projectFile); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no %s in %s", ProjectFileName, path)}
	}

	proj, err := settings.LoadProject(projectFile)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBadProject, Message: "invalid project file", Err: err}
	}

	ws := &Workspace{Root: root, Project: proj}
	modelDir := filepath.Join(root, proj.ModelPath)

	propsPath := filepath.Join(modelDir, PropertiesFileName)
	if _, err := os.Stat(propsPath); err == nil {
		props, err := settings.LoadProperties(propsPath)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeBadProperties, Message: "invalid property document", Err: err}
		}
		if problems := props.Validate(); len(problems) > 0 {
			return nil, &LoadError{Code: ErrCodeBadProperties, Message: "invalid property document", Err: joinValidation(problems)}
		}
		ws.Properties = props
	}

	files, err := filepath.Glob(filepath.Join(modelDir, "*"+ModelFileExt))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeUnreadable, Message: fmt.Sprintf("scanning %s", modelDir), Err: err}
	}
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ModelFileExt)
		if !proj.ModelEnabled(name) {
			slog.Debug("skipping disabled model", "name", name, "file", file)
			continue
		}
		text, err := os.ReadFile(file)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeUnreadable, Message: fmt.Sprintf("reading %s", file), Err: err}
		}
		ws.Queries = append(ws.Queries, registry.RawQuery{Name: name, Text: string(text)})
	}
	if len(ws.Queries) == 0 {
		return nil, &LoadError{Code: ErrCodeNoQueries, Message: fmt.Sprintf("no model files (*%s) in %s", ModelFileExt, modelDir)}
	}

	return ws, nil
}

func joinValidation(problems []settings.ValidationError) error {
	errs := make([]error, len(problems))
	for i, p := range problems {
		errs[i] = p
	}
	return errors.Join(errs...)
}

// reportLoadError prints a load failure through the formatter and
// converts it into a command-level exit error.
func reportLoadError(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = f.Error(loadErr.Code, loadErr.Detail(), nil)
		return NewExitError(ExitCommandError, loadErr.Error())
	}
	_ = f.Error(ErrCodeUnreadable, err.Error(), nil)
	return NewExitError(ExitCommandError, err.Error())
}
