package remote

import (
	"path/filepath"
	"strings"
)

// Language is the notebook language the workspace stores an object as.
type Language string

const (
	LanguagePython Language = "PYTHON"
	LanguageScala  Language = "SCALA"
	LanguageSQL    Language = "SQL"
	LanguageR      Language = "R"
)

// Format is the on-disk format of an imported file.
type Format string

const (
	FormatSource  Format = "SOURCE"
	FormatJupyter Format = "JUPYTER"
)

type languageFormat struct {
	language Language
	format   Format
}

// Extensions are matched case-sensitively except where both cases are listed.
var extensionTable = map[string]languageFormat{
	".py":    {LanguagePython, FormatSource},
	".scala": {LanguageScala, FormatSource},
	".sql":   {LanguageSQL, FormatSource},
	".SQL":   {LanguageSQL, FormatSource},
	".r":     {LanguageR, FormatSource},
	".R":     {LanguageR, FormatSource},
	".ipynb": {LanguagePython, FormatJupyter},
}

// LanguageForPath infers the notebook language and storage format from a
// local file's extension. ok is false for unknown extensions.
func LanguageForPath(path string) (language Language, format Format, ok bool) {
	lf, ok := extensionTable[filepath.Ext(path)]
	if !ok {
		return "", "", false
	}
	return lf.language, lf.format, true
}

// KnownExtensions lists the extensions LanguageForPath recognises, sorted.
func KnownExtensions() []string {
	return []string{".R", ".SQL", ".ipynb", ".py", ".r", ".scala", ".sql"}
}

// trimNotebookExtension drops a recognised extension, the way the workspace
// names imported notebooks.
func trimNotebookExtension(name string) string {
	ext := filepath.Ext(name)
	if _, ok := extensionTable[ext]; !ok {
		return name
	}
	return strings.TrimSuffix(name, ext)
}
