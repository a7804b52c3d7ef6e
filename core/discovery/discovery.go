// Package discovery provides workspace file discovery, language
// classification, and source metadata extraction.
//
// It recursively walks a source tree, pruning well-known noise directories
// (version control metadata, dependency caches, IDE and build artifacts),
// classifies each file by language using a fixed extension table, and
// computes per-file size, line, and complexity metadata. Gitignore patterns
// in the tree root are respected.
package discovery

import (
	"os"
	"path/filepath"
	"strings"
)

// Language identifies the programming language of a source file as detected
// from its extension.
type Language string

// LangUnknown is returned for files whose extension is not in the language
// table. It is a valid classification, not an error.
const LangUnknown Language = "Unknown"

// LangPython is the only language with a first-class line classification
// strategy; all others use the default strategy.
const LangPython Language = "Python"

// languageByExt maps lower-case file extensions to languages. The table is
// fixed; files outside it are classified LangUnknown and skipped by the
// detector.
var languageByExt = map[string]Language{
	".py":    LangPython,
	".js":    "JavaScript",
	".ts":    "TypeScript",
	".java":  "Java",
	".cpp":   "C++",
	".h":     "C/C++ Header",
	".c":     "C",
	".go":    "Go",
	".rb":    "Ruby",
	".php":   "PHP",
	".html":  "HTML",
	".css":   "CSS",
	".jsx":   "React JSX",
	".tsx":   "React TSX",
	".scala": "Scala",
	".rs":    "Rust",
	".swift": "Swift",
	".kt":    "Kotlin",
	".sh":    "Shell",
}

// SupportedExtensions returns the set of extensions in the language table.
// The returned map is a copy; callers may modify it freely.
func SupportedExtensions() map[string]Language {
	out := make(map[string]Language, len(languageByExt))
	for ext, lang := range languageByExt {
		out[ext] = lang
	}
	return out
}

// IsSupported reports whether the file's extension is in the language table.
// Files with no extension are never supported.
func IsSupported(path string) bool {
	_, ok := languageByExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LanguageOf returns the language for the file's extension, or LangUnknown
// for unmapped extensions. It never fails.
func LanguageOf(path string) Language {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LangUnknown
}

// DefaultExcludedDirs returns the default set of directory names pruned
// during discovery: version control metadata, dependency caches, and
// IDE/build artifacts.
func DefaultExcludedDirs() []string {
	return []string{
		".git", ".github", "node_modules", "venv", ".venv",
		"__pycache__", ".idea", ".vscode", "build", "dist",
	}
}

// FileRef is a single discovered file: its slash-separated path relative to
// the walk root, and its absolute path for reading.
type FileRef struct {
	Path    string
	AbsPath string
}

// Walker recursively discovers files under Root. Traversal order is not
// guaranteed; callers must not depend on it.
type Walker struct {
	// Root is the directory to walk.
	Root string
	// ExcludedDirs holds directory names pruned from the walk.
	ExcludedDirs map[string]bool
	// IgnorePatterns holds gitignore-style patterns for skipping files.
	IgnorePatterns []string
}

// NewWalker creates a Walker rooted at root with the default excluded
// directory set. It attempts to load .gitignore patterns from the root
// directory; if no .gitignore exists the walker proceeds with no ignore
// patterns.
func NewWalker(root string) *Walker {
	excluded := make(map[string]bool)
	for _, name := range DefaultExcludedDirs() {
		excluded[name] = true
	}

	patterns, _ := LoadGitignore(root)

	return &Walker{
		Root:           root,
		ExcludedDirs:   excluded,
		IgnorePatterns: patterns,
	}
}

// Exclude adds directory names to the walker's pruned set.
func (w *Walker) Exclude(names ...string) {
	for _, name := range names {
		w.ExcludedDirs[name] = true
	}
}

// Walk recursively traverses the Root directory and returns every regular
// file that is not inside an excluded directory and not matched by an ignore
// pattern. A missing or unreadable root is an error; unreadable entries
// below it are not.
func (w *Walker) Walk() ([]FileRef, error) {
	absRoot, err := filepath.Abs(w.Root)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, err
	}

	var files []FileRef

	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			// Skip unreadable entries rather than aborting the walk.
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if info.IsDir() && w.ExcludedDirs[info.Name()] {
			return filepath.SkipDir
		}

		if IsIgnored(rel, w.IgnorePatterns) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		files = append(files, FileRef{
			Path:    filepath.ToSlash(rel),
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
