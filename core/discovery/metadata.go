package discovery

import (
	"os"
	"regexp"
	"strings"
	"time"
)

// SourceFile carries the per-file metadata computed during a scan. It is
// created per scan and discarded when the scan completes; nothing persists
// it. A file that could not be read produces a SourceFile carrying only its
// path and the error description.
type SourceFile struct {
	Path         string    `json:"file_path"`
	Language     Language  `json:"language"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
	TotalLines   int       `json:"total_lines"`
	CodeLines    int       `json:"code_lines"`
	CommentLines int       `json:"comment_lines"`
	// Complexity is a cheap keyword-count proxy, always >= 1 for readable
	// files. It is not cyclomatic complexity in the formal sense.
	Complexity int    `json:"complexity_estimate"`
	Err        string `json:"error,omitempty"`
}

// LineCounter classifies the lines of a file for one language family and
// estimates its complexity. Implementations must be stateless.
type LineCounter interface {
	// CountLines returns the number of code lines and comment lines.
	CountLines(content string) (code, comments int)
	// EstimateComplexity returns the branch/loop/exception/definition
	// keyword count plus a baseline of one.
	EstimateComplexity(content string) int
}

// counterByLanguage maps languages to their line classification strategy.
// Languages without an entry fall back to defaultCounter.
var counterByLanguage = map[Language]LineCounter{
	LangPython: pythonCounter{},
}

// counterFor returns the LineCounter for a language, falling back to the
// default strategy for languages without a first-class implementation.
func counterFor(lang Language) LineCounter {
	if c, ok := counterByLanguage[lang]; ok {
		return c
	}
	return defaultCounter{}
}

// Extract reads the file at absPath and computes its metadata. Decoding is
// lossy: bytes that are not valid UTF-8 are dropped rather than failing the
// extraction. On any I/O error the returned SourceFile carries only the
// path, language, and error description; extraction failures never abort
// discovery for other files.
func Extract(relPath, absPath string) SourceFile {
	sf := SourceFile{
		Path:     relPath,
		Language: LanguageOf(relPath),
	}

	info, err := os.Stat(absPath)
	if err != nil {
		sf.Err = err.Error()
		return sf
	}
	sf.SizeBytes = info.Size()
	sf.LastModified = info.ModTime()

	data, err := os.ReadFile(absPath)
	if err != nil {
		sf.Err = err.Error()
		return sf
	}

	content := strings.ToValidUTF8(string(data), "")
	counter := counterFor(sf.Language)

	sf.TotalLines = strings.Count(content, "\n") + 1
	sf.CodeLines, sf.CommentLines = counter.CountLines(content)
	sf.Complexity = counter.EstimateComplexity(content)

	return sf
}

// defaultCounter is the fallback strategy for languages without a
// first-class implementation: every non-blank line is code, no comment
// lines, complexity 1.
type defaultCounter struct{}

func (defaultCounter) CountLines(content string) (int, int) {
	code := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			code++
		}
	}
	return code, 0
}

func (defaultCounter) EstimateComplexity(string) int {
	return 1
}

// Python triple-quoted string regions, matched across lines.
var (
	tripleDouble = regexp.MustCompile(`(?s)""".*?"""`)
	tripleSingle = regexp.MustCompile(`(?s)'''.*?'''`)
	pyDefRe      = regexp.MustCompile(`def\s+\w+\s*\(`)
	pyClassRe    = regexp.MustCompile(`class\s+\w+`)
)

// pythonCounter classifies Python source: triple-quoted regions and lines
// starting with '#' count as comments, and complexity counts decision
// points plus function and class definitions.
type pythonCounter struct{}

func (pythonCounter) CountLines(content string) (int, int) {
	comments := 0
	for _, region := range tripleDouble.FindAllString(content, -1) {
		comments += strings.Count(region, "\n") + 1
	}
	for _, region := range tripleSingle.FindAllString(content, -1) {
		comments += strings.Count(region, "\n") + 1
	}

	// Strip multi-line regions before classifying individual lines so their
	// contents are not double counted as code.
	stripped := tripleDouble.ReplaceAllString(content, "")
	stripped = tripleSingle.ReplaceAllString(stripped, "")

	code := 0
	for _, line := range strings.Split(stripped, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			comments++
			continue
		}
		code++
	}
	return code, comments
}

func (pythonCounter) EstimateComplexity(content string) int {
	complexity := 1
	for _, kw := range []string{"if ", "elif ", "else:", "for ", "while ", "try:", "except ", "with "} {
		complexity += strings.Count(content, kw)
	}
	complexity += len(pyDefRe.FindAllString(content, -1))
	complexity += len(pyClassRe.FindAllString(content, -1))
	return complexity
}
