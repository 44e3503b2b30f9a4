package ignore

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/denormal/go-gitignore"
)

// ProjectIgnoreFile is the project-specific ignore file, read with .gitignore syntax.
const ProjectIgnoreFile = ".gotowordignore"

// Matcher decides which files are kept out of the word index.
// It combines default patterns, .gitignore rules, .gotowordignore rules and custom exclude patterns.
// Reload takes the write lock; ShouldIgnore and ShouldIgnoreDir take the read lock.
type Matcher struct {
	mu               sync.RWMutex
	rootDir          string
	gitIgnore        gitignore.GitIgnore
	projectIgnore    gitignore.GitIgnore
	customPatterns   []string
	maxFileSizeBytes int64
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	RootDir          string
	CustomPatterns   []string
	MaxFileSizeBytes int64
}

// NewMatcher loads the ignore files found in options.RootDir.
func NewMatcher(options MatcherOptions) *Matcher {
	matcher := &Matcher{
		rootDir:          options.RootDir,
		customPatterns:   options.CustomPatterns,
		maxFileSizeBytes: options.MaxFileSizeBytes,
	}

	if matcher.maxFileSizeBytes <= 0 {
		matcher.maxFileSizeBytes = 1024 * 1024 // 1MB default
	}

	// Load .gitignore from project root
	matcher.gitIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ".gitignore"), options.RootDir)

	matcher.projectIgnore = loadIgnoreFile(filepath.Join(options.RootDir, ProjectIgnoreFile), options.RootDir)

	return matcher
}

// ShouldIgnore returns true if the given path should be excluded from indexing.
// The path should be an absolute path or relative to the root directory.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Get path relative to root for pattern matching
	relativePath, err := filepath.Rel(m.rootDir, absolutePath)
	if err != nil {
		relativePath = absolutePath
	}
	// Normalize to forward slashes for consistent matching
	relativePath = filepath.ToSlash(relativePath)

	// Check default patterns
	if m.matchesDefaultPatterns(relativePath, absolutePath) {
		return true
	}

	// Determine if path is a directory (for gitignore matching)
	isDir := false
	if info, err := os.Stat(absolutePath); err == nil {
		isDir = info.IsDir()
	}

	// Check .gitignore using Relative() which doesn't require the file to exist on disk
	if m.gitIgnore != nil {
		match := m.gitIgnore.Relative(relativePath, isDir)
		if match != nil && match.Ignore() {
			return true
		}
	}

	if m.projectIgnore != nil {
		match := m.projectIgnore.Relative(relativePath, isDir)
		if match != nil && match.Ignore() {
			return true
		}
	}

	if m.matchesCustomPatterns(relativePath) {
		return true
	}

	return false
}

// ShouldIgnoreDir returns true if a directory should be skipped entirely during traversal.
func (m *Matcher) ShouldIgnoreDir(absolutePath string) bool {
	dirName := filepath.Base(absolutePath)

	// Fast check: common directories that should always be skipped (no lock needed)
	switch dirName {
	case ".git", ".svn", ".hg", "node_modules", "__pycache__",
		".idea", ".vscode", ".vs", ".next", ".nuxt",
		".cache", ".parcel-cache", "coverage", ".nyc_output", "htmlcov",
		".venv", "venv", ".env":
		return true
	}

	return m.ShouldIgnore(absolutePath)
}

// IsFileTooLarge returns true if the file exceeds the max file size limit.
func (m *Matcher) IsFileTooLarge(fileSize int64) bool {
	return fileSize > m.maxFileSizeBytes
}

// MaxFileSizeBytes returns the configured maximum file size.
func (m *Matcher) MaxFileSizeBytes() int64 {
	return m.maxFileSizeBytes
}

// matchesDefaultPatterns checks if the path matches any hardcoded default ignore pattern.
func (m *Matcher) matchesDefaultPatterns(relativePath string, absolutePath string) bool {
	baseName := filepath.Base(absolutePath)
	baseNameLower := strings.ToLower(baseName)

	for _, pattern := range DefaultIgnorePatterns {
		// Pattern is a directory/file name (no glob) - check path components
		if !strings.ContainsAny(pattern, "*?[") {
			// Exact basename match
			if baseNameLower == strings.ToLower(pattern) {
				return true
			}
			// Check if any path component matches
			parts := strings.Split(relativePath, "/")
			for _, part := range parts {
				if strings.ToLower(part) == strings.ToLower(pattern) {
					return true
				}
			}
			continue
		}

		// Glob pattern - match against basename
		matched, err := filepath.Match(strings.ToLower(pattern), baseNameLower)
		if err == nil && matched {
			return true
		}

		// Also try matching against the full relative path
		matched, err = filepath.Match(strings.ToLower(pattern), strings.ToLower(relativePath))
		if err == nil && matched {
			return true
		}
	}
	return false
}

// matchesCustomPatterns checks the exclude patterns from flags and config. Patterns are
// doublestar globs matched against the relative path and then the basename.
func (m *Matcher) matchesCustomPatterns(relativePath string) bool {
	baseName := path.Base(relativePath)
	for _, pattern := range m.customPatterns {
		if matched, err := doublestar.Match(pattern, relativePath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// IsIgnoreFile reports whether a path names one of the ignore files the matcher reads.
func IsIgnoreFile(filePath string) bool {
	baseName := filepath.Base(filePath)
	return baseName == ".gitignore" || baseName == ProjectIgnoreFile
}

// Reload re-reads the ignore files after the watcher saw one of them change.
func (m *Matcher) Reload() {
	newGitIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ".gitignore"), m.rootDir)
	newProjectIgnore := loadIgnoreFile(filepath.Join(m.rootDir, ProjectIgnoreFile), m.rootDir)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gitIgnore = newGitIgnore
	m.projectIgnore = newProjectIgnore
}

// loadIgnoreFile returns nil when the file is missing. The file is read through an open
// handle so it is closed before returning.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	gi := gitignore.New(f, baseDir, nil)
	return gi
}
