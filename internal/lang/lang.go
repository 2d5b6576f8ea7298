// Package lang identifies the source languages crapreport can score.
package lang

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language is a supported source language.
type Language string

const (
	Go      Language = "go"
	Python  Language = "python"
	Unknown Language = "unknown"
)

// All lists every supported language in a stable order.
var All = []Language{Go, Python}

var extensions = map[Language]string{
	Go:     ".go",
	Python: ".py",
}

// Detect determines the language of a file from its extension.
func Detect(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return Go
	case ".py":
		return Python
	default:
		return Unknown
	}
}

// Extension returns the source file extension for l, or "" for Unknown.
func (l Language) Extension() string {
	return extensions[l]
}

// Parse converts a language name (as used in config files and flags).
func Parse(name string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(name))) {
	case Go, "golang":
		return Go, nil
	case Python, "py":
		return Python, nil
	default:
		return Unknown, fmt.Errorf("unsupported language %q", name)
	}
}

// ParseAll converts a list of language names, rejecting unknown ones.
func ParseAll(names []string) ([]Language, error) {
	langs := make([]Language, 0, len(names))
	for _, n := range names {
		l, err := Parse(n)
		if err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return langs, nil
}
