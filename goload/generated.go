package goload

import (
	"bufio"
	"os"
	"strings"
)

var generatedSuffixes = []string{
	".pb.go",
	".gen.go",
	"_generated.go",
	"_string.go",
	".mock.go",
	"_mock.go",
	".deepcopy.go",
}

// IsGenerated reports whether the Go file at path is generated code, by
// name or by a "// Code generated ... DO NOT EDIT." line ahead of the
// package clause (https://go.dev/s/generatedcode).
func IsGenerated(path string) bool {
	for _, suffix := range generatedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "package ") {
			return false
		}
		if strings.HasPrefix(line, "// Code generated") && strings.HasSuffix(line, "DO NOT EDIT.") {
			return true
		}
	}
	return false
}
