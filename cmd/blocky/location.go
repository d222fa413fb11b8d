package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

// normalizePath converts a slash-separated path to a canonical relative form.
//
// It performs the following transformations:
//   - Strips leading slashes: "/etc/nginx" → "etc/nginx"
//   - Strips trailing slashes: "etc/nginx/" → "etc/nginx"
//   - Collapses consecutive slashes: "etc//nginx" → "etc/nginx"
//   - Converts empty string to root: "" → "."
//
// "." and ".." elements are preserved.
func normalizePath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return "."
	}

	parts := strings.Split(p, "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return "."
	}
	return strings.Join(result, "/")
}

// memberLocation returns the location stored for input.
//
// Without a root the input path is used as given. With a root the location
// is the input's path relative to root, rooted at "/" (root/a/b.bin becomes
// "/a/b.bin").
func memberLocation(input, root string) (string, error) {
	if root == "" {
		return input, nil
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absInput, err := filepath.Abs(input)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absInput)
	if err != nil {
		return "", err
	}
	rel = normalizePath(filepath.ToSlash(rel))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is not a file under %s", input, root)
	}
	return "/" + rel, nil
}
