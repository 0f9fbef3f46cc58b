package repo

import "strings"

// StatusPaths extracts the paths from `git status --porcelain` output.
// For renames the destination path is returned. Quoted paths are unquoted
// only as far as stripping the surrounding quotes.
func StatusPaths(porcelain string) []string {
	var paths []string
	for _, line := range strings.Split(porcelain, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 {
			continue
		}
		p := line[3:]
		if i := strings.Index(p, " -> "); i >= 0 {
			p = p[i+4:]
		}
		p = strings.Trim(p, `"`)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
