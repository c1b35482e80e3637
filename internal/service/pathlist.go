package service

import (
	"os"
	"runtime"
	"strings"
)

// listVariableName is the platform variable edited as a segment list.
const listVariableName = "PATH"

// windowsNames switches list splitting and name matching to Windows rules.
var windowsNames = runtime.GOOS == "windows"

func IsListVariable(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), listVariableName)
}

// SplitPathList splits a list value into its non-blank segments. Segments
// keep their exact bytes.
func SplitPathList(value string) []string {
	return splitPathList(value, windowsNames)
}

// splitPathList splits on the platform separator. On Windows ';' is
// preferred whenever present and ':' is only used for values holding no ';'.
func splitPathList(value string, windows bool) []string {
	sep := string(os.PathListSeparator)
	if windows {
		sep = ":"
		if strings.Contains(value, ";") {
			sep = ";"
		}
	}

	segments := make([]string, 0)
	for _, part := range strings.Split(value, sep) {
		if strings.TrimSpace(part) != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// JoinPathList joins segments with the platform list separator, dropping blanks.
func JoinPathList(segments []string) string {
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		if strings.TrimSpace(segment) != "" {
			kept = append(kept, segment)
		}
	}
	return strings.Join(kept, string(os.PathListSeparator))
}

// sameName compares variable names the way the platform does.
func sameName(a string, b string) bool {
	if windowsNames {
		return strings.EqualFold(a, b)
	}
	return a == b
}
