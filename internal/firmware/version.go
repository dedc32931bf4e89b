// FilePath: internal/firmware/version.go
package firmware

import (
	"regexp"
	"strconv"
	"strings"
)

var versionTokenRe = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// ExtractVersion pulls the numeric version token out of a release tag,
// e.g. "v4.50a" -> "4.50". Returns "" when the tag carries no version.
func ExtractVersion(tag string) string {
	return versionTokenRe.FindString(strings.TrimPrefix(strings.TrimSpace(tag), "v"))
}

// parseVersion splits a version string into up to three integer parts,
// missing parts defaulting to zero.
func parseVersion(version string) ([3]int, bool) {
	var parts [3]int
	token := versionTokenRe.FindString(strings.TrimPrefix(strings.TrimSpace(version), "v"))
	if token == "" {
		return parts, false
	}
	for i, segment := range strings.SplitN(token, ".", 3) {
		num, err := strconv.Atoi(segment)
		if err != nil {
			return parts, false
		}
		parts[i] = num
	}
	return parts, true
}

// CompareVersions returns -1, 0 or 1 ordering a against b. Versions are
// compared as integer tuples; if either side does not parse, the whole
// comparison falls back to plain string ordering.
func CompareVersions(a, b string) int {
	va, okA := parseVersion(a)
	vb, okB := parseVersion(b)
	if !okA || !okB {
		return strings.Compare(a, b)
	}
	for i := 0; i < 3; i++ {
		if va[i] < vb[i] {
			return -1
		}
		if va[i] > vb[i] {
			return 1
		}
	}
	return 0
}
