package watch

import (
	"path"
	"strings"
)

// Match reports whether the slash-separated name matches pattern. Segments follow path.Match
// and a "**" segment matches zero or more whole segments.
func Match(pattern, name string) bool {
	return matchSegments(splitPath(pattern), splitPath(name))
}

func matchSegments(pat, name []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			rest := pat[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		ok, err := path.Match(pat[0], name[0])
		if err != nil || !ok {
			return false
		}
		pat, name = pat[1:], name[1:]
	}
	return len(name) == 0
}

// baseDir returns the longest leading part of pattern that holds no glob syntax.
func baseDir(pattern string) string {
	var fixed []string
	for _, seg := range splitPath(pattern) {
		if strings.ContainsAny(seg, "*?[\\") {
			break
		}
		fixed = append(fixed, seg)
	}
	if len(fixed) == len(splitPath(pattern)) && len(fixed) > 0 {
		// A literal file pattern watches its parent directory.
		fixed = fixed[:len(fixed)-1]
	}
	if len(fixed) == 0 {
		return "."
	}
	return strings.Join(fixed, "/")
}

func splitPath(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
