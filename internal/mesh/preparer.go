// Package mesh prepares and loads the track mesh, and provides the
// triangle-intersection accelerator used by the ray-cast stage.
package mesh

import (
	"bufio"
	"strings"

	"github.com/simlabels/groundtruth/internal/fsutil"
	"github.com/simlabels/groundtruth/internal/track"
)

// PhysicsMaterial is the sentinel material name the preparer rewrites
// targeted vertex groups to. Triangles tagged with it are excluded from
// the intersection accelerator regardless of what the loader reports.
const PhysicsMaterial = "physics"

// Prepare streams srcPath to destPath through fs, rewriting the material
// of every vertex group named in profile.VertexGroupsToModify to
// PhysicsMaterial. It is a single-pass, line-oriented rewrite: a line
// is never buffered beyond what bufio.Scanner needs to find the next
// newline.
//
// Running Prepare twice on its own output is a no-op rewrite: every
// material line inside a target group is rewritten again, but it already
// reads "usemtl physics", so the output is identical.
func Prepare(fs fsutil.FileSystem, srcPath, destPath string, profile *track.Profile) error {
	src, err := fs.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dest, err := fs.Create(destPath)
	if err != nil {
		return err
	}
	defer dest.Close()

	w := bufio.NewWriter(dest)
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inTargetGroup := false
	for scanner.Scan() {
		line := scanner.Text()
		out := line

		switch {
		case isGroupLine(line):
			name := groupName(line)
			if name != "off" {
				inTargetGroup = matchesAny(name, profile.VertexGroupsToModify)
			}
		case inTargetGroup && isMaterialLine(line):
			out = "usemtl " + PhysicsMaterial
		}

		if _, err := w.WriteString(out); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return w.Flush()
}

func isGroupLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "g ") || trimmed == "g"
}

func groupName(line string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "g"))
}

func isMaterialLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "usemtl ")
}

func matchesAny(groupName string, targets map[string]bool) bool {
	for t := range targets {
		if strings.Contains(groupName, t) {
			return true
		}
	}
	return false
}
