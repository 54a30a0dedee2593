package shader

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindingDeclRegex captures group and binding from declarations like
	// @group(0) @binding(1) var<storage, read> positions: array<f32>;
	bindingDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var`)

	blockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// parseEntryPoint extracts the entry point function name for the given stage
// from WGSL source. Returns an empty string if no matching stage attribute is found.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - shaderType: the stage to search for
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, shaderType ShaderType) string {
	cleaned := stripComments(source)

	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseBindings collects every @group/@binding pair declared in the source.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - map[int][]uint32: sorted, de-duplicated binding indices keyed by group
func parseBindings(source string) map[int][]uint32 {
	out := make(map[int][]uint32)
	for _, m := range bindingDeclRegex.FindAllStringSubmatch(stripComments(source), -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.ParseUint(m[2], 10, 32)
		if !slices.Contains(out[group], uint32(binding)) {
			out[group] = append(out[group], uint32(binding))
		}
	}
	for g := range out {
		slices.Sort(out[g])
	}
	return out
}

// stripComments removes block and line comments so commented-out declarations are ignored.
func stripComments(source string) string {
	source = blockCommentRegex.ReplaceAllString(source, "")
	var sb strings.Builder
	sb.Grow(len(source))
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
