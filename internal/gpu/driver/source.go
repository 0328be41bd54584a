package driver

import "regexp"

var (
	openclEntry = regexp.MustCompile(`__kernel\s+void\s+(\w+)\s*\(`)
	wgslEntry   = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)\s*\(`)

	lineComment  = regexp.MustCompile(`//[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// StripComments removes // and /* */ comments from C-like or WGSL source.
func StripComments(source string) string {
	code := blockComment.ReplaceAllString(source, "")
	return lineComment.ReplaceAllString(code, "")
}

// EntryPoints returns the kernel entry point names declared in source, in
// declaration order: "__kernel void name(" for OpenCL C and "@compute ... fn
// name(" for WGSL. Unknown languages have no entry points.
func EntryPoints(source string, lang Language) []string {
	var re *regexp.Regexp
	switch lang {
	case LanguageOpenCL:
		re = openclEntry
	case LanguageWGSL:
		re = wgslEntry
	default:
		return nil
	}

	var names []string
	for _, m := range re.FindAllStringSubmatch(StripComments(source), -1) {
		names = append(names, m[1])
	}
	return names
}
