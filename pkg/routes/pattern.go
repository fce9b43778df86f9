package routes

import "regexp"

// rulePattern matches path placeholders of the form <name> or
// <converter:name>.
var rulePattern = regexp.MustCompile(`<(?:([a-zA-Z_][a-zA-Z0-9_]*):)?([a-zA-Z_][a-zA-Z0-9_]*)>`)

// ExtractParams returns the URL path parameters declared in a path pattern,
// in order of appearance. A placeholder without a converter defaults to
// "string".
func ExtractParams(rule string) []Param {
	matches := rulePattern.FindAllStringSubmatch(rule, -1)
	if len(matches) == 0 {
		return nil
	}

	params := make([]Param, 0, len(matches))
	for _, m := range matches {
		kind := m[1]
		if kind == "" {
			kind = "string"
		}
		params = append(params, Param{Name: m[2], Kind: kind})
	}
	return params
}
