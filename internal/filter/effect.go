package filter

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
)

// EffectName is the name the filter asks its EffectLoader for.
const EffectName = "crop_filter.effect"

//go:embed crop_filter.effect
var cropEffect string

// EffectSource returns the text of the bundled crop effect.
func EffectSource() string {
	return cropEffect
}

// Uniform is one declared effect parameter.
type Uniform struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`//[^\n]*`)
	uniformDecl  = regexp.MustCompile(`(?m)^\s*uniform\s+(\w+)\s+(\w+)\s*(<[^>]*>)?\s*(=[^;]*)?;`)
)

// ParseEffectUniforms lists the uniforms declared at the top level of an
// effect file, in declaration order.
func ParseEffectUniforms(src string) ([]Uniform, error) {
	src = blockComment.ReplaceAllString(src, "")
	src = lineComment.ReplaceAllString(src, "")

	var out []Uniform
	seen := make(map[string]struct{})
	for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
		name := m[2]
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("uniform %q declared twice", name)
		}
		seen[name] = struct{}{}
		out = append(out, Uniform{Type: m[1], Name: name})
	}
	if len(out) == 0 && strings.Contains(src, "uniform") {
		return nil, fmt.Errorf("malformed uniform declaration")
	}
	return out, nil
}
