// Package manifest reads plugin dependency manifests.
//
// A manifest is a small YAML document placed at the root of a plugin
// package. Its "dependencies" key lists the other plugin packages the
// plugin requires, either as identifier strings or as objects:
//
//	dependencies:
//	  - "@acme/plugin-b"
//	  - "@acme/plugin-c@^2.0.0"
//	  - npmPackage: "@acme/plugin-d"
//	    version: "~1.4"
//
// Manifests come from untrusted packages, so parsing is bounded: documents
// larger than [MaxFileSize] bytes are rejected before parsing, alias
// expansion stops after [MaxAliases] expansions, and only YAML core schema
// tags are accepted.
package manifest

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/liquid-labs/plugable-express-sub000/pkg/errors"
	"github.com/liquid-labs/plugable-express-sub000/pkg/pkgspec"
)

const (
	// FileName is the manifest file name looked up at a package root.
	FileName = "plugin-dependencies.yaml"

	// MaxFileSize is the largest manifest accepted, in bytes.
	MaxFileSize = 10000

	// MaxAliases is the largest number of alias expansions accepted.
	MaxAliases = 100

	// Limit types reported in [errors.ResourceLimitError].
	LimitFileSize   = "YAML file size"
	LimitAliasCount = "YAML alias count"

	dependenciesKey = "dependencies"
)

// coreTags are the tags of the YAML core schema plus merge keys.
var coreTags = map[string]bool{
	"!!str":       true,
	"!!int":       true,
	"!!float":     true,
	"!!bool":      true,
	"!!null":      true,
	"!!seq":       true,
	"!!map":       true,
	"!!timestamp": true,
	"!!binary":    true,
	"!!merge":     true,
}

// Parse decodes a manifest and returns the declared plugin dependencies in
// document order. An empty document, or one without a dependencies key,
// declares no dependencies.
func Parse(data []byte) ([]pkgspec.Spec, error) {
	if len(data) > MaxFileSize {
		return nil, &errors.ResourceLimitError{LimitType: LimitFileSize, Current: len(data), Maximum: MaxFileSize}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParsing, err, "malformed plugin dependency manifest: %v", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil
	}

	w := &walker{}
	if err := w.check(&root); err != nil {
		return nil, err
	}

	doc := resolve(root.Content[0])
	switch {
	case isNull(doc):
		return nil, nil
	case doc.Kind != yaml.MappingNode:
		return nil, &errors.ValidationError{
			Field:    "document",
			Value:    describe(doc),
			Expected: "a mapping with a " + dependenciesKey + " key",
		}
	}

	deps := lookup(doc, dependenciesKey)
	if deps == nil || isNull(deps) {
		return nil, nil
	}
	if deps.Kind != yaml.SequenceNode {
		return nil, &errors.ValidationError{
			Field:    dependenciesKey,
			Value:    describe(deps),
			Expected: "a list of package specs",
		}
	}

	specs := make([]pkgspec.Spec, 0, len(deps.Content))
	for i, item := range deps.Content {
		s, err := entry(resolve(item))
		if err != nil {
			return nil, &errors.ValidationError{
				Field:    fmt.Sprintf("%s[%d]", dependenciesKey, i),
				Value:    describe(resolve(item)),
				Expected: err.Error(),
			}
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// entry converts one dependencies item. The returned error text names the
// expected shape.
func entry(n *yaml.Node) (pkgspec.Spec, error) {
	const shape = "a package spec string or {npmPackage, version?}"
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() != "!!str" {
			return pkgspec.Spec{}, fmt.Errorf("%s", shape)
		}
		s, err := pkgspec.Parse(n.Value)
		if err != nil {
			return pkgspec.Spec{}, fmt.Errorf("%s", shape)
		}
		return s, nil

	case yaml.MappingNode:
		var name, version string
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], resolve(n.Content[i+1])
			switch k.Value {
			case "npmPackage":
				if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!str" {
					return pkgspec.Spec{}, fmt.Errorf("npmPackage to be a string")
				}
				name = v.Value
			case "version":
				if isNull(v) {
					continue
				}
				if v.Kind != yaml.ScalarNode {
					return pkgspec.Spec{}, fmt.Errorf("version to be a string")
				}
				version = v.Value
			}
		}
		if strings.TrimSpace(name) == "" {
			return pkgspec.Spec{}, fmt.Errorf("%s", shape)
		}
		s, err := pkgspec.Parse(name)
		if err != nil {
			return pkgspec.Spec{}, fmt.Errorf("%s", shape)
		}
		if version = strings.TrimSpace(version); version != "" {
			s.Constraint = version
		}
		return s, nil
	}
	return pkgspec.Spec{}, fmt.Errorf("%s", shape)
}

// walker enforces the alias and tag limits over a parsed document.
type walker struct {
	aliases int
}

func (w *walker) check(n *yaml.Node) error {
	switch n.Kind {
	case yaml.AliasNode:
		w.aliases++
		if w.aliases > MaxAliases {
			return &errors.ResourceLimitError{LimitType: LimitAliasCount, Current: w.aliases, Maximum: MaxAliases}
		}
		if n.Alias != nil {
			return w.check(n.Alias)
		}
		return nil
	case yaml.ScalarNode, yaml.SequenceNode, yaml.MappingNode:
		if tag := n.ShortTag(); !coreTags[tag] {
			return errors.New(errors.ErrCodeParsing, "unsupported YAML tag %s at line %d", tag, n.Line)
		}
	}
	for _, c := range n.Content {
		if err := w.check(c); err != nil {
			return err
		}
	}
	return nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// lookup returns the value of key in mapping n, following merge keys.
func lookup(n *yaml.Node, key string) *yaml.Node {
	var merged *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Value == key && k.ShortTag() != "!!merge" {
			return resolve(v)
		}
		if k.ShortTag() == "!!merge" && merged == nil {
			if m := resolve(v); m.Kind == yaml.MappingNode {
				merged = lookup(m, key)
			}
		}
	}
	return merged
}

func describe(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() == "!!str" {
			return fmt.Sprintf("%q", n.Value)
		}
		return n.Value
	case yaml.SequenceNode:
		return fmt.Sprintf("a list of %d items", len(n.Content))
	case yaml.MappingNode:
		return "a mapping"
	}
	return "an unsupported node"
}
