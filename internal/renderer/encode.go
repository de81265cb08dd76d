package renderer

import (
	"gopkg.in/yaml.v3"

	"github.com/opmodel/reclass/internal/rvalue"
)

// EncodeNode renders result into the YAML document shape described in
// the appendix ("Rendered output (per node)"): classes, applications,
// parameters (with its _reclass_ key already present), exports,
// environment — in that fixed key order, with every Mapping's own keys
// kept in their merge-determined insertion order rather than resorted,
// so the encoding is deterministic for fixed inputs (spec section 5's
// Determinism property).
func EncodeNode(result *NodeResult) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{NodeYAMLNode(result)}}
	return yaml.Marshal(root)
}

// NodeYAMLNode builds the same fixed-key-order mapping EncodeNode
// marshals, without wrapping it in a document — so callers assembling a
// multi-node inventory (cmd/reclass's `inventory` command) can embed one
// node's tree as a value under its node name without a re-parse round
// trip.
func NodeYAMLNode(result *NodeResult) *yaml.Node {
	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	addKey(doc, "classes", stringsNode(result.Classes))
	addKey(doc, "applications", stringsNode(result.Applications))
	addKey(doc, "parameters", valueToNode(result.Parameters))
	addKey(doc, "exports", valueToNode(result.Exports))
	addKey(doc, "environment", scalarNode(result.Environment))

	return doc
}

func addKey(m *yaml.Node, key string, val *yaml.Node) {
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
}

func stringsNode(items []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, it := range items {
		n.Content = append(n.Content, scalarNode(it))
	}
	return n
}

func scalarNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// valueToNode converts a resolved rvalue.Value tree into a yaml.Node
// tree, preserving Mapping insertion order exactly (no alphabetic
// resorting of parameter keys).
func valueToNode(v *rvalue.Value) *yaml.Node {
	if v == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}

	switch v.Kind {
	case rvalue.KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case rvalue.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.ScalarString()}
	case rvalue.KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: v.ScalarString()}
	case rvalue.KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: v.ScalarString()}
	case rvalue.KindTimestamp:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: v.ScalarString()}
	case rvalue.KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str}
	case rvalue.KindSequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Seq {
			n.Content = append(n.Content, valueToNode(item))
		}
		return n
	case rvalue.KindMapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.Map.Keys() {
			val, _ := v.Map.Get(k)
			addKey(n, k, valueToNode(val))
		}
		return n
	default:
		// Reference/ValueList values should never reach the encoder; a
		// fully interpolated tree has none left.
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ""}
	}
}
