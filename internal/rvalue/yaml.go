package rvalue

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opmodel/reclass/internal/refparse"
)

// FromYAMLNode converts a decoded yaml.v3 node into a Value tree, tagging
// every node with its Origin (file:line) and, for mapping keys, stripping
// and recording the "~" (overwrite) and "=" (constant) prefixes described
// in spec section 3. Any scalar string containing an unescaped "${" is
// parsed via refparse and stored as a KindReference value rather than a
// plain string.
func FromYAMLNode(node *yaml.Node, file string) (*Value, error) {
	return fromNode(node, file)
}

func fromNode(node *yaml.Node, file string) (*Value, error) {
	if node == nil {
		return Null(), nil
	}
	origin := Origin{File: file, Line: node.Line}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return fromNode(node.Content[0], file)

	case yaml.AliasNode:
		return fromNode(node.Alias, file)

	case yaml.ScalarNode:
		v, err := scalarValue(node)
		if err != nil {
			return nil, err
		}
		v.Origin = origin
		return v, nil

	case yaml.SequenceNode:
		items := make([]*Value, 0, len(node.Content))
		for _, c := range node.Content {
			iv, err := fromNode(c, file)
			if err != nil {
				return nil, err
			}
			items = append(items, iv)
		}
		v := Sequence(items)
		v.Origin = origin
		return v, nil

	case yaml.MappingNode:
		m := NewMapping()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			rawKey := keyNode.Value
			key, overwrite, constant := stripKeyPrefix(rawKey)

			vv, err := fromNode(valNode, file)
			if err != nil {
				return nil, err
			}
			vv.Overwrite = overwrite
			vv.Constant = constant
			m.Set(key, vv)
		}
		v := Wrap(m)
		v.Origin = origin
		return v, nil

	default:
		return Null(), nil
	}
}

// stripKeyPrefix splits a raw mapping key into its normalized form plus
// the overwrite ("~") / constant ("=") flags, per spec section 4.6: "Key
// prefixes on rhs: ~key -> overwrite ...; =key -> mark ... constant.
// Prefixes are stripped before storage."
func stripKeyPrefix(raw string) (key string, overwrite bool, constant bool) {
	key = raw
	if strings.HasPrefix(key, "~") {
		overwrite = true
		key = key[1:]
	} else if strings.HasPrefix(key, "=") {
		constant = true
		key = key[1:]
	}
	return key, overwrite, constant
}

// scalarValue decodes a YAML scalar node into either a plain scalar
// Value, or a KindReference Value if the scalar's (string-typed) content
// contains an unescaped reference.
func scalarValue(node *yaml.Node) (*Value, error) {
	if node.Tag == "!!str" || node.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		return stringOrReference(node.Value)
	}

	var decoded any
	if err := node.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding scalar at line %d: %w", node.Line, err)
	}

	switch t := decoded.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case string:
		return stringOrReference(t)
	default:
		// yaml.v3 decodes !!timestamp into time.Time; keep its canonical
		// RFC3339 string form rather than depending on time semantics we
		// never otherwise need.
		if s, ok := asTimestamp(decoded); ok {
			return Timestamp(s), nil
		}
		return stringOrReference(node.Value)
	}
}

func asTimestamp(v any) (string, bool) {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339Nano), true
	}
	return "", false
}

func stringOrReference(s string) (*Value, error) {
	expr, err := refparse.Parse(s)
	if err != nil {
		return nil, err
	}
	if expr.IsPlainLiteral() {
		return String(expr.Literal()), nil
	}
	// The whole scalar, including any literal fragments interleaved with
	// references, becomes one Reference value; the interpolator walks
	// Ref.Path's fragments to do the substitution (spec section 4.7.5).
	return Reference(&refparse.Reference{Path: expr, Source: s}), nil
}

// ParseFlowDefault parses a reference default's already-resolved literal
// text as a YAML flow-style scalar/mapping/sequence, per spec section
// 4.7.4: "A default is parsed as a YAML flow value to yield a Value."
func ParseFlowDefault(text string) (*Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		return nil, fmt.Errorf("parsing default value %q: %w", text, err)
	}
	if len(node.Content) == 0 {
		return String(text), nil
	}
	return fromNode(node.Content[0], "<default>")
}
