package expand

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opmodel/reclass/internal/rerrors"
	"github.com/opmodel/reclass/internal/rvalue"
)

// Document is one class or node YAML file's recognized top-level content
// (spec section 3's Class/Node types, and appendix "YAML documents").
// Applications, Exports and Environment are decoded from any document,
// but the expander uses only the node document's values; a class
// document's values for them are ignored.
type Document struct {
	File       string
	Classes    []string
	Parameters *rvalue.Value

	Applications []string
	Exports      *rvalue.Value
	Environment  string
	HasEnvironment bool
}

// defaultEnvironment is the environment a node document gets when it does
// not declare one (spec section 3, Node).
const defaultEnvironment = "base"

// loadDocument reads and decodes one class/node file, recognizing the
// "classes", "parameters", "applications", "exports" and "environment"
// top-level keys and warning (never failing) about anything else.
func loadDocument(file string, warn func(path, msg string)) (*Document, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, rerrors.Wrap(rerrors.ErrIOError, "reading inventory file", err).
			WithLocation(file)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, rerrors.Wrap(rerrors.ErrInterpolationParse, "parsing YAML document", err).
			WithLocation(file)
	}

	doc := &Document{File: file, Parameters: rvalue.Wrap(rvalue.NewMapping())}

	if len(root.Content) == 0 {
		return doc, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return doc, nil
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		keyNode, valNode := top.Content[i], top.Content[i+1]
		switch keyNode.Value {
		case "classes":
			list, err := decodeStringList(valNode, file)
			if err != nil {
				return nil, err
			}
			doc.Classes = list

		case "parameters":
			v, err := rvalue.FromYAMLNode(valNode, file)
			if err != nil {
				return nil, rerrors.Wrap(rerrors.ErrInterpolationParse, "decoding parameters", err).
					WithLocation(file)
			}
			doc.Parameters = v

		case "applications":
			list, err := decodeStringList(valNode, file)
			if err != nil {
				return nil, err
			}
			doc.Applications = list

		case "exports":
			v, err := rvalue.FromYAMLNode(valNode, file)
			if err != nil {
				return nil, rerrors.Wrap(rerrors.ErrInterpolationParse, "decoding exports", err).
					WithLocation(file)
			}
			doc.Exports = v

		case "environment":
			var env string
			if err := valNode.Decode(&env); err != nil {
				return nil, rerrors.Wrap(rerrors.ErrInterpolationParse, "decoding environment", err).
					WithLocation(file)
			}
			doc.Environment = env
			doc.HasEnvironment = true

		default:
			if warn != nil {
				warn(file, "ignoring unrecognized top-level key "+keyNode.Value)
			}
		}
	}

	return doc, nil
}

func decodeStringList(node *yaml.Node, file string) ([]string, error) {
	if node.Kind == 0 || node.Tag == "!!null" {
		return nil, nil
	}
	var list []string
	if err := node.Decode(&list); err != nil {
		return nil, rerrors.Wrap(rerrors.ErrInterpolationParse, "decoding string list", err).
			WithLocation(file)
	}
	return list, nil
}
