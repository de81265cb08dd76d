// Package rindex builds the inventory index (spec section 4.3): a
// filesystem walk of classes_path and nodes_path that maps dotted class
// names and composed node names to their source files, resolves relative
// and absolute class-name references, and applies class_mappings rules.
//
// Grounded on the teacher's internal/loader.LoadModule for its
// enumerate-then-filter filesystem walk shape, generalized here from a
// single CUE module directory to a recursive two-root YAML walk.
package rindex

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/opmodel/reclass/internal/rconfig"
	"github.com/opmodel/reclass/internal/rerrors"
)

// yamlExts are the recognized inventory file extensions, tried in order
// when resolving a dotted name to a file.
var yamlExts = []string{".yml", ".yaml"}

// Index maps dotted class names and node names to their source files, and
// carries the config needed to apply class_mappings.
type Index struct {
	cfg rconfig.Config

	// classFiles maps a normalized dotted class name to its file path
	// (classes_path joined with the file's relative path).
	classFiles map[string]string

	// nodeFiles maps a composed node name to its file path (nodes_path
	// joined with the file's relative path).
	nodeFiles map[string]string

	// nodeParts maps a composed node name to the path segments it was
	// composed from, for the _reclass_.name.parts metadata field (spec
	// section 4.7 rule 10).
	nodeParts map[string][]string

	// nodeRelPaths maps a composed node name to its slash-separated,
	// extension-stripped path relative to nodes_path, used as the
	// class_mappings match subject when ClassMappingsMatchPath is set.
	nodeRelPaths map[string]string

	// nodeNames is nodeFiles's keys, sorted, cached for deterministic
	// iteration by the renderer.
	nodeNames []string

	mappings []compiledMapping
}

type compiledMapping struct {
	re      *regexp2.Regexp
	classes []string
}

// Build walks cfg's classes_path and nodes_path and returns a populated
// Index.
func Build(cfg rconfig.Config) (*Index, error) {
	idx := &Index{
		cfg:        cfg,
		classFiles:   make(map[string]string),
		nodeFiles:    make(map[string]string),
		nodeParts:    make(map[string][]string),
		nodeRelPaths: make(map[string]string),
	}

	if cfg.ClassesPath != "" {
		if err := idx.walkClasses(cfg.ClassesPath); err != nil {
			return nil, err
		}
	}
	if cfg.NodesPath != "" {
		if err := idx.walkNodes(cfg.NodesPath); err != nil {
			return nil, err
		}
	}

	for _, m := range cfg.ClassMappings {
		re, err := regexp2.Compile(m.Pattern, regexp2.None)
		if err != nil {
			return nil, rerrors.New(rerrors.ErrInvalidPattern, "compiling class_mappings pattern").
				WithContext("pattern", m.Pattern).
				WithCause(err)
		}
		idx.mappings = append(idx.mappings, compiledMapping{re: re, classes: m.Classes})
	}

	idx.nodeNames = make([]string, 0, len(idx.nodeFiles))
	for name := range idx.nodeFiles {
		idx.nodeNames = append(idx.nodeNames, name)
	}
	sort.Strings(idx.nodeNames)

	return idx, nil
}

// NodeNames returns every discovered node name, sorted.
func (idx *Index) NodeNames() []string {
	return idx.nodeNames
}

// NodeFile returns the file backing name, if any node by that name was
// discovered.
func (idx *Index) NodeFile(name string) (string, bool) {
	f, ok := idx.nodeFiles[name]
	return f, ok
}

// walkClasses records classFiles[dotted-name] = path for every YAML file
// under root, dotted-name being the file's root-relative path with path
// separators replaced by dots and its extension stripped.
func (idx *Index) walkClasses(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if !isYAMLExt(ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := pathToDottedName(rel)
		if existing, ok := idx.classFiles[name]; ok && existing != path {
			return rerrors.New(rerrors.ErrDuplicateClass, "two files resolve to the same class name").
				WithContext("class", name).
				WithContext("file1", existing).
				WithContext("file2", path)
		}
		idx.classFiles[name] = path
		return nil
	})
}

// walkNodes records nodeFiles[composed-name] = path for every YAML file
// under root, the composed name following compose_node_name (spec
// section 3 / section 4.3.2).
func (idx *Index) walkNodes(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if !isYAMLExt(ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name, parts := idx.composeNodeName(rel)
		if existing, ok := idx.nodeFiles[name]; ok && existing != path {
			return rerrors.New(rerrors.ErrDuplicateNode, "two files resolve to the same node name").
				WithContext("node", name).
				WithContext("file1", existing).
				WithContext("file2", path)
		}
		idx.nodeFiles[name] = path
		idx.nodeParts[name] = parts
		idx.nodeRelPaths[name] = stripYAMLExt(filepath.ToSlash(rel))
		return nil
	})
}

func isYAMLExt(ext string) bool {
	for _, e := range yamlExts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// pathToDottedName converts a relative file path (e.g. "a/b/c.yml") into
// its dotted class name ("a.b.c"), stripping a recognized YAML extension.
func pathToDottedName(rel string) string {
	rel = stripYAMLExt(rel)
	parts := strings.Split(filepath.ToSlash(rel), "/")
	return strings.Join(parts, ".")
}

func stripYAMLExt(p string) string {
	ext := filepath.Ext(p)
	if isYAMLExt(ext) {
		return strings.TrimSuffix(p, ext)
	}
	return p
}

// composeNodeName derives a node's key from its root-relative file path.
// With compose_node_name off (the default), a node's key is its bare
// filename (minus extension) and its parts are that single segment;
// directory structure under nodes_path is ignored, so two files sharing a
// basename in different directories collide and raise ErrDuplicateNode
// (original_source/tests/test_compose_node_name.py::test_no_compose_node_name).
// With compose_node_name on, the key folds the directory segments in,
// joined with dots, keeping the final segment (its filename, minus
// extension) verbatim so literal dots in a node's own filename survive
// unsplit (spec section 3, scenario 7) — unless ComposeNodeNameLiteralDots
// is also set, in which case the final segment is split on every dot like
// the directory segments are.
func (idx *Index) composeNodeName(rel string) (name string, parts []string) {
	rel = stripYAMLExt(rel)
	slashPath := filepath.ToSlash(rel)
	dir, file := filepath.Split(slashPath)
	dir = strings.TrimSuffix(dir, "/")

	if !idx.cfg.ComposeNodeName {
		parts = []string{file}
		return file, parts
	}

	if dir != "" {
		parts = strings.Split(dir, "/")
	}

	if idx.cfg.HasCompatFlag(rconfig.ComposeNodeNameLiteralDots) {
		parts = append(parts, strings.Split(file, ".")...)
	} else {
		parts = append(parts, file)
	}

	return strings.Join(parts, "."), parts
}

// NodeNameParts returns the path segments name was composed from (spec
// section 4.7 rule 10's _reclass_.name.parts), or nil if name is unknown.
func (idx *Index) NodeNameParts(name string) []string {
	return idx.nodeParts[name]
}

// NodeRelPath returns name's slash-separated, extension-stripped path
// relative to nodes_path, used as the class_mappings match subject when
// ClassMappingsMatchPath is set (spec section 4.1).
func (idx *Index) NodeRelPath(name string) string {
	return idx.nodeRelPaths[name]
}

// ResolveClass resolves a class name referenced from withinDir (the
// including class's directory, relative to classes_path; "" for a
// top-level node) against classes_path. Relative resolution is tried
// first, then absolute from classes_path root (spec section 4.3.3).
func (idx *Index) ResolveClass(name string, withinDir string) (file string, dottedName string, ok bool) {
	if withinDir != "" {
		relName := withinDir + "." + name
		if f, ok := idx.classFiles[relName]; ok {
			return f, relName, true
		}
	}
	if f, ok := idx.classFiles[name]; ok {
		return f, name, true
	}
	return "", "", false
}

// ClassMappingExtras returns the extra class-name templates contributed by
// every class_mappings rule matching subject (the node's composed name, or
// its root-relative path when class_mappings_match_path is set), in rule
// order, with every \N or ${N} backreference replaced by the text of the
// matching capture group (spec section 4.3.4).
func (idx *Index) ClassMappingExtras(subject string) ([]string, error) {
	var extras []string
	for _, m := range idx.mappings {
		match, err := m.re.FindStringMatch(subject)
		if err != nil {
			return nil, rerrors.New(rerrors.ErrInvalidPattern, "matching class_mappings pattern").WithCause(err)
		}
		if match == nil {
			continue
		}
		for _, tmpl := range m.classes {
			extras = append(extras, expandBackreferences(tmpl, match))
		}
	}
	return extras, nil
}

// expandBackreferences rewrites \N occurrences in tmpl to ${N} and then
// substitutes each numbered capture group from match, so a
// class_mappings template written in either backreference convention
// resolves the same way (spec section 4.3.4, 4.1 table).
func expandBackreferences(tmpl string, match *regexp2.Match) string {
	rewritten := rewriteBackslashRefs(tmpl)
	var b strings.Builder
	i := 0
	for i < len(rewritten) {
		if rewritten[i] == '$' && i+1 < len(rewritten) && rewritten[i+1] == '{' {
			end := strings.IndexByte(rewritten[i+2:], '}')
			if end >= 0 {
				numStr := rewritten[i+2 : i+2+end]
				if n, err := parseGroupNum(numStr); err == nil {
					if g := match.GroupByNumber(n); g != nil && len(g.Captures) > 0 {
						b.WriteString(g.Captures[len(g.Captures)-1].String())
					}
					i += 2 + end + 1
					continue
				}
			}
		}
		b.WriteByte(rewritten[i])
		i++
	}
	return b.String()
}

// rewriteBackslashRefs turns \N into ${N} wherever N is one or more
// digits, leaving every other backslash sequence untouched.
func rewriteBackslashRefs(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			j := i + 1
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			b.WriteString("${")
			b.WriteString(s[i+1 : j])
			b.WriteByte('}')
			i = j
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func parseGroupNum(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty group number")
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a digit: %q", s)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
