// Package expand implements the node loader and class expander (spec
// section 4.4): given a node, it walks its `classes` list depth-first,
// pre-order, de-duplicating by resolved class name, honoring
// class_mappings and ignore_class_notfound, and resolving class-name
// references by feeding the merge-so-far back into the Interpolator
// (spec section 4.7 rule 8).
//
// Grounded on original_source's expansion pass (an explicit seen-set plus
// active-stack DFS over the class graph) and the teacher's
// internal/loader.LoadModule for the load-then-recurse shape; the
// class-name-reference retry loop is this resolver's own design, since
// neither the teacher nor original_source needed one.
package expand

import (
	"errors"
	"regexp"
	"strings"

	"github.com/opmodel/reclass/internal/interp"
	"github.com/opmodel/reclass/internal/rconfig"
	"github.com/opmodel/reclass/internal/rerrors"
	"github.com/opmodel/reclass/internal/rindex"
	"github.com/opmodel/reclass/internal/rlist"
	"github.com/opmodel/reclass/internal/rmerge"
	"github.com/opmodel/reclass/internal/rpath"
	"github.com/opmodel/reclass/internal/rvalue"
)

// Expander walks a node's include graph, producing its expanded class
// list and pre-interpolation parameters.
type Expander struct {
	idx      *rindex.Index
	cfg      rconfig.Config
	warn     func(location, msg string)
	ignoreRe []*regexp.Regexp
}

// New builds an Expander over idx using cfg's ignore_class_notfound and
// class_mappings settings. warn, if non-nil, receives a diagnostic for
// every suppressed missing class and ignored unrecognized document key.
func New(idx *rindex.Index, cfg rconfig.Config, warn func(location, msg string)) (*Expander, error) {
	var patterns []*regexp.Regexp
	for _, pat := range cfg.IgnoreClassNotfoundRegexp {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, rerrors.New(rerrors.ErrInvalidPattern, "compiling ignore_class_notfound_regexp pattern").
				WithContext("pattern", pat).
				WithCause(err)
		}
		patterns = append(patterns, re)
	}
	return &Expander{idx: idx, cfg: cfg, warn: warn, ignoreRe: patterns}, nil
}

// Result is a node's fully expanded, pre-interpolation state (spec
// section 4.8's "classes, applications, parameters, exports,
// environment", parameters not yet run through the Interpolator).
type Result struct {
	Classes      []string
	Applications []string
	Parameters   *rvalue.Value
	Exports      *rvalue.Value
	Environment  string
}

// expansion carries the mutable state threaded through one node's
// recursive expansion.
type expansion struct {
	classList   *rlist.UniqueList
	seen        map[string]bool
	active      map[string]bool
	activeOrder []string
	docs        map[string]*Document

	// merged is an auxiliary, best-effort merge of every document's
	// parameters visited so far (node first, then each class as it is
	// loaded), used exclusively to resolve class-name references (spec
	// section 4.4 / 4.7 rule 8). It is not the authoritative parameter
	// tree: that is built separately, after expansion, by merging the
	// finished class list in its proper classes-then-node order (spec
	// section 4.6). Constant violations are not meaningful here since
	// this accumulator's merge order does not reflect the real one; they
	// are resolved leniently rather than surfaced as errors.
	merged *rvalue.Value
}

// ExpandNode loads name's node file and produces its Result.
func (e *Expander) ExpandNode(name string) (*Result, error) {
	file, ok := e.idx.NodeFile(name)
	if !ok {
		return nil, rerrors.New(rerrors.ErrClassNotFound, "node not found").
			WithContext("node", name)
	}
	nodeDoc, err := loadDocument(file, e.warn)
	if err != nil {
		return nil, err
	}

	ex := &expansion{
		classList: rlist.NewUniqueList(nil),
		seen:      make(map[string]bool),
		active:    make(map[string]bool),
		docs:      make(map[string]*Document),
		merged:    rvalue.Wrap(rvalue.NewMapping()),
	}
	ex.merged = mergeLenient(ex.merged, nodeDoc.Parameters, rpath.Path{})

	subject := name
	if e.cfg.ClassMappingsMatchPath {
		subject = e.idx.NodeRelPath(name)
	}
	extras, err := e.idx.ClassMappingExtras(subject)
	if err != nil {
		return nil, err
	}

	entries := make([]string, 0, len(extras)+len(nodeDoc.Classes))
	entries = append(entries, extras...)
	entries = append(entries, nodeDoc.Classes...)

	if err := e.expandEntries(ex, entries, ""); err != nil {
		return nil, err
	}

	final := rvalue.Wrap(rvalue.NewMapping())
	for _, cname := range ex.classList.Items() {
		final, err = rmerge.Merge(final, ex.docs[cname].Parameters, rpath.Path{})
		if err != nil {
			return nil, err
		}
	}
	final, err = rmerge.Merge(final, nodeDoc.Parameters, rpath.Path{})
	if err != nil {
		return nil, err
	}

	exports := nodeDoc.Exports
	if exports == nil {
		exports = rvalue.Wrap(rvalue.NewMapping())
	}

	environment := defaultEnvironment
	if nodeDoc.HasEnvironment {
		environment = nodeDoc.Environment
	}

	applications := rlist.NewRemovableList(nodeDoc.Applications)

	return &Result{
		Classes:      ex.classList.Items(),
		Applications: applications.Items(),
		Parameters:   final,
		Exports:      exports,
		Environment:  environment,
	}, nil
}

// expandEntries processes one document's classes list, retrying entries
// whose class name is still an unresolved reference until either every
// entry has resolved or a full pass makes no progress (spec section
// 4.4's suspend-and-retry rule).
func (e *Expander) expandEntries(ex *expansion, entries []string, withinDir string) error {
	pending := append([]string(nil), entries...)
	for len(pending) > 0 {
		var next []string
		progressed := false
		for _, raw := range pending {
			done, err := e.includeOne(ex, raw, withinDir)
			if err != nil {
				return err
			}
			if !done {
				next = append(next, raw)
				continue
			}
			progressed = true
		}
		if !progressed {
			return rerrors.New(rerrors.ErrReferenceMissing, "class name reference never resolved").
				WithContext("class", next[0])
		}
		pending = next
	}
	return nil
}

// includeOne resolves and, if newly seen, recursively expands raw's class
// name. It returns done=false only when raw's name is still an
// unresolved reference and the caller should retry it in a later pass.
func (e *Expander) includeOne(ex *expansion, raw string, withinDir string) (bool, error) {
	name, err := interp.ResolveClassName(ex.merged, raw)
	if err != nil {
		if errors.Is(err, rerrors.ErrReferenceMissing) {
			return false, nil
		}
		return false, err
	}

	file, dotted, found := e.idx.ResolveClass(name, withinDir)
	if !found {
		if e.classNotFoundSuppressed(name) {
			if e.warn != nil {
				e.warn(name, "class not found, ignored")
			}
			return true, nil
		}
		return true, rerrors.New(rerrors.ErrClassNotFound, "class not found").
			WithContext("class", name)
	}

	if ex.seen[dotted] {
		if ex.active[dotted] {
			return true, rerrors.New(rerrors.ErrClassCycle, "class inclusion cycle").
				WithContext("class", dotted).
				WithContext("stack", strings.Join(append(ex.activeOrder, dotted), " -> "))
		}
		return true, nil
	}
	ex.seen[dotted] = true
	ex.active[dotted] = true
	ex.activeOrder = append(ex.activeOrder, dotted)

	doc, err := loadDocument(file, e.warn)
	if err != nil {
		return true, err
	}
	ex.docs[dotted] = doc
	ex.merged = mergeLenient(ex.merged, doc.Parameters, rpath.Path{})

	if err := e.expandEntries(ex, doc.Classes, dottedParentDir(dotted)); err != nil {
		return true, err
	}

	ex.classList.AppendIfNew(dotted)
	delete(ex.active, dotted)
	ex.activeOrder = ex.activeOrder[:len(ex.activeOrder)-1]
	return true, nil
}

// classNotFoundSuppressed reports whether a missing class named name
// should be silently skipped rather than failing expansion.
func (e *Expander) classNotFoundSuppressed(name string) bool {
	if !e.cfg.IgnoreClassNotfound {
		return false
	}
	if len(e.ignoreRe) == 0 {
		return true
	}
	for _, re := range e.ignoreRe {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// dottedParentDir returns dotted's directory portion (all but its final
// segment), used as the withinDir for resolving names referenced from
// within that class (spec section 4.3.3).
func dottedParentDir(dotted string) string {
	i := strings.LastIndexByte(dotted, '.')
	if i < 0 {
		return ""
	}
	return dotted[:i]
}

// mergeLenient merges rhs into lhs for the auxiliary class-name-resolution
// accumulator, discarding a constant violation (not meaningful outside
// the authoritative classes-then-node merge order) in favor of rhs.
func mergeLenient(lhs, rhs *rvalue.Value, at rpath.Path) *rvalue.Value {
	merged, err := rmerge.Merge(lhs, rhs, at)
	if err != nil {
		return rhs.Clone()
	}
	return merged
}
