// Package interp implements the fixed-point reference interpolator of
// spec section 4.7: resolving every ${...} reference and reducing every
// ValueList inside a merged parameter Mapping, with nested-first
// evaluation, default fallback, and cycle detection.
//
// Grounded on original_source's interpolation pass (the Rust
// implementation's recursive resolve-on-demand resolver over its own
// Value tree), adapted here into a path-addressed, memoizing recursive
// walk: every location is resolved at most once, the result is written
// back into the tree, and a location currently being resolved that is
// looked up again is a reference cycle.
package interp

import (
	"strconv"
	"strings"

	"github.com/opmodel/reclass/internal/refparse"
	"github.com/opmodel/reclass/internal/rerrors"
	"github.com/opmodel/reclass/internal/rmerge"
	"github.com/opmodel/reclass/internal/rpath"
	"github.com/opmodel/reclass/internal/rvalue"
)

// NodeMeta supplies the fields injected into the merged tree's
// `_reclass_` mapping before interpolation (spec section 4.7 rule 10).
type NodeMeta struct {
	Environment string
	Parts       []string
}

// Interpolator resolves every Reference and ValueList within a root
// Mapping in place.
type Interpolator struct {
	root      *rvalue.Value
	resolving map[string]bool
	warn      func(path, msg string)
}

// New returns an Interpolator over root, which must be a Mapping-kind
// Value. warn, if non-nil, is called for each verbose_warnings-worthy
// event (default substitution); it may be nil to discard them.
func New(root *rvalue.Value, warn func(path, msg string)) *Interpolator {
	return &Interpolator{root: root, resolving: make(map[string]bool), warn: warn}
}

// InjectMetadata adds the `_reclass_` mapping to root (spec section 4.7
// rule 10), following classic reclass's name.{full,short,path,parts}
// convention: full is the dotted node name, parts its composition
// segments, short the final segment, and path every segment of parts
// (including the final one) joined with "/".
func InjectMetadata(root *rvalue.Value, nodeName string, meta NodeMeta) {
	nameMap := rvalue.NewMapping()
	nameMap.Set("full", rvalue.String(nodeName))

	parts := meta.Parts
	if len(parts) == 0 {
		parts = []string{nodeName}
	}
	partVals := make([]*rvalue.Value, len(parts))
	for i, p := range parts {
		partVals[i] = rvalue.String(p)
	}
	nameMap.Set("parts", rvalue.Sequence(partVals))

	short := parts[len(parts)-1]
	nameMap.Set("short", rvalue.String(short))

	nameMap.Set("path", rvalue.String(strings.Join(parts, "/")))

	reclassMap := rvalue.NewMapping()
	reclassMap.Set("environment", rvalue.String(meta.Environment))
	reclassMap.Set("name", rvalue.Wrap(nameMap))

	root.Map.Set("_reclass_", rvalue.Wrap(reclassMap))
}

// Run resolves every Reference and ValueList in the tree, returning the
// fully resolved root.
func (in *Interpolator) Run() (*rvalue.Value, error) {
	resolved, err := in.resolveNode(rpath.Path{}, in.root)
	if err != nil {
		return nil, err
	}
	in.root = resolved
	return in.root, nil
}

// resolveNode fully resolves v, which is understood to live at path,
// recursing into containers and reducing References/ValueLists. It does
// not itself perform cycle bookkeeping; callers reaching v via a path
// lookup must do that around the call (see lookup).
func (in *Interpolator) resolveNode(path rpath.Path, v *rvalue.Value) (*rvalue.Value, error) {
	if v == nil {
		return nil, nil
	}

	switch v.Kind {
	case rvalue.KindMapping:
		for _, k := range v.Map.Keys() {
			child, _ := v.Map.Get(k)
			resolved, err := in.resolveAtPath(path.Child(k), child)
			if err != nil {
				return nil, err
			}
			v.Map.Set(k, resolved)
		}
		return v, nil

	case rvalue.KindSequence:
		for i, item := range v.Seq {
			resolved, err := in.resolveAtPath(path.Child(strconv.Itoa(i)), item)
			if err != nil {
				return nil, err
			}
			v.Seq[i] = resolved
		}
		return v, nil

	case rvalue.KindReference:
		substituted, err := in.substituteReference(path, v.Ref)
		if err != nil {
			return nil, err
		}
		substituted.Overwrite = v.Overwrite
		substituted.Constant = v.Constant
		return in.resolveNode(path, substituted)

	case rvalue.KindValueList:
		resolvedItems := make([]*rvalue.Value, len(v.ValueListItems))
		for i, item := range v.ValueListItems {
			resolved, err := in.resolveNode(path, item)
			if err != nil {
				return nil, err
			}
			resolvedItems[i] = resolved
		}
		reduced, err := rmerge.ReduceValueList(rvalue.ValueList(resolvedItems), path)
		if err != nil {
			return nil, err
		}
		return in.resolveNode(path, reduced)

	default:
		return v, nil
	}
}

// resolveAtPath wraps resolveNode with the cycle-detection bookkeeping
// required whenever a location is entered via its tree path (spec
// section 4.7 rule 7).
func (in *Interpolator) resolveAtPath(path rpath.Path, v *rvalue.Value) (*rvalue.Value, error) {
	key := path.String()
	if in.resolving[key] {
		return nil, rerrors.New(rerrors.ErrReferenceCycle, "cycle detected while resolving").
			WithPath(key)
	}
	in.resolving[key] = true
	resolved, err := in.resolveNode(path, v)
	delete(in.resolving, key)
	return resolved, err
}

// lookup resolves (on demand, with memoization via write-back) and
// returns the value currently stored at path, or ok=false if no such
// path exists in the tree.
func (in *Interpolator) lookup(path rpath.Path) (*rvalue.Value, bool, error) {
	cur := in.root
	parent := (*rvalue.Value)(nil)
	var lastSeg string

	for _, seg := range path {
		switch cur.Kind {
		case rvalue.KindMapping:
			v, ok := cur.Map.Get(seg)
			if !ok {
				return nil, false, nil
			}
			parent, lastSeg = cur, seg
			cur = v
		case rvalue.KindSequence:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.Seq) {
				return nil, false, nil
			}
			parent, lastSeg = cur, seg
			cur = cur.Seq[idx]
		default:
			return nil, false, nil
		}
	}

	resolved, err := in.resolveAtPath(path, cur)
	if err != nil {
		return nil, false, err
	}
	if parent != nil {
		switch parent.Kind {
		case rvalue.KindMapping:
			parent.Map.Set(lastSeg, resolved)
		case rvalue.KindSequence:
			idx, _ := strconv.Atoi(lastSeg)
			parent.Seq[idx] = resolved
		}
	} else {
		in.root = resolved
	}
	return resolved, true, nil
}

// substituteReference resolves Ref, the top-level literal/reference Expr
// stored at path, into its final Value (spec section 4.7 rule 5).
func (in *Interpolator) substituteReference(path rpath.Path, ref *refparse.Reference) (*rvalue.Value, error) {
	expr := ref.Path

	if len(expr) == 1 && !expr[0].IsLiteral() {
		return in.resolveFragmentRef(path, expr[0].Ref)
	}

	var b strings.Builder
	for _, frag := range expr {
		if frag.IsLiteral() {
			b.WriteString(frag.Literal)
			continue
		}
		resolved, err := in.resolveFragmentRef(path, frag.Ref)
		if err != nil {
			return nil, err
		}
		if !resolved.IsScalar() {
			return nil, rerrors.New(rerrors.ErrTypeMismatch, "reference embedded in literal text must resolve to a scalar").
				WithPath(path.String()).
				WithContext("reference", frag.Ref.Source)
		}
		b.WriteString(resolved.ScalarString())
	}
	return rvalue.String(b.String()), nil
}

// resolveFragmentRef resolves one parsed ${...} reference: it first
// resolves any nested references within the reference's own path
// expression (spec rule 2), builds the final path string, looks it up,
// and falls back to the default expression if the path is absent.
func (in *Interpolator) resolveFragmentRef(path rpath.Path, ref *refparse.Reference) (*rvalue.Value, error) {
	pathText, err := in.resolveExprText(path, ref.Path)
	if err != nil {
		return nil, err
	}

	targetPath := rpath.Parse(pathText)
	resolved, ok, err := in.lookup(targetPath)
	if err != nil {
		return nil, err
	}
	if ok {
		return resolved, nil
	}

	if ref.Default == nil {
		return nil, rerrors.New(rerrors.ErrReferenceMissing, "reference path not found and no default given").
			WithPath(path.String()).
			WithContext("reference", ref.Source).
			WithContext("target", pathText)
	}

	defaultText, err := in.resolveExprText(path, *ref.Default)
	if err != nil {
		return nil, err
	}
	defaultVal, err := rvalue.ParseFlowDefault(defaultText)
	if err != nil {
		return nil, rerrors.Wrap(rerrors.ErrInterpolationParse, "parsing default value", err).
			WithPath(path.String()).
			WithContext("reference", ref.Source)
	}
	if in.warn != nil {
		in.warn(path.String(), "used default value for "+ref.Source)
	}
	return in.resolveNode(path, defaultVal)
}

// resolveExprText concatenates expr's literal fragments with the scalar
// string form of its resolved nested references, used for both a
// reference's path segment and its default segment.
func (in *Interpolator) resolveExprText(path rpath.Path, expr refparse.Expr) (string, error) {
	var b strings.Builder
	for _, frag := range expr {
		if frag.IsLiteral() {
			b.WriteString(frag.Literal)
			continue
		}
		resolved, err := in.resolveFragmentRef(path, frag.Ref)
		if err != nil {
			return "", err
		}
		if !resolved.IsScalar() {
			return "", rerrors.New(rerrors.ErrTypeMismatch, "nested reference must resolve to a scalar").
				WithPath(path.String()).
				WithContext("reference", frag.Ref.Source)
		}
		b.WriteString(resolved.ScalarString())
	}
	return b.String(), nil
}

// ResolveClassName resolves a class-name string (from a classes: list
// entry) that may itself contain references, evaluating against the same
// merge-so-far mapping this Interpolator wraps (spec section 4.4 / 4.7
// rule 8). A plain literal name is returned unchanged. The caller (the
// expander) distinguishes rerrors.ErrReferenceMissing — meaning the
// needed path is not yet present in the merge-so-far and expansion
// should retry once more classes have landed — from every other error,
// which is terminal.
func ResolveClassName(mergedSoFar *rvalue.Value, raw string) (string, error) {
	expr, err := refparse.Parse(raw)
	if err != nil {
		return "", rerrors.Wrap(rerrors.ErrInterpolationParse, "parsing class name", err)
	}
	if expr.IsPlainLiteral() {
		return expr.Literal(), nil
	}

	in := New(mergedSoFar, nil)
	resolved, err := in.substituteReference(rpath.Path{}, &refparse.Reference{Path: expr})
	if err != nil {
		return "", err
	}
	if !resolved.IsScalar() {
		return "", rerrors.New(rerrors.ErrTypeMismatch, "class name must resolve to a scalar").
			WithContext("name", raw)
	}
	return resolved.ScalarString(), nil
}
