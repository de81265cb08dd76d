// Package rmerge implements the deep-merge algorithm of spec section 4.6:
// folding each contributing class/node document's parameters, in order,
// into one pre-interpolation Mapping, honoring the overwrite/constant key
// prefixes and deferring any merge that touches an unresolved reference.
//
// Grounded on original_source's merge semantics (src/types/value.rs /
// src/merge logic in the Rust implementation), adapted to operate on the
// Go rvalue.Value tree.
package rmerge

import (
	"github.com/opmodel/reclass/internal/rerrors"
	"github.com/opmodel/reclass/internal/rpath"
	"github.com/opmodel/reclass/internal/rvalue"
)

// Merge combines lhs (the accumulated value at some path) with rhs (a new
// contribution), applying spec section 4.6's per-key rules. at identifies
// the path being merged, for diagnostics. lhs may be nil (no prior
// contribution).
func Merge(lhs, rhs *rvalue.Value, at rpath.Path) (*rvalue.Value, error) {
	if lhs == nil {
		return rhs, nil
	}
	if rhs == nil {
		return lhs, nil
	}

	if lhs.Constant {
		if rvalue.Equal(lhs, rhs) {
			return lhs, nil
		}
		if lhs.Kind == rvalue.KindReference || rhs.Kind == rvalue.KindReference {
			// Can't yet prove equality; defer to post-interpolation
			// reduction, which re-checks the constant rule.
			return deferAsValueList(lhs, rhs), nil
		}
		return nil, rerrors.New(rerrors.ErrConstantViolation, "cannot overwrite constant key").
			WithPath(at.String())
	}

	if rhs.Overwrite {
		out := rhs.Clone()
		out.Overwrite = false
		return out, nil
	}

	if lhs.Kind == rvalue.KindMapping && rhs.Kind == rvalue.KindMapping {
		return mergeMappings(lhs, rhs, at)
	}

	if lhs.Kind == rvalue.KindSequence && rhs.Kind == rvalue.KindSequence {
		out := make([]*rvalue.Value, 0, len(lhs.Seq)+len(rhs.Seq))
		out = append(out, lhs.Seq...)
		out = append(out, rhs.Seq...)
		merged := rvalue.Sequence(out)
		merged.Constant = rhs.Constant
		return merged, nil
	}

	if lhs.Kind == rvalue.KindReference || rhs.Kind == rvalue.KindReference {
		return deferAsValueList(lhs, rhs), nil
	}

	return rhs.Clone(), nil
}

// deferAsValueList builds (or extends) a ValueList carrying lhs and rhs,
// for reduction after interpolation substitutes their references (spec
// section 4.6, 4.7.6).
func deferAsValueList(lhs, rhs *rvalue.Value) *rvalue.Value {
	var items []*rvalue.Value
	if lhs.Kind == rvalue.KindValueList {
		items = append(items, lhs.ValueListItems...)
	} else {
		items = append(items, lhs)
	}
	if rhs.Kind == rvalue.KindValueList {
		items = append(items, rhs.ValueListItems...)
	} else {
		items = append(items, rhs)
	}
	out := rvalue.ValueList(items)
	out.Constant = rhs.Constant || lhs.Constant
	return out
}

// mergeMappings merges two Mapping-kind Values key-wise, preserving lhs's
// key order and appending rhs's new keys in their order.
func mergeMappings(lhs, rhs *rvalue.Value, at rpath.Path) (*rvalue.Value, error) {
	result := rvalue.NewMapping()

	for _, k := range lhs.Map.Keys() {
		lv, _ := lhs.Map.Get(k)
		result.Set(k, lv)
	}

	for _, k := range rhs.Map.Keys() {
		rv, _ := rhs.Map.Get(k)
		existing, ok := result.Get(k)
		if !ok {
			result.Set(k, rv)
			continue
		}
		merged, err := Merge(existing, rv, at.Child(k))
		if err != nil {
			return nil, err
		}
		result.Set(k, merged)
	}

	out := rvalue.Wrap(result)
	out.Constant = rhs.Constant
	return out, nil
}

// ReduceValueList applies Merge left-to-right across a ValueList's items,
// once interpolation has substituted any reference among them, collapsing
// it back into a single concrete Value (spec section 4.6, 4.7.6).
func ReduceValueList(v *rvalue.Value, at rpath.Path) (*rvalue.Value, error) {
	if v.Kind != rvalue.KindValueList {
		return v, nil
	}
	if len(v.ValueListItems) == 0 {
		return rvalue.Null(), nil
	}
	acc := v.ValueListItems[0]
	for _, next := range v.ValueListItems[1:] {
		var err error
		acc, err = Merge(acc, next, at)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}
