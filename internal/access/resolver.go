// Package access implements the Access/Owner resolver: recomputation of
// $readAccess, $writeAccess, $owner, and $participants from the BPMN
// model's ACL annotations and the workitem's own fields.
package access

import (
	"strings"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/listutil"
	"github.com/Dev-ALPM/imixs-workflow/internal/model"
)

// TextAdapter runs the literal-name substitution pipeline (adaptText) over
// an ACL annotation's literal names, which may expand one literal into a
// list (e.g. a group placeholder). The kernel wires this to the textsub
// package; tests can use a pass-through adapter.
type TextAdapter func(literal string, w *itemcollection.ItemCollection) []string

// Resolve recomputes $readAccess/$writeAccess/$owner on w using the
// triggering event's and the next Task's ACL annotations, never merging
// across the two. callerID is appended to the append-only $participants
// set unconditionally, independent of keyupdateacl.
func Resolve(w *itemcollection.ItemCollection, ev *model.Event, next *model.Task, callerID string, adapt TextAdapter) {
	appendParticipant(w, callerID)

	annotation, ok := selectAnnotation(ev, next)
	if ok {
		applyACL(w, annotation, adapt)
		applyOwnership(w, annotation, adapt)
	}
}

// selectAnnotation implements the ACL precedence rule: if neither the
// event nor the next Task requests an update, ACL is left unchanged;
// otherwise the event's annotation wins over the task's if the event itself requests the
// update, else the task's annotation is used.
func selectAnnotation(ev *model.Event, next *model.Task) (model.ACLAnnotation, bool) {
	eventWants := ev != nil && ev.ACL.UpdateACL
	taskWants := next != nil && next.ACL.UpdateACL
	if !eventWants && !taskWants {
		return model.ACLAnnotation{}, false
	}
	if eventWants {
		return ev.ACL, true
	}
	return next.ACL, true
}

func applyACL(w *itemcollection.ItemCollection, a model.ACLAnnotation, adapt TextAdapter) {
	read := resolveNames(a.AddReadAccess, adapt, w)
	read = append(read, resolveFields(a.AddReadFields, w)...)
	write := resolveNames(a.AddWriteAccess, adapt, w)
	write = append(write, resolveFields(a.AddWriteFields, w)...)

	_ = w.SetItemValue(itemcollection.ItemReadAccess, toAny(listutil.Unique(read)))
	_ = w.SetItemValue(itemcollection.ItemWriteAccess, toAny(listutil.Unique(write)))
}

func applyOwnership(w *itemcollection.ItemCollection, a model.ACLAnnotation, adapt TextAdapter) {
	owners := resolveNames(a.OwnershipNames, adapt, w)
	owners = append(owners, resolveFields(a.OwnershipFields, w)...)
	owners = listutil.Unique(owners)

	_ = w.SetItemValue(itemcollection.ItemOwner, toAny(owners))
	// $owner has a deprecated alias (namowner) mirrored automatically by
	// SetItemValue; see itemcollection.deprecatedAliases.
}

func appendParticipant(w *itemcollection.ItemCollection, callerID string) {
	if callerID == "" {
		return
	}
	existing := w.GetItemValueStringList(itemcollection.ItemParticipants)
	merged := listutil.Merge(existing, callerID)
	_ = w.SetItemValue(itemcollection.ItemParticipants, toAny(merged))
}

// resolveNames expands each literal name through adapt (if supplied) and
// flattens the results; a nil adapt treats every literal as itself.
func resolveNames(names []string, adapt TextAdapter, w *itemcollection.ItemCollection) []string {
	var out []string
	for _, n := range names {
		if adapt == nil {
			out = append(out, n)
			continue
		}
		out = append(out, adapt(n, w)...)
	}
	return out
}

// resolveFields reads the current value of each named workitem field, with
// bracket/curly-brace field specs ("[a,b]" / "{a,b}") treated as an inline
// literal list instead of an item lookup.
func resolveFields(fields []string, w *itemcollection.ItemCollection) []string {
	var out []string
	for _, f := range fields {
		if literal, ok := inlineLiteralList(f); ok {
			out = append(out, literal...)
			continue
		}
		out = append(out, w.GetItemValueStringList(f)...)
	}
	return out
}

func inlineLiteralList(spec string) ([]string, bool) {
	spec = strings.TrimSpace(spec)
	if len(spec) < 2 {
		return nil, false
	}
	open, shut := spec[0], spec[len(spec)-1]
	isBracket := open == '[' && shut == ']'
	isBrace := open == '{' && shut == '}'
	if !isBracket && !isBrace {
		return nil, false
	}
	inner := spec[1 : len(spec)-1]
	parts := strings.Split(inner, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
