package itemcollection

import (
	"strconv"
	"strings"
	"time"
)

// Reserved workflow item names (always lower-case internally).
const (
	ItemUniqueID      = "$uniqueid"
	ItemModelVersion  = "$modelversion"
	ItemTaskID        = "$taskid"
	ItemEventID       = "$eventid"
	ItemWorkflowGroup = "$workflowgroup"
	ItemWorkflowState = "$workflowstatus"
	ItemReadAccess    = "$readaccess"
	ItemWriteAccess   = "$writeaccess"
	ItemOwner         = "$owner"
	ItemParticipants  = "$participants"
	ItemLastEventDate = "$lasteventdate"
	ItemLastEventID   = "$lasteventid"
	ItemCreator       = "$creator"
	ItemCreated       = "$created"
	ItemModified      = "$modified"
	ItemSnapshotHist  = "$snapshot.history"
	ItemFile          = "$file"
	ItemFileCount     = "$file.count"
	ItemFileNames     = "$file.names"
)

// deprecatedAliases mirror-writes legacy item names onto their canonical
// counterpart, and vice versa, for one major version.
var deprecatedAliases = map[string]string{
	"$processid":  ItemTaskID,
	"$activityid": ItemEventID,
	"txtname":     "name",
	"namowner":    ItemOwner,
}

func init() {
	// Build the reverse mapping too: canonical -> deprecated.
	rev := make(map[string]string, len(deprecatedAliases))
	for k, v := range deprecatedAliases {
		rev[v] = k
	}
	for k, v := range rev {
		if _, exists := deprecatedAliases[k]; !exists {
			deprecatedAliases[k] = v
		}
	}
}

// NormalizeName case-folds and trims an item name the way the collection
// stores it internally.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ItemCollection is the polymorphic key-to-typed-value-list document every
// subsystem in the engine exchanges.
type ItemCollection struct {
	data map[string][]Value
}

// New returns an empty ItemCollection.
func New() *ItemCollection {
	return &ItemCollection{data: make(map[string][]Value)}
}

// NewFrom builds an ItemCollection from a plain map, for convenience at
// call sites that build literals (tests, fixtures).
func NewFrom(m map[string]any) *ItemCollection {
	ic := New()
	for k, v := range m {
		_ = ic.SetItemValue(k, v)
	}
	return ic
}

// SetItemValue stores v under name, normalizing it into the closed basic
// type set. A nil v removes the item. Mirror-writes the deprecated alias,
// if name has one.
func (ic *ItemCollection) SetItemValue(name string, v any) error {
	key := NormalizeName(name)
	if v == nil {
		delete(ic.data, key)
		ic.mirrorAlias(key, nil, true)
		return nil
	}
	list, err := normalizeList(v)
	if err != nil {
		return err
	}
	ic.data[key] = list
	ic.mirrorAlias(key, list, false)
	if key == ItemFile {
		ic.syncFileDerived()
	}
	return nil
}

// ReplaceItemValue is an alias of SetItemValue kept for readability at
// call sites that are explicitly replacing (as opposed to appending).
func (ic *ItemCollection) ReplaceItemValue(name string, v any) error {
	return ic.SetItemValue(name, v)
}

// SetRawValues stores an already-typed value list under name verbatim,
// bypassing SetItemValue's normalizeList coercion. Used by store
// implementations reconstructing a document from a typed encoding, where
// the Kind of each value is already known and must not be re-inferred.
func (ic *ItemCollection) SetRawValues(name string, values []Value) {
	key := NormalizeName(name)
	if len(values) == 0 {
		delete(ic.data, key)
		ic.mirrorAlias(key, nil, true)
		return
	}
	cp := make([]Value, len(values))
	for i, v := range values {
		cp[i] = v.Clone()
	}
	ic.data[key] = cp
	ic.mirrorAlias(key, cp, false)
	if key == ItemFile {
		ic.syncFileDerived()
	}
}

func (ic *ItemCollection) mirrorAlias(key string, list []Value, removed bool) {
	alias, ok := deprecatedAliases[key]
	if !ok {
		return
	}
	if removed {
		delete(ic.data, alias)
		return
	}
	cp := make([]Value, len(list))
	for i, v := range list {
		cp[i] = v.Clone()
	}
	ic.data[alias] = cp
}

// HasItem reports whether name is present. An item set to an empty list
// counts as present.
func (ic *ItemCollection) HasItem(name string) bool {
	_, ok := ic.data[NormalizeName(name)]
	return ok
}

// RemoveItem deletes name and its mirrored alias.
func (ic *ItemCollection) RemoveItem(name string) {
	key := NormalizeName(name)
	delete(ic.data, key)
	ic.mirrorAlias(key, nil, true)
	if key == ItemFile {
		ic.syncFileDerived()
	}
}

// GetItemValue returns the normalized value list for name. Readers must
// handle an empty (not nil) list for an absent item.
func (ic *ItemCollection) GetItemValue(name string) []Value {
	list, ok := ic.data[NormalizeName(name)]
	if !ok {
		return []Value{}
	}
	out := make([]Value, len(list))
	for i, v := range list {
		out[i] = v.Clone()
	}
	return out
}

// GetItemValueString returns the first value of name coerced to a string,
// or "" if absent.
func (ic *ItemCollection) GetItemValueString(name string) string {
	list := ic.data[NormalizeName(name)]
	if len(list) == 0 {
		return ""
	}
	return list[0].String()
}

// GetItemValueStringList returns all values of name coerced to strings,
// skipping empty string values.
func (ic *ItemCollection) GetItemValueStringList(name string) []string {
	list := ic.data[NormalizeName(name)]
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v.Kind == KindString && v.Str == "" {
			continue
		}
		out = append(out, v.String())
	}
	return out
}

// GetItemValueInt returns the first value of name coerced to an int, or 0.
func (ic *ItemCollection) GetItemValueInt(name string) int {
	list := ic.data[NormalizeName(name)]
	if len(list) == 0 {
		return 0
	}
	v := list[0]
	switch v.Kind {
	case KindInt64:
		return int(v.I64)
	case KindFloat64:
		return int(v.F64)
	case KindDecimal:
		return int(v.Dec.IntPart())
	case KindBool:
		if v.Boolean {
			return 1
		}
		return 0
	case KindString:
		n, _ := strconv.Atoi(strings.TrimSpace(v.Str))
		return n
	default:
		return 0
	}
}

// GetItemValueBool returns the first value of name coerced to bool.
func (ic *ItemCollection) GetItemValueBool(name string) bool {
	list := ic.data[NormalizeName(name)]
	if len(list) == 0 {
		return false
	}
	v := list[0]
	switch v.Kind {
	case KindBool:
		return v.Boolean
	case KindString:
		b, _ := strconv.ParseBool(strings.TrimSpace(v.Str))
		return b
	case KindInt64:
		return v.I64 != 0
	default:
		return false
	}
}

// GetItemValueDate returns the first value of name coerced to a time.Time,
// the zero value if absent or not a timestamp.
func (ic *ItemCollection) GetItemValueDate(name string) time.Time {
	list := ic.data[NormalizeName(name)]
	if len(list) == 0 {
		return time.Time{}
	}
	if list[0].Kind == KindInstant {
		return list[0].Instant
	}
	return time.Time{}
}

// ItemNames returns every item name currently set, in no particular order.
func (ic *ItemCollection) ItemNames() []string {
	out := make([]string, 0, len(ic.data))
	for k := range ic.data {
		out = append(out, k)
	}
	return out
}

// Clone returns a deep copy obtained by a structural walk: mutating any
// nested container on the clone leaves the receiver unchanged.
func (ic *ItemCollection) Clone() *ItemCollection {
	out := New()
	for k, list := range ic.data {
		cp := make([]Value, len(list))
		for i, v := range list {
			cp[i] = v.Clone()
		}
		out.data[k] = cp
	}
	return out
}

// Equal compares two collections structurally, ignoring key ordering.
func (ic *ItemCollection) Equal(o *ItemCollection) bool {
	if len(ic.data) != len(o.data) {
		return false
	}
	for k, list := range ic.data {
		olist, ok := o.data[k]
		if !ok || len(olist) != len(list) {
			return false
		}
		for i := range list {
			if !list[i].Equal(olist[i]) {
				return false
			}
		}
	}
	return true
}

// Merge copies every item from src onto the receiver, overwriting
// same-named items. Used by the rule engine to merge a script's result
// bag back onto a workitem.
func (ic *ItemCollection) Merge(src *ItemCollection) {
	for k, list := range src.data {
		cp := make([]Value, len(list))
		for i, v := range list {
			cp[i] = v.Clone()
		}
		ic.data[k] = cp
		ic.mirrorAlias(k, cp, false)
	}
}
