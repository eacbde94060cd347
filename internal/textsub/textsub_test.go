package textsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
)

func TestResolve_ItemValueDefaultPosition(t *testing.T) {
	w := itemcollection.NewFrom(map[string]any{"txtname": []any{"first", "second"}})
	out := Resolve(`Hello <itemvalue>txtname</itemvalue>`, w, time.Now())
	assert.Equal(t, "Hello first", out)
}

func TestResolve_ItemValueLastPosition(t *testing.T) {
	w := itemcollection.NewFrom(map[string]any{"txtname": []any{"first", "second"}})
	out := Resolve(`<itemvalue position="last">txtname</itemvalue>`, w, time.Now())
	assert.Equal(t, "second", out)
}

func TestResolve_ItemValueSeparatorJoinsAll(t *testing.T) {
	w := itemcollection.NewFrom(map[string]any{"txtname": []any{"a", "b", "c"}})
	out := Resolve(`<itemvalue separator=", ">txtname</itemvalue>`, w, time.Now())
	assert.Equal(t, "a, b, c", out)
}

func TestResolve_ItemValueDateFormat(t *testing.T) {
	when := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	w := itemcollection.NewFrom(map[string]any{"dat": when})
	out := Resolve(`<itemvalue format="yyyy-MM-dd">dat</itemvalue>`, w, time.Now())
	assert.Equal(t, "2026-03-05", out)
}

func TestResolve_ItemValueDecimalFormat(t *testing.T) {
	w := itemcollection.NewFrom(map[string]any{"amount": 12.5})
	out := Resolve(`<itemvalue format="#,##0.00">amount</itemvalue>`, w, time.Now())
	assert.Equal(t, "12.50", out)
}

func TestResolve_DatePreExpandedToYYYYMMDD(t *testing.T) {
	now := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	out := Resolve(`query: created >= <date ADD="DAY_OF_MONTH,-7" />`, itemcollection.New(), now)
	assert.Equal(t, "query: created >= 20260723", out)
}

func TestResolve_MissingItemYieldsEmptyString(t *testing.T) {
	out := Resolve(`[<itemvalue>missing</itemvalue>]`, itemcollection.New(), time.Now())
	assert.Equal(t, "[]", out)
}
