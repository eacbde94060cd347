package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
)

type stubPlugin struct{ name string }

func (p *stubPlugin) Name() string                                    { return p.name }
func (p *stubPlugin) Init(ctx context.Context, wctx WorkflowContext) error { return nil }
func (p *stubPlugin) Run(ctx context.Context, w *itemcollection.ItemCollection, ev EventView) (*itemcollection.ItemCollection, error) {
	return w, nil
}
func (p *stubPlugin) Close(ctx context.Context, rollback bool) error { return nil }

func TestRegistry_Build_ResolvesByNameInOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("mail", func() Plugin { return &stubPlugin{name: "mail"} })
	r.Register("history", func() Plugin { return &stubPlugin{name: "history"} })

	plugins, err := r.Build([]string{"history", "mail"})
	require.NoError(t, err)
	require.Len(t, plugins, 2)
	assert.Equal(t, "history", plugins[0].Name())
	assert.Equal(t, "mail", plugins[1].Name())
}

func TestRegistry_Build_UnknownNameFails(t *testing.T) {
	r := NewRegistry()
	r.Register("mail", func() Plugin { return &stubPlugin{name: "mail"} })

	_, err := r.Build([]string{"mail", "ghost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestRegistry_Build_EachCallGetsAFreshInstance(t *testing.T) {
	r := NewRegistry()
	built := 0
	r.Register("counter", func() Plugin {
		built++
		return &stubPlugin{name: "counter"}
	})

	_, err := r.Build([]string{"counter"})
	require.NoError(t, err)
	_, err = r.Build([]string{"counter"})
	require.NoError(t, err)

	assert.Equal(t, 2, built)
}

func TestRegistry_Register_ReplacesExistingFactory(t *testing.T) {
	r := NewRegistry()
	r.Register("mail", func() Plugin { return &stubPlugin{name: "v1"} })
	r.Register("mail", func() Plugin { return &stubPlugin{name: "v2"} })

	plugins, err := r.Build([]string{"mail"})
	require.NoError(t, err)
	assert.Equal(t, "v2", plugins[0].Name())
}
