package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dev-ALPM/imixs-workflow/internal/itemcollection"
	"github.com/Dev-ALPM/imixs-workflow/internal/plugin"
)

type fakeMailer struct {
	sent    bool
	to      []string
	subject string
	body    string
	err     error
}

func (f *fakeMailer) Send(ctx context.Context, to []string, subject, body string) error {
	f.sent = true
	f.to = to
	f.subject = subject
	f.body = body
	return f.err
}

func TestMailPlugin_Run_StagesButDoesNotSend(t *testing.T) {
	m := &fakeMailer{}
	p := NewMailPlugin(m)
	w := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemReadAccess: []any{"alice@example.com"},
	})
	ev := plugin.EventView{MailSubject: "hello", MailBody: "world"}

	_, err := p.Run(context.Background(), w, ev)
	require.NoError(t, err)

	assert.False(t, m.sent)
}

func TestMailPlugin_Close_SendsWhenNotRolledBack(t *testing.T) {
	m := &fakeMailer{}
	p := NewMailPlugin(m)
	w := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemReadAccess: []any{"alice@example.com", "bob@example.com"},
	})
	ev := plugin.EventView{MailSubject: "hello", MailBody: "world"}

	_, err := p.Run(context.Background(), w, ev)
	require.NoError(t, err)

	require.NoError(t, p.Close(context.Background(), false))

	assert.True(t, m.sent)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, m.to)
	assert.Equal(t, "hello", m.subject)
	assert.Equal(t, "world", m.body)
}

func TestMailPlugin_Close_SkipsSendOnRollback(t *testing.T) {
	m := &fakeMailer{}
	p := NewMailPlugin(m)
	w := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemReadAccess: []any{"alice@example.com"},
	})
	ev := plugin.EventView{MailSubject: "hello", MailBody: "world"}

	_, err := p.Run(context.Background(), w, ev)
	require.NoError(t, err)

	require.NoError(t, p.Close(context.Background(), true))

	assert.False(t, m.sent)
}

func TestMailPlugin_Run_SkipsWhenMailInactive(t *testing.T) {
	m := &fakeMailer{}
	p := NewMailPlugin(m)
	w := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemReadAccess: []any{"alice@example.com"},
	})
	ev := plugin.EventView{MailSubject: "hello", MailBody: "world", MailInactive: true}

	_, err := p.Run(context.Background(), w, ev)
	require.NoError(t, err)
	require.NoError(t, p.Close(context.Background(), false))

	assert.False(t, m.sent)
}

func TestMailPlugin_Run_SkipsWhenNoSubject(t *testing.T) {
	m := &fakeMailer{}
	p := NewMailPlugin(m)
	w := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemReadAccess: []any{"alice@example.com"},
	})
	ev := plugin.EventView{MailBody: "world"}

	_, err := p.Run(context.Background(), w, ev)
	require.NoError(t, err)
	require.NoError(t, p.Close(context.Background(), false))

	assert.False(t, m.sent)
}

func TestMailPlugin_Run_SkipsWhenNoRecipients(t *testing.T) {
	m := &fakeMailer{}
	p := NewMailPlugin(m)
	w := itemcollection.New()
	ev := plugin.EventView{MailSubject: "hello", MailBody: "world"}

	_, err := p.Run(context.Background(), w, ev)
	require.NoError(t, err)
	require.NoError(t, p.Close(context.Background(), false))

	assert.False(t, m.sent)
}

func TestMailPlugin_NilMailer_NeverSends(t *testing.T) {
	p := NewMailPlugin(nil)
	w := itemcollection.NewFrom(map[string]any{
		itemcollection.ItemReadAccess: []any{"alice@example.com"},
	})
	ev := plugin.EventView{MailSubject: "hello", MailBody: "world"}

	_, err := p.Run(context.Background(), w, ev)
	require.NoError(t, err)
	require.NoError(t, p.Close(context.Background(), false))
}
