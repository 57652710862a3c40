package termui

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/drape/internal/chat"
	"github.com/hpungsan/drape/internal/history"
	"github.com/hpungsan/drape/internal/render"
)

func sampleView() render.View {
	return render.View{
		RecordID:     "01J00000000000000000000000",
		SkinTone:     "Warm",
		Gender:       "Female",
		Date:         "Oct 16, 2026",
		OutfitCasual: "Olive chinos",
		OutfitFormal: "Camel suit",
		Avoid:        []render.Chip{{Label: "Neon Pink"}},
		Swatches:     []render.Swatch{{Color: "#C19A6B", Tooltip: "#C19A6B"}, {Color: "olive", Tooltip: "olive"}},
		Links:        []render.Link{{Href: "https://www.amazon.com/s?k=Female+Blazer", Label: "Blazer", Term: "Female Blazer"}},
	}
}

func TestCard_Content(t *testing.T) {
	out := Card(sampleView())
	for _, want := range []string{"Warm skin tone", "Olive chinos", "Camel suit", "Neon Pink", "olive", "#C19A6B", "Blazer", "k=Female+Blazer"} {
		require.Contains(t, out, want)
	}
}

func TestCard_EmptyShopping(t *testing.T) {
	v := sampleView()
	v.Links = nil
	v.EmptyShopping = render.EmptyShoppingMessage
	require.Contains(t, Card(v), render.EmptyShoppingMessage)
}

func TestHistory(t *testing.T) {
	require.Contains(t, History(nil), "No analyses yet.")

	out := History([]history.Row{
		{ID: "B", Label: "Cool Profile · Male", Date: "Oct 16, 2026"},
		{ID: "A", Label: "Warm Profile · Female", Date: "Oct 15, 2026"},
	})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "Cool Profile · Male")
	require.Contains(t, lines[1], "Warm Profile · Female")
}

type fakeBackend struct {
	turns []chat.Turn
	err   error
	sent  []string
}

func (f *fakeBackend) Send(ctx context.Context, message string) ([]chat.Turn, error) {
	f.sent = append(f.sent, message)
	if f.err != nil {
		return nil, f.err
	}
	f.turns = append(f.turns,
		chat.Turn{ID: "u", Role: chat.RoleUser, Text: message},
		chat.Turn{ID: "a", Role: chat.RoleAssistant, Text: "Wear rust."},
	)
	return f.turns, nil
}

func (f *fakeBackend) Transcript() []chat.Turn { return f.turns }

func typeText(m tea.Model, text string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func TestChatModel_EnterSends(t *testing.T) {
	backend := &fakeBackend{}
	var m tea.Model = NewChatModel(context.Background(), backend, "Warm · Female")

	m = typeText(m, "what colours?")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	cm := m.(ChatModel)
	require.True(t, cm.waiting)
	require.Len(t, cm.transcript, 2)
	require.True(t, cm.transcript[1].Provisional)
	require.Contains(t, cm.View(), chat.PlaceholderText)

	m, _ = m.Update(cmd())
	cm = m.(ChatModel)
	require.False(t, cm.waiting)
	require.Equal(t, []string{"what colours?"}, backend.sent)
	require.Equal(t, "Wear rust.", cm.transcript[1].Text)
	require.False(t, cm.transcript[1].Provisional)
}

func TestChatModel_BlankEnterIgnored(t *testing.T) {
	backend := &fakeBackend{}
	var m tea.Model = NewChatModel(context.Background(), backend, "")

	m = typeText(m, "   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
	require.Empty(t, backend.sent)
}

func TestChatModel_Error(t *testing.T) {
	backend := &fakeBackend{err: stderrors.New("message must not be empty")}
	var m tea.Model = NewChatModel(context.Background(), backend, "")

	m = typeText(m, "hi")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(cmd())
	cm := m.(ChatModel)
	require.False(t, cm.waiting)
	require.Error(t, cm.err)
}

func TestFormatTranscript(t *testing.T) {
	out := FormatTranscript([]chat.Turn{
		{Role: chat.RoleUser, Text: "hello"},
		{Role: chat.RoleAssistant, Text: "hi there"},
	})
	require.Contains(t, out, "You:")
	require.Contains(t, out, "hello")
	require.Contains(t, out, "Stylist:")
	require.Contains(t, out, "hi there")
}
