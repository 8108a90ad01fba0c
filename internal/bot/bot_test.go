package bot

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mymmrac/telego"

	"serotonyl.ru/habit-bot/internal/config"
)

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()
	tests := []struct {
		text    string
		cmd     string
		args    []string
		command bool
	}{
		{"!новая Бег интервал=2", "новая", []string{"Бег", "интервал=2"}, true},
		{"  .привычки  ", "привычки", nil, true},
		{"/help@habit_bot", "help", nil, true},
		{"!Огонёк 3", "огонек", []string{"3"}, true},
		{"просто текст", "", nil, false},
		{"!", "", nil, false},
		{"", "", nil, false},
	}
	for _, tt := range tests {
		cmd, args, ok := p.ParseCommand(tt.text)
		if cmd != tt.cmd || ok != tt.command || !reflect.DeepEqual(args, tt.args) {
			t.Errorf("ParseCommand(%q) = %q, %v, %v; want %q, %v, %v",
				tt.text, cmd, args, ok, tt.cmd, tt.args, tt.command)
		}
	}
}

type fakeAPI struct {
	sent []*telego.SendMessageParams
	err  error
}

func (f *fakeAPI) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &telego.Message{Text: params.Text}, nil
}

func TestMessenger(t *testing.T) {
	api := &fakeAPI{}
	m := NewMessenger(api)

	if err := m.SendText(context.Background(), 42, "привет"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if err := m.SendText(context.Background(), 42, ""); err != nil {
		t.Fatalf("SendText empty: %v", err)
	}
	m.Notify(7, "🔥 серия под угрозой")

	if len(api.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(api.sent))
	}
	if api.sent[1].ChatID.ID != 7 || api.sent[1].Text != "🔥 серия под угрозой" {
		t.Fatalf("notify params = %+v", api.sent[1])
	}

	api.err = errors.New("forbidden: bot was blocked by the user")
	if err := m.SendText(context.Background(), 42, "x"); err == nil {
		t.Fatal("expected error from API")
	}
	m.Notify(7, "x")
}

func TestRoutesCoverHelpCommands(t *testing.T) {
	cfg := &config.Config{BotMaxInflight: 1, RateLimitRequests: 1, RateLimitWindow: 1}
	b := New(nil, cfg, NewMessenger(&fakeAPI{}), nil, nil, nil, nil, nil)
	defer b.Close()

	want := []string{"start", "help", "новая", "привычки", "отметить", "огонек",
		"удалить", "сложности", "пересчет", "очки", "история", "начислить"}
	for _, cmd := range want {
		if _, ok := b.routes[cmd]; !ok {
			t.Errorf("command %q is not routed", cmd)
		}
	}
	if len(b.Commands()) != len(b.routes) {
		t.Fatal("Commands must list every route")
	}
}

func TestHelpRoute(t *testing.T) {
	api := &fakeAPI{}
	cfg := &config.Config{BotMaxInflight: 1, RateLimitRequests: 1, RateLimitWindow: 1}
	b := New(nil, cfg, NewMessenger(api), nil, nil, nil, nil, nil)
	defer b.Close()

	msg := &telego.Message{Chat: telego.Chat{ID: 42, Type: telego.ChatTypePrivate}, From: &telego.User{ID: 42}}
	b.routes["help"](context.Background(), msg, nil)
	if len(api.sent) != 1 || api.sent[0].Text != helpText {
		t.Fatalf("help reply = %+v", api.sent)
	}
}
