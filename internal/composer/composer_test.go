package composer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type mockCompleter struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (m *mockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.lastSystem = system
	m.lastUser = user
	return m.response, m.err
}

func TestParse_RoundTrip(t *testing.T) {
	got := Parse("Title: X\nBody line 1\nBody line 2\n#a #b #c")

	want := Draft{
		Title:    "X",
		Content:  "Body line 1\nBody line 2",
		Hashtags: []string{"#a", "#b", "#c"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %+v, want %+v", got, want)
	}
}

func TestParse_TitleMarkerCaseInsensitive(t *testing.T) {
	got := Parse("TITLE: Upper Case\nBody\n#x")
	if got.Title != "Upper Case" {
		t.Errorf("Title = %q, want %q", got.Title, "Upper Case")
	}
}

func TestParse_NoHashtagsYieldsDefaults(t *testing.T) {
	got := Parse("Title: No tags here\nJust a body line")

	if !reflect.DeepEqual(got.Hashtags, DefaultHashtags) {
		t.Errorf("Hashtags = %v, want default set %v", got.Hashtags, DefaultHashtags)
	}
	if len(got.Hashtags) != 6 {
		t.Errorf("default hashtag set has %d entries, want 6", len(got.Hashtags))
	}
}

func TestParse_NoTitleMarkerYieldsPlaceholder(t *testing.T) {
	got := Parse("A body without any marker\n#a #b")
	if got.Title != DefaultTitle {
		t.Errorf("Title = %q, want placeholder %q", got.Title, DefaultTitle)
	}
}

func TestParse_DuplicateHashtagsPreserved(t *testing.T) {
	got := Parse("Title: X\nBody\n#a #b #a\n#c #a")

	want := []string{"#a", "#b", "#a", "#c", "#a"}
	if !reflect.DeepEqual(got.Hashtags, want) {
		t.Errorf("Hashtags = %v, want %v (insertion order, duplicates kept)", got.Hashtags, want)
	}
}

func TestParse_MixedLineIsNotHashtagLine(t *testing.T) {
	got := Parse("Title: X\nUse #CRM wisely\n#a #b")

	if got.Content != "Use #CRM wisely" {
		t.Errorf("Content = %q, want the mixed line kept as body", got.Content)
	}
	if !reflect.DeepEqual(got.Hashtags, []string{"#a", "#b"}) {
		t.Errorf("Hashtags = %v, want [#a #b]", got.Hashtags)
	}
}

func TestParse_StripsDuplicatedTitlePrefix(t *testing.T) {
	got := Parse("Title: A Long Enough Title\nA Long Enough Title\nReal first body line\n#a")

	if strings.HasPrefix(got.Content, "A Long Enough Title") {
		t.Errorf("Content = %q, duplicate title prefix not stripped", got.Content)
	}
	if got.Content != "Real first body line" {
		t.Errorf("Content = %q, want %q", got.Content, "Real first body line")
	}
}

func TestParse_LinesAfterHashtagsIgnored(t *testing.T) {
	got := Parse("Title: X\nBody\n#a #b\nTrailing chatter")

	if got.Content != "Body" {
		t.Errorf("Content = %q, want trailing lines after hashtags ignored", got.Content)
	}
}

func TestCompose_PropagatesBackendError(t *testing.T) {
	mock := &mockCompleter{err: errors.New("backend returned status 503")}
	c := New(mock)

	_, err := c.Compose(context.Background(), Request{
		Topic:        "AI in CRM",
		Tone:         "professional and direct",
		TargetLength: 1000,
		CallToAction: "What do you think?",
	})
	if err == nil {
		t.Fatal("Compose swallowed a backend error; it must propagate")
	}
}

func TestCompose_ValidatesInput(t *testing.T) {
	c := New(&mockCompleter{response: "Title: X\nBody\n#a"})

	cases := []Request{
		{Topic: "", Tone: "t", TargetLength: 100, CallToAction: "cta"},
		{Topic: "x", Tone: "t", TargetLength: 0, CallToAction: "cta"},
		{Topic: "x", Tone: "t", TargetLength: 100, CallToAction: ""},
	}
	for i, req := range cases {
		if _, err := c.Compose(context.Background(), req); err == nil {
			t.Errorf("case %d: Compose accepted invalid request %+v", i, req)
		}
	}
}

func TestCompose_PromptEmbedsParameters(t *testing.T) {
	mock := &mockCompleter{response: "Title: X\nBody\n#a"}
	c := New(mock)

	_, err := c.Compose(context.Background(), Request{
		Topic:        "Data storytelling",
		Tone:         "professional and direct",
		TargetLength: 800,
		CallToAction: "Share your view!",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if !strings.Contains(mock.lastSystem, "professional and direct") {
		t.Error("system prompt missing tone")
	}
	if !strings.Contains(mock.lastSystem, "800") {
		t.Error("system prompt missing advisory length")
	}
	if !strings.Contains(mock.lastUser, "Data storytelling") {
		t.Error("user prompt missing topic")
	}
	if !strings.Contains(mock.lastUser, "Share your view!") {
		t.Error("user prompt missing call to action")
	}
}
