package expand

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tkdue/magicsearch/internal/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	name  string
	text  string
	err   error
	calls int
	last  Prompt
}

func (s *stubCompleter) Name() string { return s.name }

func (s *stubCompleter) Complete(_ context.Context, p Prompt) (string, error) {
	s.calls++
	s.last = p
	return s.text, s.err
}

var ctx = context.Background()

func TestExpandPrimarySucceeds(t *testing.T) {
	a := &stubCompleter{name: "a", text: "golden hour, ocean waves , , tropical shore"}
	b := &stubCompleter{name: "b", text: "never"}

	set := New(nil, a, b).Expand(ctx, "  sunset beach ", "")

	assert.Equal(t, []string{"sunset beach", "golden hour", "ocean waves", "tropical shore"}, set)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 0, b.calls)
}

func TestExpandFallsBackToSecond(t *testing.T) {
	a := &stubCompleter{name: "a", err: errors.New("http 500")}
	b := &stubCompleter{name: "b", text: "Sunset Beach, dusk"}

	set := New(nil, a, b).Expand(ctx, "sunset beach", "")

	assert.Equal(t, []string{"sunset beach", "dusk"}, set)
	assert.Equal(t, 1, b.calls)
}

func TestExpandBlankAnswerCountsAsFailure(t *testing.T) {
	a := &stubCompleter{name: "a", text: " , ,"}
	b := &stubCompleter{name: "b", text: "dusk"}

	set := New(nil, a, b).Expand(ctx, "sunset", "")
	assert.Equal(t, []string{"sunset", "dusk"}, set)
}

func TestExpandAllFailUsesLocalFallback(t *testing.T) {
	a := &stubCompleter{name: "a", err: errors.New("timeout")}
	b := &stubCompleter{name: "b", err: errors.New("401")}

	set := New(nil, a, b).Expand(ctx, "sunset beach party", "")

	assert.Equal(t, []string{"sunset beach party", "sunset", "sunset beach", "sunset beach party photography"}, set)
}

func TestExpandProseAcceptedAndCapped(t *testing.T) {
	a := &stubCompleter{name: "a", text: "Sure! Here are some terms: dusk, dawn, twilight, afterglow, horizon, seascape, coast"}

	set := New(nil, a).Expand(ctx, "sunset", "")

	require.Len(t, set, MaxPhrases)
	assert.Equal(t, "sunset", set[0])
	assert.Equal(t, "Sure! Here are some terms: dusk", set[1])
}

func TestExpandPassesContext(t *testing.T) {
	a := &stubCompleter{name: "a", text: "x"}
	New(nil, a).Expand(ctx, "logo", "brand-friendly colors")
	assert.Contains(t, a.last.User, `"logo"`)
	assert.Contains(t, a.last.User, "Additional context: brand-friendly colors")
	assert.Contains(t, a.last.System, "comma-separated")
}

func TestExpandEmpty(t *testing.T) {
	assert.Empty(t, New(nil).Expand(ctx, "   ", ""))
}

func TestLocalFallback(t *testing.T) {
	cases := []struct {
		phrase string
		want   []string
	}{
		{"sunset", []string{"sunset", "sunset photography", "sunset images"}},
		{"sunset beach", []string{"sunset beach", "sunset", "sunset beach photography", "sunset beach images"}},
		{"  a   b  c ", []string{"a   b  c", "a", "a b", "a   b  c photography"}},
	}
	for _, tc := range cases {
		got := LocalFallback(tc.phrase)
		assert.Equal(t, tc.want, got, tc.phrase)
		assert.GreaterOrEqual(t, len(got), 1)
		assert.LessOrEqual(t, len(got), 4)
		for _, p := range got {
			assert.NotEmpty(t, p)
		}
	}
	assert.Empty(t, LocalFallback(""))
}

func TestParseTerms(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d"}, ParseTerms(" a,b c ,, d,"))
	assert.Empty(t, ParseTerms(""))
}

func TestOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk", r.Header.Get("Authorization"))
		var body openAIChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" dusk, dawn "}}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI(fetch.New(nil, nil), OpenAIOptions{APIKey: "sk", BaseUrl: srv.URL})
	text, err := o.Complete(ctx, NewPrompt("sunset", ""))
	require.NoError(t, err)
	assert.Equal(t, "dusk, dawn", text)
}

func TestOpenAIErrors(t *testing.T) {
	_, err := NewOpenAI(fetch.New(nil, nil), OpenAIOptions{}).Complete(ctx, NewPrompt("x", ""))
	assert.ErrorIs(t, err, errMissingKey)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()
	_, err = NewOpenAI(fetch.New(nil, nil), OpenAIOptions{APIKey: "sk", BaseUrl: srv.URL}).Complete(ctx, NewPrompt("x", ""))
	assert.ErrorIs(t, err, errEmptyResponse)
}

func TestAnthropicComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "ak", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		var body anthropicRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, systemInstruction, body.System)
		w.Write([]byte(`{"content":[{"type":"text","text":"dusk, dawn"}]}`))
	}))
	defer srv.Close()

	a := NewAnthropic(fetch.New(nil, nil), AnthropicOptions{APIKey: "ak", BaseUrl: srv.URL})
	text, err := a.Complete(ctx, NewPrompt("sunset", ""))
	require.NoError(t, err)
	assert.Equal(t, "dusk, dawn", text)
}

func TestCascadeOverHttp(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer broken.Close()
	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"dusk"}]}`))
	}))
	defer working.Close()

	client := fetch.New(nil, nil)
	e := New(nil,
		NewOpenAI(client, OpenAIOptions{APIKey: "sk", BaseUrl: broken.URL}),
		NewAnthropic(client, AnthropicOptions{APIKey: "ak", BaseUrl: working.URL}),
	)
	assert.Equal(t, []string{"sunset", "dusk"}, e.Expand(ctx, "sunset", ""))
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(ctx, GeminiOptions{})
	assert.Error(t, err)
}
