package markup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examgen/internal/model"
)

func TestEncode(t *testing.T) {
	got := Encode("What is $a<b$?", AuthoredFirst([]string{"yes & no", "never"}))
	want := "<Q>\n<t>What is $a&lt;b$?</t>\n<CC>yes &amp; no</CC>\n<c>never</c>\n</Q>\n"
	assert.Equal(t, want, got)
}

func TestEncodeHonorsFlagsAndOrder(t *testing.T) {
	got := Encode("Pick", []Entry{{Text: "x"}, {Text: "y", Correct: true}, {Text: "z"}})
	want := "<Q>\n<t>Pick</t>\n<c>x</c>\n<CC>y</CC>\n<c>z</c>\n</Q>\n"
	assert.Equal(t, want, got)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		stem    string
		choices []Entry
	}{
		{"plain", "What is 2+2?", []Entry{{Text: "4", Correct: true}, {Text: "3"}}},
		{"latex", `\textbf{Evaluate} $\frac{1}{2} < x$ \& more`, []Entry{{Text: `$x > 0$`}, {Text: `$x \le 0$`, Correct: true}}},
		{"quotes", `He said "it's" fine`, []Entry{{Text: `'a'`}, {Text: `"b"`}, {Text: "c & d", Correct: true}}},
		{"multiline", "Line one\n\nLine two", []Entry{{Text: "first\nsecond", Correct: true}, {Text: "other"}}},
		{"tabular", `\begin{tabular}{|c|c|}\hline A & B \\ \hline`, []Entry{{Text: "1", Correct: true}, {Text: "2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Decode(Wrap([]string{Encode(tt.stem, tt.choices)}))
			require.NoError(t, err)
			require.Len(t, set.Questions, 1)

			q := set.Questions[0]
			assert.Equal(t, tt.stem, q.Text)
			require.Len(t, q.Choices, len(tt.choices))
			for i, c := range tt.choices {
				assert.Equal(t, model.Choice{Text: c.Text, Correct: c.Correct}, q.Choices[i])
			}
		})
	}
}

func TestDecodeMany(t *testing.T) {
	blocks := []string{
		Encode("Q1", AuthoredFirst([]string{"a", "b"})),
		Encode("Q2", AuthoredFirst([]string{"c", "d", "e"})),
		Encode("Q3", AuthoredFirst([]string{"f", "g"})),
	}
	set, err := Decode(Wrap(blocks))
	require.NoError(t, err)
	require.Len(t, set.Questions, 3)
	require.NoError(t, set.Validate())

	for _, q := range set.Questions {
		idx, err := q.CorrectIndex()
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
	}
	assert.Equal(t, "Q2", set.Questions[1].Text)
	assert.Equal(t, "e", set.Questions[1].Choices[2].Text)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		blob    string
		wantErr error
	}{
		{"unknown tag", "<exam><Q><t>s</t><x>a</x></Q></exam>", ErrUnknownTag},
		{"nested in stem", "<exam><Q><t>s<c>a</c></t></Q></exam>", ErrUnknownTag},
		{"missing stem", "<exam><Q><CC>a</CC></Q></exam>", ErrMissingStem},
		{"duplicate stem", "<exam><Q><t>s</t><t>u</t><CC>a</CC></Q></exam>", ErrDuplicateStem},
		{"stray text", "<exam><Q>oops<t>s</t></Q></exam>", ErrStrayText},
		{"wrong root", "<root><Q><t>s</t></Q></root>", ErrUnknownTag},
		{"empty", "", ErrNoRoot},
		{"two roots", "<exam></exam><exam></exam>", ErrUnknownTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.blob)
			require.ErrorIs(t, err, tt.wantErr)
			var pe *ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestDecodeMalformedNesting(t *testing.T) {
	for _, blob := range []string{
		"<exam><Q><t>s</Q></t></exam>",
		"<exam><Q><t>s</t><CC>a</CC>",
		"<exam><Q><t>a & b</t></Q></exam>",
	} {
		_, err := Decode(blob)
		var pe *ParseError
		require.True(t, errors.As(err, &pe), "blob %q", blob)
	}
}

func TestDecodeKeepsCorrectnessPattern(t *testing.T) {
	blob := Wrap([]string{Encode("Q", []Entry{{Text: "a"}, {Text: "b"}, {Text: "c", Correct: true}})})
	set, err := Decode(blob)
	require.NoError(t, err)
	idx, err := set.Questions[0].CorrectIndex()
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}
