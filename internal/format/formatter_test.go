package format

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "heading gains space after hashes",
			in:   "###Weather in Paris\nSunny today.",
			want: "### Weather in Paris\nSunny today.",
		},
		{
			name: "blank line inserted before heading",
			in:   "Intro text.\n### Details\nMore text.",
			want: "Intro text.\n\n### Details\nMore text.",
		},
		{
			name: "blank runs collapse",
			in:   "one\n\n\n\ntwo",
			want: "one\n\ntwo",
		},
		{
			name: "trailing whitespace trimmed",
			in:   "line one   \nline two\t",
			want: "line one\nline two",
		},
		{
			name: "crlf normalized",
			in:   "a\r\nb",
			want: "a\nb",
		},
		{
			name: "bold chapter citation untouched",
			in:   "**[Chapter XXI - Venice]** is the source.",
			want: "**[Chapter XXI - Venice]** is the source.",
		},
		{
			name: "hash mid-line is not a heading",
			in:   "issue #42 is open",
			want: "issue #42 is open",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := "##Summary\ntext here   \n\n\n\n###Weather\nclear"
	once := Normalize(in)
	twice := Normalize(once)
	if once != twice {
		t.Fatalf("not idempotent: %q vs %q", once, twice)
	}
}
