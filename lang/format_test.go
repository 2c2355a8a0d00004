package lang

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

const formatSource = `# setup
export PATH = path_prefix(env("PATH"), "/opt/bin")
let cfg = {name: "psh", tags: ["a", 'b'], n: 1.5}
fn greet(who) {
	if who == "" { return nil } else if who == "x" { return 0 }
	print("hi {who}!")
}
for i, t in cfg.tags { greet(t) }
while false { break }
let f = fn(a) { return a * 2 }
({a: 1}).a
$ ls -l "my dir" {cfg.name}.txt | grep -v x && echo $(pwd) > out.log || true
`

func formatString(t *testing.T, src string) string {
	t.Helper()

	prog, err := ParseString(t.Context(), src, WithParseCache(false))
	if err != nil {
		t.Fatalf("parse: %v\n%s", err, src)
	}

	var buf bytes.Buffer
	if err := prog.Format(t.Context(), &buf, 2); err != nil {
		t.Fatal(err)
	}

	return buf.String()
}

func TestFormatIdempotent(t *testing.T) {
	once := formatString(t, formatSource)
	twice := formatString(t, once)

	if once != twice {
		t.Errorf("format not stable:\nfirst:\n%s\nsecond:\n%s", once, twice)
	}
}

func TestFormatLayout(t *testing.T) {
	got := formatString(t, "fn f(a) { if a { return 1 } }\n$ a|b&&c")

	want := `fn f(a) {
  if a {
    return 1
  }
}
$ a | b && c
`
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatCommandWords(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`$ echo "a b" ""`, `$ echo "a b" ""`},
		{`$ echo a\ b`, `$ echo "a b"`},
		{`$ tr a-z A-Z`, `$ tr a-z A-Z`},
		{`$ echo 'x'{1 + 1}"y"`, `$ echo x{(1 + 1)}y`},
		{`$ echo "*"`, `$ echo "*"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := strings.TrimSuffix(formatString(t, tt.input), "\n"); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatJSON(t *testing.T) {
	prog, err := ParseString(t.Context(), "let x = 1 + 2\n$ ls | wc")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := prog.FormatJSON(t.Context(), &buf, 2); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Statements []map[string]any `json:"statements"`
	}

	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if len(doc.Statements) != 2 {
		t.Fatalf("got %d statements", len(doc.Statements))
	}

	if doc.Statements[0]["type"] != "let" || doc.Statements[0]["pos"] != "1:1" {
		t.Errorf("let node: %v", doc.Statements[0])
	}
}

func TestFormatYAML(t *testing.T) {
	prog, err := ParseString(t.Context(), "let x = [1]")
	if err != nil {
		t.Fatal(err)
	}

	var block, flow bytes.Buffer

	if err := prog.FormatYAML(t.Context(), &block, 2); err != nil {
		t.Fatal(err)
	}

	if err := prog.FormatYAML(t.Context(), &flow, 0); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(block.String(), "type: let") {
		t.Errorf("block output:\n%s", block.String())
	}

	if !strings.HasPrefix(flow.String(), "{") {
		t.Errorf("flow output:\n%s", flow.String())
	}
}
