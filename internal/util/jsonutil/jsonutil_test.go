package jsonutil

import "testing"

type probe struct {
	Summary string `json:"summary"`
}

func TestUnmarshalFlex_Plain(t *testing.T) {
	var p probe
	if err := UnmarshalFlex([]byte(`{"summary":"ok"}`), &p); err != nil {
		t.Fatalf("plain JSON: %v", err)
	}
	if p.Summary != "ok" {
		t.Fatalf("summary = %q", p.Summary)
	}
}

func TestUnmarshalFlex_Fenced(t *testing.T) {
	cases := []string{
		"```json\n{\"summary\":\"ok\"}\n```",
		"```\n{\"summary\":\"ok\"}\n```",
		"```json\n{\"summary\":\"ok\"}\n```\n",
		"  ```JSON is below\n{\"summary\":\"ok\"}\n```  ",
	}
	for _, c := range cases {
		var p probe
		if err := UnmarshalFlex([]byte(c), &p); err != nil {
			t.Fatalf("fenced %q: %v", c, err)
		}
		if p.Summary != "ok" {
			t.Fatalf("fenced %q: summary = %q", c, p.Summary)
		}
	}
}

func TestUnmarshalFlex_SurroundingProse(t *testing.T) {
	var p probe
	raw := "Here is the result you asked for:\n{\"summary\":\"ok\"}\nLet me know!"
	if err := UnmarshalFlex([]byte(raw), &p); err != nil {
		t.Fatalf("prose-wrapped: %v", err)
	}
	if p.Summary != "ok" {
		t.Fatalf("summary = %q", p.Summary)
	}
}

func TestUnmarshalFlex_NoJSON(t *testing.T) {
	var p probe
	if err := UnmarshalFlex([]byte("sorry, I cannot help with that"), &p); err == nil {
		t.Fatal("expected an error for non-JSON input")
	}
}

func TestStripFence_NoFence(t *testing.T) {
	got := string(StripFence([]byte("  {\"a\":1}  ")))
	if got != `{"a":1}` {
		t.Fatalf("got %q", got)
	}
}
