package stats

import "testing"

func TestQueryString(t *testing.T) {
	q := NewQuery().Repo("rust-lang", "rust").Is("pr").Is("merged")
	if got, want := q.String(), "repo:rust-lang/rust is:pr is:merged"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestQueryLabelQuoting(t *testing.T) {
	q := NewQuery().Label("good first issue")
	if got, want := q.String(), `label:"good first issue"`; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestQueryEncode(t *testing.T) {
	q := NewQuery().Repo("octocat", "hello-world").Is("issue").Is("open")
	if got, want := q.Encode(), "repo%3Aoctocat%2Fhello-world+is%3Aissue+is%3Aopen"; got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestQueryAuthor(t *testing.T) {
	q := NewQuery().Repo("o", "r").Author("alice")
	if got, want := q.String(), "repo:o/r author:alice"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
