package extract

import (
	"strings"
	"testing"
)

func TestResolveTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "h1 wins",
			html: `<html><head><title>Page Title</title></head><body><h1>Heading Title</h1></body></html>`,
			want: "Heading Title",
		},
		{
			name: "og title when no h1",
			html: `<html><head><meta property="og:title" content="OG Title"><title>Page Title</title></head><body></body></html>`,
			want: "OG Title",
		},
		{
			name: "twitter title when no h1 or og",
			html: `<html><head><meta name="twitter:title" content="Tweet Title"><title>Page Title</title></head><body></body></html>`,
			want: "Tweet Title",
		},
		{
			name: "title tag as last structural resort",
			html: `<html><head><title>Page Title</title></head><body><p>text</p></body></html>`,
			want: "Page Title",
		},
		{
			name: "literal fallback",
			html: `<html><body><p>no titles anywhere</p></body></html>`,
			want: "Untitled Article",
		},
		{
			name: "whitespace-only h1 is skipped",
			html: `<html><head><title>Real</title></head><body><h1>   </h1></body></html>`,
			want: "Real",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveTitle(tt.html); got != tt.want {
				t.Errorf("ResolveTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocateBody(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		wantPart    string
		wantMatched bool
	}{
		{
			name:        "article element",
			html:        `<html><body><div>nav</div><article><p>the story</p></article></body></html>`,
			wantPart:    "<article>",
			wantMatched: true,
		},
		{
			name:        "role attribute",
			html:        `<html><body><div role="article"><p>roled</p></div></body></html>`,
			wantPart:    `role="article"`,
			wantMatched: true,
		},
		{
			name:        "class heuristic",
			html:        `<html><body><div class="postArticle-content"><p>classed</p></div></body></html>`,
			wantPart:    "postArticle-content",
			wantMatched: true,
		},
		{
			name:        "story class matches too",
			html:        `<html><body><div class="story-body"><p>story text</p></div></body></html>`,
			wantPart:    "story-body",
			wantMatched: true,
		},
		{
			name:        "body fallback",
			html:        `<html><body><div class="sidebar"><p>plain page</p></div></body></html>`,
			wantPart:    "plain page",
			wantMatched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := LocateBody(tt.html)
			if matched != tt.wantMatched {
				t.Errorf("LocateBody() matched = %v, want %v", matched, tt.wantMatched)
			}
			if !strings.Contains(got, tt.wantPart) {
				t.Errorf("LocateBody() = %q, want it to contain %q", got, tt.wantPart)
			}
		})
	}
}

func TestLocateBody_ArticleBeatsClassMatch(t *testing.T) {
	html := `<html><body><div class="post-wrap"><p>wrapper</p></div><article><p>real body</p></article></body></html>`
	got, matched := LocateBody(html)
	if !matched {
		t.Fatal("expected a structural match")
	}
	if !strings.Contains(got, "real body") || strings.Contains(got, "wrapper") {
		t.Errorf("expected <article> to win over the class heuristic, got %q", got)
	}
}

func TestApplySelector(t *testing.T) {
	html := `<div><p class="keep">yes</p><p class="drop">no</p></div>`

	got, err := ApplySelector(html, "p.keep")
	if err != nil {
		t.Fatalf("ApplySelector() error: %v", err)
	}
	if !strings.Contains(got, "yes") || strings.Contains(got, "no") {
		t.Errorf("ApplySelector() = %q, want only the matching element", got)
	}
}

func TestApplySelector_NoMatchKeepsInput(t *testing.T) {
	html := `<div><p>content</p></div>`
	got, err := ApplySelector(html, ".missing")
	if err != nil {
		t.Fatalf("ApplySelector() error: %v", err)
	}
	if got != html {
		t.Errorf("ApplySelector() = %q, want original input on zero matches", got)
	}
}

func TestApplySelector_InvalidSelector(t *testing.T) {
	if _, err := ApplySelector("<p>x</p>", "p["); err == nil {
		t.Error("expected an error for an unparsable selector")
	}
}
