package client

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is a novelist resource type.
type Kind string

const (
	KindStory          Kind = "story"
	KindStoryOutline   Kind = "story-outline"
	KindChapterOutline Kind = "chapter-outline"
	KindSceneOutline   Kind = "scene-outline"
	KindScene          Kind = "scene"
	KindQuery          Kind = "query"
)

// Kinds returns every resource kind, outermost first.
func Kinds() []Kind {
	return []Kind{KindStory, KindStoryOutline, KindChapterOutline, KindSceneOutline, KindScene, KindQuery}
}

// ParseKind accepts a kind in either its hyphenated or underscored form.
func ParseKind(s string) (Kind, error) {
	normalized := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	for _, k := range Kinds() {
		if k == normalized {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// ParseID parses a resource id, which is a positive integer.
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: expected a positive integer", s)
	}
	return id, nil
}

// Generative reports whether the server can generate content for k.
// Queries are records of past generator calls and are read-only.
func (k Kind) Generative() bool {
	return k != KindQuery
}

// Label is the human-readable name of k, e.g. "story outline".
func (k Kind) Label() string {
	return strings.ReplaceAll(string(k), "-", " ")
}

// dataSegment is the path segment under /apiv1/data.
func (k Kind) dataSegment() string {
	return string(k)
}

// generatorSegment is the path segment under /apiv1/generator. The generator
// routes use underscores where the data routes use hyphens.
func (k Kind) generatorSegment() string {
	return strings.ReplaceAll(string(k), "-", "_")
}
