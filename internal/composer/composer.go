// Package composer turns a chosen topic plus style parameters into a
// structured LinkedIn post, parsing the backend's semi-structured text output
// into title, content and hashtags.
package composer

import (
	"context"
	"fmt"
	"strings"

	"github.com/muriloWeber/linkedin-content-agent/internal/llm"
)

// DefaultHashtags is substituted when the backend output carries no hashtag
// line at all.
var DefaultHashtags = []string{"#DataScience", "#AI", "#CRM", "#Automation", "#Consulting", "#Tech"}

// DefaultTitle is the placeholder used when the output has no title marker.
const DefaultTitle = "Untitled Post"

const titleMarker = "title:"

// Request carries the style parameters for one post.
type Request struct {
	Topic        string
	Tone         string
	TargetLength int // advisory character count, embedded in the prompt only
	CallToAction string
}

// Draft is the structured result of composing a post.
type Draft struct {
	Title    string
	Content  string
	Hashtags []string
}

const composeSystemPrompt = `You are an expert in Data Science, CRM and Artificial Intelligence, working as a Senior Implementation Analyst.
Your communication style is %s, like an experienced consultant.
Your goal is to write engaging and informative LinkedIn posts focused on actionable insights and trends in your areas of expertise.
Posts must have a consulting tone, offering tips, analysis and practical applications that add value for business professionals, especially on how data science and AI can optimize CRM and positively impact revenue and profit.
Include emojis relevant to the context and 5 to 7 popular hashtags at the end, related to the content.
The post should be approximately %d characters long.
Format the output as "Title: [Your Title Here]", followed by the post content, then the hashtags.`

const composeUserPrompt = `Write a LinkedIn post about the topic: %q.
Include a catchy title.
The post must end with this call to action: %q.`

// Composer builds prompts and parses backend output into drafts.
type Composer struct {
	backend llm.Completer
}

// New creates a Composer on top of the given backend.
func New(backend llm.Completer) *Composer {
	return &Composer{backend: backend}
}

// Compose generates a draft for the request. Backend errors propagate to the
// caller; the retry controller decides what to do with them. Parsing never
// fails: missing markers degrade to placeholders and default hashtags.
func (c *Composer) Compose(ctx context.Context, req Request) (Draft, error) {
	if req.Topic == "" {
		return Draft{}, fmt.Errorf("topic must not be empty")
	}
	if req.CallToAction == "" {
		return Draft{}, fmt.Errorf("call to action must not be empty")
	}
	if req.TargetLength <= 0 {
		return Draft{}, fmt.Errorf("target length must be positive, got %d", req.TargetLength)
	}

	system := fmt.Sprintf(composeSystemPrompt, req.Tone, req.TargetLength)
	user := fmt.Sprintf(composeUserPrompt, req.Topic, req.CallToAction)

	raw, err := c.backend.Complete(ctx, system, user)
	if err != nil {
		return Draft{}, fmt.Errorf("composing post: %w", err)
	}
	return Parse(raw), nil
}

// Parse extracts title, content and hashtags from raw backend output.
//
// Rules: the first line starting with "Title:" (case-insensitive) sets the
// title; any line where every whitespace-delimited token starts with '#' is a
// hashtag line and all its tokens are collected in order, duplicates
// included; non-empty lines between the title line and the first hashtag line
// form the content; no hashtag line at all substitutes the fixed default set;
// a content that opens by repeating the title loses that duplicate prefix.
func Parse(raw string) Draft {
	title := DefaultTitle
	var contentLines []string
	var hashtags []string

	foundTitle := false
	foundHashtags := false

	for _, line := range strings.Split(raw, "\n") {
		stripped := strings.TrimSpace(line)
		switch {
		case !foundTitle && strings.HasPrefix(strings.ToLower(stripped), titleMarker):
			title = strings.TrimSpace(stripped[len(titleMarker):])
			foundTitle = true
		case isHashtagLine(stripped):
			hashtags = append(hashtags, strings.Fields(stripped)...)
			foundHashtags = true
		case foundTitle && !foundHashtags && stripped != "":
			contentLines = append(contentLines, stripped)
		}
	}

	content := strings.Join(contentLines, "\n")

	if len(hashtags) == 0 {
		hashtags = append([]string(nil), DefaultHashtags...)
	}

	// The backend sometimes repeats the title as the opening of the body.
	if len(title) > 5 && strings.HasPrefix(content, title) {
		content = strings.TrimSpace(strings.TrimPrefix(content, title))
	}

	return Draft{Title: title, Content: content, Hashtags: hashtags}
}

// isHashtagLine reports whether every whitespace-delimited token on the line
// starts with '#'. Empty lines do not qualify.
func isHashtagLine(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !strings.HasPrefix(f, "#") {
			return false
		}
	}
	return true
}
