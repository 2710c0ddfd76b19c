package forum

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/heartofacheron/site/internal/models"
)

// View is which forum screen is showing.
type View string

const (
	ViewCategories View = "categories"
	ViewTopics     View = "topics"
	ViewTopic      View = "topic"
)

// Status is the state of a section while it loads.
type Status string

const (
	StatusLoading Status = "loading"
	StatusContent Status = "content"
	StatusError   Status = "error"
)

// Section is one render of the active screen. Message is the text shown
// for errors; HTML always holds the markup.
type Section struct {
	View    View
	Status  Status
	HTML    template.HTML
	Message string
	Err     error
}

// Renderer receives every section the controller produces.
type Renderer interface {
	Render(s Section)
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(Section)

func (f RenderFunc) Render(s Section) { f(s) }

const (
	msgCategoriesFailed = "Failed to load forum categories. Please try again later."
	msgTopicsFailed     = "Failed to load topics. Please try again later."
	msgTopicFailed      = "Failed to load topic. Please try again later."
)

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("Jan 2, 2006")
	},
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}

var templates = template.Must(template.New("forum").Funcs(funcs).Parse(`
{{define "loading"}}<div class="forum-loading">Loading...</div>{{end}}

{{define "error"}}<div class="forum-error">{{.}}</div>{{end}}

{{define "categories"}}<div class="forum-categories">
{{- range .}}
  <a class="forum-category" data-category-id="{{.CategoryID}}">
    <h3>{{.Name}}</h3>
    <p>{{.Description}}</p>
    <span class="topic-count">{{.TopicCount}} topics</span>
  </a>
{{- else}}
  <p class="forum-empty">No categories yet.</p>
{{- end}}
</div>{{end}}

{{define "topics"}}<div class="forum-topics" data-category-id="{{.CategoryID}}">
  <button class="forum-back" data-view="categories">Back to categories</button>
  {{- if .CanPost}}
  <button class="forum-new-topic" data-category-id="{{.CategoryID}}">New topic</button>
  {{- end}}
{{- range .Topics}}
  <a class="forum-topic" data-topic-id="{{.TopicID}}">
    {{- if .IsPinned}}<span class="badge pinned">Pinned</span>{{end}}
    {{- if .IsLocked}}<span class="badge locked">Locked</span>{{end}}
    <h3>{{.Title}}</h3>
    <span class="author">{{.Name}}</span>
    <span class="created">{{date .CreatedAt}}</span>
    <span class="replies">{{.RepliesCount}} replies</span>
    <span class="views">{{.Views}} views</span>
  </a>
{{- else}}
  <p class="forum-empty">No topics yet. Be the first to start a discussion!</p>
{{- end}}
</div>{{end}}

{{define "topic"}}<div class="forum-topic-view" data-topic-id="{{.Topic.TopicID}}">
  <button class="forum-back" data-view="topics" data-category-id="{{.CategoryID}}">Back to topics</button>
  <article class="forum-topic-body">
    <h2>{{.Topic.Title}}</h2>
    <span class="author">{{.Topic.Name}}</span>
    <span class="created">{{date .Topic.CreatedAt}}</span>
    <div class="content">{{range lines .Topic.Content}}<p>{{.}}</p>{{end}}</div>
  </article>
{{- range .Posts}}
  <article class="forum-post" data-post-id="{{.PostID}}">
    <span class="author">{{.Name}}</span>
    <span class="created">{{date .CreatedAt}}</span>
    {{- if .EditedAt}}<span class="edited">(edited)</span>{{end}}
    <div class="content">{{range lines .Content}}<p>{{.}}</p>{{end}}</div>
  </article>
{{- end}}
{{- if .Topic.IsLocked}}
  <p class="forum-locked">This topic is locked.</p>
{{- else if .CanPost}}
  <form class="forum-reply"><textarea name="content"></textarea><button type="submit">Post reply</button></form>
{{- else}}
  <p class="forum-login">Log in to reply.</p>
{{- end}}
</div>{{end}}
`))

type topicsPage struct {
	CategoryID string
	CanPost    bool
	Topics     []models.ForumTopic
}

type topicPage struct {
	CategoryID string
	CanPost    bool
	Topic      *models.ForumTopic
	Posts      []models.ForumPost
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
