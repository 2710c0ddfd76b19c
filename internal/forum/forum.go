// Package forum drives the forum page: the categories, topics and topic
// screens, posting, and the back navigation between them. Data comes from
// the mock forum while developer mode is on and from the backend otherwise;
// the choice is made on every call.
package forum

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/heartofacheron/site/internal/devmode"
	"github.com/heartofacheron/site/internal/logging"
	"github.com/heartofacheron/site/internal/mock"
	"github.com/heartofacheron/site/internal/models"
)

var (
	ErrMissingFields = errors.New("please fill in all fields")
	ErrLoginRequired = errors.New("you must be logged in to post")
	ErrNoTopic       = errors.New("no topic is open")
	ErrTopicLocked   = errors.New("topic is locked")
)

// Controller is the forum page. It is driven from one goroutine.
type Controller struct {
	flag    *devmode.Flag
	mock    mockSource
	remote  remoteSource
	session Session
	render  Renderer
	log     logging.Logger

	view       View
	categoryID string
	categories []models.ForumCategory
	topics     []models.ForumTopic
	topic      *models.ForumTopic
	posts      []models.ForumPost
}

type Option func(*Controller)

func WithLogger(log logging.Logger) Option { return func(c *Controller) { c.log = log } }

func NewController(flag *devmode.Flag, mf *mock.Forum, remote Remote, session Session, render Renderer, opts ...Option) *Controller {
	c := &Controller{
		flag:    flag,
		mock:    mockSource{forum: mf, session: session},
		remote:  remoteSource{remote: remote, session: session},
		session: session,
		render:  render,
		log:     logging.Discard(),
		view:    ViewCategories,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) source(ctx context.Context) source {
	if c.flag.IsEnabled(ctx) {
		return c.mock
	}
	return c.remote
}

func (c *Controller) View() View { return c.view }

// CategoryID is the category the topics screen shows, or the one the open
// topic was reached from.
func (c *Controller) CategoryID() string { return c.categoryID }

// Categories and Topics are the lists last loaded by their screens.
func (c *Controller) Categories() []models.ForumCategory { return c.categories }

func (c *Controller) Topics() []models.ForumTopic { return c.topics }

func (c *Controller) Topic() *models.ForumTopic { return c.topic }

func (c *Controller) Posts() []models.ForumPost { return c.posts }

// CanPost reports whether the new-topic and reply controls are offered.
func (c *Controller) CanPost(ctx context.Context) bool {
	return c.flag.IsEnabled(ctx) || c.session.IsAuthenticated()
}

// ReplyVisible reports whether the open topic shows the reply form.
func (c *Controller) ReplyVisible(ctx context.Context) bool {
	return c.topic != nil && !c.topic.IsLocked() && c.CanPost(ctx)
}

func (c *Controller) fail(ctx context.Context, view View, msg string, err error) error {
	c.log.Error(ctx, "forum load failed", "view", view, "err", err)
	c.render.Render(Section{View: view, Status: StatusError, HTML: mustHTML("error", msg), Message: msg, Err: err})
	return fmt.Errorf("load %s: %w", view, err)
}

func (c *Controller) content(ctx context.Context, view View, name string, data any) error {
	html, err := execute(name, data)
	if err != nil {
		return c.fail(ctx, view, failMessage(view), err)
	}
	c.render.Render(Section{View: view, Status: StatusContent, HTML: html})
	return nil
}

func (c *Controller) loading(view View) {
	c.view = view
	c.render.Render(Section{View: view, Status: StatusLoading, HTML: mustHTML("loading", nil)})
}

func failMessage(v View) string {
	switch v {
	case ViewTopics:
		return msgTopicsFailed
	case ViewTopic:
		return msgTopicFailed
	}
	return msgCategoriesFailed
}

// mustHTML renders templates that cannot fail on the data they are given.
func mustHTML(name string, data any) template.HTML {
	html, err := execute(name, data)
	if err != nil {
		panic(err)
	}
	return html
}

// ShowCategories enters the categories screen.
func (c *Controller) ShowCategories(ctx context.Context) error {
	c.loading(ViewCategories)
	c.topic, c.posts = nil, nil

	cats, err := c.source(ctx).categories(ctx)
	if err != nil {
		return c.fail(ctx, ViewCategories, msgCategoriesFailed, err)
	}
	c.categories = cats
	return c.content(ctx, ViewCategories, "categories", cats)
}

// ShowTopics enters the topics screen for categoryID.
func (c *Controller) ShowTopics(ctx context.Context, categoryID string) error {
	c.loading(ViewTopics)
	c.categoryID = categoryID
	c.topic, c.posts = nil, nil

	topics, err := c.source(ctx).topics(ctx, categoryID)
	if err != nil {
		return c.fail(ctx, ViewTopics, msgTopicsFailed, err)
	}
	c.topics = topics
	return c.content(ctx, ViewTopics, "topics", topicsPage{
		CategoryID: categoryID,
		CanPost:    c.CanPost(ctx),
		Topics:     topics,
	})
}

// ShowTopic enters the topic screen. categoryID is where the reader came
// from and is where Back returns to; it may be empty.
func (c *Controller) ShowTopic(ctx context.Context, categoryID, topicID string) error {
	c.loading(ViewTopic)
	c.categoryID = categoryID

	topic, posts, err := c.source(ctx).topic(ctx, categoryID, topicID)
	if err == nil && topic == nil {
		err = mock.ErrNotFound
	}
	if err != nil {
		c.topic, c.posts = nil, nil
		return c.fail(ctx, ViewTopic, msgTopicFailed, err)
	}
	if c.categoryID == "" {
		c.categoryID = topic.CategoryID
	}
	c.topic, c.posts = topic, posts
	return c.content(ctx, ViewTopic, "topic", topicPage{
		CategoryID: c.categoryID,
		CanPost:    c.CanPost(ctx),
		Topic:      topic,
		Posts:      posts,
	})
}

// Back returns to the parent screen with the parameter it was opened with.
func (c *Controller) Back(ctx context.Context) error {
	switch c.view {
	case ViewTopic:
		return c.ShowTopics(ctx, c.categoryID)
	case ViewTopics:
		return c.ShowCategories(ctx)
	}
	return nil
}

// Reload re-enters the current screen.
func (c *Controller) Reload(ctx context.Context) error {
	switch c.view {
	case ViewTopic:
		if c.topic == nil {
			return ErrNoTopic
		}
		return c.ShowTopic(ctx, c.categoryID, c.topic.TopicID)
	case ViewTopics:
		return c.ShowTopics(ctx, c.categoryID)
	}
	return c.ShowCategories(ctx)
}

// NewTopic creates a topic in categoryID and opens it.
func (c *Controller) NewTopic(ctx context.Context, categoryID, title, content string) (*models.ForumTopic, error) {
	req := models.CreateTopicRequest{
		CategoryID: strings.TrimSpace(categoryID),
		Title:      strings.TrimSpace(title),
		Content:    strings.TrimSpace(content),
	}
	if req.CategoryID == "" || req.Title == "" || req.Content == "" {
		return nil, ErrMissingFields
	}
	if !c.CanPost(ctx) {
		return nil, ErrLoginRequired
	}

	topic, err := c.source(ctx).createTopic(ctx, req)
	if err != nil {
		c.log.Error(ctx, "create topic failed", "category_id", req.CategoryID, "err", err)
		return nil, fmt.Errorf("create topic: %w", err)
	}
	if topic == nil {
		return nil, fmt.Errorf("create topic: %w", mock.ErrNotFound)
	}
	c.log.Info(ctx, "topic created", "topic_id", topic.TopicID)
	if err := c.ShowTopic(ctx, req.CategoryID, topic.TopicID); err != nil {
		return topic, err
	}
	return topic, nil
}

// Reply posts content to the open topic and reloads it.
func (c *Controller) Reply(ctx context.Context, content string) (*models.ForumPost, error) {
	if c.topic == nil {
		return nil, ErrNoTopic
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrMissingFields
	}
	if !c.CanPost(ctx) {
		return nil, ErrLoginRequired
	}
	if c.topic.IsLocked() {
		return nil, ErrTopicLocked
	}

	post, err := c.source(ctx).createPost(ctx, models.CreatePostRequest{
		TopicID:    c.topic.TopicID,
		CategoryID: c.categoryID,
		Content:    content,
	})
	if err != nil {
		c.log.Error(ctx, "create post failed", "topic_id", c.topic.TopicID, "err", err)
		return nil, fmt.Errorf("create post: %w", err)
	}
	if err := c.Reload(ctx); err != nil {
		return post, err
	}
	return post, nil
}

// EditPost changes a reply in the open topic. The mock forum does not
// support it.
func (c *Controller) EditPost(ctx context.Context, postID, content string) error {
	if c.topic == nil {
		return ErrNoTopic
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrMissingFields
	}
	if err := c.source(ctx).editPost(ctx, postID, content); err != nil {
		return fmt.Errorf("edit post: %w", err)
	}
	return c.Reload(ctx)
}

// DeletePost removes a reply from the open topic. The mock forum does not
// support it.
func (c *Controller) DeletePost(ctx context.Context, postID string) error {
	if c.topic == nil {
		return ErrNoTopic
	}
	if err := c.source(ctx).deletePost(ctx, postID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return c.Reload(ctx)
}
