package forum

import (
	"context"
	"errors"

	"github.com/heartofacheron/site/internal/api"
	"github.com/heartofacheron/site/internal/mock"
	"github.com/heartofacheron/site/internal/models"
)

// Remote is the backend's forum API.
type Remote interface {
	Categories(ctx context.Context) ([]models.ForumCategory, error)
	Topics(ctx context.Context, token, categoryID string) ([]models.ForumTopic, error)
	Topic(ctx context.Context, token, topicID string) (*models.ForumTopic, []models.ForumPost, error)
	CreateTopic(ctx context.Context, token string, req models.CreateTopicRequest) (*models.ForumTopic, error)
	CreatePost(ctx context.Context, token string, req models.CreatePostRequest) (*models.ForumPost, error)
	EditPost(ctx context.Context, token, postID, content string) error
	DeletePost(ctx context.Context, token, postID string) error
}

var _ Remote = (*api.Client)(nil)

// Session is the signed-in state the forum needs.
type Session interface {
	CurrentUser() *models.User
	Token(ctx context.Context) string
	IsAuthenticated() bool
}

// source is one place forum data can come from.
type source interface {
	categories(ctx context.Context) ([]models.ForumCategory, error)
	topics(ctx context.Context, categoryID string) ([]models.ForumTopic, error)
	topic(ctx context.Context, categoryID, topicID string) (*models.ForumTopic, []models.ForumPost, error)
	createTopic(ctx context.Context, req models.CreateTopicRequest) (*models.ForumTopic, error)
	createPost(ctx context.Context, req models.CreatePostRequest) (*models.ForumPost, error)
	editPost(ctx context.Context, postID, content string) error
	deletePost(ctx context.Context, postID string) error
}

type mockSource struct {
	forum   *mock.Forum
	session Session
}

func (s mockSource) userID() string {
	if u := s.session.CurrentUser(); u != nil {
		return u.UserID
	}
	return ""
}

func (s mockSource) categories(context.Context) ([]models.ForumCategory, error) {
	return s.forum.Categories(), nil
}

func (s mockSource) topics(ctx context.Context, categoryID string) ([]models.ForumTopic, error) {
	return s.forum.Topics(ctx, categoryID)
}

// topic resolves the category first when the caller does not know it.
func (s mockSource) topic(ctx context.Context, categoryID, topicID string) (*models.ForumTopic, []models.ForumPost, error) {
	if categoryID == "" {
		t, err := s.forum.FindTopic(ctx, topicID)
		if err != nil && !errors.Is(err, mock.ErrNotFound) {
			return nil, nil, err
		}
		categoryID = t.CategoryID
	}
	t, posts, err := s.forum.ViewTopic(ctx, categoryID, topicID)
	if err != nil {
		return nil, nil, err
	}
	return &t, posts, nil
}

func (s mockSource) createTopic(ctx context.Context, req models.CreateTopicRequest) (*models.ForumTopic, error) {
	t, err := s.forum.AddTopic(ctx, s.userID(), req)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s mockSource) createPost(ctx context.Context, req models.CreatePostRequest) (*models.ForumPost, error) {
	p, err := s.forum.AddPost(ctx, s.userID(), req)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s mockSource) editPost(ctx context.Context, postID, content string) error {
	return s.forum.EditPost(ctx, postID, content)
}

func (s mockSource) deletePost(ctx context.Context, postID string) error {
	return s.forum.DeletePost(ctx, postID)
}

type remoteSource struct {
	remote  Remote
	session Session
}

func (s remoteSource) categories(ctx context.Context) ([]models.ForumCategory, error) {
	return s.remote.Categories(ctx)
}

func (s remoteSource) topics(ctx context.Context, categoryID string) ([]models.ForumTopic, error) {
	return s.remote.Topics(ctx, s.session.Token(ctx), categoryID)
}

func (s remoteSource) topic(ctx context.Context, _, topicID string) (*models.ForumTopic, []models.ForumPost, error) {
	return s.remote.Topic(ctx, s.session.Token(ctx), topicID)
}

func (s remoteSource) createTopic(ctx context.Context, req models.CreateTopicRequest) (*models.ForumTopic, error) {
	return s.remote.CreateTopic(ctx, s.session.Token(ctx), req)
}

func (s remoteSource) createPost(ctx context.Context, req models.CreatePostRequest) (*models.ForumPost, error) {
	return s.remote.CreatePost(ctx, s.session.Token(ctx), req)
}

func (s remoteSource) editPost(ctx context.Context, postID, content string) error {
	return s.remote.EditPost(ctx, s.session.Token(ctx), postID, content)
}

func (s remoteSource) deletePost(ctx context.Context, postID string) error {
	return s.remote.DeletePost(ctx, s.session.Token(ctx), postID)
}
