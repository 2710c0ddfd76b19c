package api

import (
	"context"
	"net/http"

	"github.com/heartofacheron/site/internal/models"
)

// Categories calls GET /api/forum/categories.
func (c *Client) Categories(ctx context.Context) ([]models.ForumCategory, error) {
	var out models.CategoriesResponse
	if err := c.do(ctx, http.MethodGet, "/api/forum/categories", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// Topics calls GET /api/forum/topics/{categoryId}. token may be empty.
func (c *Client) Topics(ctx context.Context, token, categoryID string) ([]models.ForumTopic, error) {
	var out models.TopicsResponse
	if err := c.do(ctx, http.MethodGet, "/api/forum/topics/"+escape(categoryID), token, nil, &out); err != nil {
		return nil, err
	}
	return out.Topics, nil
}

// Topic calls GET /api/forum/topic/{topicId}. token may be empty.
func (c *Client) Topic(ctx context.Context, token, topicID string) (*models.ForumTopic, []models.ForumPost, error) {
	var out models.TopicResponse
	if err := c.do(ctx, http.MethodGet, "/api/forum/topic/"+escape(topicID), token, nil, &out); err != nil {
		return nil, nil, err
	}
	return out.Topic, out.Posts, nil
}

// CreateTopic calls POST /api/forum/topic.
func (c *Client) CreateTopic(ctx context.Context, token string, req models.CreateTopicRequest) (*models.ForumTopic, error) {
	var out struct {
		Topic *models.ForumTopic `json:"topic"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/forum/topic", token, req, &out); err != nil {
		return nil, err
	}
	return out.Topic, nil
}

// CreatePost calls POST /api/forum/post.
func (c *Client) CreatePost(ctx context.Context, token string, req models.CreatePostRequest) (*models.ForumPost, error) {
	var out models.PostResponse
	if err := c.do(ctx, http.MethodPost, "/api/forum/post", token, req, &out); err != nil {
		return nil, err
	}
	return out.Post, nil
}

// EditPost calls PUT /api/forum/post/{postId}.
func (c *Client) EditPost(ctx context.Context, token, postID, content string) error {
	return c.do(ctx, http.MethodPut, "/api/forum/post/"+escape(postID), token,
		models.EditPostRequest{Content: content}, nil)
}

// DeletePost calls DELETE /api/forum/post/{postId}.
func (c *Client) DeletePost(ctx context.Context, token, postID string) error {
	return c.do(ctx, http.MethodDelete, "/api/forum/post/"+escape(postID), token, nil, nil)
}
