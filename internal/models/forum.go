package models

import "time"

// ForumCategory groups topics.
type ForumCategory struct {
	CategoryID   string `json:"category_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
	TopicCount   int    `json:"topic_count"`
}

// Author is the denormalized author block carried by topics and posts.
type Author struct {
	CharacterName string `json:"character_name,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Name is the name shown next to a topic or post.
func (a Author) Name() string {
	if a.CharacterName != "" {
		return a.CharacterName
	}
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return "Unknown"
}

// ForumTopic is a thread inside a category. Pinned and Locked are 0 or 1.
type ForumTopic struct {
	TopicID      string     `json:"topic_id"`
	CategoryID   string     `json:"category_id"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Views        int        `json:"views"`
	RepliesCount int        `json:"replies_count"`
	LastReplyAt  *time.Time `json:"last_reply_at,omitempty"`
	Pinned       int        `json:"pinned"`
	Locked       int        `json:"locked"`
	CreatedAt    time.Time  `json:"created_at"`
	Author
}

func (t ForumTopic) IsPinned() bool { return t.Pinned == 1 }
func (t ForumTopic) IsLocked() bool { return t.Locked == 1 }

// ForumPost is a reply inside a topic.
type ForumPost struct {
	PostID    string     `json:"post_id"`
	TopicID   string     `json:"topic_id"`
	UserID    string     `json:"user_id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at"`
	Author
}

// CreateTopicRequest is the JSON body for POST /api/forum/topic.
type CreateTopicRequest struct {
	CategoryID string `json:"category_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

// CreatePostRequest is the JSON body for POST /api/forum/post. CategoryID is
// only read by the mock forum, to find the topic whose counters it bumps.
type CreatePostRequest struct {
	TopicID    string `json:"topic_id"`
	CategoryID string `json:"category_id,omitempty"`
	Content    string `json:"content"`
}

// EditPostRequest is the JSON body for PUT /api/forum/post/{postId}.
type EditPostRequest struct {
	Content string `json:"content"`
}

type CategoriesResponse struct {
	Success    bool            `json:"success"`
	Categories []ForumCategory `json:"categories"`
}

type TopicsResponse struct {
	Success bool         `json:"success"`
	Topics  []ForumTopic `json:"topics"`
}

type TopicResponse struct {
	Success bool        `json:"success"`
	Topic   *ForumTopic `json:"topic"`
	Posts   []ForumPost `json:"posts"`
}

type PostResponse struct {
	Success bool       `json:"success"`
	Post    *ForumPost `json:"post"`
}
