package mock

import (
	"context"
	"strings"
	"time"

	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/store"
)

// DefaultCategory is the partition used when a caller names none.
const DefaultCategory = "general"

// SeededTopicID is the only topic that gets sample posts.
const SeededTopicID = "mock_topic_001"

// Forum keeps topics partitioned per category and posts per topic.
type Forum struct {
	st *state
}

var devAuthor = models.Author{
	CharacterName: DevCharacterName,
	DisplayName:   DevDisplayName,
	Email:         DevEmail,
}

// Categories returns the fixed category list. Each call builds a new slice.
func (f *Forum) Categories() []models.ForumCategory {
	return []models.ForumCategory{
		{CategoryID: "general", Name: "General Discussion", Description: "General topics and discussions about the server", DisplayOrder: 1, TopicCount: 12},
		{CategoryID: "announcements", Name: "Announcements", Description: "Server announcements and news", DisplayOrder: 2, TopicCount: 5},
		{CategoryID: "support", Name: "Support", Description: "Get help with server-related issues", DisplayOrder: 3, TopicCount: 8},
		{CategoryID: "suggestions", Name: "Suggestions", Description: "Share your ideas and suggestions for the server", DisplayOrder: 4, TopicCount: 15},
		{CategoryID: "trading", Name: "Trading", Description: "Buy, sell, and trade items with other players", DisplayOrder: 5, TopicCount: 20},
		{CategoryID: "clans", Name: "Clans & Guilds", Description: "Find or create clans and guilds", DisplayOrder: 6, TopicCount: 7},
		{CategoryID: "off-topic", Name: "Off-Topic", Description: "Non-server related discussions", DisplayOrder: 7, TopicCount: 10},
	}
}

func (f *Forum) sampleTopics() []models.ForumTopic {
	now := f.st.now().UTC()
	day := 24 * time.Hour
	return []models.ForumTopic{
		{
			TopicID: "mock_topic_001", CategoryID: DefaultCategory, UserID: DevUserID,
			Title:   "Welcome to Heart of Acheron!",
			Content: "Welcome everyone to our amazing server! We hope you enjoy your time here.",
			Views:   150, RepliesCount: 8, LastReplyAt: ptr(now.Add(-2 * time.Hour)),
			Pinned: 1, CreatedAt: now.Add(-7 * day), Author: devAuthor,
		},
		{
			TopicID: "mock_topic_002", CategoryID: DefaultCategory, UserID: DevUserID,
			Title:   "Server Rules and Guidelines",
			Content: "Please read our server rules before playing. We expect all players to follow these guidelines.",
			Views:   89, RepliesCount: 3, LastReplyAt: ptr(now.Add(-1 * day)),
			Pinned: 1, CreatedAt: now.Add(-5 * day), Author: devAuthor,
		},
		{
			TopicID: "mock_topic_003", CategoryID: DefaultCategory, UserID: DevUserID,
			Title:   "What are you building?",
			Content: "Share screenshots of your builds! I'd love to see what everyone is creating.",
			Views:   45, RepliesCount: 12, LastReplyAt: ptr(now.Add(-30 * time.Minute)),
			CreatedAt: now.Add(-3 * day), Author: devAuthor,
		},
	}
}

func (f *Forum) samplePosts(topicID string) []models.ForumPost {
	now := f.st.now().UTC()
	day := 24 * time.Hour
	post := func(id, content string, age time.Duration) models.ForumPost {
		return models.ForumPost{
			PostID: id, TopicID: topicID, UserID: DevUserID,
			Content: content, CreatedAt: now.Add(-age), Author: devAuthor,
		}
	}
	return []models.ForumPost{
		post("mock_post_001", "Welcome everyone to our amazing server! We hope you enjoy your time here.", 7*day),
		post("mock_post_002", "Thanks for the warm welcome! Excited to be here.", 6*day),
		post("mock_post_003", "This server looks amazing! Can't wait to explore.", 5*day),
	}
}

// topics must be called with the lock held.
func (f *Forum) topics(ctx context.Context, categoryID string) ([]models.ForumTopic, error) {
	var topics []models.ForumTopic
	if _, err := store.LoadJSON(ctx, f.st.store, store.TopicsKey(categoryID), &topics); err != nil {
		return nil, err
	}
	if len(topics) == 0 && categoryID == DefaultCategory {
		topics = f.sampleTopics()
		if err := store.SaveJSON(ctx, f.st.store, store.TopicsKey(categoryID), topics); err != nil {
			return nil, err
		}
	}
	if topics == nil {
		topics = []models.ForumTopic{}
	}
	return topics, nil
}

// posts must be called with the lock held.
func (f *Forum) posts(ctx context.Context, topicID string) ([]models.ForumPost, error) {
	var posts []models.ForumPost
	if _, err := store.LoadJSON(ctx, f.st.store, store.PostsKey(topicID), &posts); err != nil {
		return nil, err
	}
	if len(posts) == 0 && topicID == SeededTopicID {
		posts = f.samplePosts(topicID)
		if err := store.SaveJSON(ctx, f.st.store, store.PostsKey(topicID), posts); err != nil {
			return nil, err
		}
	}
	if posts == nil {
		posts = []models.ForumPost{}
	}
	return posts, nil
}

// topicIDs collects the ids used in every category partition and every post
// list, so a new topic never shares a posts key with an existing one. The
// lock must be held.
func (f *Forum) topicIDs(ctx context.Context) (map[string]bool, error) {
	ids := make(map[string]bool)
	keys, err := f.st.store.Keys(ctx, store.PrefixForumTopics)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		var topics []models.ForumTopic
		if _, err := store.LoadJSON(ctx, f.st.store, k, &topics); err != nil {
			return nil, err
		}
		for _, t := range topics {
			ids[t.TopicID] = true
		}
	}
	postKeys, err := f.st.store.Keys(ctx, store.PrefixForumPosts)
	if err != nil {
		return nil, err
	}
	for _, k := range postKeys {
		ids[strings.TrimPrefix(k, store.PrefixForumPosts)] = true
	}
	return ids, nil
}

// Topics lists a category. The general category is seeded with three
// topics the first time it is read empty.
func (f *Forum) Topics(ctx context.Context, categoryID string) ([]models.ForumTopic, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.topics(ctx, categoryID)
}

// Posts lists a topic's replies. Only SeededTopicID gets sample posts.
func (f *Forum) Posts(ctx context.Context, topicID string) ([]models.ForumPost, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	return f.posts(ctx, topicID)
}

// AddTopic appends a topic to its category. The author is always the
// developer identity, whoever userID is.
func (f *Forum) AddTopic(ctx context.Context, userID string, req models.CreateTopicRequest) (models.ForumTopic, error) {
	if strings.TrimSpace(req.CategoryID) == "" || strings.TrimSpace(req.Title) == "" {
		return models.ForumTopic{}, ErrValidation
	}
	if userID == "" {
		userID = DevUserID
	}

	f.st.mu.Lock()
	defer f.st.mu.Unlock()

	topics, err := f.topics(ctx, req.CategoryID)
	if err != nil {
		return models.ForumTopic{}, err
	}

	taken, err := f.topicIDs(ctx)
	if err != nil {
		return models.ForumTopic{}, err
	}

	topic := models.ForumTopic{
		TopicID:    f.st.newID("mock_topic_", func(id string) bool { return taken[id] }),
		CategoryID: req.CategoryID,
		UserID:     userID,
		Title:      req.Title,
		Content:    req.Content,
		CreatedAt:  f.st.now().UTC(),
		Author:     devAuthor,
	}
	topics = append(topics, topic)
	if err := store.SaveJSON(ctx, f.st.store, store.TopicsKey(req.CategoryID), topics); err != nil {
		return models.ForumTopic{}, err
	}
	f.st.log.Info(ctx, "mock topic created", "topic_id", topic.TopicID, "category_id", topic.CategoryID)
	return topic, nil
}

// AddPost appends a reply, then bumps the reply counter of the topic found
// in the category named by req.CategoryID (general when empty). When the
// topic lives in another category the counter is left alone.
func (f *Forum) AddPost(ctx context.Context, userID string, req models.CreatePostRequest) (models.ForumPost, error) {
	if strings.TrimSpace(req.TopicID) == "" || strings.TrimSpace(req.Content) == "" {
		return models.ForumPost{}, ErrValidation
	}
	if userID == "" {
		userID = DevUserID
	}

	f.st.mu.Lock()
	defer f.st.mu.Unlock()

	posts, err := f.posts(ctx, req.TopicID)
	if err != nil {
		return models.ForumPost{}, err
	}

	now := f.st.now().UTC()
	post := models.ForumPost{
		PostID: f.st.newID("mock_post_", func(id string) bool {
			for _, p := range posts {
				if p.PostID == id {
					return true
				}
			}
			return false
		}),
		TopicID:   req.TopicID,
		UserID:    userID,
		Content:   req.Content,
		CreatedAt: now,
		Author:    devAuthor,
	}
	posts = append(posts, post)
	if err := store.SaveJSON(ctx, f.st.store, store.PostsKey(req.TopicID), posts); err != nil {
		return models.ForumPost{}, err
	}

	categoryID := req.CategoryID
	if categoryID == "" {
		categoryID = DefaultCategory
	}
	var topics []models.ForumTopic
	if _, err := store.LoadJSON(ctx, f.st.store, store.TopicsKey(categoryID), &topics); err != nil {
		return models.ForumPost{}, err
	}
	for i := range topics {
		if topics[i].TopicID != req.TopicID {
			continue
		}
		topics[i].RepliesCount++
		topics[i].LastReplyAt = ptr(now)
		if err := store.SaveJSON(ctx, f.st.store, store.TopicsKey(categoryID), topics); err != nil {
			return models.ForumPost{}, err
		}
		return post, nil
	}
	f.st.log.Debug(ctx, "reply counter not updated; topic not in category",
		"topic_id", req.TopicID, "category_id", categoryID)
	return post, nil
}

// ViewTopic loads a topic from its category (general when empty) together
// with its posts, counting the read as a view.
func (f *Forum) ViewTopic(ctx context.Context, categoryID, topicID string) (models.ForumTopic, []models.ForumPost, error) {
	if categoryID == "" {
		categoryID = DefaultCategory
	}

	f.st.mu.Lock()
	defer f.st.mu.Unlock()

	topics, err := f.topics(ctx, categoryID)
	if err != nil {
		return models.ForumTopic{}, nil, err
	}
	for i := range topics {
		if topics[i].TopicID != topicID {
			continue
		}
		topics[i].Views++
		if err := store.SaveJSON(ctx, f.st.store, store.TopicsKey(categoryID), topics); err != nil {
			return models.ForumTopic{}, nil, err
		}
		posts, err := f.posts(ctx, topicID)
		if err != nil {
			return models.ForumTopic{}, nil, err
		}
		return topics[i], posts, nil
	}
	return models.ForumTopic{}, nil, ErrNotFound
}

// FindTopic searches every category partition for topicID without counting
// a view. It is what a reader arriving with only a topic id needs.
func (f *Forum) FindTopic(ctx context.Context, topicID string) (models.ForumTopic, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()

	for _, c := range f.Categories() {
		topics, err := f.topics(ctx, c.CategoryID)
		if err != nil {
			return models.ForumTopic{}, err
		}
		for _, t := range topics {
			if t.TopicID == topicID {
				return t, nil
			}
		}
	}
	return models.ForumTopic{}, ErrNotFound
}

// EditPost is only served by the real backend.
func (f *Forum) EditPost(context.Context, string, string) error { return ErrUnsupported }

// DeletePost is only served by the real backend.
func (f *Forum) DeletePost(context.Context, string) error { return ErrUnsupported }
