package devserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartofacheron/site/internal/mock"
	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/respond"
)

func (s *Server) Categories(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, models.CategoriesResponse{Success: true, Categories: s.mock.Forum.Categories()})
}

func (s *Server) Topics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.mock.Forum.Topics(r.Context(), chi.URLParam(r, "categoryId"))
	if err != nil {
		s.log.Error(r.Context(), "list topics", "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to load topics")
		return
	}
	if topics == nil {
		topics = []models.ForumTopic{}
	}
	respond.JSON(w, http.StatusOK, models.TopicsResponse{Success: true, Topics: topics})
}

// Topic finds the topic in whichever category holds it and counts a view.
func (s *Server) Topic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "topicId")
	found, err := s.mock.Forum.FindTopic(r.Context(), id)
	if errors.Is(err, mock.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "topic not found")
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "find topic", "topic_id", id, "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to load topic")
		return
	}

	topic, posts, err := s.mock.Forum.ViewTopic(r.Context(), found.CategoryID, id)
	if err != nil {
		s.log.Error(r.Context(), "view topic", "topic_id", id, "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to load topic")
		return
	}
	if posts == nil {
		posts = []models.ForumPost{}
	}
	respond.JSON(w, http.StatusOK, models.TopicResponse{Success: true, Topic: &topic, Posts: posts})
}

func (s *Server) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTopicRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	topic, err := s.mock.Forum.AddTopic(r.Context(), s.userID(r), req)
	if errors.Is(err, mock.ErrValidation) {
		respond.Error(w, http.StatusBadRequest, "category_id and title are required")
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "create topic", "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create topic")
		return
	}
	respond.OK(w, http.StatusCreated, map[string]any{"topic": topic})
}

// CreatePost appends a reply. A request without category_id is matched
// against the topic's actual category so its reply counter moves.
func (s *Server) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePostRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if req.CategoryID == "" && req.TopicID != "" {
		if t, err := s.mock.Forum.FindTopic(r.Context(), req.TopicID); err == nil {
			req.CategoryID = t.CategoryID
		}
	}

	post, err := s.mock.Forum.AddPost(r.Context(), s.userID(r), req)
	if errors.Is(err, mock.ErrValidation) {
		respond.Error(w, http.StatusBadRequest, "topic_id and content are required")
		return
	}
	if err != nil {
		s.log.Error(r.Context(), "create post", "err", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create post")
		return
	}
	respond.JSON(w, http.StatusCreated, models.PostResponse{Success: true, Post: &post})
}

func (s *Server) EditPost(w http.ResponseWriter, r *http.Request) {
	var req models.EditPostRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	s.unsupported(w, s.mock.Forum.EditPost(r.Context(), chi.URLParam(r, "postId"), req.Content))
}

func (s *Server) DeletePost(w http.ResponseWriter, r *http.Request) {
	s.unsupported(w, s.mock.Forum.DeletePost(r.Context(), chi.URLParam(r, "postId")))
}

func (s *Server) unsupported(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mock.ErrUnsupported):
		respond.Error(w, http.StatusNotImplemented, err.Error())
	case err != nil:
		respond.Error(w, http.StatusInternalServerError, err.Error())
	default:
		respond.OK(w, http.StatusOK, nil)
	}
}
