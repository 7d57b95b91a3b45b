package engagement

import (
	"context"

	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

type fakeVideoFinder map[string]models.Video

func (f fakeVideoFinder) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := f[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

type fakeTweetFinder map[string]models.Tweet

func (f fakeTweetFinder) FindByID(_ context.Context, id string) (models.Tweet, error) {
	tweet, ok := f[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

type fakeCommentStore struct {
	comments map[string]models.Comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]models.Comment)}
}

func (s *fakeCommentStore) Create(_ context.Context, comment models.Comment) error {
	if _, exists := s.comments[comment.ID]; exists {
		return repositories.ErrConflict
	}
	s.comments[comment.ID] = comment
	return nil
}

func (s *fakeCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *fakeCommentStore) UpdateContent(_ context.Context, id, content string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return comment, nil
}

func (s *fakeCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type fakeLikeStore struct {
	likes  map[string]models.Like
	counts int // CountForTarget invocations, for cache assertions
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{likes: make(map[string]models.Like)}
}

func (s *fakeLikeStore) Create(_ context.Context, like models.Like) error {
	for _, existing := range s.likes {
		if existing.OwnerID == like.OwnerID && existing.Target == like.Target {
			return repositories.ErrConflict
		}
	}
	s.likes[like.ID] = like
	return nil
}

func (s *fakeLikeStore) FindByID(_ context.Context, id string) (models.Like, error) {
	like, ok := s.likes[id]
	if !ok {
		return models.Like{}, repositories.ErrNotFound
	}
	return like, nil
}

func (s *fakeLikeStore) FindByOwnerAndTarget(_ context.Context, ownerID string, target models.TargetRef) (models.Like, error) {
	for _, like := range s.likes {
		if like.OwnerID == ownerID && like.Target == target {
			return like, nil
		}
	}
	return models.Like{}, repositories.ErrNotFound
}

func (s *fakeLikeStore) DeleteByIDAndOwner(_ context.Context, id, ownerID string) error {
	like, ok := s.likes[id]
	if !ok || like.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(s.likes, id)
	return nil
}

func (s *fakeLikeStore) CountForTarget(_ context.Context, target models.TargetRef) (int64, error) {
	s.counts++
	var count int64
	for _, like := range s.likes {
		if like.Target == target {
			count++
		}
	}
	return count, nil
}

func testResolver(store *fakeCommentStore) *Resolver {
	videos := fakeVideoFinder{"video-1": {ID: "video-1"}}
	tweets := fakeTweetFinder{"tweet-1": {ID: "tweet-1"}}
	return NewResolver(videos, tweets, store)
}
