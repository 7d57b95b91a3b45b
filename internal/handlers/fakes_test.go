package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/engagement"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/models"
	"github.com/cliptube/backend/internal/repositories"
)

type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[string]models.User)}
}

func (s *memoryUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memoryUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memoryUserStore) SetRefreshToken(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[id] = user
	return nil
}

func (s *memoryUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[id] = user
	return nil
}

func (s *memoryUserStore) UpdateDetails(_ context.Context, id, fullName, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	for _, existing := range s.users {
		if existing.ID != id && existing.Email == email {
			return models.User{}, repositories.ErrConflict
		}
	}
	user.FullName = fullName
	user.Email = email
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	return user, nil
}

func (s *memoryUserStore) UpdateAvatar(_ context.Context, id, location string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.Avatar = location
	s.users[id] = user
	return user, nil
}

func (s *memoryUserStore) UpdateCoverImage(_ context.Context, id, location string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.CoverImage = location
	s.users[id] = user
	return user, nil
}

func (s *memoryUserStore) AppendWatchHistory(_ context.Context, id, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, existing := range user.WatchHistory {
		if existing == videoID {
			return nil
		}
	}
	user.WatchHistory = append(user.WatchHistory, videoID)
	s.users[id] = user
	return nil
}

func (s *memoryUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type memoryVideoStore struct {
	mu     sync.Mutex
	videos map[string]models.Video
}

func newMemoryVideoStore() *memoryVideoStore {
	return &memoryVideoStore{videos: make(map[string]models.Video)}
}

func (s *memoryVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[video.ID]; ok {
		return repositories.ErrConflict
	}
	s.videos[video.ID] = video
	return nil
}

func (s *memoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *memoryVideoStore) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var videos []models.Video
	for _, video := range s.videos {
		if video.OwnerID == ownerID {
			videos = append(videos, video)
		}
	}
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].CreatedAt.After(videos[j].CreatedAt)
	})
	return videos, nil
}

func (s *memoryVideoStore) UpdateDetails(_ context.Context, id, title, description, thumbnail string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.Title = title
	video.Description = description
	video.Thumbnail = thumbnail
	s.videos[id] = video
	return video, nil
}

func (s *memoryVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *memoryVideoStore) IncrementViews(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return video, nil
}

func (s *memoryVideoStore) MarkAssetReady(_ context.Context, id, location string, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.AssetStatus = models.AssetStatusReady
	video.AssetURL = location
	video.AssetSize = size
	s.videos[id] = video
	return nil
}

func (s *memoryVideoStore) MarkAssetFailed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.AssetStatus = models.AssetStatusFailed
	s.videos[id] = video
	return nil
}

type memoryTweetStore struct {
	mu     sync.Mutex
	tweets map[string]models.Tweet
}

func newMemoryTweetStore() *memoryTweetStore {
	return &memoryTweetStore{tweets: make(map[string]models.Tweet)}
}

func (s *memoryTweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tweets[tweet.ID]; ok {
		return repositories.ErrConflict
	}
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *memoryTweetStore) FindByID(_ context.Context, id string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (s *memoryTweetStore) UpdateContent(_ context.Context, id, content string) (models.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	tweet.Content = content
	tweet.UpdatedAt = time.Now().UTC()
	s.tweets[id] = tweet
	return tweet, nil
}

func (s *memoryTweetStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

type memoryCommentStore struct {
	mu       sync.Mutex
	comments map[string]models.Comment
}

func newMemoryCommentStore() *memoryCommentStore {
	return &memoryCommentStore{comments: make(map[string]models.Comment)}
}

func (s *memoryCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[comment.ID]; ok {
		return repositories.ErrConflict
	}
	s.comments[comment.ID] = comment
	return nil
}

func (s *memoryCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *memoryCommentStore) UpdateContent(_ context.Context, id, content string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	comment.UpdatedAt = time.Now().UTC()
	s.comments[id] = comment
	return comment, nil
}

func (s *memoryCommentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type memoryLikeStore struct {
	mu    sync.Mutex
	likes map[string]models.Like
}

func newMemoryLikeStore() *memoryLikeStore {
	return &memoryLikeStore{likes: make(map[string]models.Like)}
}

func (s *memoryLikeStore) Create(_ context.Context, like models.Like) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.likes {
		if existing.OwnerID == like.OwnerID && existing.Target == like.Target {
			return repositories.ErrConflict
		}
	}
	s.likes[like.ID] = like
	return nil
}

func (s *memoryLikeStore) FindByID(_ context.Context, id string) (models.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	like, ok := s.likes[id]
	if !ok {
		return models.Like{}, repositories.ErrNotFound
	}
	return like, nil
}

func (s *memoryLikeStore) FindByOwnerAndTarget(_ context.Context, ownerID string, target models.TargetRef) (models.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, like := range s.likes {
		if like.OwnerID == ownerID && like.Target == target {
			return like, nil
		}
	}
	return models.Like{}, repositories.ErrNotFound
}

func (s *memoryLikeStore) DeleteByIDAndOwner(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	like, ok := s.likes[id]
	if !ok || like.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(s.likes, id)
	return nil
}

func (s *memoryLikeStore) CountForTarget(_ context.Context, target models.TargetRef) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, like := range s.likes {
		if like.Target == target {
			count++
		}
	}
	return count, nil
}

type memorySubscriptionStore struct {
	mu   sync.Mutex
	subs map[string]models.Subscription
}

func newMemorySubscriptionStore() *memorySubscriptionStore {
	return &memorySubscriptionStore{subs: make(map[string]models.Subscription)}
}

func (s *memorySubscriptionStore) Create(_ context.Context, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.subs {
		if existing.SubscriberID == sub.SubscriberID && existing.ChannelID == sub.ChannelID {
			return repositories.ErrConflict
		}
	}
	s.subs[sub.ID] = sub
	return nil
}

func (s *memorySubscriptionStore) FindBySubscriberAndChannel(_ context.Context, subscriberID, channelID string) (models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID && sub.ChannelID == channelID {
			return sub, nil
		}
	}
	return models.Subscription{}, repositories.ErrNotFound
}

func (s *memorySubscriptionStore) CountForChannel(_ context.Context, channelID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, sub := range s.subs {
		if sub.ChannelID == channelID {
			count++
		}
	}
	return count, nil
}

func (s *memorySubscriptionStore) CountForSubscriber(_ context.Context, subscriberID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID {
			count++
		}
	}
	return count, nil
}

func (s *memorySubscriptionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.subs, id)
	return nil
}

type memoryMediaStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deletes []string
}

func newMemoryMediaStorage() *memoryMediaStorage {
	return &memoryMediaStorage{objects: make(map[string][]byte)}
}

func (s *memoryMediaStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = data
	return fmt.Sprintf("https://cdn.example.com/%s", name), nil
}

func (s *memoryMediaStorage) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, name)
	delete(s.objects, name)
	return nil
}

// testEnv wires the handler routes over in-memory stores and real services.
type testEnv struct {
	mux           *http.ServeMux
	users         *memoryUserStore
	videos        *memoryVideoStore
	tweets        *memoryTweetStore
	comments      *memoryCommentStore
	likes         *memoryLikeStore
	subscriptions *memorySubscriptionStore
	media         *memoryMediaStorage
	ingestor      *recordingIngestor
	sessions      *auth.Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:         newMemoryUserStore(),
		videos:        newMemoryVideoStore(),
		tweets:        newMemoryTweetStore(),
		comments:      newMemoryCommentStore(),
		likes:         newMemoryLikeStore(),
		subscriptions: newMemorySubscriptionStore(),
		media:         newMemoryMediaStorage(),
		ingestor:      &recordingIngestor{},
	}

	tokens := auth.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	env.sessions = auth.NewService(env.users, tokens)

	resolver := engagement.NewResolver(env.videos, env.tweets, env.comments)
	likeService := engagement.NewLikes(resolver, env.likes, nil)
	commentService := engagement.NewComments(resolver, env.comments)

	env.mux = http.NewServeMux()
	RegisterRoutes(env.mux, Dependencies{
		Users:         env.users,
		Sessions:      env.sessions,
		Videos:        env.videos,
		Tweets:        env.tweets,
		Likes:         likeService,
		Comments:      commentService,
		Subscriptions: env.subscriptions,
		Media:         env.media,
		Ingestor:      env.ingestor,
	})

	return env
}

func videoFixture(id, ownerID string) models.Video {
	return models.Video{
		ID:          id,
		OwnerID:     ownerID,
		Title:       "Test Video",
		AssetStatus: models.AssetStatusReady,
		CreatedAt:   time.Now().UTC(),
	}
}

// recordingIngestor captures enqueued jobs instead of running workers.
type recordingIngestor struct {
	mu   sync.Mutex
	jobs []media.UploadJob
}

func (i *recordingIngestor) Enqueue(_ context.Context, job media.UploadJob) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.jobs = append(i.jobs, job)
	return nil
}
