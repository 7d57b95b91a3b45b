package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Method and
// path-parameter matching relies on the Go 1.22 ServeMux patterns.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{
		Users:         deps.Users,
		Sessions:      deps.Sessions,
		Media:         deps.Media,
		Limiter:       deps.Limiter,
		SecureCookies: deps.SecureCookies,
	}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Media: deps.Media, Ingestor: deps.Ingestor}
	tweets := TweetHandler{Tweets: deps.Tweets}
	likes := LikeHandler{Likes: deps.Likes}
	comments := CommentHandler{Comments: deps.Comments}
	subs := SubscriptionHandler{Subscriptions: deps.Subscriptions, Users: deps.Users}

	authn := Authenticator{Sessions: deps.Sessions}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", users.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", users.Refresh)
	mux.HandleFunc("POST /api/v1/users/logout", authn.Require(users.Logout))
	mux.HandleFunc("POST /api/v1/users/change-password", authn.Require(users.ChangePassword))
	mux.HandleFunc("GET /api/v1/users/me", authn.Require(users.Details))
	mux.HandleFunc("PATCH /api/v1/users/me", authn.Require(users.UpdateDetails))
	mux.HandleFunc("PATCH /api/v1/users/avatar", authn.Require(users.UpdateAvatar))
	mux.HandleFunc("PATCH /api/v1/users/cover-image", authn.Require(users.UpdateCoverImage))
	mux.HandleFunc("GET /api/v1/users/watch-history", authn.Require(users.WatchHistory))

	mux.HandleFunc("POST /api/v1/videos", authn.Require(videos.Publish))
	mux.HandleFunc("GET /api/v1/videos", authn.Require(videos.List))
	mux.HandleFunc("GET /api/v1/videos/{videoId}", videos.Get)
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}", authn.Require(videos.Update))
	mux.HandleFunc("DELETE /api/v1/videos/{videoId}", authn.Require(videos.Delete))
	mux.HandleFunc("POST /api/v1/videos/{videoId}/view", authn.Require(videos.View))

	mux.HandleFunc("POST /api/v1/tweets", authn.Require(tweets.Create))
	mux.HandleFunc("GET /api/v1/tweets/{tweetId}", tweets.Get)
	mux.HandleFunc("PATCH /api/v1/tweets/{tweetId}", authn.Require(tweets.Update))
	mux.HandleFunc("DELETE /api/v1/tweets/{tweetId}", authn.Require(tweets.Delete))

	mux.HandleFunc("POST /api/v1/comments/{targetType}/{targetId}", authn.Require(comments.Create))
	mux.HandleFunc("PATCH /api/v1/comments/{commentId}", authn.Require(comments.Update))
	mux.HandleFunc("DELETE /api/v1/comments/{commentId}", authn.Require(comments.Delete))

	mux.HandleFunc("POST /api/v1/likes/{targetType}/{targetId}", authn.Require(likes.Create))
	mux.HandleFunc("DELETE /api/v1/likes/{likeId}", authn.Require(likes.Delete))
	mux.HandleFunc("GET /api/v1/likes/{targetType}/{targetId}/count", likes.Count)
	mux.HandleFunc("GET /api/v1/likes/{targetType}/{targetId}/status", authn.Require(likes.Status))

	mux.HandleFunc("POST /api/v1/subscriptions/{channelUsername}", authn.Require(subs.Subscribe))
	mux.HandleFunc("DELETE /api/v1/subscriptions/{channelUsername}", authn.Require(subs.Unsubscribe))
	mux.HandleFunc("GET /api/v1/channels/{channelUsername}", authn.Require(subs.Profile))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Videos        VideoStore
	Tweets        TweetStore
	Likes         LikeService
	Comments      CommentService
	Subscriptions SubscriptionStore
	Media         MediaStorage
	Ingestor      AssetIngestor
	Limiter       RateLimiter
	SecureCookies bool
}
