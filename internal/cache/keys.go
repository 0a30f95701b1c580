package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix   = "user:%d"
	PostKeyPrefix   = "post:%d"
	LatestPostsKey  = "posts:latest:%d"
	VerificationKey = "verify:%d"
	VerifyMissesKey = "verify:%d:misses"
	WSTicketKey     = "ws_ticket:%s"
	BlacklistKey    = "blacklist:%s"
)

const (
	UserTTL         = 5 * time.Minute
	PostTTL         = 10 * time.Minute
	LatestPostsTTL  = 30 * time.Second
	VerificationTTL = 5 * time.Minute
	WSTicketTTL     = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func LatestKey(limit int) string {
	return fmt.Sprintf(LatestPostsKey, limit)
}

func VerificationCodeKey(userID uint) string {
	return fmt.Sprintf(VerificationKey, userID)
}

// VerificationMissesKey counts wrong guesses against the current code.
func VerificationMissesKey(userID uint) string {
	return fmt.Sprintf(VerifyMissesKey, userID)
}

func TicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketKey, ticket)
}

func TokenBlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKey, jti)
}

// Invalidate deletes key; a missing client or key is not an error.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

// InvalidateLatest drops every cached latest-posts page.
func InvalidateLatest(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "posts:latest:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	Invalidate(ctx, keys...)
}
