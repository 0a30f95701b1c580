package seed

import (
	"context"
	"testing"

	"github.com/00xu00/blog/internal/database"
	"github.com/00xu00/blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestRun_CountersMatchRows(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	opts := Options{
		Users:           6,
		PostsPerUser:    2,
		CommentsPerPost: 3,
		FollowsPerUser:  2,
		LikesPerUser:    3,
		MessagesPerUser: 1,
		RandSeed:        42,
		FastHash:        true,
	}

	res, err := NewSeeder(db, opts).Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, res.Users, 6)
	assert.Len(t, res.Posts, 12)
	assert.Equal(t, 12, res.Follows)
	assert.Equal(t, 6, res.Messages)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	for _, u := range users {
		var following, followers, articles int64
		db.Model(&models.Follow{}).Where("follower_id = ?", u.ID).Count(&following)
		db.Model(&models.Follow{}).Where("followed_id = ?", u.ID).Count(&followers)
		db.Model(&models.Post{}).Where("author_id = ?", u.ID).Count(&articles)
		assert.EqualValues(t, following, u.FollowingCount, u.Username)
		assert.EqualValues(t, followers, u.FollowersCount, u.Username)
		assert.EqualValues(t, articles, u.ArticlesCount, u.Username)
	}

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	for _, p := range posts {
		var likes, comments int64
		db.Model(&models.Like{}).Where("post_id = ?", p.ID).Count(&likes)
		db.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments)
		assert.EqualValues(t, likes, p.LikesCount)
		assert.EqualValues(t, comments, p.CommentsCount)
	}
}

func TestClearAll(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	opts := Options{Users: 3, PostsPerUser: 1, CommentsPerPost: 1, FollowsPerUser: 1, FastHash: true, RandSeed: 7}
	s := NewSeeder(db, opts)
	_, err := s.Run(context.Background(), opts)
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(context.Background()))

	var n int64
	db.Model(&models.User{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&models.Comment{}).Count(&n)
	assert.Zero(t, n)
}

const demoScenario = `
users:
  - username: ada
    email: ada@example.com
    bio: Writes about concurrency.
  - username: grace
posts:
  - author: ada
    title: Notes on goroutines
    content: Start small.
    tags: [Go, concurrency]
  - author: ada
    title: Unfinished
    content: wip
    draft: true
follows:
  - {from: grace, to: ada}
likes:
  - {user: grace, post: Notes on goroutines}
`

func TestApplyScenario(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	sc, err := ParseScenario([]byte(demoScenario))
	require.NoError(t, err)

	res, err := NewSeeder(db, Options{FastHash: true}).ApplyScenario(context.Background(), sc)
	require.NoError(t, err)
	require.Len(t, res.Users, 2)
	require.Len(t, res.Posts, 2)
	assert.Equal(t, 1, res.Follows)
	assert.Equal(t, 1, res.Likes)

	var ada models.User
	require.NoError(t, db.Where("username = ?", "ada").First(&ada).Error)
	assert.Equal(t, "Writes about concurrency.", ada.Bio)
	assert.Equal(t, 1, ada.FollowersCount)
	assert.Equal(t, 2, ada.ArticlesCount)

	assert.Equal(t, []string{"go", "concurrency"}, res.Posts[0].Tags)
	assert.Equal(t, models.PostStatusDraft, res.Posts[1].Status)
}

func TestParseScenario_RejectsDanglingReferences(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"unknown author": "users: [{username: a}]\nposts: [{author: b, title: t, content: c}]",
		"unknown follow": "users: [{username: a}]\nfollows: [{from: a, to: z}]",
		"unknown post":   "users: [{username: a}]\nlikes: [{user: a, post: missing}]",
		"duplicate user": "users: [{username: a}, {username: a}]",
		"bad yaml":       "users: [",
	}
	for name, doc := range cases {
		_, err := ParseScenario([]byte(doc))
		assert.Error(t, err, name)
	}
}
