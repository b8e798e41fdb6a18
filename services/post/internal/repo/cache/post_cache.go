package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogsphere/pkg/access"
	"blogsphere/services/post/internal/entity"

	"github.com/redis/go-redis/v9"
)

const postTTL = 24 * time.Hour

// versionTTL has to outlive any read that started before an eviction.
const versionTTL = 2 * postTTL

// ErrStale is returned by Set when the post was evicted after the caller read
// its version, so the copy being cached may predate a change.
var ErrStale = errors.New("post changed while it was being read")

// PostCache keeps recently read posts as redis hashes under post:<id>.
// Reads never trust the cache for authorization: callers still apply the
// read rule to whatever comes back.
//
// Every Delete bumps post:<id>:version. A reader takes Version before loading
// the post from the store and passes it to Set, which only writes while the
// version is unchanged.
type PostCache interface {
	Get(ctx context.Context, id string) (*entity.Post, bool)
	Version(ctx context.Context, id string) (int64, error)
	Set(ctx context.Context, post *entity.Post, version int64) error
	Delete(ctx context.Context, id string) error
}

type redisPostCache struct {
	client *redis.Client
}

func NewPostCache(client *redis.Client) PostCache {
	if client == nil {
		return noopCache{}
	}
	return &redisPostCache{client: client}
}

func postKey(id string) string {
	return fmt.Sprintf("post:%s", id)
}

func versionKey(id string) string {
	return fmt.Sprintf("post:%s:version", id)
}

func (c *redisPostCache) Get(ctx context.Context, id string) (*entity.Post, bool) {
	fields, err := c.client.HGetAll(ctx, postKey(id)).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, false
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fields["updated_at"])
	if err != nil {
		return nil, false
	}

	return &entity.Post{
		ID:          fields["id"],
		AuthorID:    fields["author_id"],
		Title:       fields["title"],
		Body:        fields["body"],
		Visibility:  access.Visibility(fields["visibility"]),
		AuthorEmail: fields["author_email"],
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, true
}

func (c *redisPostCache) Version(ctx context.Context, id string) (int64, error) {
	version, err := c.client.Get(ctx, versionKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

func (c *redisPostCache) Set(ctx context.Context, post *entity.Post, version int64) error {
	key := postKey(post.ID)
	vkey := versionKey(post.ID)

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return ErrStale
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, map[string]interface{}{
				"id":           post.ID,
				"author_id":    post.AuthorID,
				"title":        post.Title,
				"body":         post.Body,
				"visibility":   string(post.Visibility),
				"author_email": post.AuthorEmail,
				"created_at":   post.CreatedAt.Format(time.RFC3339Nano),
				"updated_at":   post.UpdatedAt.Format(time.RFC3339Nano),
			})
			pipe.Expire(ctx, key, postTTL)
			return nil
		})
		return err
	}, vkey)

	// an eviction landed between WATCH and EXEC
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

func (c *redisPostCache) Delete(ctx context.Context, id string) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, versionKey(id))
	pipe.Expire(ctx, versionKey(id), versionTTL)
	pipe.Del(ctx, postKey(id))
	_, err := pipe.Exec(ctx)
	return err
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*entity.Post, bool) { return nil, false }
func (noopCache) Version(context.Context, string) (int64, error)   { return 0, nil }
func (noopCache) Set(context.Context, *entity.Post, int64) error   { return nil }
func (noopCache) Delete(context.Context, string) error             { return nil }
