package persistent

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"blogsphere/pkg/access"
	"blogsphere/pkg/apperrors"
	"blogsphere/pkg/database/dbtest"
	"blogsphere/services/post/internal/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postColumns = []string{"id", "user_id", "title", "content", "visibility", "created_at", "updated_at"}

func TestPostRepository_Create(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	post := &entity.Post{AuthorID: "user-1", Title: "Hello", Body: "<p>hi</p>", Visibility: access.VisibilityPrivate}
	require.NoError(t, repo.Create(context.Background(), post))
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, access.VisibilityPrivate, post.Visibility)
}

func TestPostRepository_GetByID(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewPostRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow("post-1", "user-1", "Hello", "<p>hi</p>", "private", now, now))

	post, err := repo.GetByID(context.Background(), "post-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", post.AuthorID)
	assert.Equal(t, "<p>hi</p>", post.Body)
	assert.Equal(t, access.VisibilityPrivate, post.Visibility)
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(postColumns))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostRepository_List_PublicSearch(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewPostRepository(db)
	now := time.Now()
	public := access.VisibilityPublic

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE visibility = $1 AND title ILIKE $2 ORDER BY created_at DESC LIMIT`)).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow("post-2", "user-2", "50% off", "b", "public", now, now).
			AddRow("post-1", "user-1", "50% OFF again", "b", "public", now.Add(-time.Hour), now))

	posts, err := repo.List(context.Background(), ListFilter{Visibility: &public, Search: " 50% off ", Limit: 20})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "post-2", posts[0].ID)
}

func TestPostRepository_List_ByAuthorAllVisibilities(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE user_id = $1 ORDER BY created_at DESC`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(postColumns))

	posts, err := repo.List(context.Background(), ListFilter{AuthorID: "user-1"})
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestPostRepository_CountByAuthor(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "posts" WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	n, err := repo.CountByAuthor(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestPostRepository_CountByAuthor_StoreDown(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "posts"`)).
		WillReturnError(errors.New("dial tcp: connection refused"))

	_, err := repo.CountByAuthor(context.Background(), "user-1")
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestPostRepository_Update(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "content"=$1,"title"=$2,"updated_at"=$3,"visibility"=$4 WHERE`)).
		WithArgs("<p>new</p>", "New", sqlmock.AnyArg(), "public", "post-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	before := time.Now().Add(-time.Second)
	post := &entity.Post{ID: "post-1", Title: "New", Body: "<p>new</p>", Visibility: access.VisibilityPublic, UpdatedAt: before.Add(-time.Hour)}
	err := repo.Update(context.Background(), post)

	require.NoError(t, err)
	assert.True(t, post.UpdatedAt.After(before))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Update_NotFound(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	stale := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	post := &entity.Post{ID: "missing", Title: "t", Body: "b", Visibility: access.VisibilityPublic, UpdatedAt: stale}
	err := repo.Update(context.Background(), post)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, stale, post.UpdatedAt)
}

func TestPostRepository_Delete_NotFound(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "posts" WHERE id = $1`)).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostRepository_GetAuthor(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","email","is_premium" FROM "users" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "is_premium"}).AddRow("user-1", "ana@example.com", false))

	author, err := repo.GetAuthor(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", author.Email)
	assert.Equal(t, &access.User{ID: "user-1", IsPremium: false}, author.AccessUser())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
}
