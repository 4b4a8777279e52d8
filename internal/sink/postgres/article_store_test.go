package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/particle-harvester/internal/crawler"
)

func TestSaveInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewArticleStoreWithPool(mock, "")
	require.NoError(t, err)

	article := crawler.Article{
		ID:          "abc123",
		Category:    "ELECTION_CNN_DETAIL",
		URL:         "https://www.cnn.com/2024/11/05/politics/vote",
		Title:       "Polls close",
		Body:        "Voters went to the polls.",
		Published:   "2024-11-05T23:00:00Z",
		Passthrough: map[string]string{"searchKey": "Tim Walz Tire"},
		FetchedAt:   time.Unix(1700000000, 0).UTC(),
	}

	mock.ExpectExec(`INSERT INTO articles .* ON CONFLICT \(id\) DO NOTHING`).
		WithArgs(
			article.ID,
			article.Category,
			article.URL,
			article.Title,
			article.Body,
			article.Published,
			[]byte(`{"searchKey":"Tim Walz Tire"}`),
			article.FetchedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Save(context.Background(), article))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveEmptyPassthroughAndErrors(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewArticleStoreWithPool(mock, "election_articles")
	require.NoError(t, err)

	article := crawler.Article{ID: "id-1", FetchedAt: time.Unix(0, 0).UTC()}
	mock.ExpectExec("INSERT INTO election_articles").
		WithArgs(article.ID, "", "", "", "", "", []byte(`{}`), article.FetchedAt).
		WillReturnError(errors.New("connection lost"))

	err = store.Save(context.Background(), article)
	require.ErrorContains(t, err, "insert article")
	require.ErrorContains(t, err, "connection lost")

	require.ErrorContains(t, store.Save(context.Background(), crawler.Article{}), "article id is required")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewArticleStoreWithPool(mock, "articles")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConstructorsValidateInput(t *testing.T) {
	t.Parallel()

	_, err := NewArticleStoreWithPool(nil, "articles")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewArticleStoreWithPool(mock, "articles; DROP TABLE x")
	require.ErrorContains(t, err, "invalid table name")

	_, err = NewArticleStore(context.Background(), Config{})
	require.ErrorContains(t, err, "dsn is required")
	_, err = NewArticleStore(context.Background(), Config{DSN: "postgres://u@localhost/db", Table: "1bad"})
	require.ErrorContains(t, err, "invalid table name")
}

func TestCloseIsNilSafe(t *testing.T) {
	t.Parallel()

	var store *ArticleStore
	store.Close()
}
