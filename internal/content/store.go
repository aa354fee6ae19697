// Package content owns posts and comments. All referential integrity and
// title uniqueness is enforced here, backed by the database constraints,
// so callers can race freely: the loser of a duplicate-title race gets
// ErrDuplicateTitle, never a torn write.
package content

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/samber/oops"

	"blog/internal/models"
)

var (
	ErrNotFound       = errors.New("post not found")
	ErrDuplicateTitle = errors.New("title already taken")
	ErrAuthorNotFound = errors.New("author not found")
)

// Store reads and writes posts and comments.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const (
	postColumns = `p.id, p.author_id, p.title, p.subtitle, p.body, p.image_url, p.date, p.created_at, u.name`

	commentColumns = `c.id, c.post_id, c.author_id, c.body, c.created_at, u.name`
)

// CreatePost inserts a post and returns it with the author name populated.
// The title must be unique across all posts and the author must exist.
func (s *Store) CreatePost(ctx context.Context, authorID int64, title, subtitle, body, imageURL, date string) (*models.Post, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (author_id, title, subtitle, body, image_url, date) VALUES (?, ?, ?, ?, ?, ?)`,
		authorID, title, subtitle, body, imageURL, date)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, oops.Code("CONTENT_DUPLICATE_TITLE").With("title", title).Wrap(ErrDuplicateTitle)
		}
		if isForeignKeyViolation(err) {
			return nil, oops.Code("CONTENT_AUTHOR_NOT_FOUND").With("author_id", authorID).Wrap(ErrAuthorNotFound)
		}
		return nil, oops.Code("CONTENT_CREATE_FAILED").Wrapf(err, "inserting post")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, oops.Code("CONTENT_CREATE_FAILED").Wrapf(err, "reading insert id")
	}
	return s.GetPost(ctx, id)
}

// GetPost returns a single post with its author name joined in.
func (s *Store) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts p JOIN users u ON u.id = p.author_id WHERE p.id = ?`, id)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("CONTENT_POST_NOT_FOUND").With("post_id", id).Wrap(ErrNotFound)
		}
		return nil, oops.Code("CONTENT_GET_FAILED").With("post_id", id).Wrap(err)
	}
	return post, nil
}

// ListPosts returns all posts in insertion order.
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts p JOIN users u ON u.id = p.author_id ORDER BY p.id`)
	if err != nil {
		return nil, oops.Code("CONTENT_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()
	var posts []models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, oops.Code("CONTENT_LIST_FAILED").Wrap(err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CONTENT_LIST_FAILED").Wrap(err)
	}
	return posts, nil
}

// PostUpdate names the fields UpdatePost may change. Nil fields keep their
// stored value; the post's id, date, and comments are never touched.
type PostUpdate struct {
	Title    *string
	Subtitle *string
	Body     *string
	ImageURL *string
	AuthorID *int64
}

// UpdatePost applies the non-nil fields of update to the post and returns
// the fresh row.
func (s *Store) UpdatePost(ctx context.Context, id int64, update PostUpdate) (*models.Post, error) {
	sets := []string{}
	args := []any{}
	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Subtitle != nil {
		sets = append(sets, "subtitle = ?")
		args = append(args, *update.Subtitle)
	}
	if update.Body != nil {
		sets = append(sets, "body = ?")
		args = append(args, *update.Body)
	}
	if update.ImageURL != nil {
		sets = append(sets, "image_url = ?")
		args = append(args, *update.ImageURL)
	}
	if update.AuthorID != nil {
		sets = append(sets, "author_id = ?")
		args = append(args, *update.AuthorID)
	}
	if len(sets) == 0 {
		return s.GetPost(ctx, id)
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, oops.Code("CONTENT_DUPLICATE_TITLE").With("post_id", id).Wrap(ErrDuplicateTitle)
		}
		if isForeignKeyViolation(err) {
			return nil, oops.Code("CONTENT_AUTHOR_NOT_FOUND").With("post_id", id).Wrap(ErrAuthorNotFound)
		}
		return nil, oops.Code("CONTENT_UPDATE_FAILED").With("post_id", id).Wrap(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, oops.Code("CONTENT_UPDATE_FAILED").With("post_id", id).Wrap(err)
	}
	if affected == 0 {
		return nil, oops.Code("CONTENT_POST_NOT_FOUND").With("post_id", id).Wrap(ErrNotFound)
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes a post and all of its comments in one transaction.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.Code("CONTENT_DELETE_FAILED").With("post_id", id).Wrap(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, id); err != nil {
		tx.Rollback()
		return oops.Code("CONTENT_DELETE_FAILED").With("post_id", id).Wrap(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		tx.Rollback()
		return oops.Code("CONTENT_DELETE_FAILED").With("post_id", id).Wrap(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return oops.Code("CONTENT_DELETE_FAILED").With("post_id", id).Wrap(err)
	}
	if affected == 0 {
		tx.Rollback()
		return oops.Code("CONTENT_POST_NOT_FOUND").With("post_id", id).Wrap(ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return oops.Code("CONTENT_DELETE_FAILED").With("post_id", id).Wrap(err)
	}
	return nil
}

// AddComment attaches a comment to an existing post. The post check and the
// insert run in one transaction, so a post deleted mid-flight surfaces as
// ErrNotFound rather than an orphaned comment.
func (s *Store) AddComment(ctx context.Context, postID, authorID int64, body string) (*models.Comment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, oops.Code("CONTENT_COMMENT_FAILED").With("post_id", postID).Wrap(err)
	}
	var one int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, postID).Scan(&one); err != nil {
		tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("CONTENT_POST_NOT_FOUND").With("post_id", postID).Wrap(ErrNotFound)
		}
		return nil, oops.Code("CONTENT_COMMENT_FAILED").With("post_id", postID).Wrap(err)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO comments (post_id, author_id, body) VALUES (?, ?, ?)`, postID, authorID, body)
	if err != nil {
		tx.Rollback()
		if isForeignKeyViolation(err) {
			return nil, oops.Code("CONTENT_AUTHOR_NOT_FOUND").With("author_id", authorID).Wrap(ErrAuthorNotFound)
		}
		return nil, oops.Code("CONTENT_COMMENT_FAILED").With("post_id", postID).Wrap(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, oops.Code("CONTENT_COMMENT_FAILED").With("post_id", postID).Wrap(err)
	}
	row := tx.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments c JOIN users u ON u.id = c.author_id WHERE c.id = ?`, id)
	var comment models.Comment
	if err := row.Scan(&comment.ID, &comment.PostID, &comment.AuthorID, &comment.Body, &comment.CreatedAt, &comment.AuthorName); err != nil {
		tx.Rollback()
		return nil, oops.Code("CONTENT_COMMENT_FAILED").With("post_id", postID).Wrap(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, oops.Code("CONTENT_COMMENT_FAILED").With("post_id", postID).Wrap(err)
	}
	return &comment, nil
}

// ListComments returns a post's comments in insertion order.
func (s *Store) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments c JOIN users u ON u.id = c.author_id WHERE c.post_id = ? ORDER BY c.id`, postID)
	if err != nil {
		return nil, oops.Code("CONTENT_LIST_FAILED").With("post_id", postID).Wrap(err)
	}
	defer rows.Close()
	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt, &c.AuthorName); err != nil {
			return nil, oops.Code("CONTENT_LIST_FAILED").With("post_id", postID).Wrap(err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CONTENT_LIST_FAILED").With("post_id", postID).Wrap(err)
	}
	return comments, nil
}

// CountPosts reports the number of posts.
func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, oops.Code("CONTENT_COUNT_FAILED").Wrap(err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Subtitle, &p.Body, &p.ImageURL, &p.Date, &p.CreatedAt, &p.AuthorName)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
