package repository

import (
	"context"

	"club-api/internal/domain"
	"club-api/pkg/database"
)

type postRepository struct {
	db *database.PostgresDB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *database.PostgresDB) PostRepository {
	return &postRepository{db: db}
}

// Create inserts the post and its options in one transaction
func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	if post.ID == "" {
		post.ID = domain.NewID()
	}

	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		q := r.db.Querier(ctx)
		err := q.QueryRow(ctx, `
			INSERT INTO posts (id, club_id, author_id, title, content, type)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`, post.ID, post.ClubID, post.AuthorID, post.Title, post.Content, post.Type).Scan(&post.CreatedAt)
		if err != nil {
			return translate("create post", err)
		}

		for i := range post.Options {
			opt := &post.Options[i]
			if opt.ID == "" {
				opt.ID = domain.NewID()
			}
			opt.PostID = post.ID
			opt.Position = i
			if _, err := q.Exec(ctx,
				`INSERT INTO poll_options (id, post_id, label, position) VALUES ($1, $2, $3, $4)`,
				opt.ID, opt.PostID, opt.Label, opt.Position,
			); err != nil {
				return translate("create poll option", err)
			}
		}
		return nil
	})
}

func (r *postRepository) GetByID(ctx context.Context, clubID, id string) (*domain.Post, error) {
	q := r.db.Querier(ctx)

	var p domain.Post
	err := q.QueryRow(ctx, `
		SELECT p.id, p.club_id, p.author_id, u.name, p.title, p.content, p.type, p.created_at
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1 AND p.club_id = $2
	`, id, clubID).Scan(&p.ID, &p.ClubID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Content, &p.Type, &p.CreatedAt)
	if err != nil {
		return nil, translate("get post", err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, post_id, label, position
		FROM poll_options
		WHERE post_id = $1
		ORDER BY position ASC
	`, p.ID)
	if err != nil {
		return nil, translate("list poll options", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o domain.PollOption
		if err := rows.Scan(&o.ID, &o.PostID, &o.Label, &o.Position); err != nil {
			return nil, translate("scan poll option", err)
		}
		p.Options = append(p.Options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list poll options", err)
	}
	return &p, nil
}

func (r *postRepository) List(ctx context.Context, clubID string, limit int) ([]domain.Post, error) {
	query := `
		SELECT p.id, p.club_id, p.author_id, u.name, p.title, p.content, p.type, p.created_at,
		       (SELECT COUNT(*) FROM votes v WHERE v.post_id = p.id) AS total_votes
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.club_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT NULLIF($2, 0)
	`
	if limit < 0 {
		limit = 0
	}
	rows, err := r.db.Querier(ctx).Query(ctx, query, clubID, limit)
	if err != nil {
		return nil, translate("list posts", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(
			&p.ID, &p.ClubID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Content, &p.Type, &p.CreatedAt, &p.TotalVotes,
		); err != nil {
			return nil, translate("scan post", err)
		}
		posts = append(posts, p)
	}
	return posts, translate("list posts", rows.Err())
}

func (r *postRepository) Delete(ctx context.Context, clubID, id string) error {
	tag, err := r.db.Querier(ctx).Exec(ctx, `DELETE FROM posts WHERE id = $1 AND club_id = $2`, id, clubID)
	if err != nil {
		return translate("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return translate("delete post", ErrNotFound)
	}
	return nil
}
