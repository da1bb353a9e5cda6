package repository

import (
	"context"

	"club-api/internal/domain"
	"club-api/pkg/database"
)

type voteRepository struct {
	db *database.PostgresDB
}

// NewVoteRepository creates a new PostgreSQL vote repository
func NewVoteRepository(db *database.PostgresDB) VoteRepository {
	return &voteRepository{db: db}
}

// Create inserts the vote only when the option belongs to the post. The
// unique key (user_id, post_id) rejects a second vote on any option of the poll.
func (r *voteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	if vote.ID == "" {
		vote.ID = domain.NewID()
	}

	query := `
		INSERT INTO votes (id, user_id, post_id, poll_option_id)
		SELECT $1, $2, o.post_id, o.id
		FROM poll_options o
		WHERE o.id = $3 AND o.post_id = $4
		RETURNING created_at
	`
	err := r.db.Querier(ctx).QueryRow(ctx, query,
		vote.ID, vote.UserID, vote.PollOptionID, vote.PostID,
	).Scan(&vote.CreatedAt)
	return translate("create vote", err)
}

func (r *voteRepository) GetByUser(ctx context.Context, postID, userID string) (*domain.Vote, error) {
	var v domain.Vote
	err := r.db.Querier(ctx).QueryRow(ctx, `
		SELECT id, user_id, post_id, poll_option_id, created_at
		FROM votes
		WHERE post_id = $1 AND user_id = $2
	`, postID, userID).Scan(&v.ID, &v.UserID, &v.PostID, &v.PollOptionID, &v.CreatedAt)
	if err != nil {
		return nil, translate("get vote", err)
	}
	return &v, nil
}

func (r *voteRepository) Tally(ctx context.Context, postID string) (domain.Tally, error) {
	t := domain.Tally{Counts: map[string]int{}}

	rows, err := r.db.Querier(ctx).Query(ctx, `
		SELECT poll_option_id, COUNT(*)
		FROM votes
		WHERE post_id = $1
		GROUP BY poll_option_id
	`, postID)
	if err != nil {
		return t, translate("tally votes", err)
	}
	defer rows.Close()

	for rows.Next() {
		var optionID string
		var n int
		if err := rows.Scan(&optionID, &n); err != nil {
			return t, translate("scan tally", err)
		}
		t.Counts[optionID] = n
		t.Total += n
	}
	return t, translate("tally votes", rows.Err())
}
