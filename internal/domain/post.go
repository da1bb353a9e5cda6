package domain

import (
	"math"
	"time"
)

// PostType distinguishes notices from polls
type PostType string

const (
	PostTypeNotice PostType = "NOTICE"
	PostTypePoll   PostType = "POLL"
)

// MinPollOptions is the minimum number of options a poll is created with
const MinPollOptions = 2

// Valid reports whether t is a known post type
func (t PostType) Valid() bool {
	return t == PostTypeNotice || t == PostTypePoll
}

// Post is a bulletin board entry
type Post struct {
	ID         string       `json:"id"`
	ClubID     string       `json:"club_id"`
	AuthorID   string       `json:"author_id"`
	AuthorName string       `json:"author_name,omitempty"`
	Title      string       `json:"title"`
	Content    string       `json:"content"`
	Type       PostType     `json:"type"`
	CreatedAt  time.Time    `json:"created_at"`
	Options    []PollOption `json:"options,omitempty"`
	TotalVotes int          `json:"total_votes"`
	// MyVoteOptionID is the option the caller voted for, if any
	MyVoteOptionID *string `json:"my_vote_option_id,omitempty"`
}

// PollOption is one choice of a poll
type PollOption struct {
	ID       string `json:"id"`
	PostID   string `json:"post_id"`
	Label    string `json:"label"`
	Position int    `json:"position"`
	Votes    int    `json:"votes"`
	Percent  int    `json:"percent"`
}

// Vote records a user's single choice on a poll
type Vote struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	PostID       string    `json:"post_id"`
	PollOptionID string    `json:"poll_option_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Tally is the vote count per option of one poll
type Tally struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// Percent returns votes as a whole percentage of total, 0 when nobody voted
func Percent(votes, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(votes) / float64(total) * 100))
}

// ApplyTally fills per-option counts and percentages
func (p *Post) ApplyTally(t Tally) {
	p.TotalVotes = t.Total
	for i := range p.Options {
		votes := t.Counts[p.Options[i].ID]
		p.Options[i].Votes = votes
		p.Options[i].Percent = Percent(votes, t.Total)
	}
}

// CreatePostRequest represents a new notice or poll
type CreatePostRequest struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Content string   `json:"content" validate:"required"`
	Type    string   `json:"type" validate:"omitempty,oneof=NOTICE POLL"`
	Options []string `json:"options" validate:"omitempty,dive,max=200"`
}

// CastVoteRequest represents a vote on a poll option
type CastVoteRequest struct {
	PollOptionID string `json:"poll_option_id" validate:"required"`
}
