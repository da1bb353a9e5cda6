package service

import (
	"context"
	"errors"
	"strings"

	"club-api/internal/domain"
	"club-api/internal/repository"
	apperrors "club-api/pkg/errors"
	"club-api/pkg/logger"
)

const errAlreadyVoted = "You have already voted on this poll"

type boardService struct {
	repos  *repository.Repositories
	access clubAccess
	cache  *CacheService
	logger *logger.Logger
}

// NewBoardService creates the bulletin board and poll service
func NewBoardService(repos *repository.Repositories, cache *CacheService, log *logger.Logger) BoardService {
	if log == nil {
		log = logger.NewNop()
	}
	return &boardService{
		repos:  repos,
		access: clubAccess{repos: repos},
		cache:  cache,
		logger: log,
	}
}

// CreatePost publishes a notice, or a poll with at least two non-empty options
func (s *boardService) CreatePost(ctx context.Context, actorID, clubID string, req *domain.CreatePostRequest) (*domain.Post, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" {
		return nil, apperrors.NewValidationError("Title is required", map[string]interface{}{"field": "title"})
	}
	if content == "" {
		return nil, apperrors.NewValidationError("Content is required", map[string]interface{}{"field": "content"})
	}

	postType := domain.PostType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if postType == "" {
		postType = domain.PostTypeNotice
	}
	if !postType.Valid() {
		return nil, apperrors.NewValidationError("Invalid post type", map[string]interface{}{
			"field":   "type",
			"allowed": []domain.PostType{domain.PostTypeNotice, domain.PostTypePoll},
		})
	}

	var options []domain.PollOption
	if postType == domain.PostTypePoll {
		for _, label := range req.Options {
			if label = strings.TrimSpace(label); label != "" {
				options = append(options, domain.PollOption{Label: label})
			}
		}
		if len(options) < domain.MinPollOptions {
			return nil, apperrors.NewValidationError("A poll needs at least two options", map[string]interface{}{
				"field": "options",
				"min":   domain.MinPollOptions,
			})
		}
	}

	if _, err := s.access.member(ctx, actorID, clubID); err != nil {
		return nil, err
	}

	post := &domain.Post{
		ClubID:   clubID,
		AuthorID: actorID,
		Title:    title,
		Content:  content,
		Type:     postType,
		Options:  options,
	}
	if err := s.repos.Posts.Create(ctx, post); err != nil {
		return nil, notFoundOr(err, "Club not found")
	}
	post.ApplyTally(domain.Tally{})

	s.cache.InvalidateClubSummary(ctx, clubID)
	s.logger.WithFields(map[string]interface{}{
		"club_id": clubID,
		"post_id": post.ID,
		"type":    post.Type,
	}).Info("Post created")
	return post, nil
}

// GetPost returns a post with its poll results and the caller's own vote
func (s *boardService) GetPost(ctx context.Context, actorID, clubID, postID string) (*domain.Post, error) {
	if _, err := s.access.member(ctx, actorID, clubID); err != nil {
		return nil, err
	}
	post, err := s.repos.Posts.GetByID(ctx, clubID, postID)
	if err != nil {
		return nil, notFoundOr(err, "Post not found")
	}
	if post.Type != domain.PostTypePoll {
		return post, nil
	}

	tally, err := s.cache.GetTally(ctx, postID, func(ctx context.Context) (domain.Tally, error) {
		return s.repos.Votes.Tally(ctx, postID)
	})
	if err != nil {
		return nil, internalError(err)
	}
	post.ApplyTally(tally)

	vote, err := s.repos.Votes.GetByUser(ctx, postID, actorID)
	switch {
	case err == nil:
		post.MyVoteOptionID = &vote.PollOptionID
	case !errors.Is(err, repository.ErrNotFound):
		return nil, internalError(err)
	}
	return post, nil
}

func (s *boardService) ListPosts(ctx context.Context, actorID, clubID string) ([]domain.Post, error) {
	if _, err := s.access.member(ctx, actorID, clubID); err != nil {
		return nil, err
	}
	posts, err := s.repos.Posts.List(ctx, clubID, 0)
	if err != nil {
		return nil, internalError(err)
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}

// DeletePost removes a post with its options and votes. Authors may delete
// their own posts, managers any post.
func (s *boardService) DeletePost(ctx context.Context, actorID, clubID, postID string) error {
	actor, err := s.access.member(ctx, actorID, clubID)
	if err != nil {
		return err
	}
	post, err := s.repos.Posts.GetByID(ctx, clubID, postID)
	if err != nil {
		return notFoundOr(err, "Post not found")
	}
	if post.AuthorID != actorID && !actor.Role.CanManage() {
		return apperrors.NewAuthorizationError("Only the author or club admins can delete this post")
	}
	if err := s.repos.Posts.Delete(ctx, clubID, postID); err != nil {
		return notFoundOr(err, "Post not found")
	}

	s.cache.ForgetTally(ctx, postID)
	s.cache.InvalidateClubSummary(ctx, clubID)
	return nil
}

// CastVote records the caller's single vote on a poll. A second vote on any
// option of the same poll is a conflict and leaves the counts untouched.
func (s *boardService) CastVote(ctx context.Context, userID, clubID, postID, pollOptionID string) (*domain.Vote, error) {
	if strings.TrimSpace(pollOptionID) == "" {
		return nil, apperrors.NewValidationError("Poll option is required", map[string]interface{}{"field": "poll_option_id"})
	}
	if _, err := s.access.member(ctx, userID, clubID); err != nil {
		return nil, err
	}

	post, err := s.repos.Posts.GetByID(ctx, clubID, postID)
	if err != nil {
		return nil, notFoundOr(err, "Post not found")
	}
	if post.Type != domain.PostTypePoll {
		return nil, apperrors.NewValidationError("Only polls accept votes", map[string]interface{}{"post_type": post.Type})
	}

	if s.cache.HasVoted(ctx, postID, userID) {
		return nil, apperrors.NewConflictError(errAlreadyVoted)
	}

	acquired, err := s.cache.TryVoteLock(ctx, postID, userID)
	if err != nil {
		// The unique index still guards the insert
		s.logger.WithError(err).Warn("Vote lock unavailable, relying on database constraint")
	} else if !acquired {
		return nil, apperrors.NewConflictError("A vote for this poll is already being processed")
	} else {
		defer s.cache.ReleaseVoteLock(ctx, postID, userID)
	}

	vote := &domain.Vote{UserID: userID, PostID: postID, PollOptionID: pollOptionID}
	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Votes.GetByUser(ctx, postID, userID); err == nil {
			return apperrors.NewConflictError(errAlreadyVoted)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return s.repos.Votes.Create(ctx, vote)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, apperrors.NewConflictError(errAlreadyVoted)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewNotFoundError("Poll option not found")
		}
		return nil, internalError(err)
	}

	s.cache.MarkVoted(ctx, postID, userID, pollOptionID)
	s.cache.InvalidateTally(ctx, postID)
	// Recent posts in the summary carry vote totals
	s.cache.InvalidateClubSummary(ctx, clubID)
	s.logger.WithFields(map[string]interface{}{
		"post_id":   postID,
		"user_id":   userID,
		"option_id": pollOptionID,
	}).Info("Vote recorded")
	return vote, nil
}
