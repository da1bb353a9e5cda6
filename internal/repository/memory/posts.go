package memory

import (
	"context"
	"sort"

	"club-api/internal/domain"
	"club-api/internal/repository"
)

type postRepo struct{ s *Store }

func (st *state) deletePost(id string) {
	for oid, o := range st.options {
		if o.PostID == id {
			delete(st.options, oid)
		}
	}
	for vid, v := range st.votes {
		if v.PostID == id {
			delete(st.voteKey, key(v.UserID, v.PostID))
			delete(st.votes, vid)
		}
	}
	delete(st.posts, id)
}

func (r *postRepo) Create(ctx context.Context, post *domain.Post) error {
	defer r.s.lock(ctx)()
	st := r.s.st

	if _, ok := st.clubs[post.ClubID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := st.users[post.AuthorID]; !ok {
		return repository.ErrNotFound
	}
	if post.ID == "" {
		post.ID = domain.NewID()
	}
	post.CreatedAt = r.s.now().UTC()

	for i := range post.Options {
		opt := &post.Options[i]
		if opt.ID == "" {
			opt.ID = domain.NewID()
		}
		opt.PostID = post.ID
		opt.Position = i
		st.options[opt.ID] = *opt
	}

	stored := *post
	stored.Options = nil
	st.posts[post.ID] = stored
	st.next(post.ID)
	return nil
}

func (r *postRepo) GetByID(ctx context.Context, clubID, id string) (*domain.Post, error) {
	defer r.s.lock(ctx)()
	st := r.s.st

	p, ok := st.posts[id]
	if !ok || p.ClubID != clubID {
		return nil, repository.ErrNotFound
	}
	p.AuthorName = st.users[p.AuthorID].Name

	for _, o := range st.options {
		if o.PostID == id {
			p.Options = append(p.Options, o)
		}
	}
	sort.Slice(p.Options, func(i, j int) bool {
		return p.Options[i].Position < p.Options[j].Position
	})
	return &p, nil
}

func (r *postRepo) List(ctx context.Context, clubID string, limit int) ([]domain.Post, error) {
	defer r.s.lock(ctx)()
	st := r.s.st

	totals := map[string]int{}
	for _, v := range st.votes {
		totals[v.PostID]++
	}

	var out []domain.Post
	for _, p := range st.posts {
		if p.ClubID != clubID {
			continue
		}
		p.AuthorName = st.users[p.AuthorID].Name
		p.TotalVotes = totals[p.ID]
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return st.order[out[i].ID] > st.order[out[j].ID]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *postRepo) Delete(ctx context.Context, clubID, id string) error {
	defer r.s.lock(ctx)()
	p, ok := r.s.st.posts[id]
	if !ok || p.ClubID != clubID {
		return repository.ErrNotFound
	}
	r.s.st.deletePost(id)
	return nil
}

type voteRepo struct{ s *Store }

func (r *voteRepo) Create(ctx context.Context, vote *domain.Vote) error {
	defer r.s.lock(ctx)()
	st := r.s.st

	opt, ok := st.options[vote.PollOptionID]
	if !ok || opt.PostID != vote.PostID {
		return repository.ErrNotFound
	}
	if _, ok := st.users[vote.UserID]; !ok {
		return repository.ErrNotFound
	}
	k := key(vote.UserID, vote.PostID)
	if _, taken := st.voteKey[k]; taken {
		return conflict(repository.ConstraintVoteOnePerPoll)
	}
	if vote.ID == "" {
		vote.ID = domain.NewID()
	}
	vote.CreatedAt = r.s.now().UTC()

	st.votes[vote.ID] = *vote
	st.voteKey[k] = vote.ID
	st.next(vote.ID)
	return nil
}

func (r *voteRepo) GetByUser(ctx context.Context, postID, userID string) (*domain.Vote, error) {
	defer r.s.lock(ctx)()
	id, ok := r.s.st.voteKey[key(userID, postID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v := r.s.st.votes[id]
	return &v, nil
}

func (r *voteRepo) Tally(ctx context.Context, postID string) (domain.Tally, error) {
	defer r.s.lock(ctx)()
	t := domain.Tally{Counts: map[string]int{}}
	for _, v := range r.s.st.votes {
		if v.PostID == postID {
			t.Counts[v.PollOptionID]++
			t.Total++
		}
	}
	return t, nil
}
