package services

import (
	"context"
	"fmt"

	"github.com/postboard/apiv1/models"
	"github.com/postboard/apiv1/tokens"
	"github.com/postboard/apiv1/utils"
)

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
}

type PostService struct {
	posts PostStore
}

func NewPostService(posts PostStore) *PostService {
	return &PostService{posts: posts}
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.posts.GetPost(ctx, id)
}

// Create stores a post owned by the caller.
func (s *PostService) Create(ctx context.Context, caller tokens.Identity, post models.Post) (*models.Post, error) {
	if caller.Subject == "" {
		return nil, utils.ErrUnauthorized
	}
	post.ID = ""
	post.Creator = caller.Subject
	post.Likes = []string{}
	post.Comments = []string{}
	if post.Tags == nil {
		post.Tags = []string{}
	}

	created, err := s.posts.CreatePost(ctx, &post)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

func (s *PostService) ownedPost(ctx context.Context, caller tokens.Identity, id string) (*models.Post, error) {
	if caller.Subject == "" {
		return nil, utils.ErrUnauthorized
	}
	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Creator != caller.Subject {
		return nil, utils.ErrForbidden
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, caller tokens.Identity, id string, patch models.PostPatch) (*models.Post, error) {
	post, err := s.ownedPost(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(post)
	return s.posts.UpdatePost(ctx, post)
}

func (s *PostService) Delete(ctx context.Context, caller tokens.Identity, id string) error {
	if _, err := s.ownedPost(ctx, caller, id); err != nil {
		return err
	}
	return s.posts.DeletePost(ctx, id)
}
