package dbhelper

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/postboard/apiv1/models"
	"github.com/postboard/apiv1/utils"
	"gorm.io/gorm"
)

func (s *GormStore) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

func (s *GormStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

func (s *GormStore) UpdatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	err := s.db.WithContext(ctx).
		Model(post).
		Select("Title", "Message", "Tags", "SelectedFile").
		Updates(post).Error
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

func (s *GormStore) DeletePost(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{})
	if res.Error != nil {
		return fmt.Errorf("delete post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
