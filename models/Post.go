package models

import (
	"time"
)

type Post struct {
	ID           string    `gorm:"primaryKey;size:36" json:"_id"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Name         string    `json:"name"`
	Creator      string    `gorm:"index;size:36" json:"creator"`
	Tags         []string  `gorm:"serializer:json" json:"tags"`
	SelectedFile string    `json:"selectedFile"`
	Likes        []string  `gorm:"serializer:json" json:"likes"`
	Comments     []string  `gorm:"serializer:json" json:"comments"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PostPatch carries the mutable fields of a post. Nil fields are left as is.
type PostPatch struct {
	Title        *string
	Message      *string
	Tags         []string
	SelectedFile *string
}

func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Message != nil {
		post.Message = *p.Message
	}
	if p.Tags != nil {
		post.Tags = p.Tags
	}
	if p.SelectedFile != nil {
		post.SelectedFile = *p.SelectedFile
	}
}
