package dbhelper

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/postboard/apiv1/models"
	"github.com/postboard/apiv1/utils"
)

// MemoryStore keeps everything in process memory. It backs memory:// URLs
// and the tests.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]models.User
	userByEmail map[string]string
	posts       map[string]models.Post
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       map[string]models.User{},
		userByEmail: map[string]string{},
		posts:       map[string]models.Post{},
	}
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.userByEmail[email]
	if !ok {
		return nil, utils.ErrNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.userByEmail[user.Email]; ok {
		return nil, utils.ErrConflict
	}
	u := *user
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = u
	m.userByEmail[u.Email] = u.ID
	return &u, nil
}

// UserCount is used by tests to check that no duplicates were created.
func (m *MemoryStore) UserCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

func clonePost(p models.Post) models.Post {
	p.Tags = slices.Clone(p.Tags)
	p.Likes = slices.Clone(p.Likes)
	p.Comments = slices.Clone(p.Comments)
	return p
}

func (m *MemoryStore) CreatePost(_ context.Context, post *models.Post) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := clonePost(*post)
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.posts[p.ID] = p
	out := clonePost(p)
	return &out, nil
}

func (m *MemoryStore) GetPost(_ context.Context, id string) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	out := clonePost(p)
	return &out, nil
}

func (m *MemoryStore) UpdatePost(_ context.Context, post *models.Post) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[post.ID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	p.Title = post.Title
	p.Message = post.Message
	p.Tags = slices.Clone(post.Tags)
	p.SelectedFile = post.SelectedFile
	m.posts[p.ID] = p
	out := clonePost(p)
	return &out, nil
}

func (m *MemoryStore) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return utils.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *MemoryStore) Close(context.Context) error {
	return nil
}
