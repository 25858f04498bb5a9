package repository

import (
	"context"
	"fmt"
	"sync"

	"go-stock-engine/internal/model"

	"github.com/google/uuid"
)

type memoryOperatorRepo struct {
	mu        sync.RWMutex
	operators map[uuid.UUID]model.Operator
}

func NewMemoryOperatorRepo() OperatorRepository {
	return &memoryOperatorRepo{operators: make(map[uuid.UUID]model.Operator)}
}

func (r *memoryOperatorRepo) FindByUsername(ctx context.Context, username string) (*model.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.operators {
		if o.Username == username {
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryOperatorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.operators[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (r *memoryOperatorRepo) Create(ctx context.Context, operator *model.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.operators {
		if o.Username == operator.Username {
			return fmt.Errorf("operator %s already exists", operator.Username)
		}
	}
	if operator.ID == uuid.Nil {
		operator.ID = uuid.New()
	}
	r.operators[operator.ID] = *operator
	return nil
}

func (r *memoryOperatorRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	return r.update(id, func(o *model.Operator) { o.Password = hashedPassword })
}

func (r *memoryOperatorRepo) UpdateTokenVersion(ctx context.Context, id uuid.UUID, version string) error {
	return r.update(id, func(o *model.Operator) { o.TokenVersion = version })
}

func (r *memoryOperatorRepo) update(id uuid.UUID, fn func(o *model.Operator)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.operators[id]
	if !ok {
		return ErrNotFound
	}
	fn(&o)
	r.operators[id] = o
	return nil
}
