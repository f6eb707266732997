package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"asset-tracker-backend/internal/model"
	"asset-tracker-backend/internal/parse"
	"asset-tracker-backend/internal/store"
)

// DepartmentStore is the subset of store.Store the resolver needs.
type DepartmentStore interface {
	FindDepartmentByName(ctx context.Context, name string) (*model.Department, error)
	InsertDepartment(ctx context.Context, dept *model.Department) error
}

// Resolver maps department names to departments for the duration of one import run,
// creating the ones that do not exist yet. It is safe for concurrent use.
type Resolver struct {
	store DepartmentStore

	mu      sync.Mutex
	cache   map[string]*model.Department
	created int
}

// NewResolver returns a resolver backed by s. s should be the run's transaction.
func NewResolver(s DepartmentStore) *Resolver {
	return &Resolver{
		store: s,
		cache: make(map[string]*model.Department),
	}
}

// Resolve returns the department named name after normalization. Within one
// resolver the same name always yields the same *model.Department.
func (r *Resolver) Resolve(ctx context.Context, name string) (*model.Department, error) {
	name = parse.NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if dept, ok := r.cache[name]; ok {
		return dept, nil
	}

	dept, err := r.store.FindDepartmentByName(ctx, name)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		dept = &model.Department{Name: name}
		if err := r.store.InsertDepartment(ctx, dept); err != nil {
			return nil, err
		}
		r.created++
	default:
		return nil, fmt.Errorf("failed to look up department %q: %w", name, err)
	}

	r.cache[name] = dept
	return dept, nil
}

// Created reports how many departments this resolver inserted.
func (r *Resolver) Created() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created
}
