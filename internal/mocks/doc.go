// Package mocks provides reusable test doubles for the store and auth
// interfaces.
//
// Each mock has a function field per interface method. A nil field falls
// back to a harmless default, so tests only set the behavior they care
// about:
//
//	tasks := &mocks.MockTaskStore{
//	    ListFn: func(ctx context.Context, ownerID uuid.UUID, f store.TaskFilter) ([]*domain.Task, error) {
//	        return nil, errors.New("connection reset")
//	    },
//	}
package mocks
