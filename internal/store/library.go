package store

import (
	"context"
	"encoding/json"

	"studyapp/internal/models"
	contextutils "studyapp/internal/utils"
)

// Library wraps the object store with typed accessors for the study
// domain's entity kinds.
type Library struct {
	store *Store
}

// NewLibrary creates a library over an open store.
func NewLibrary(s *Store) *Library {
	return &Library{store: s}
}

func decodeAll[T any](raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, contextutils.WrapErrorf(err, "failed to decode stored entity")
		}
		out = append(out, v)
	}
	return out, nil
}

// SaveBook persists a book with its pages and analyzed structure.
func (l *Library) SaveBook(ctx context.Context, book models.SavedBook) error {
	if book.ID == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "book id is required")
	}
	return l.store.Put(ctx, KindBook, book.ID, book)
}

// GetBook loads one saved book.
func (l *Library) GetBook(ctx context.Context, id string) (models.SavedBook, error) {
	var book models.SavedBook
	err := l.store.Get(ctx, KindBook, id, &book)
	return book, err
}

// ListBooks returns all saved books, most recently updated first.
func (l *Library) ListBooks(ctx context.Context) ([]models.SavedBook, error) {
	raws, err := l.store.GetAll(ctx, KindBook)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.SavedBook](raws)
}

// DeleteBook removes a saved book.
func (l *Library) DeleteBook(ctx context.Context, id string) error {
	return l.store.Delete(ctx, KindBook, id)
}

// SaveSummary persists a chapter summary.
func (l *Library) SaveSummary(ctx context.Context, summary models.SavedSummary) error {
	if summary.ID == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "summary id is required")
	}
	return l.store.Put(ctx, KindSummary, summary.ID, summary)
}

// ListSummaries returns all saved summaries.
func (l *Library) ListSummaries(ctx context.Context) ([]models.SavedSummary, error) {
	raws, err := l.store.GetAll(ctx, KindSummary)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.SavedSummary](raws)
}

// DeleteSummary removes a saved summary.
func (l *Library) DeleteSummary(ctx context.Context, id string) error {
	return l.store.Delete(ctx, KindSummary, id)
}

// SaveTask persists a study task.
func (l *Library) SaveTask(ctx context.Context, task models.Task) error {
	if task.ID == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "task id is required")
	}
	return l.store.Put(ctx, KindTask, task.ID, task)
}

// ListTasks returns all study tasks.
func (l *Library) ListTasks(ctx context.Context) ([]models.Task, error) {
	raws, err := l.store.GetAll(ctx, KindTask)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Task](raws)
}

// DeleteTask removes a study task.
func (l *Library) DeleteTask(ctx context.Context, id string) error {
	return l.store.Delete(ctx, KindTask, id)
}

// SaveTaskCategory persists a task category.
func (l *Library) SaveTaskCategory(ctx context.Context, category models.TaskCategory) error {
	if category.ID == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "category id is required")
	}
	return l.store.Put(ctx, KindTaskCategory, category.ID, category)
}

// ListTaskCategories returns all task categories.
func (l *Library) ListTaskCategories(ctx context.Context) ([]models.TaskCategory, error) {
	raws, err := l.store.GetAll(ctx, KindTaskCategory)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.TaskCategory](raws)
}

// DeleteTaskCategory removes a task category.
func (l *Library) DeleteTaskCategory(ctx context.Context, id string) error {
	return l.store.Delete(ctx, KindTaskCategory, id)
}

// SaveActiveBook records which book the user is studying so the next
// session can resume it.
func (l *Library) SaveActiveBook(ctx context.Context, state models.ActiveBookState) error {
	return l.store.SaveActiveBook(ctx, state)
}

// LoadActiveBook returns the resume pointer.
func (l *Library) LoadActiveBook(ctx context.Context) (models.ActiveBookState, error) {
	var state models.ActiveBookState
	err := l.store.LoadActiveBook(ctx, &state)
	return state, err
}

// ClearActiveBook drops the resume pointer.
func (l *Library) ClearActiveBook(ctx context.Context) error {
	return l.store.ClearActiveBook(ctx)
}
