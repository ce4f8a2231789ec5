package prompt_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/c360studio/chainflow/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceWithRecords(t *testing.T, recs ...*prompt.Record) (*prompt.Service, *prompt.MemoryStore) {
	t.Helper()
	store := prompt.NewMemoryStore()
	for _, rec := range recs {
		require.NoError(t, store.Put(context.Background(), rec))
	}
	cache := prompt.NewCache(prompt.DefaultCacheConfig())
	return prompt.NewService(store, prompt.WithCache(cache)), store
}

func TestService_BaseLookupNoLocals(t *testing.T) {
	svc, _ := newServiceWithRecords(t, &prompt.Record{
		ID: "1", Area: "general", Key: "news", Text: "base",
	})

	rec, err := svc.Lookup(context.Background(), "general", "news", nil)
	require.NoError(t, err)
	assert.Equal(t, "base", rec.Text)
}

func TestService_CascadeFallsBackToBase(t *testing.T) {
	// Only a base record exists; a lookup with local_1 should cascade all
	// the way down to it.
	svc, _ := newServiceWithRecords(t, &prompt.Record{
		ID: "1", Area: "general", Key: "news", Text: "base",
	})

	rec, err := svc.Lookup(context.Background(), "general", "news",
		&prompt.Locals{Local1: "x"})
	require.NoError(t, err)
	assert.Equal(t, "base", rec.Text)
}

func TestService_MostSpecificWins(t *testing.T) {
	tests := []struct {
		name   string
		locals *prompt.Locals
		want   string
	}{
		{"all three locals", &prompt.Locals{Local1: "ja", Local2: "jp", Local3: "tokyo"}, "l3"},
		{"two locals", &prompt.Locals{Local1: "ja", Local2: "jp"}, "l2"},
		{"one local", &prompt.Locals{Local1: "ja"}, "l1"},
		{"no locals", nil, "base"},
		{"unknown local falls back", &prompt.Locals{Local1: "de"}, "base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Fresh cache per case so earlier resolutions don't mask the
			// cascade under test.
			svc := prompt.NewService(storeFrom(t),
				prompt.WithCache(prompt.NewCache(prompt.DefaultCacheConfig())))

			rec, err := svc.Lookup(context.Background(), "general", "news", tt.locals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Text)
		})
	}
}

// storeFrom builds the four-level store used by TestService_MostSpecificWins.
func storeFrom(t *testing.T) *prompt.MemoryStore {
	t.Helper()
	store := prompt.NewMemoryStore()
	for _, rec := range []*prompt.Record{
		{ID: "1", Area: "general", Key: "news", Text: "base"},
		{ID: "2", Area: "general", Key: "news", Local1: "ja", Text: "l1"},
		{ID: "3", Area: "general", Key: "news", Local1: "ja", Local2: "jp", Text: "l2"},
		{ID: "4", Area: "general", Key: "news", Local1: "ja", Local2: "jp", Local3: "tokyo", Text: "l3"},
	} {
		require.NoError(t, store.Put(context.Background(), rec))
	}
	return store
}

func TestService_PartialLocalsSkipHigherLevels(t *testing.T) {
	// local_2 without local_1 never forms a valid level; only the base
	// lookup runs.
	svc, _ := newServiceWithRecords(t,
		&prompt.Record{ID: "1", Area: "general", Key: "news", Text: "base"},
	)

	rec, err := svc.Lookup(context.Background(), "general", "news",
		&prompt.Locals{Local2: "orphan"})
	require.NoError(t, err)
	assert.Equal(t, "base", rec.Text)
}

func TestService_NotFound(t *testing.T) {
	svc, _ := newServiceWithRecords(t)

	_, err := svc.Lookup(context.Background(), "general", "missing", nil)
	assert.ErrorIs(t, err, prompt.ErrNotFound)
}

func TestService_CacheShortCircuitsStore(t *testing.T) {
	store := prompt.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), &prompt.Record{
		ID: "1", Area: "general", Key: "news", Text: "base",
	}))
	cache := prompt.NewCache(prompt.DefaultCacheConfig())
	svc := prompt.NewService(store, prompt.WithCache(cache))

	_, err := svc.Lookup(context.Background(), "general", "news", nil)
	require.NoError(t, err)

	// Remove the record from the store; the cached copy still serves.
	require.NoError(t, store.Delete(context.Background(), prompt.Query{Area: "general", Key: "news"}))

	rec, err := svc.Lookup(context.Background(), "general", "news", nil)
	require.NoError(t, err)
	assert.Equal(t, "base", rec.Text)

	// After invalidation the store miss surfaces.
	svc.Invalidate("general", "news")
	_, err = svc.Lookup(context.Background(), "general", "news", nil)
	assert.ErrorIs(t, err, prompt.ErrNotFound)
}

// failingStore returns an error other than ErrNotFound.
type failingStore struct{}

func (failingStore) Lookup(context.Context, prompt.Query) (*prompt.Record, error) {
	return nil, errors.New("backend unavailable")
}

func (failingStore) Put(context.Context, *prompt.Record) error { return nil }

func (failingStore) Delete(context.Context, prompt.Query) error { return nil }

func TestService_StoreErrorsPropagate(t *testing.T) {
	svc := prompt.NewService(failingStore{},
		prompt.WithCache(prompt.NewCache(prompt.DefaultCacheConfig())))

	_, err := svc.Lookup(context.Background(), "general", "news", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, prompt.ErrNotFound)
}

func TestQuery_StoreKeyEncodesLocalsInOrder(t *testing.T) {
	tests := []struct {
		name string
		q    prompt.Query
		want string
	}{
		{"base", prompt.Query{Area: "general", Key: "news"}, "general.news"},
		{"one local", prompt.Query{Area: "general", Key: "news", Local1: "ja"}, "general.news.ja"},
		{"two locals", prompt.Query{Area: "general", Key: "news", Local1: "ja", Local2: "jp"}, "general.news.ja.jp"},
		{"all locals", prompt.Query{Area: "general", Key: "news", Local1: "ja", Local2: "jp", Local3: "tokyo"}, "general.news.ja.jp.tokyo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.StoreKey())
		})
	}
}

func TestRecord_Render(t *testing.T) {
	rec := &prompt.Record{
		Text:      "Summarize news about {{country}} in {{language}}.",
		Variables: []string{"country", "language"},
		CreatedAt: time.Now(),
	}

	out := rec.Render(map[string]string{"country": "Japan", "language": "English"})
	assert.Equal(t, "Summarize news about Japan in English.", out)
}

func TestRecord_RenderLeavesUnknownPlaceholders(t *testing.T) {
	rec := &prompt.Record{Text: "Hello {{name}}, today is {{day}}."}

	out := rec.Render(map[string]string{"name": "Ada"})
	assert.Equal(t, "Hello Ada, today is {{day}}.", out)
}

func TestRecord_RenderNoVariables(t *testing.T) {
	rec := &prompt.Record{Text: "static text"}
	assert.Equal(t, "static text", rec.Render(nil))
}
