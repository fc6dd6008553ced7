package taskstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"task-list/internal/config"
	"task-list/internal/domain"
	apperrors "task-list/internal/errors"
	"task-list/internal/kvstore/memory"
	"task-list/internal/validation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestStore(t *testing.T, kv *memory.Store, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	s := New(kv, opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, s.Close(ctx))
	})
	return s
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func savedList(t *testing.T, kv *memory.Store) domain.TaskList {
	t.Helper()
	data, found, err := kv.Get(context.Background(), config.DefaultStorageKey)
	require.NoError(t, err)
	require.True(t, found, "expected a saved snapshot")
	list, err := domain.DecodeSnapshot(data)
	require.NoError(t, err)
	return list
}

func diffLists(want, got domain.TaskList) string {
	return cmp.Diff(want, got, cmpopts.EquateEmpty())
}

func TestStore_Add(t *testing.T) {
	tests := []struct {
		name      string
		candidate domain.TaskCandidate
	}{
		{name: "name only", candidate: domain.TaskCandidate{Name: "Buy milk"}},
		{name: "with description", candidate: domain.TaskCandidate{Name: "Buy milk", Description: "2%"}},
		{name: "with photo", candidate: domain.TaskCandidate{Name: "Fix bike", Image: domain.StringPtr("file:///photos/bike.jpg")}},
		{name: "single character", candidate: domain.TaskCandidate{Name: "x"}},
		{name: "multi-line name", candidate: domain.TaskCandidate{Name: "Buy milk\nand eggs"}},
		{name: "long name", candidate: domain.TaskCandidate{Name: strings.Repeat("n", 300)}},
		{name: "long description", candidate: domain.TaskCandidate{Name: "Notes", Description: strings.Repeat("d", 2500)}},
		{name: "plain path image", candidate: domain.TaskCandidate{Name: "Fence", Image: domain.StringPtr("/var/mobile/photo.jpg")}},
		{name: "data URI image", candidate: domain.TaskCandidate{Name: "Fence", Image: domain.StringPtr("data:image/png;base64,iVBORw0KGgo=")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, memory.New(),
				FromConfig(config.NewConfig()),
				WithInitialTasks(domain.TaskList{{ID: "1", Name: "existing"}}))
			before := s.Len()

			list, err := s.Add(tt.candidate)
			require.NoError(t, err)

			require.Len(t, list, before+1)
			added := list[len(list)-1]
			assert.False(t, added.IsDone)
			assert.NotEmpty(t, added.ID)
			assert.Equal(t, tt.candidate.Name, added.Name)
			assert.Equal(t, tt.candidate.Description, added.Description)
			assert.Equal(t, tt.candidate.Image, added.Image)
			assert.Equal(t, "existing", list[0].Name, "existing tasks keep their position")
		})
	}
}

func TestStore_Add_RejectsBlankName(t *testing.T) {
	for _, name := range []string{"", " ", "   ", "\t\n"} {
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			kv := memory.New()
			s := newTestStore(t, kv, WithInitialTasks(domain.TaskList{{ID: "1", Name: "keep"}}))
			before := s.Tasks()

			list, err := s.Add(domain.TaskCandidate{Name: name, Description: "ignored"})
			require.Error(t, err)
			assert.Nil(t, list)
			assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
			assert.True(t, validation.IsValidationError(err))

			if diff := diffLists(before, s.Tasks()); diff != "" {
				t.Errorf("list changed after rejected add (-want +got):\n%s", diff)
			}
			flush(t, s)
			assert.Empty(t, kv.Writes(config.DefaultStorageKey))
		})
	}
}

func TestStore_Add_TrimsAndPersists(t *testing.T) {
	kv := memory.New()
	s := newTestStore(t, kv)

	list, err := s.Add(domain.TaskCandidate{Name: "  Call mum  ", Description: " tonight "})
	require.NoError(t, err)
	assert.Equal(t, "Call mum", list[0].Name)
	assert.Equal(t, "tonight", list[0].Description)
	assert.Equal(t, fmt.Sprint(fixedNow.UnixMilli()), list[0].ID)

	flush(t, s)
	if diff := diffLists(list, savedList(t, kv)); diff != "" {
		t.Errorf("saved list mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_Add_UniqueIDsUnderFrozenClock(t *testing.T) {
	s := newTestStore(t, memory.New())

	for i := 0; i < 5; i++ {
		_, err := s.Add(domain.TaskCandidate{Name: fmt.Sprintf("task %d", i)})
		require.NoError(t, err)
	}

	list := s.Tasks()
	require.NoError(t, list.Validate())
	assert.Len(t, list, 5)
}

func TestStore_Add_RejectsOverLongNameFromConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Validation.TaskNameMaxLength = 5
	s := newTestStore(t, memory.New(), FromConfig(cfg))

	_, err := s.Add(domain.TaskCandidate{Name: "too long"})
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())

	_, err = s.Add(domain.TaskCandidate{Name: "short"})
	require.NoError(t, err)
}

func TestStore_ToggleDone(t *testing.T) {
	initial := domain.TaskList{
		{ID: "1", Name: "a"},
		{ID: "2", Name: "b", IsDone: true},
		{ID: "3", Name: "c", Image: domain.StringPtr("file:///c.jpg")},
	}

	for _, target := range initial {
		t.Run(target.ID, func(t *testing.T) {
			s := newTestStore(t, memory.New(), WithInitialTasks(initial))

			once := s.ToggleDone(target.ID)
			for i, task := range once {
				if task.ID == target.ID {
					assert.Equal(t, !initial[i].IsDone, task.IsDone)
					continue
				}
				assert.Equal(t, initial[i], task, "other tasks must be untouched")
			}

			twice := s.ToggleDone(target.ID)
			if diff := diffLists(initial, twice); diff != "" {
				t.Errorf("toggling twice should restore the list (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_ToggleDone_UnknownID(t *testing.T) {
	kv := memory.New()
	initial := domain.TaskList{{ID: "1", Name: "a"}}
	s := newTestStore(t, kv, WithInitialTasks(initial))

	list := s.ToggleDone("404")
	if diff := diffLists(initial, list); diff != "" {
		t.Errorf("unexpected change (-want +got):\n%s", diff)
	}
	assert.False(t, s.Contains("404"))

	flush(t, s)
	assert.Empty(t, kv.Writes(config.DefaultStorageKey))
}

func TestStore_Delete(t *testing.T) {
	initial := domain.TaskList{
		{ID: "1", Name: "a"},
		{ID: "2", Name: "b"},
		{ID: "3", Name: "c"},
	}

	tests := []struct {
		name    string
		id      string
		wantIDs []string
	}{
		{name: "first", id: "1", wantIDs: []string{"2", "3"}},
		{name: "middle", id: "2", wantIDs: []string{"1", "3"}},
		{name: "last", id: "3", wantIDs: []string{"1", "2"}},
		{name: "absent", id: "9", wantIDs: []string{"1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := memory.New()
			s := newTestStore(t, kv, WithInitialTasks(initial))

			list := s.Delete(tt.id)
			assert.Equal(t, tt.wantIDs, list.IDs())
			assert.False(t, list.Contains(tt.id))

			flush(t, s)
			if tt.id == "9" {
				assert.Empty(t, kv.Writes(config.DefaultStorageKey), "a miss writes nothing")
			} else {
				assert.Equal(t, tt.wantIDs, savedList(t, kv).IDs())
			}
		})
	}
}

func TestStore_PersistLoadRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		list domain.TaskList
	}{
		{name: "empty", list: domain.TaskList{}},
		{name: "single without image", list: domain.TaskList{
			{ID: "1700000000000", Name: "Buy milk", Description: "2%"},
		}},
		{name: "several with and without images", list: domain.TaskList{
			{ID: "1", Name: "a", Image: domain.StringPtr("file:///photos/a.jpg")},
			{ID: "2", Name: "b", IsDone: true},
			{ID: "3", Name: "c", Description: "with \"quotes\" and ünïcode", Image: domain.StringPtr("content://media/external/images/42")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := memory.New()
			writer := newTestStore(t, kv)
			require.NoError(t, writer.Persist(tt.list))
			flush(t, writer)

			fresh := newTestStore(t, kv)
			result := fresh.Load(context.Background())
			require.NoError(t, result.Err)
			assert.True(t, result.Found)
			assert.Equal(t, len(tt.list), result.Count)

			if diff := diffLists(tt.list, fresh.Tasks()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_Persist_RejectsBrokenList(t *testing.T) {
	s := newTestStore(t, memory.New())

	err := s.Persist(domain.TaskList{{ID: "1", Name: "a"}, {ID: "1", Name: "b"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
	assert.Equal(t, 0, s.Len())
}

func TestStore_Scenario_AddToggleDelete(t *testing.T) {
	kv := memory.New()
	s := newTestStore(t, kv)

	list, err := s.Add(domain.TaskCandidate{Name: "Buy milk", Description: "2%"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Buy milk", list[0].Name)
	assert.False(t, list[0].IsDone)
	assert.Nil(t, list[0].Image)

	id := list[0].ID
	list = s.ToggleDone(id)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDone)

	list = s.Delete(id)
	assert.Empty(t, list)

	flush(t, s)
	assert.Empty(t, savedList(t, kv))
	assert.NotEmpty(t, kv.Writes(config.DefaultStorageKey))
}

func TestStore_Load_NoData(t *testing.T) {
	s := newTestStore(t, memory.New())

	result := s.Load(context.Background())
	assert.NoError(t, result.Err)
	assert.False(t, result.Found)
	assert.Equal(t, 0, result.Count)
	assert.NotNil(t, s.Tasks())
	assert.Empty(t, s.Tasks())
}

func TestStore_Load_Failures(t *testing.T) {
	initial := domain.TaskList{{ID: "1", Name: "seed"}}

	tests := []struct {
		name  string
		setup func() *memory.Store
	}{
		{
			name: "read error",
			setup: func() *memory.Store {
				kv := memory.New()
				kv.FailGets(errors.New("storage unavailable"))
				return kv
			},
		},
		{
			name: "unparseable data",
			setup: func() *memory.Store {
				return memory.NewWithData(map[string][]byte{config.DefaultStorageKey: []byte("not json")})
			},
		},
		{
			name: "future schema version",
			setup: func() *memory.Store {
				return memory.NewWithData(map[string][]byte{config.DefaultStorageKey: []byte(`{"version":99,"tasks":[]}`)})
			},
		},
		{
			name: "duplicate ids",
			setup: func() *memory.Store {
				return memory.NewWithData(map[string][]byte{
					config.DefaultStorageKey: []byte(`[{"id":"1","name":"a","description":"","image":null,"isDone":false},{"id":"1","name":"b","description":"","image":null,"isDone":false}]`),
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			s := newTestStore(t, tt.setup(), WithInitialTasks(initial), WithLogger(zap.New(core)))

			result := s.Load(context.Background())
			require.Error(t, result.Err)
			assert.True(t, apperrors.IsErrorType(result.Err, apperrors.ErrorTypePersistenceRead))
			assert.False(t, result.Found)

			if diff := diffLists(initial, s.Tasks()); diff != "" {
				t.Errorf("list must be unaffected (-want +got):\n%s", diff)
			}
			assert.Equal(t, 1, logs.FilterMessage("failed to load saved task list; keeping current list").Len())
		})
	}
}

func TestStore_Load_LegacyArray(t *testing.T) {
	kv := memory.NewWithData(map[string][]byte{
		config.DefaultStorageKey: []byte(`[{"id":"1","name":"Buy milk","description":"2%","image":"file:///m.jpg","isDone":true}]`),
	})
	s := newTestStore(t, kv)

	result := s.Load(context.Background())
	require.NoError(t, result.Err)

	task, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Buy milk", task.Name)
	assert.True(t, task.IsDone)
	assert.Equal(t, "file:///m.jpg", task.ImageURI())
}

func TestStore_WriteFailureIsNotRolledBack(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	kv := memory.New()
	kv.FailSets(errors.New("disk full"))
	s := newTestStore(t, kv, WithLogger(zap.New(core)))

	list, err := s.Add(domain.TaskCandidate{Name: "still here"})
	require.NoError(t, err, "write failures never reach the caller")
	require.Len(t, list, 1)

	flush(t, s)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, uint64(1), s.WriteStats().Failed)
	assert.Equal(t, 1, logs.FilterMessage("failed to persist snapshot").Len())

	// The next successful write brings storage back in line.
	kv.FailSets(nil)
	s.ToggleDone(list[0].ID)
	flush(t, s)
	if diff := diffLists(s.Tasks(), savedList(t, kv)); diff != "" {
		t.Errorf("storage should converge (-want +got):\n%s", diff)
	}
}

func TestStore_LastWriteReflectsLastMutation(t *testing.T) {
	kv := memory.New()
	s := newTestStore(t, kv)

	var ids []string
	for i := 0; i < 25; i++ {
		list, err := s.Add(domain.TaskCandidate{Name: fmt.Sprintf("task %d", i)})
		require.NoError(t, err)
		ids = append(ids, list[len(list)-1].ID)
	}
	for i, id := range ids {
		if i%2 == 0 {
			s.ToggleDone(id)
		}
		if i%5 == 0 {
			s.Delete(id)
		}
	}

	flush(t, s)
	if diff := diffLists(s.Tasks(), savedList(t, kv)); diff != "" {
		t.Errorf("saved snapshot is stale (-want +got):\n%s", diff)
	}
}

func TestStore_ConcurrentCallers(t *testing.T) {
	kv := memory.New()
	s := newTestStore(t, kv)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			list, err := s.Add(domain.TaskCandidate{Name: fmt.Sprintf("worker %d", n)})
			if err != nil {
				return
			}
			s.ToggleDone(list[len(list)-1].ID)
			_ = s.Tasks()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, s.Len())
	require.NoError(t, s.Tasks().Validate())

	flush(t, s)
	if diff := diffLists(s.Tasks(), savedList(t, kv)); diff != "" {
		t.Errorf("saved snapshot is stale (-want +got):\n%s", diff)
	}
}

func TestStore_ReturnedListsAreCopies(t *testing.T) {
	s := newTestStore(t, memory.New())

	list, err := s.Add(domain.TaskCandidate{Name: "original", Image: domain.StringPtr("file:///a.jpg")})
	require.NoError(t, err)

	list[0].Name = "mutated"
	*list[0].Image = "file:///b.jpg"

	task, ok := s.Get(list[0].ID)
	require.True(t, ok)
	assert.Equal(t, "original", task.Name)
	assert.Equal(t, "file:///a.jpg", task.ImageURI())
}

func TestStore_CustomKey(t *testing.T) {
	kv := memory.New()
	cfg := config.NewConfig()
	cfg.Storage.Key = "tasks-v2"
	s := newTestStore(t, kv, FromConfig(cfg))

	assert.Equal(t, "tasks-v2", s.Key())
	_, err := s.Add(domain.TaskCandidate{Name: "a"})
	require.NoError(t, err)
	flush(t, s)

	assert.Len(t, kv.Writes("tasks-v2"), 1)
	assert.Empty(t, kv.Writes(config.DefaultStorageKey))
}

func TestStore_CloseStopsWriter(t *testing.T) {
	kv := memory.New()
	s := New(kv, WithClock(fixedClock))

	_, err := s.Add(domain.TaskCandidate{Name: strings.Repeat("a", 3)})
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	assert.Len(t, kv.Writes(config.DefaultStorageKey), 1, "close drains pending writes")

	s.ToggleDone(s.Tasks()[0].ID)
	assert.Equal(t, uint64(1), s.WriteStats().Dropped)
}
