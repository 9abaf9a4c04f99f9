package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/kudos/internal/apperror"
	"github.com/sakif/kudos/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================
//
// fakeStore implements both repository interfaces in memory. fakeBlobs
// implements storage.BlobStore. Both append to a shared call log so tests
// can assert the order in which the pipeline touches each store.

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *callLog) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

type fakeStore struct {
	log *callLog

	employees     map[string]*model.Employee
	appreciations []model.Appreciation
	nextID        int
	clock         time.Time

	createErr error
	listErr   error
	getErr    error
}

func newFakeStore(log *callLog) *fakeStore {
	return &fakeStore{
		log:       log,
		employees: make(map[string]*model.Employee),
		clock:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) CreateEmployee(_ context.Context, e *model.Employee) error {
	f.log.add("CreateEmployee")
	for _, existing := range f.employees {
		if existing.Email == e.Email {
			return apperror.Conflict("employee", e.Email)
		}
	}
	f.nextID++
	e.ID = fmt.Sprintf("emp-%d", f.nextID)
	e.CreatedAt = f.clock
	stored := *e
	f.employees[e.ID] = &stored
	return nil
}

func (f *fakeStore) GetEmployeeByID(_ context.Context, id string) (*model.Employee, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	e, ok := f.employees[id]
	if !ok {
		return nil, apperror.NotFound("employee", id)
	}
	result := *e
	return &result, nil
}

func (f *fakeStore) GetEmployeeByEmail(_ context.Context, email string) (*model.Employee, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, e := range f.employees {
		if e.Email == email {
			result := *e
			return &result, nil
		}
	}
	return nil, apperror.NotFound("employee", email)
}

func (f *fakeStore) ListDirectory(_ context.Context) ([]model.DirectoryEntry, error) {
	out := []model.DirectoryEntry{}
	for _, e := range f.employees {
		out = append(out, e.Entry())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f *fakeStore) CreateAppreciation(_ context.Context, a *model.Appreciation) error {
	f.log.add("CreateAppreciation")
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	f.clock = f.clock.Add(time.Minute)
	a.ID = fmt.Sprintf("appr-%d", f.nextID)
	a.CreatedAt = f.clock
	f.appreciations = append(f.appreciations, *a)
	return nil
}

func (f *fakeStore) ListByEmployee(_ context.Context, employeeID string) ([]model.Appreciation, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Appreciation{}
	for i := len(f.appreciations) - 1; i >= 0; i-- {
		if f.appreciations[i].EmployeeID == employeeID {
			out = append(out, f.appreciations[i])
		}
	}
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

type uploadCall struct {
	Bucket      string
	Path        string
	Size        int
	ContentType string
}

type fakeBlobs struct {
	log *callLog

	uploads []uploadCall
	deletes []string

	uploadErr error
	deleteErr error
}

func (f *fakeBlobs) Upload(_ context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	f.log.add("Upload")
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, uploadCall{Bucket: bucket, Path: objectPath, Size: len(data), ContentType: contentType})
	return "https://blobs.test/" + bucket + "/" + objectPath, nil
}

func (f *fakeBlobs) Delete(_ context.Context, bucket, objectPath string) error {
	f.log.add("Delete")
	f.deletes = append(f.deletes, bucket+"/"+objectPath)
	return f.deleteErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
