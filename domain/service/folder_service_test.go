package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajkula/GoAutoSync/domain/model"
)

func setupFolderService(t *testing.T, inspector *fakeInspector) *folderService {
	resolver := NewWatchTargetResolver(
		fakeIdentity{id: model.Identity{Name: "alice", HomeDir: "/home/alice"}},
		"Desktop", "autoSync", "",
	)
	return NewFolderService(resolver, inspector, &mockLogger{t: t})
}

func TestFolderService_Exists(t *testing.T) {
	inspector := newFakeInspector("/home/alice/Desktop/autoSync")
	inspector.files["/home/alice/Desktop/notes"] = true
	svc := setupFolderService(t, inspector)

	exists, err := svc.Exists(context.Background(), "autoSync")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.Exists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = svc.Exists(context.Background(), "notes")
	require.NoError(t, err)
	assert.False(t, exists, "a regular file is not a folder")
}

func TestFolderService_ExistsStatError(t *testing.T) {
	inspector := newFakeInspector()
	inspector.statErr = errors.New("permission denied")
	svc := setupFolderService(t, inspector)

	_, err := svc.Exists(context.Background(), "autoSync")
	assert.Error(t, err)
}

func TestFolderService_Create(t *testing.T) {
	inspector := newFakeInspector()
	svc := setupFolderService(t, inspector)

	path, err := svc.Create(context.Background(), "autoSync")
	require.NoError(t, err)
	assert.Equal(t, "/home/alice/Desktop/autoSync", path)
	assert.Equal(t, []string{"/home/alice/Desktop/autoSync"}, inspector.created)

	inspector.mkErr = errors.New("read-only filesystem")
	_, err = svc.Create(context.Background(), "other")
	assert.Error(t, err)
}

func TestFolderService_InvalidNames(t *testing.T) {
	svc := setupFolderService(t, newFakeInspector())

	_, err := svc.Exists(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrFolderNameRequired)

	_, err = svc.Create(context.Background(), "   ")
	assert.ErrorIs(t, err, model.ErrFolderNameRequired)

	for _, name := range []string{"..", ".", "../etc", `a\b`, "a/b"} {
		_, err = svc.Create(context.Background(), name)
		assert.ErrorIs(t, err, model.ErrInvalidFolderName, name)
	}
}
