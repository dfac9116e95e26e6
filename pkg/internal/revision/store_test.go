package revision

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu      sync.Mutex
	created []BackupFile
	removed map[RemoveReason][]string
}

func (r *recorder) BackupCreated(_ context.Context, b BackupFile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.created = append(r.created, b)
}

func (r *recorder) BackupRemoved(_ context.Context, b BackupFile, reason RemoveReason) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.removed == nil {
		r.removed = make(map[RemoveReason][]string)
	}

	r.removed[reason] = append(r.removed[reason], b.Name)
}

func newTestStore(t *testing.T, mutate func(*Config), opts ...Option) (*Store, *fakeClock) {
	t.Helper()

	root := t.TempDir()
	cfg := Config{
		RawDir:            filepath.Join(root, "raw"),
		BackupDir:         filepath.Join(root, "backups"),
		EnableBackup:      true,
		MaxBackupVersions: 10,
	}

	if mutate != nil {
		mutate(&cfg)
	}

	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)

	s, err := New(cfg, opts...)
	require.NoError(t, err)

	return s, clock
}

func upload(name string, data []byte) Upload {
	return Upload{FileName: name, ContentType: "image/png", Body: bytes.NewReader(data)}
}

func sha(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}

	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}

	sort.Strings(names)

	return names
}

// writeCanonical 直接在规范路径写入内容并把修改时间设置为时钟时间.
func writeCanonical(t *testing.T, s *Store, clock *fakeClock, name string, data []byte) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(s.cfg.RawDir, 0o755))

	path := filepath.Join(s.cfg.RawDir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	require.NoError(t, os.Chtimes(path, clock.Now(), clock.Now()))

	return path
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{RawDir: "a", BackupDir: "b", MaxBackupVersions: 0})
	require.Error(t, err)

	_, err = New(Config{BackupDir: "b", MaxBackupVersions: 1})
	require.Error(t, err)

	s, err := New(Config{RawDir: "a", BackupDir: "b", MaxBackupVersions: 1, AllowedExtensions: []string{"PNG", ".png", "gif"}})
	require.NoError(t, err)
	require.Equal(t, []string{".gif", ".png"}, s.AllowedExtensions())
}

func TestSave_ChecksumMatchesBytesOnDisk(t *testing.T) {
	s, _ := newTestStore(t, nil)
	data := []byte("fakepngdata")

	stored, err := s.Save(context.Background(), "m-test-slime", upload("m-test-slime.png", data), nil)
	require.NoError(t, err)

	require.Equal(t, "m-test-slime.png", stored.FileName)
	require.Equal(t, stored.FileName, stored.RelativePath)
	require.EqualValues(t, 11, stored.FileSize)
	require.Equal(t, "image/png", stored.ContentType)
	require.Nil(t, stored.Backup)

	onDisk, err := os.ReadFile(stored.AbsolutePath)
	require.NoError(t, err)
	require.Equal(t, data, onDisk)
	require.Equal(t, sha(onDisk), stored.Checksum)

	checksum, size, err := HashFile(stored.AbsolutePath)
	require.NoError(t, err)
	require.Equal(t, stored.Checksum, checksum)
	require.EqualValues(t, 11, size)
}

func TestSave_LargeUploadSpansChunks(t *testing.T) {
	s, _ := newTestStore(t, nil)
	data := bytes.Repeat([]byte("0123456789abcdef"), ChunkSize/16*2+7)

	stored, err := s.Save(context.Background(), "map-florence", upload("map-florence.webp", data), nil)
	require.NoError(t, err)
	require.EqualValues(t, len(data), stored.FileSize)
	require.Equal(t, sha(data), stored.Checksum)
}

func TestSave_Rejects(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	_, err := s.Save(ctx, "m-slime", upload("m-slime.txt", []byte("x")), nil)
	require.ErrorIs(t, err, ErrUnsupportedExtension)
	require.Contains(t, err.Error(), "'.txt'")

	_, err = s.Save(ctx, "m-slime", upload("", []byte("x")), nil)
	require.ErrorIs(t, err, ErrMissingFileName)

	_, err = s.Save(ctx, "  ", upload("x.png", []byte("x")), nil)
	require.ErrorIs(t, err, ErrInvalidAssetKey)

	require.Empty(t, dirNames(t, s.cfg.RawDir))
}

func TestSave_NormalizesKeyAndExtension(t *testing.T) {
	s, _ := newTestStore(t, nil)

	stored, err := s.Save(context.Background(), "maps/florence", upload("Florence.PNG", []byte("x")), nil)
	require.NoError(t, err)
	require.Equal(t, "maps-florence.png", stored.FileName)
}

func TestSave_SniffsContentTypeWhenMissing(t *testing.T) {
	s, _ := newTestStore(t, nil)
	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")

	stored, err := s.Save(context.Background(), "skill-fire", Upload{FileName: "skill-fire.gif", Body: bytes.NewReader(gif)}, nil)
	require.NoError(t, err)
	require.Equal(t, "image/gif", stored.ContentType)
}

func TestSave_SecondRevisionCreatesExactlyOneBackup(t *testing.T) {
	rec := &recorder{}
	s, clock := newTestStore(t, nil, WithObserver(rec))
	ctx := context.Background()

	first, err := s.Save(ctx, "m-test-slime", upload("m-test-slime.png", []byte("fakepngdata")), nil)
	require.NoError(t, err)

	clock.Advance(time.Second)

	second, err := s.Save(ctx, "m-test-slime", upload("m-test-slime-new.png", []byte("newpngdata")), []string{first.FileName})
	require.NoError(t, err)

	require.Equal(t, "m-test-slime-20250101120001.png", second.FileName)
	require.EqualValues(t, 10, second.FileSize)
	require.NotNil(t, second.Backup)
	require.Equal(t, "m-test-slime-20250101120001.png", second.Backup.Name)
	require.Equal(t, sha([]byte("fakepngdata")), second.Backup.Checksum)

	backups, err := s.ListBackups("m-test-slime", ".png")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	require.Equal(t, "20250101120001", backups[0].Timestamp)

	old, err := os.ReadFile(backups[0].Path)
	require.NoError(t, err)
	require.Equal(t, []byte("fakepngdata"), old)

	require.Equal(t, []string{second.FileName}, dirNames(t, s.cfg.RawDir))
	require.Len(t, rec.created, 1)
}

func TestSave_SameSecondNameCollision(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	existing := []string{"m-a.png", "m-a-20250101120000.png"}

	stored, err := s.Save(ctx, "m-a", upload("m-a.png", []byte("1")), existing)
	require.NoError(t, err)
	require.Equal(t, "m-a-20250101120000-1.png", stored.FileName)

	existing = append(existing, stored.FileName)

	stored, err = s.Save(ctx, "m-a", upload("m-a.png", []byte("2")), existing)
	require.NoError(t, err)
	require.Equal(t, "m-a-20250101120000-2.png", stored.FileName)
}

func TestSave_BackupsDisabledOverwrites(t *testing.T) {
	s, _ := newTestStore(t, func(c *Config) { c.EnableBackup = false })
	ctx := context.Background()

	_, err := s.Save(ctx, "m-a", upload("m-a.png", []byte("1")), nil)
	require.NoError(t, err)

	_, err = s.Save(ctx, "m-a", upload("m-a.png", []byte("2")), nil)
	require.NoError(t, err)

	require.Empty(t, dirNames(t, s.cfg.BackupDir))

	data, err := os.ReadFile(filepath.Join(s.cfg.RawDir, "m-a.png"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), data)
}

type failingReader struct{ after int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.after <= 0 {
		return 0, errors.New("connection reset")
	}

	n := min(len(p), r.after)
	r.after -= n

	return n, nil
}

func TestSave_FailureCleansUpAndRollsBackBackup(t *testing.T) {
	s, clock := newTestStore(t, nil)
	ctx := context.Background()

	first, err := s.Save(ctx, "m-a", upload("m-a.png", []byte("original")), nil)
	require.NoError(t, err)

	clock.Advance(time.Second)

	_, err = s.Save(ctx, "m-a", Upload{FileName: "m-a.png", Body: &failingReader{after: 4}}, []string{first.FileName})
	require.ErrorIs(t, err, ErrStorageFailure)

	require.Equal(t, []string{"m-a.png"}, dirNames(t, s.cfg.RawDir))
	require.Empty(t, dirNames(t, s.cfg.BackupDir))

	data, err := os.ReadFile(first.AbsolutePath)
	require.NoError(t, err)
	require.Equal(t, []byte("original"), data)
}

func TestDiscard_RestoresDisplacedCanonical(t *testing.T) {
	rec := &recorder{}
	s, clock := newTestStore(t, nil, WithObserver(rec))
	ctx := context.Background()

	writeCanonical(t, s, clock, "m-a.png", []byte("untracked"))
	clock.Advance(time.Second)

	stored, err := s.Save(ctx, "m-a", upload("m-a.png", []byte("new")), nil)
	require.NoError(t, err)
	require.NotNil(t, stored.Backup)
	require.Len(t, dirNames(t, s.cfg.BackupDir), 1)

	require.NoError(t, s.Discard(ctx, "m-a", stored))

	require.Equal(t, []string{"m-a.png"}, dirNames(t, s.cfg.RawDir))
	require.Empty(t, dirNames(t, s.cfg.BackupDir))
	require.Equal(t, []string{stored.Backup.Name}, rec.removed[RemovedRolledBack])

	data, err := os.ReadFile(filepath.Join(s.cfg.RawDir, "m-a.png"))
	require.NoError(t, err)
	require.Equal(t, []byte("untracked"), data)

	// 已撤销的文件再次撤销不报错
	require.NoError(t, s.Discard(ctx, "m-a", &StoredFile{FileName: "m-a-20250101120001.png"}))
}

func TestLockAsset_AllowsSaveAndSerializesHolders(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	unlock := s.LockAsset("m-a")

	_, err := s.Save(ctx, "m-a", upload("m-a.png", []byte("x")), nil)
	require.NoError(t, err)

	acquired := make(chan struct{})

	go func() {
		release := s.LockAsset("m-a")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired the asset lock")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	<-acquired

	require.Eventually(t, func() bool { return s.locks.size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSave_ContextCancelled(t *testing.T) {
	s, _ := newTestStore(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, "m-a", upload("m-a.png", []byte("x")), nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, dirNames(t, s.cfg.RawDir))
}

func TestSave_ReadOnly(t *testing.T) {
	s, _ := newTestStore(t, func(c *Config) { c.ReadOnly = true })
	ctx := context.Background()

	_, err := s.Save(ctx, "m-a", upload("m-a.png", []byte("x")), nil)
	require.ErrorIs(t, err, ErrReadOnly)

	_, err = s.Restore(ctx, "m-a", ".png", "20250101120000")
	require.ErrorIs(t, err, ErrReadOnly)

	_, err = s.DeleteBackup(ctx, "m-a", ".png", "20250101120000")
	require.ErrorIs(t, err, ErrReadOnly)

	_, err = s.PruneAll(ctx)
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestSave_ConcurrentUploadsSameKey(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	const workers = 8

	var wg sync.WaitGroup

	results := make([]*StoredFile, workers)
	errs := make([]error, workers)

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			body := []byte(strings.Repeat("x", i+1))
			results[i], errs[i] = s.Save(ctx, "m-a", upload("m-a.png", body), []string{"m-a.png"})
		}()
	}

	wg.Wait()

	names := make(map[string]struct{})

	for i := range workers {
		require.NoError(t, errs[i])
		names[results[i].FileName] = struct{}{}

		data, err := os.ReadFile(results[i].AbsolutePath)
		require.NoError(t, err)
		require.Equal(t, results[i].Checksum, sha(data))
	}

	require.Len(t, names, workers)
	require.Zero(t, s.locks.size())
}
