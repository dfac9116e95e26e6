package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/revision"
	"github.com/yeisme/assetvault/pkg/queue"
)

type fakeObjects struct {
	mu  sync.Mutex
	ops []string
}

func (f *fakeObjects) record(op string) {
	f.mu.Lock()
	f.ops = append(f.ops, op)
	f.mu.Unlock()
}

func (f *fakeObjects) PutFile(_ context.Context, key, _, _ string) error {
	f.record("put " + key)

	return nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.record("delete " + key)

	return nil
}

func (f *fakeObjects) MoveObject(_ context.Context, from, to string) error {
	f.record("move " + from + " " + to)

	return nil
}

func TestMirror_PreservesOrder(t *testing.T) {
	objects := &fakeObjects{}
	m := NewMirror(objects, 8, zerolog.Nop())
	m.Start(context.Background())

	b := revision.BackupFile{Name: "m-slime-20250301120000.png", Stem: "m-slime", Ext: ".png"}

	m.RevisionStored("m-slime.png", "/tmp/m-slime.png", "image/png")
	m.BackupCreated(b)
	m.BackupRemoved(b)
	m.RevisionRemoved("m-slime.png")
	m.Close()

	require.Equal(t, []string{
		"put raw/m-slime.png",
		"move raw/m-slime.png backups/m-slime-20250301120000.png",
		"delete backups/m-slime-20250301120000.png",
		"delete raw/m-slime.png",
	}, objects.ops)

	// Close 之后的任务被丢弃
	m.RevisionRemoved("late.png")
	require.Len(t, objects.ops, 4)
}

func TestMirror_NilIsNoop(t *testing.T) {
	var m *Mirror

	m.Start(context.Background())
	m.RevisionStored("a.png", "/tmp/a.png", "image/png")
	m.Close()
}

func TestMirror_CloseWithoutStart(t *testing.T) {
	m := NewMirror(&fakeObjects{}, 1, zerolog.Nop())
	m.RevisionRemoved("a.png")
	m.Close()
}

func TestMirror_CancelledContextDrainsQueue(t *testing.T) {
	objects := &fakeObjects{}
	m := NewMirror(objects, 8, zerolog.Nop())

	m.RevisionStored("a.png", "/tmp/a.png", "image/png")
	m.RevisionStored("b.png", "/tmp/b.png", "image/png")
	m.RevisionRemoved("a.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m.Start(ctx)
	<-m.done

	require.Equal(t, []string{"put raw/a.png", "put raw/b.png", "delete raw/a.png"}, objects.ops)

	m.Close()
}

func TestMirror_EnqueueAfterCloseIsDropped(t *testing.T) {
	m := NewMirror(&fakeObjects{}, 1, zerolog.Nop())
	m.Close()
	m.Close()

	require.NotPanics(t, func() {
		m.RevisionStored("a.png", "/tmp/a.png", "image/png")
	})
	require.Empty(t, m.jobs)
}

func TestEvents_Toggles(t *testing.T) {
	pub := &capturePublisher{}
	cfg := allEvents()
	cfg.Backup.Pruned = false

	e := NewEvents(cfg, pub, zerolog.Nop())
	require.True(t, e.Enabled(queue.TopicAssetCreated))
	require.False(t, e.Enabled(queue.TopicBackupPruned))
	require.False(t, e.Enabled("av.unknown"))

	emit(context.Background(), e, queue.TopicBackupPruned, queue.BackupPayload{})
	emit(context.Background(), e, queue.TopicBackupDeleted, queue.BackupPayload{AssetKey: "m-slime"})
	require.Equal(t, []string{queue.TopicBackupDeleted}, pub.topics())

	msg, err := queue.ParseBackup(pub.msgs[0].msg)
	require.NoError(t, err)
	require.Equal(t, "m-slime", msg.Payload.AssetKey)
	require.Equal(t, eventProducer, msg.Header.Producer)

	off := NewEvents(configs.EventsConfig{}, pub, zerolog.Nop())
	require.False(t, off.Enabled(queue.TopicAssetCreated))

	var nilEvents *Events
	require.False(t, nilEvents.Enabled(queue.TopicAssetCreated))
}
