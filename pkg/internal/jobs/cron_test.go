package jobs

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/service"
	"github.com/yeisme/assetvault/pkg/scheduler"
)

func TestRegister(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	cfg := configs.AssetJobsConfig{
		BackupSweep:    "*/30 * * * *",
		CatalogRefresh: "*/5 * * * *",
	}
	require.NoError(t, Register(sched, &service.Services{}, cfg, zerolog.Nop()))

	var names []string
	for _, j := range sched.Jobs() {
		names = append(names, j.Name)
	}

	require.Equal(t, []string{JobBackupSweep, JobCatalogRefresh}, names)

	// 重复注册报告冲突的任务名
	err = Register(sched, &service.Services{}, cfg, zerolog.Nop())
	require.ErrorContains(t, err, JobBackupSweep)
	require.ErrorContains(t, err, JobCatalogRefresh)
}

func TestRegister_InvalidCron(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	err = Register(sched, &service.Services{}, configs.AssetJobsConfig{ManifestReconcile: "every hour"}, zerolog.Nop())
	require.ErrorContains(t, err, JobManifestReconcile)
	require.Empty(t, sched.Jobs())
}

func TestRegister_NilDeps(t *testing.T) {
	require.Error(t, Register(nil, &service.Services{}, configs.AssetJobsConfig{}, zerolog.Nop()))

	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	require.Error(t, Register(sched, nil, configs.AssetJobsConfig{}, zerolog.Nop()))
}
