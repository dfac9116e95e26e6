// Package jobs 注册资产库的后台定时任务.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/service"
	"github.com/yeisme/assetvault/pkg/scheduler"
)

// Register 按配置注册任务，cron 表达式为空的任务不注册：
//   - 备份保留策略巡检，删除超出 max_backup_versions 的旧备份
//   - 备份清单对账，删除文件已不存在的清单记录
//   - 目录缓存刷新
func Register(sched *scheduler.Scheduler, svc *service.Services, cfg configs.AssetJobsConfig, l zerolog.Logger) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if svc == nil {
		return errors.New("services are nil")
	}

	specs := []struct {
		name string
		cron string
		run  func(ctx context.Context) (int, error)
		msg  string
	}{
		{JobBackupSweep, cfg.BackupSweep, svc.Backups.Prune, "pruned old backups"},
		{JobManifestReconcile, cfg.ManifestReconcile, svc.Backups.Reconcile, "removed stale manifest rows"},
		{JobCatalogRefresh, cfg.CatalogRefresh, svc.Catalog.Refresh, "dropped catalog cache entries"},
	}

	var errs []error

	for _, spec := range specs {
		if spec.cron == "" {
			continue
		}

		jl := l.With().Str("job", spec.name).Logger()
		run, msg := spec.run, spec.msg

		err := sched.AddCron(spec.name, spec.cron, func(ctx context.Context) error {
			n, err := run(ctx)
			if err != nil {
				return err
			}

			if n > 0 {
				jl.Info().Int("affected", n).Msg(msg)
			}

			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", spec.name, err))
		}
	}

	return errors.Join(errs...)
}
