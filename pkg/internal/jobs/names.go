package jobs

// 任务名称.
const (
	JobBackupSweep       = "backups.retention_sweep"
	JobManifestReconcile = "backups.manifest_reconcile"
	JobCatalogRefresh    = "catalog.refresh"
)
