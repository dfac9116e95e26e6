package revision

import "github.com/yeisme/assetvault/pkg/metrics"

var (
	savedBytes = metrics.NewCounter(
		"revision_bytes_total",
		"Total bytes written as asset revisions",
		[]string{"ext"},
	)

	backupOps = metrics.NewCounter(
		"backup_operations_total",
		"Backup operations by kind",
		[]string{"op"},
	)
)
