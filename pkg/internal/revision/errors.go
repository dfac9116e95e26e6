package revision

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedExtension 上传文件扩展名不在允许列表中.
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	// ErrMissingFileName 上传文件没有文件名.
	ErrMissingFileName = errors.New("uploaded file must have a filename")
	// ErrInvalidAssetKey 资产 key 为空或规范化后为空.
	ErrInvalidAssetKey = errors.New("invalid asset key")
	// ErrInvalidTimestamp 备份时间戳格式不正确.
	ErrInvalidTimestamp = errors.New("invalid backup timestamp")
	// ErrNotFound 文件不存在.
	ErrNotFound = errors.New("not found")
	// ErrStorageFailure 读写、移动或删除文件失败.
	ErrStorageFailure = errors.New("storage failure")
	// ErrReadOnly 只读模式下拒绝所有写操作.
	ErrReadOnly = errors.New("backend is running in read-only mode")
)

// ExtensionError 描述被拒绝的扩展名，errors.Is(err, ErrUnsupportedExtension) 为 true.
type ExtensionError struct {
	Ext     string
	Allowed []string
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("Unsupported file extension '%s'. Allowed: %s", e.Ext, strings.Join(e.Allowed, ", "))
}

func (e *ExtensionError) Is(target error) bool {
	return target == ErrUnsupportedExtension
}

func storageErr(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStorageFailure, op, path, err)
}
