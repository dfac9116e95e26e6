package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAssetExists 资产 ID 已存在.
	ErrAssetExists = errors.New("asset already exists")
	// ErrAssetNotFound 资产不存在.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrInvalidAssetType 资产类型不受支持.
	ErrInvalidAssetType = errors.New("unsupported asset type")
	// ErrFilenameMismatch 上传文件名与资产 ID 不一致.
	ErrFilenameMismatch = errors.New("filename does not match asset id")
	// ErrPageOutOfRange 页码超过结果集.
	ErrPageOutOfRange = errors.New("page number exceeds result set")
	// ErrInvalidAssetID 资产 ID 格式不正确.
	ErrInvalidAssetID = errors.New("invalid asset id")
)

// AssetTypeError 携带被拒绝的资产类型.
type AssetTypeError struct {
	Type string
}

func (e *AssetTypeError) Error() string {
	return fmt.Sprintf("Unsupported asset_type '%s'.", e.Type)
}

func (e *AssetTypeError) Is(target error) bool { return target == ErrInvalidAssetType }

// FilenameError 携带期望与实际文件名.
type FilenameError struct {
	Expected string
	Got      string
}

func (e *FilenameError) Error() string {
	return fmt.Sprintf("Filename (without extension) must match asset ID. Expected: '%s', got: '%s'", e.Expected, e.Got)
}

func (e *FilenameError) Is(target error) bool { return target == ErrFilenameMismatch }
