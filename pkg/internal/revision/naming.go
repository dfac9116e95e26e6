package revision

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout UTC 时间戳格式，14 位数字.
const TimestampLayout = "20060102150405"

var (
	// backupTail 匹配备份文件名中最后一个 '-' 之后的部分，可带同秒序号.
	backupTail = regexp.MustCompile(`^\d{14}(_\d+)?$`)
	// revisionTail 匹配带时间戳的修订文件名后缀.
	revisionTail = regexp.MustCompile(`-\d{14}(-\d+)?$`)
)

// SafeKey 将资产 key 中的路径分隔符替换为 '-'.
func SafeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.ReplaceAll(key, "/", "-")

	return strings.ReplaceAll(key, "\\", "-")
}

// NormalizeExt 统一扩展名为小写并带前导 '.'.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	return ext
}

// CanonicalName 返回资产的规范文件名 {safe(key)}{ext}.
func CanonicalName(key, ext string) string {
	return SafeKey(key) + NormalizeExt(ext)
}

// Timestamp 格式化为 UTC 14 位时间戳.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ValidTimestamp 判断备份时间戳是否合法，也用于防止路径穿越.
func ValidTimestamp(ts string) bool {
	return backupTail.MatchString(ts)
}

// backupName 生成 {stem}-{ts}{suffix}，n > 0 时追加同秒序号.
func backupName(stem, ts, suffix string, n int) string {
	if n > 0 {
		ts = ts + "_" + strconv.Itoa(n)
	}

	return stem + "-" + ts + suffix
}

// revisionName 生成带时间戳的修订文件名，n > 0 时追加 -n.
func revisionName(base, ts, ext string, n int) string {
	if n > 0 {
		return base + "-" + ts + "-" + strconv.Itoa(n) + ext
	}

	return base + "-" + ts + ext
}

// RevisionBase 去掉修订文件名主干上的时间戳后缀，得到资产 key.
func RevisionBase(stem string) string {
	return revisionTail.ReplaceAllString(stem, "")
}

// parseBackupName 把备份文件名拆成 stem、时间戳和后缀.
func parseBackupName(name string) (stem, ts, suffix string, ok bool) {
	suffix = filepath.Ext(name)
	rest := strings.TrimSuffix(name, suffix)

	idx := strings.LastIndex(rest, "-")
	if idx <= 0 || suffix == "" {
		return "", "", "", false
	}

	stem, ts = rest[:idx], rest[idx+1:]
	if !ValidTimestamp(ts) {
		return "", "", "", false
	}

	return stem, ts, suffix, true
}

// PublicPath 把相对路径拼接到静态文件前缀之后.
func PublicPath(prefix, relative string) string {
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(filepath.ToSlash(relative), "/")
}
