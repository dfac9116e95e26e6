package service

import (
	"slices"
	"strings"

	"github.com/bytedance/sonic"
)

// ParseTags 解析标签：优先按 JSON 数组解析，否则按逗号分隔并去除空白.
// 空输入返回 nil.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var parsed []any
	if err := sonic.UnmarshalString(raw, &parsed); err == nil {
		out := make([]string, 0, len(parsed))
		for _, item := range parsed {
			out = append(out, stringify(item))
		}

		return out
	}

	var out []string

	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

// SplitFilterTags 解析查询参数中的逗号分隔标签.
func SplitFilterTags(raw string) []string {
	var out []string

	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "None"
	default:
		s, err := sonic.MarshalString(t)
		if err != nil {
			return ""
		}

		return s
	}
}

// uniqueSorted 去重并排序.
func uniqueSorted(tags []string) []string {
	out := slices.Clone(tags)
	slices.Sort(out)

	return slices.Compact(out)
}
