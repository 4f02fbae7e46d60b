package parser

import (
	"encoding/json"
	"strings"
)

// DecodePhotos 解析照片单元格：JSON 数组、单个 data URI 或逗号分隔的 URL，其它内容忽略
func DecodePhotos(raw string) []string {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "["):
		var items []string
		if err := json.Unmarshal([]byte(s), &items); err != nil {
			return nil
		}
		return compact(items)
	case strings.HasPrefix(s, "data:image"):
		return []string{s}
	case strings.HasPrefix(s, "http"):
		return compact(strings.Split(s, ","))
	default:
		return nil
	}
}

// EncodePhotos 导出时的照片单元格格式
func EncodePhotos(images []string) string {
	if len(images) == 0 {
		return ""
	}
	data, err := json.Marshal(images)
	if err != nil {
		return ""
	}
	return string(data)
}

func compact(items []string) []string {
	var out []string
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
