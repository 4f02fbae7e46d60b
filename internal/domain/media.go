package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	drivePathID  = regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`)
	driveQueryID = regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`)
)

// NormalizeImageURL 将云盘分享链接转换为可直接嵌入的图片地址
func NormalizeImageURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" || strings.HasPrefix(url, "data:image") {
		return url
	}

	if strings.Contains(url, "drive.google.com") || strings.Contains(url, "docs.google.com") {
		id := ""
		if m := drivePathID.FindStringSubmatch(url); m != nil {
			id = m[1]
		} else if m := driveQueryID.FindStringSubmatch(url); m != nil {
			id = m[1]
		}
		if id != "" {
			return fmt.Sprintf("https://drive.google.com/thumbnail?id=%s&sz=w1000", id)
		}
	}

	if strings.Contains(url, "dropbox.com") && strings.Contains(url, "dl=0") {
		return strings.Replace(url, "dl=0", "raw=1", 1)
	}
	return url
}
