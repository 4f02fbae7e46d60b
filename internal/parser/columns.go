package parser

import "strings"

// keywordSet 列名匹配关键字：韩文按原样匹配，英文忽略大小写
type keywordSet struct {
	korean  []string
	english []string
}

func (k keywordSet) match(header string) bool {
	for _, kw := range k.korean {
		if strings.Contains(header, kw) {
			return true
		}
	}
	lower := strings.ToLower(header)
	for _, kw := range k.english {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// findColumn 返回第一个匹配的列下标，找不到返回 -1
func findColumn(headers []string, set keywordSet) int {
	for i, h := range headers {
		if set.match(h) {
			return i
		}
	}
	return -1
}

// cell 安全读取单元格
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var (
	dateColumn       = keywordSet{korean: []string{"날짜", "일자"}, english: []string{"date"}}
	jobColumn        = keywordSet{korean: []string{"직무", "작업"}, english: []string{"job"}}
	instructorColumn = keywordSet{korean: []string{"담당자", "교사"}, english: []string{"instructor"}}
	traineeColumn    = keywordSet{korean: []string{"이용인", "훈련생", "이름", "성명"}, english: []string{"name"}}
	scoreColumn      = keywordSet{korean: []string{"점수", "평가"}, english: []string{"score"}}
	noteColumn       = keywordSet{korean: []string{"특이", "비고", "메모"}, english: []string{"note"}}
	summaryColumn    = keywordSet{korean: []string{"총평", "요약"}, english: []string{"summary"}}
	weatherColumn    = keywordSet{korean: []string{"날씨"}, english: []string{"weather"}}
	photoColumn      = keywordSet{korean: []string{"사진", "이미지"}, english: []string{"image", "photo"}}
)

// logColumns 日志表的列位置
type logColumns struct {
	date, job, instructor, trainee, score, note, summary, weather, photo int
}

func discoverLogColumns(headers []string) logColumns {
	return logColumns{
		date:       findColumn(headers, dateColumn),
		job:        findColumn(headers, jobColumn),
		instructor: findColumn(headers, instructorColumn),
		trainee:    findColumn(headers, traineeColumn),
		score:      findColumn(headers, scoreColumn),
		note:       findColumn(headers, noteColumn),
		summary:    findColumn(headers, summaryColumn),
		weather:    findColumn(headers, weatherColumn),
		photo:      findColumn(headers, photoColumn),
	}
}

// hasRequired 日期、职务、学员列必须存在
func (c logColumns) hasRequired() bool {
	return c.date >= 0 && c.job >= 0 && c.trainee >= 0
}
