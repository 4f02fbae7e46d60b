package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// UnknownInstructor 缺少负责人时使用的占位名
	UnknownInstructor = "Unknown"
	// DefaultWeather 默认天气
	DefaultWeather = "맑음"
	// DefaultScore 无法解析的分数回退值
	DefaultScore = 3
	// MinScore 最低分
	MinScore = 1
	// MaxScore 最高分
	MaxScore = 5

	dateLayout = "2006-01-02"
)

// WeatherOptions 可选天气
var WeatherOptions = []string{"맑음", "흐림", "비", "눈"}

// Evaluation 学员评价
type Evaluation struct {
	TraineeID string `json:"traineeId"`
	Score     int    `json:"score"`
	Note      string `json:"note"`
}

// TrainingLog 训练日志
type TrainingLog struct {
	ID             string        `json:"id"`
	Date           string        `json:"date"`
	TaskID         string        `json:"taskId"`
	Weather        string        `json:"weather"`
	InstructorName string        `json:"instructorName"`
	Summary        string        `json:"aiSummary"`
	Images         []string      `json:"images"`
	Evaluations    []Evaluation  `json:"evaluations"`
	Approvals      ApprovalChain `json:"approvals"`
}

// Status 推导日志整体状态
func (l *TrainingLog) Status() LogStatus {
	return l.Approvals.Status()
}

// SameSession 判断两条日志是否指向同一次训练
func (l *TrainingLog) SameSession(other *TrainingLog) bool {
	if l.ID == other.ID {
		return true
	}
	return NormalizeDate(l.Date) == NormalizeDate(other.Date) &&
		l.TaskID == other.TaskID &&
		strings.TrimSpace(l.InstructorName) == strings.TrimSpace(other.InstructorName)
}

// AverageScore 计算平均分，没有评价时返回 0
func (l *TrainingLog) AverageScore() float64 {
	if len(l.Evaluations) == 0 {
		return 0
	}
	total := 0
	for _, e := range l.Evaluations {
		total += e.Score
	}
	return float64(total) / float64(len(l.Evaluations))
}

// Clone 深拷贝日志
func (l TrainingLog) Clone() TrainingLog {
	if l.Images != nil {
		l.Images = append([]string(nil), l.Images...)
	}
	if l.Evaluations != nil {
		l.Evaluations = append([]Evaluation(nil), l.Evaluations...)
	}
	return l
}

// LogKey 日志身份：日期 + 职务名 + 负责人
type LogKey struct {
	Date       string
	JobTitle   string
	Instructor string
}

// NewLogKey 创建日志身份，日期会被规范化
func NewLogKey(date, jobTitle, instructor string) LogKey {
	instructor = strings.TrimSpace(instructor)
	if instructor == "" {
		instructor = UnknownInstructor
	}
	return LogKey{
		Date:       NormalizeDate(date),
		JobTitle:   strings.TrimSpace(jobTitle),
		Instructor: instructor,
	}
}

// String 返回日志 ID
func (k LogKey) String() string {
	return fmt.Sprintf("log-%s-%s-%s", k.Date, k.JobTitle, k.Instructor)
}

var (
	gvizDatePattern    = regexp.MustCompile(`^Date\((\d{4}),\s*(\d{1,2}),\s*(\d{1,2})`)
	numericDatePattern = regexp.MustCompile(`^(\d{4})\s*[-./년]\s*(\d{1,2})\s*[-./월]\s*(\d{1,2})`)
)

// NormalizeDate 将常见日期写法统一为 YYYY-MM-DD，无法识别时原样返回（去空白）
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	if m := gvizDatePattern.FindStringSubmatch(s); m != nil {
		// GViz 的月份从 0 开始
		month, _ := strconv.Atoi(m[2])
		return formatYMD(m[1], strconv.Itoa(month+1), m[3], s)
	}
	if m := numericDatePattern.FindStringSubmatch(s); m != nil {
		return formatYMD(m[1], m[2], m[3], s)
	}
	return s
}

func formatYMD(y, m, d, fallback string) string {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return fallback
	}
	return t.Format(dateLayout)
}

// ParseDate 解析规范化后的日期
func ParseDate(raw string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, NormalizeDate(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SortLogsByDateDesc 按日期倒序排序，同日期保持原有顺序
func SortLogsByDateDesc(logs []TrainingLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return NormalizeDate(logs[i].Date) > NormalizeDate(logs[j].Date)
	})
}

// CoerceScore 解析分数：取前导整数，非数字或超出 1..5 时回退为 3
func CoerceScore(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return DefaultScore
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < MinScore || n > MaxScore {
		return DefaultScore
	}
	return n
}
