package genai

import (
	"fmt"
	"strings"
)

// EvaluationLine 提示词中的一条学员评价
type EvaluationLine struct {
	TraineeName    string
	DisabilityType string
	Score          int
	Note           string
}

// ReportInput 日报总评的输入
type ReportInput struct {
	Date           string
	Weather        string
	JobTitle       string
	JobDescription string
	Evaluations    []EvaluationLine
}

// AverageScore 平均分，保留一位小数
func (in ReportInput) AverageScore() string {
	if len(in.Evaluations) == 0 {
		return "0.0"
	}
	total := 0
	for _, e := range in.Evaluations {
		total += e.Score
	}
	return fmt.Sprintf("%.1f", float64(total)/float64(len(in.Evaluations)))
}

// BuildDailyReportPrompt 构建训练日志总评提示词
func BuildDailyReportPrompt(in ReportInput) string {
	details := make([]string, 0, len(in.Evaluations))
	for _, e := range in.Evaluations {
		note := e.Note
		if strings.TrimSpace(note) == "" {
			note = "없음"
		}
		details = append(details, fmt.Sprintf("- %s (%s): 점수 %d/5. 특이사항: %s", e.TraineeName, e.DisabilityType, e.Score, note))
	}

	var b strings.Builder
	b.WriteString("당신은 장애인보호작업장의 전문 직업훈련교사입니다. 아래의 훈련 데이터를 바탕으로 \"직업재활 훈련일지 총평\"을 작성해주세요.\n\n")
	b.WriteString("[기본 정보]\n")
	fmt.Fprintf(&b, "- 날짜: %s\n", in.Date)
	fmt.Fprintf(&b, "- 날씨: %s\n", in.Weather)
	fmt.Fprintf(&b, "- 훈련 직무: %s (%s)\n", in.JobTitle, in.JobDescription)
	fmt.Fprintf(&b, "- 참여 인원: %d명\n", len(in.Evaluations))
	fmt.Fprintf(&b, "- 평균 수행도: %s / 5.0\n\n", in.AverageScore())
	b.WriteString("[평가 기준 참고]\n")
	b.WriteString("- 1~2점: 집중적인 지도가 필요한 상태\n")
	b.WriteString("- 3점: 보통 수준\n")
	b.WriteString("- 4~5점: 독립적이고 우수한 수행\n\n")
	b.WriteString("[개별 평가 데이터]\n")
	b.WriteString(strings.Join(details, "\n"))
	b.WriteString("\n\n[요청 사항]\n")
	b.WriteString("1. 전체적인 훈련 분위기와 성과를 요약해주세요.\n")
	b.WriteString("2. 훈련프로그램 전에 동료와 인사를 나누고 직무관련 안전교육을 실시한 내용을 작성해주세요.\n")
	b.WriteString("3. 수행도가 높거나(4-5점) 낮아서(1-2점) 개입이 필요했던 사례를 구체적인 상황으로 묘사하되, 전문적이고 격려하는 어조로 작성해주세요.\n")
	b.WriteString("4. 내일 훈련을 위한 제언을 한 문장 포함해주세요.\n")
	b.WriteString("5. 글자 수는 공백 포함 300~500자 내외로 작성해주세요.\n")
	b.WriteString("6. 경어체(습니다)를 사용해주세요.\n")
	b.WriteString("7. 구글시트 연동이라는 표현은 하지마세요.\n")
	b.WriteString("8. 직무가 출퇴근 통근훈련일 경우 특이사항에 기재된 내용을 반영하여 총평을 작성해주세요.\n")
	return b.String()
}
