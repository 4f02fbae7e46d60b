package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jswork01-cmyk/trainning1/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter 记录提示词并返回固定文本
type fakeCompleter struct {
	prompt string
	reply  string
	err    error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

// TestReportService_Summarize 测试根据请求生成总评
func TestReportService_Summarize(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedRoster(t)
	completer := &fakeCompleter{reply: "  오늘은 전반적으로 양호했습니다.\n"}
	svc := service.NewReportService(env.views, completer, quietLogger())

	result, err := svc.Summarize(context.Background(), &service.SummaryRequest{
		Date:        "2024-03-01",
		TaskID:      "shared-job-포장",
		Evaluations: []service.EvaluationInput{{TraineeID: "t1", Score: 4, Note: "집중"}, {TraineeID: "ghost", Score: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "오늘은 전반적으로 양호했습니다.", result.Summary)

	// 提示词包含职务、学员与未知学员
	assert.Contains(t, completer.prompt, "포장")
	assert.Contains(t, completer.prompt, "홍길동")
	assert.Contains(t, completer.prompt, "Unknown")
	assert.Contains(t, completer.prompt, "집중")
}

// TestReportService_Summarize_FromLog 测试使用已保存日志
func TestReportService_Summarize_FromLog(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedRoster(t)
	log := env.createLog(t, "2024-03-01")
	completer := &fakeCompleter{reply: "ok"}
	svc := service.NewReportService(env.views, completer, quietLogger())

	_, err := svc.Summarize(context.Background(), &service.SummaryRequest{LogID: log.ID})
	require.NoError(t, err)
	assert.Contains(t, completer.prompt, "이영희")
	assert.Contains(t, completer.prompt, "2024-03-01")

	_, err = svc.Summarize(context.Background(), &service.SummaryRequest{LogID: "log-missing"})
	assert.ErrorIs(t, err, service.ErrLogNotFound)

	completer.err = errors.New("quota")
	_, err = svc.Summarize(context.Background(), &service.SummaryRequest{LogID: log.ID})
	assert.Error(t, err)
}
