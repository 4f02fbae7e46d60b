package service_test

import (
	"context"
	"testing"

	"github.com/jswork01-cmyk/trainning1/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDocumentService_Render 测试生成可打印文档
func TestDocumentService_Render(t *testing.T) {
	env := newTestEnv(t, false)
	env.seedRoster(t)
	log := env.createLog(t, "2024-03-01")
	_, err := env.approvals.Reject(actorCtx(manager), log.ID, &service.RejectRequest{Reason: "보완 필요"})
	require.NoError(t, err)
	svc := service.NewDocumentService(env.views, env.employees, env.settings, env.script, env.audit)

	html, err := svc.Render(context.Background(), log.ID)
	require.NoError(t, err)
	assert.Contains(t, html, "테스트작업장")
	assert.Contains(t, html, "홍길동")
	assert.Contains(t, html, "https://sig.test/kim.png")
	assert.Contains(t, html, "보완 필요")

	_, err = svc.Render(context.Background(), "log-missing")
	assert.ErrorIs(t, err, service.ErrLogNotFound)
}

// TestDocumentService_SaveToDrive 测试保存 PDF 到云盘
func TestDocumentService_SaveToDrive(t *testing.T) {
	env := newTestEnv(t, true)
	env.seedRoster(t)
	log := env.createLog(t, "2024-03-01")
	_, err := env.settings.Update(context.Background(), &service.UpdateSettingsRequest{DriveFolderID: strPtr("folder-1")})
	require.NoError(t, err)
	svc := service.NewDocumentService(env.views, env.employees, env.settings, env.script, env.audit)

	doc, err := svc.SaveToDrive(actorCtx(teacher), log.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01_김교사_훈련일지.pdf", doc.Filename)
	assert.Equal(t, "https://drive.test/2024-03-01_김교사_훈련일지.pdf", doc.URL)
	assert.Equal(t, []string{doc.Filename}, env.script.pdfs)

	env.script.err = errRemote
	_, err = svc.SaveToDrive(actorCtx(teacher), log.ID)
	assert.ErrorIs(t, err, errRemote)
}
