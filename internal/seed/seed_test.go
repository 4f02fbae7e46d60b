package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jswork01-cmyk/trainning1/internal/database"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/jswork01-cmyk/trainning1/internal/seed"
	"github.com/jswork01-cmyk/trainning1/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
employees:
  - name: 김교사
    position: 직업훈련교사
    email: teacher@test.kr
    password: secret
  - name: 최원장
    position: 원장
    email: director@test.kr
trainees:
  - name: 홍길동
    disability_type: 지적
    target_score: 4
jobs:
  - title: 포장
    description: 제품 포장
`

// TestApply 测试导入名册并跳过已存在条目
func TestApply(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	defer database.Close(db)

	// 1. 准备文件与服务
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0644))
	f, err := seed.Load(path)
	require.NoError(t, err)
	require.Len(t, f.Employees, 2)
	assert.Equal(t, 4, f.Trainees[0].TargetScore)

	views := service.NewViewService(repository.NewTrainingLogRepository(db), repository.NewTraineeRepository(db),
		repository.NewJobRepository(db), repository.NewOverlayRepository(db), service.NewRemoteState(), nil)
	roster := service.NewRosterService(repository.NewTraineeRepository(db), repository.NewJobRepository(db),
		repository.NewEmployeeRepository(db), views, nil, nil)

	// 2. 首次导入
	result, err := seed.Apply(context.Background(), roster, f)
	require.NoError(t, err)
	assert.Equal(t, &seed.Result{Employees: 2, Trainees: 1, Jobs: 1}, result)

	// 3. 重复导入不产生重复数据
	result, err = seed.Apply(context.Background(), roster, f)
	require.NoError(t, err)
	assert.Equal(t, &seed.Result{}, result)

	employees, err := roster.ListEmployees(context.Background())
	require.NoError(t, err)
	assert.Len(t, employees, 2)
}

// TestLoad_Invalid 测试无效文件
func TestLoad_Invalid(t *testing.T) {
	_, err := seed.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("employees: [unclosed"), 0644))
	_, err = seed.Load(path)
	assert.Error(t, err)
}
