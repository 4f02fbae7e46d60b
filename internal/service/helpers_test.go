package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jswork01-cmyk/trainning1/internal/auth"
	"github.com/jswork01-cmyk/trainning1/internal/config"
	"github.com/jswork01-cmyk/trainning1/internal/database"
	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/model"
	"github.com/jswork01-cmyk/trainning1/internal/outbox"
	"github.com/jswork01-cmyk/trainning1/internal/parser"
	"github.com/jswork01-cmyk/trainning1/internal/repository"
	"github.com/jswork01-cmyk/trainning1/internal/service"
	"github.com/jswork01-cmyk/trainning1/internal/sheet"
	"github.com/jswork01-cmyk/trainning1/internal/statemachine"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testScriptURL = "https://script.test/exec"

// fakeScript 记录调用的脚本客户端
type fakeScript struct {
	mu sync.Mutex

	exported      [][]sheet.ExportRow
	approvals     []sheet.ApprovalRecord
	batches       [][]sheet.ApprovalRecord
	uploads       []string
	pdfs          []string
	savedBackup   []byte
	savedEmployee []map[string]string

	employees [][]string
	backup    []byte
	err       error // 所有调用返回此错误
	uploadErr error
}

func (f *fakeScript) Test(ctx context.Context) (string, error) {
	return "ok", f.err
}

func (f *fakeScript) TestDriveFolder(ctx context.Context, folderID string) (string, error) {
	return "folder " + folderID, f.err
}

func (f *fakeScript) ExportRows(ctx context.Context, rows []sheet.ExportRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.exported = append(f.exported, rows)
	return nil
}

func (f *fakeScript) SaveBackup(ctx context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedBackup = payload
	return f.err
}

func (f *fakeScript) LoadBackup(ctx context.Context) ([]byte, error) {
	return f.backup, f.err
}

func (f *fakeScript) SaveApproval(ctx context.Context, record sheet.ApprovalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.approvals = append(f.approvals, record)
	return nil
}

func (f *fakeScript) SaveApprovalBatch(ctx context.Context, records []sheet.ApprovalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, records)
	return nil
}

func (f *fakeScript) GetEmployees(ctx context.Context) ([][]string, error) {
	return f.employees, f.err
}

func (f *fakeScript) SaveEmployees(ctx context.Context, rows []map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedEmployee = rows
	return f.err
}

func (f *fakeScript) UploadImage(ctx context.Context, folderID, dataURI, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, filename)
	return "https://drive.test/" + filename, nil
}

func (f *fakeScript) SavePDF(ctx context.Context, folderID, html, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.pdfs = append(f.pdfs, filename)
	return "https://drive.test/" + filename, nil
}

// fakeReader 按工作表返回固定表格
type fakeReader struct {
	mu          sync.Mutex
	tables      map[sheet.TableQuery]*sheet.Table
	errs        map[sheet.TableQuery]error
	invalidated int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		tables: make(map[sheet.TableQuery]*sheet.Table),
		errs:   make(map[sheet.TableQuery]error),
	}
}

func (r *fakeReader) set(q sheet.TableQuery, table *sheet.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[q] = table
}

func (r *fakeReader) fail(q sheet.TableQuery, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[q] = err
}

func (r *fakeReader) FetchTable(ctx context.Context, q sheet.TableQuery) (*sheet.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errs[q]; err != nil {
		return nil, err
	}
	if t, ok := r.tables[q]; ok {
		return t, nil
	}
	return &sheet.Table{}, nil
}

func (r *fakeReader) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated++
}

var errRemote = errors.New("remote unavailable")

// testEnv 服务测试环境
type testEnv struct {
	db         *gorm.DB
	cfg        *config.Config
	script     *fakeScript
	reader     *fakeReader
	remote     *service.RemoteState
	dispatcher outbox.Dispatcher

	logs      repository.TrainingLogRepository
	trainees  repository.TraineeRepository
	jobs      repository.JobRepository
	employees repository.EmployeeRepository
	overlays  repository.OverlayRepository
	outbox    repository.OutboxRepository

	audit     service.AuditLogService
	settings  service.SettingsService
	views     service.ViewService
	logSvc    service.LogService
	approvals service.ApprovalService
	sync      service.SyncService
	roster    service.RosterService
	stats     service.StatisticsService
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// newTestEnv 创建测试环境，withScript 为 true 时配置脚本地址
func newTestEnv(t *testing.T, withScript bool) *testEnv {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	cfg := config.Default()
	cfg.Facility.Name = "테스트작업장"
	if withScript {
		cfg.Sheet.ScriptURL = testScriptURL
	}

	env := &testEnv{
		db:        db,
		cfg:       cfg,
		script:    &fakeScript{},
		reader:    newFakeReader(),
		remote:    service.NewRemoteState(),
		logs:      repository.NewTrainingLogRepository(db),
		trainees:  repository.NewTraineeRepository(db),
		jobs:      repository.NewJobRepository(db),
		employees: repository.NewEmployeeRepository(db),
		overlays:  repository.NewOverlayRepository(db),
		outbox:    repository.NewOutboxRepository(db),
	}

	logger := quietLogger()
	env.audit = service.NewAuditLogService(repository.NewAuditLogRepository(db))
	env.settings, err = service.NewSettingsService(cfg, repository.NewSettingRepository(db), env.audit, nil)
	require.NoError(t, err)

	p := parser.New(logger)
	env.views = service.NewViewService(env.logs, env.trainees, env.jobs, env.overlays, env.remote, p)
	executor := service.NewSyncExecutor(env.script, env.reader, nil)
	env.dispatcher = outbox.NewDispatcher(env.outbox, executor, outbox.Options{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		Timeout:        time.Second,
	}, logger)

	sm := statemachine.New()
	env.logSvc = service.NewLogService(env.logs, env.employees, env.views, env.settings, env.script,
		env.dispatcher, service.NewImageProcessor(0, 0), env.audit, nil, logger)
	env.approvals = service.NewApprovalService(sm, env.views, env.logs, env.overlays, env.employees,
		env.settings, env.dispatcher, env.audit, nil, logger)
	env.sync = service.NewSyncService(env.reader, env.script, p, env.remote, env.views, env.logs, env.trainees,
		env.employees, env.overlays, env.outbox, env.settings, env.audit, nil, logger,
		service.SyncOptions{InfoGID: cfg.Sheet.InfoGID})
	env.roster = service.NewRosterService(env.trainees, env.jobs, env.employees, env.views, env.audit, nil)
	env.stats = service.NewStatisticsService(env.views, sm)
	return env
}

// seedRoster 写入学员、职务与三个角色的员工
func (e *testEnv) seedRoster(t *testing.T) {
	require.NoError(t, e.trainees.Save(model.NewTraineeModel(domain.Trainee{ID: "t1", Name: "홍길동", DisabilityType: "지적"}, 0)))
	require.NoError(t, e.trainees.Save(model.NewTraineeModel(domain.Trainee{ID: "t2", Name: "이영희", DisabilityType: "자폐"}, 1)))
	require.NoError(t, e.jobs.Save(model.NewJobModel(domain.JobTask{ID: "shared-job-포장", Title: "포장", Description: "제품 포장"}, 0)))

	employees := []domain.Employee{
		{ID: "e1", Name: "김교사", Position: "직업훈련교사", Email: "teacher@test.kr", Password: "1234", SignatureURL: "https://sig.test/kim.png"},
		{ID: "e2", Name: "박국장", Position: "사무국장", Email: "manager@test.kr", Password: "1234", SignatureURL: "https://sig.test/park.png"},
		{ID: "e3", Name: "최원장", Position: "원장", Email: "director@test.kr", Password: "1234"},
	}
	for i, emp := range employees {
		require.NoError(t, e.employees.Save(model.NewEmployeeModel(emp, i)))
	}
}

// actorCtx 以指定员工身份构造 context
func actorCtx(emp domain.Employee) context.Context {
	ctx := auth.WithActor(context.Background(), domain.ActorFromEmployee(emp))
	return auth.WithSession(ctx, "session-"+emp.ID)
}

var (
	teacher  = domain.Employee{ID: "e1", Name: "김교사", Position: "직업훈련교사"}
	manager  = domain.Employee{ID: "e2", Name: "박국장", Position: "사무국장"}
	director = domain.Employee{ID: "e3", Name: "최원장", Position: "원장"}
)

// createLog 由负责人创建一条日志
func (e *testEnv) createLog(t *testing.T, date string) *domain.TrainingLog {
	result, err := e.logSvc.Create(actorCtx(teacher), &service.CreateLogRequest{
		Date:           date,
		TaskID:         "shared-job-포장",
		InstructorName: "김교사",
		Summary:        "양호",
		Evaluations: []service.EvaluationInput{
			{TraineeID: "t1", Score: 4, Note: "집중"},
			{TraineeID: "t2", Score: 2},
		},
	})
	require.NoError(t, err)
	return result.Log
}

// drain 同步处理队列
func (e *testEnv) drain(t *testing.T) {
	_, err := e.dispatcher.Drain(context.Background())
	require.NoError(t, err)
}
