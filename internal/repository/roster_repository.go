package repository

import (
	"database/sql"
	"strings"

	"github.com/jswork01-cmyk/trainning1/internal/model"
	"gorm.io/gorm"
)

// TraineeRepository 学员仓储接口
type TraineeRepository interface {
	Save(trainee *model.TraineeModel) error
	FindByID(id string) (*model.TraineeModel, error)
	FindByName(name string) (*model.TraineeModel, error)
	FindAll() ([]*model.TraineeModel, error)
	Delete(id string) error
	ReplaceAll(trainees []*model.TraineeModel) error
	NextPosition() (int, error)
}

// traineeRepository 学员仓储实现
type traineeRepository struct {
	db *gorm.DB
}

// NewTraineeRepository 创建学员仓储
func NewTraineeRepository(db *gorm.DB) TraineeRepository {
	return &traineeRepository{db: db}
}

// Save 保存学员
func (r *traineeRepository) Save(trainee *model.TraineeModel) error {
	if err := trainee.Validate(); err != nil {
		return err
	}
	return r.db.Save(trainee).Error
}

// FindByID 根据 ID 查找学员
func (r *traineeRepository) FindByID(id string) (*model.TraineeModel, error) {
	var trainee model.TraineeModel
	if err := r.db.Where("id = ?", id).First(&trainee).Error; err != nil {
		return nil, err
	}
	return &trainee, nil
}

// FindByName 根据姓名查找学员
func (r *traineeRepository) FindByName(name string) (*model.TraineeModel, error) {
	var trainee model.TraineeModel
	if err := r.db.Where("name = ?", strings.TrimSpace(name)).Order("position ASC").First(&trainee).Error; err != nil {
		return nil, err
	}
	return &trainee, nil
}

// FindAll 按列表顺序查找所有学员
func (r *traineeRepository) FindAll() ([]*model.TraineeModel, error) {
	var trainees []*model.TraineeModel
	err := r.db.Order("position ASC").Order("created_at ASC").Find(&trainees).Error
	return trainees, err
}

// Delete 删除学员
func (r *traineeRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.TraineeModel{}).Error
}

// ReplaceAll 整体替换学员名单
func (r *traineeRepository) ReplaceAll(trainees []*model.TraineeModel) error {
	return replaceAll(r.db, &model.TraineeModel{}, trainees)
}

// NextPosition 返回追加到列表末尾时的位置
func (r *traineeRepository) NextPosition() (int, error) {
	return nextPosition(r.db, &model.TraineeModel{}, "position")
}

// JobRepository 职务仓储接口
type JobRepository interface {
	Save(job *model.JobModel) error
	FindByID(id string) (*model.JobModel, error)
	FindAll() ([]*model.JobModel, error)
	ReplaceAll(jobs []*model.JobModel) error
	NextPosition() (int, error)
}

// jobRepository 职务仓储实现
type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository 创建职务仓储
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

// Save 保存职务
func (r *jobRepository) Save(job *model.JobModel) error {
	return r.db.Save(job).Error
}

// FindByID 根据 ID 查找职务
func (r *jobRepository) FindByID(id string) (*model.JobModel, error) {
	var job model.JobModel
	if err := r.db.Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// FindAll 按列表顺序查找所有职务
func (r *jobRepository) FindAll() ([]*model.JobModel, error) {
	var jobs []*model.JobModel
	err := r.db.Order("position ASC").Order("created_at ASC").Find(&jobs).Error
	return jobs, err
}

// ReplaceAll 整体替换职务列表
func (r *jobRepository) ReplaceAll(jobs []*model.JobModel) error {
	return replaceAll(r.db, &model.JobModel{}, jobs)
}

// NextPosition 返回追加到列表末尾时的位置
func (r *jobRepository) NextPosition() (int, error) {
	return nextPosition(r.db, &model.JobModel{}, "position")
}

// EmployeeRepository 员工仓储接口
type EmployeeRepository interface {
	Save(employee *model.EmployeeModel) error
	FindByID(id string) (*model.EmployeeModel, error)
	FindByEmail(email string) (*model.EmployeeModel, error)
	FindAll() ([]*model.EmployeeModel, error)
	Delete(id string) error
	ReplaceAll(employees []*model.EmployeeModel) error
	NextPosition() (int, error)
}

// employeeRepository 员工仓储实现
type employeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository 创建员工仓储
func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

// Save 保存员工
func (r *employeeRepository) Save(employee *model.EmployeeModel) error {
	if err := employee.Validate(); err != nil {
		return err
	}
	return r.db.Save(employee).Error
}

// FindByID 根据 ID 查找员工
func (r *employeeRepository) FindByID(id string) (*model.EmployeeModel, error) {
	var employee model.EmployeeModel
	if err := r.db.Where("id = ?", id).First(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindByEmail 根据邮箱查找员工，忽略大小写
func (r *employeeRepository) FindByEmail(email string) (*model.EmployeeModel, error) {
	var employee model.EmployeeModel
	err := r.db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("sort_order ASC").
		First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindAll 按列表顺序查找所有员工
func (r *employeeRepository) FindAll() ([]*model.EmployeeModel, error) {
	var employees []*model.EmployeeModel
	err := r.db.Order("sort_order ASC").Order("created_at ASC").Find(&employees).Error
	return employees, err
}

// Delete 删除员工
func (r *employeeRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.EmployeeModel{}).Error
}

// ReplaceAll 整体替换员工名单
func (r *employeeRepository) ReplaceAll(employees []*model.EmployeeModel) error {
	return replaceAll(r.db, &model.EmployeeModel{}, employees)
}

// NextPosition 返回追加到列表末尾时的位置
func (r *employeeRepository) NextPosition() (int, error) {
	return nextPosition(r.db, &model.EmployeeModel{}, "sort_order")
}

// nextPosition 查询当前最大位置加一
func nextPosition(db *gorm.DB, table interface{}, column string) (int, error) {
	var max sql.NullInt64
	if err := db.Model(table).Select("MAX(" + column + ")").Row().Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}
