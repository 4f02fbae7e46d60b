package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jswork01-cmyk/trainning1/internal/service"
)

// RosterController 学员、职务、员工名册控制器
type RosterController struct {
	rosterService service.RosterService
}

// NewRosterController 创建名册控制器
func NewRosterController(rosterService service.RosterService) *RosterController {
	return &RosterController{
		rosterService: rosterService,
	}
}

// ListTrainees 学员列表
// @Router /trainees [get]
func (c *RosterController) ListTrainees(ctx *gin.Context) {
	trainees, err := c.rosterService.ListTrainees(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "list trainees")
		return
	}
	Success(ctx, trainees)
}

// CreateTrainee 创建学员
// @Router /trainees [post]
func (c *RosterController) CreateTrainee(ctx *gin.Context) {
	var req service.TraineeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	trainee, err := c.rosterService.CreateTrainee(ctx.Request.Context(), &req)
	if err != nil {
		HandleError(ctx, err, "create trainee")
		return
	}
	Created(ctx, trainee)
}

// UpdateTrainee 更新学员
// @Router /trainees/{id} [put]
func (c *RosterController) UpdateTrainee(ctx *gin.Context) {
	var req service.TraineeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	trainee, err := c.rosterService.UpdateTrainee(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err, "update trainee")
		return
	}
	Success(ctx, trainee)
}

// DeleteTrainee 删除学员
// @Router /trainees/{id} [delete]
func (c *RosterController) DeleteTrainee(ctx *gin.Context) {
	if err := c.rosterService.DeleteTrainee(ctx.Request.Context(), ctx.Param("id")); err != nil {
		HandleError(ctx, err, "delete trainee")
		return
	}
	Success(ctx, nil)
}

// ListJobs 职务列表
// @Router /jobs [get]
func (c *RosterController) ListJobs(ctx *gin.Context) {
	jobs, err := c.rosterService.ListJobs(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "list jobs")
		return
	}
	Success(ctx, jobs)
}

// CreateJob 创建职务
// @Router /jobs [post]
func (c *RosterController) CreateJob(ctx *gin.Context) {
	var req service.JobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	job, err := c.rosterService.CreateJob(ctx.Request.Context(), &req)
	if err != nil {
		HandleError(ctx, err, "create job")
		return
	}
	Created(ctx, job)
}

// ListEmployees 员工列表
// @Router /employees [get]
func (c *RosterController) ListEmployees(ctx *gin.Context) {
	employees, err := c.rosterService.ListEmployees(ctx.Request.Context())
	if err != nil {
		HandleError(ctx, err, "list employees")
		return
	}
	Success(ctx, employees)
}

// CreateEmployee 创建员工
// @Router /employees [post]
func (c *RosterController) CreateEmployee(ctx *gin.Context) {
	var req service.EmployeeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	employee, err := c.rosterService.CreateEmployee(ctx.Request.Context(), &req)
	if err != nil {
		HandleError(ctx, err, "create employee")
		return
	}
	Created(ctx, employee)
}

// UpdateEmployee 更新员工
// @Router /employees/{id} [put]
func (c *RosterController) UpdateEmployee(ctx *gin.Context) {
	var req service.EmployeeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	employee, err := c.rosterService.UpdateEmployee(ctx.Request.Context(), ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err, "update employee")
		return
	}
	Success(ctx, employee)
}

// DeleteEmployee 删除员工
// @Router /employees/{id} [delete]
func (c *RosterController) DeleteEmployee(ctx *gin.Context) {
	if err := c.rosterService.DeleteEmployee(ctx.Request.Context(), ctx.Param("id")); err != nil {
		HandleError(ctx, err, "delete employee")
		return
	}
	Success(ctx, nil)
}
