package reconcile

import (
	"github.com/jswork01-cmyk/trainning1/internal/domain"
)

// Input 合并输入，调用方的数据不会被修改
type Input struct {
	LocalLogs     []domain.TrainingLog
	SheetLogs     []domain.TrainingLog
	Overlays      map[string]domain.ApprovalOverlay
	ProgramJobs   []domain.JobTask
	SheetJobs     []domain.JobTask
	LocalJobs     []domain.JobTask
	LocalTrainees []domain.Trainee
	SheetTrainees []domain.Trainee
}

// View 展示视图
type View struct {
	Logs      []domain.TrainingLog `json:"logs"`
	Jobs      []domain.JobTask     `json:"jobs"`
	Trainees  []domain.Trainee     `json:"trainees"`
	SheetMode bool                 `json:"sheetMode"`
}

// Build 计算展示视图
func Build(in Input) View {
	sheetMode := len(in.SheetLogs) > 0

	var logs []domain.TrainingLog
	if sheetMode {
		logs = MergeLogs(in.LocalLogs, in.SheetLogs)
	} else {
		logs = cloneLogs(in.LocalLogs)
	}
	logs = ApplyOverlays(logs, in.Overlays)

	trainees := cloneTrainees(in.LocalTrainees)
	if sheetMode {
		trainees = MergeTrainees(in.LocalTrainees, in.SheetTrainees)
	}

	return View{
		Logs:      logs,
		Jobs:      MergeJobs(in.ProgramJobs, in.SheetJobs, in.LocalTrainees, in.LocalJobs),
		Trainees:  trainees,
		SheetMode: sheetMode,
	}
}

// MergeLogs 以表格日志为准合并本地日志
//
// 与表格中任何日志都不匹配的本地日志放在前面；匹配上的本地日志只在表格副本没有照片时
// 提供照片。结果按日期倒序。
func MergeLogs(local, sheet []domain.TrainingLog) []domain.TrainingLog {
	remote := cloneLogs(sheet)

	var localOnly []domain.TrainingLog
	for i := range local {
		matched := false
		for j := range remote {
			if local[i].SameSession(&remote[j]) {
				matched = true
				if len(remote[j].Images) == 0 && len(local[i].Images) > 0 {
					remote[j].Images = append([]string(nil), local[i].Images...)
				}
			}
		}
		if !matched {
			localOnly = append(localOnly, local[i].Clone())
		}
	}

	merged := append(localOnly, remote...)
	domain.SortLogsByDateDesc(merged)
	return merged
}

// ApplyOverlays 应用审批覆盖层：非 pending 的覆盖步骤合并到日志步骤上
func ApplyOverlays(logs []domain.TrainingLog, overlays map[string]domain.ApprovalOverlay) []domain.TrainingLog {
	out := make([]domain.TrainingLog, len(logs))
	for i, log := range logs {
		out[i] = log.Clone()
		overlay, ok := overlays[log.ID]
		if !ok {
			continue
		}
		for idx := range out[i].Approvals {
			step := overlay.StepAt(idx)
			if step == nil || step.Status == "" || step.Status == domain.StepPending {
				continue
			}
			out[i].Approvals[idx] = domain.MergeStep(out[i].Approvals[idx], *step)
		}
	}
	return out
}

// MergeOverlays 将新读取的覆盖层逐步合并到已有覆盖层
func MergeOverlays(existing, fetched map[string]domain.ApprovalOverlay) map[string]domain.ApprovalOverlay {
	merged := make(map[string]domain.ApprovalOverlay, len(existing)+len(fetched))
	for id, overlay := range existing {
		merged[id] = cloneOverlay(overlay)
	}
	for id, overlay := range fetched {
		target := merged[id]
		for idx, step := range overlay.Approvals {
			if step == nil || idx >= len(domain.ApprovalRoles) {
				continue
			}
			if prev := target.StepAt(idx); prev != nil {
				// 已结束的步骤不会被待处理状态降级
				if prev.Status.IsTerminal() && step.Status == domain.StepPending {
					continue
				}
				target.SetStep(idx, domain.MergeStep(*prev, *step))
			} else {
				target.SetStep(idx, *step)
			}
		}
		merged[id] = target
	}
	return merged
}

// MergeJobs 合并职务：课程表 -> 表格日志 -> 学员 jobRole -> 本地，相同 ID 先到先得
func MergeJobs(program, sheet []domain.JobTask, trainees []domain.Trainee, local []domain.JobTask) []domain.JobTask {
	seen := make(map[string]bool)
	var jobs []domain.JobTask
	add := func(job domain.JobTask) {
		if seen[job.ID] {
			return
		}
		seen[job.ID] = true
		jobs = append(jobs, job)
	}

	for _, j := range program {
		add(j)
	}
	for _, j := range sheet {
		add(j)
	}
	for _, t := range trainees {
		for _, title := range t.JobRoles() {
			add(domain.JobTask{
				ID:          domain.JobID(title),
				Title:       title,
				Category:    domain.JobCategoryOther,
				Description: domain.TraineeJobDescription,
			})
		}
	}
	for _, j := range local {
		add(j)
	}
	return jobs
}

// MergeTrainees 本地学员加上姓名不重复的表格学员
func MergeTrainees(local, sheet []domain.Trainee) []domain.Trainee {
	merged := cloneTrainees(local)
	names := make(map[string]bool, len(local))
	for _, t := range local {
		names[t.Name] = true
	}
	for _, t := range sheet {
		if names[t.Name] {
			continue
		}
		names[t.Name] = true
		merged = append(merged, t)
	}
	return merged
}

func cloneLogs(logs []domain.TrainingLog) []domain.TrainingLog {
	out := make([]domain.TrainingLog, len(logs))
	for i, l := range logs {
		out[i] = l.Clone()
	}
	return out
}

func cloneTrainees(trainees []domain.Trainee) []domain.Trainee {
	return append([]domain.Trainee{}, trainees...)
}

func cloneOverlay(o domain.ApprovalOverlay) domain.ApprovalOverlay {
	var out domain.ApprovalOverlay
	for idx, step := range o.Approvals {
		if step != nil {
			out.SetStep(idx, *step)
		}
	}
	return out
}
