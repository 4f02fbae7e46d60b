package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
)

// ErrNameColumnMissing 学员名册缺少姓名列
var ErrNameColumnMissing = errors.New("name column not found in trainee roster")

var (
	rosterName      = keywordSet{korean: []string{"이름", "성명"}, english: []string{"name"}}
	rosterBirth     = keywordSet{korean: []string{"생년"}, english: []string{"birth"}}
	rosterType      = keywordSet{korean: []string{"장애", "유형"}}
	rosterJob       = keywordSet{korean: []string{"직무", "역할"}}
	rosterLocation  = keywordSet{korean: []string{"장소", "1층"}}
	rosterResidence = keywordSet{korean: []string{"구분", "거주", "재가"}}
	rosterEmploy    = keywordSet{korean: []string{"직급", "근로"}}
	rosterPhone     = keywordSet{korean: []string{"전화"}, english: []string{"phone"}}
	rosterGoal      = keywordSet{korean: []string{"목표"}, english: []string{"goal"}}
	rosterScore     = keywordSet{korean: []string{"점수"}, english: []string{"target"}}
	rosterMemo      = keywordSet{korean: []string{"메모", "특이"}}
)

// ParseTrainees 解析学员名册表
func (p *Parser) ParseTrainees(headers []string, rows [][]string) ([]domain.Trainee, error) {
	name := findColumn(headers, rosterName)
	if name < 0 {
		return nil, ErrNameColumnMissing
	}
	birth := findColumn(headers, rosterBirth)
	kind := findColumn(headers, rosterType)
	job := findColumn(headers, rosterJob)
	location := findColumn(headers, rosterLocation)
	residence := findColumn(headers, rosterResidence)
	employ := findColumn(headers, rosterEmploy)
	phone := findColumn(headers, rosterPhone)
	goal := findColumn(headers, rosterGoal)
	score := findColumn(headers, rosterScore)
	memo := findColumn(headers, rosterMemo)

	var trainees []domain.Trainee
	for i, row := range rows {
		traineeName := cell(row, name)
		if traineeName == "" {
			continue
		}
		t := domain.Trainee{
			ID:             fmt.Sprintf("sheet-t-%d", i),
			Name:           traineeName,
			BirthDate:      cell(row, birth),
			DisabilityType: domain.DefaultDisabilityType,
			JobRole:        cell(row, job),
			WorkLocation:   pick(cell(row, location), "2층", domain.DefaultWorkLocation),
			ResidenceType:  pick(cell(row, residence), "시설", "재가"),
			EmploymentType: pick(cell(row, employ), "근로", "훈련"),
			Phone:          cell(row, phone),
			TrainingGoal:   cell(row, goal),
			TargetScore:    parseTargetScore(cell(row, score)),
			Memo:           cell(row, memo),
		}
		if kind >= 0 {
			t.DisabilityType = cell(row, kind)
		}
		trainees = append(trainees, t)
	}
	return trainees, nil
}

// pick 单元格等于 match 时返回 match，否则返回 fallback
func pick(value, match, fallback string) string {
	if value == match {
		return match
	}
	return fallback
}

func parseTargetScore(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n == 0 {
		return domain.DefaultScore
	}
	return n
}

var programHeaderWords = map[string]bool{
	"직무":    true,
	"직무명":   true,
	"프로그램":  true,
	"프로그램명": true,
}

// ProgramJobDescription 课程表派生职务的描述
const ProgramJobDescription = "From Program Sheet"

// ParsePrograms 解析课程表，第一列为职务名
func (p *Parser) ParsePrograms(rows [][]string) []domain.JobTask {
	var jobs []domain.JobTask
	for _, row := range rows {
		title := cell(row, 0)
		if title == "" || programHeaderWords[title] {
			continue
		}
		job := domain.NewSheetJob(title)
		job.Description = ProgramJobDescription
		jobs = append(jobs, job)
	}
	return jobs
}
