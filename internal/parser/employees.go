package parser

import (
	"fmt"
	"strings"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
)

var employeeHeaderWords = map[string]bool{
	"이름": true,
	"성명": true,
	"Name": true,
}

// ParseEmployees 解析员工表：姓名、职位、邮箱、电话、密码、签名，缺少姓名或邮箱的行跳过
func (p *Parser) ParseEmployees(rows [][]string) []domain.Employee {
	var employees []domain.Employee
	for i, row := range rows {
		name := cell(row, 0)
		if name == "" || employeeHeaderWords[name] {
			continue
		}
		email := cell(row, 2)
		if email == "" {
			continue
		}
		employees = append(employees, domain.Employee{
			ID:           fmt.Sprintf("sheet-emp-%d", i),
			Name:         name,
			Position:     orDefault(cell(row, 1), domain.DefaultPosition),
			Email:        email,
			Phone:        cell(row, 3),
			Password:     orDefault(cell(row, 4), domain.DefaultPassword),
			SignatureURL: domain.NormalizeImageURL(cell(row, 5)),
		})
	}
	return employees
}

// EmployeeRows 将员工转换为表格行，列顺序与 ParseEmployees 一致
func EmployeeRows(employees []domain.Employee) []map[string]string {
	rows := make([]map[string]string, 0, len(employees))
	for _, e := range employees {
		rows = append(rows, map[string]string{
			"name":      e.Name,
			"position":  e.Position,
			"email":     e.Email,
			"phone":     e.Phone,
			"password":  e.Password,
			"signature": e.SignatureURL,
		})
	}
	return rows
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
