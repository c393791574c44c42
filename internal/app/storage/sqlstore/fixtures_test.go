package sqlstore

import (
	"github.com/R3E-Network/jobhunter/internal/app/domain/company"
	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
)

func companyFixture(id int64) company.Company {
	return company.Company{ID: id, Name: "Acme", Address: "Hanoi", Active: true}
}

func skillFixture(name string) skill.Skill {
	return skill.Skill{Name: name}
}
