package ingest

import (
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/helitech/journal_backend/models"
)

// Resolver turns reference values into dimension row ids with per-run
// memoization. Lookups hit the store once per distinct value; creates go
// through small standalone writes so a later voucher rollback never leaves
// the caches pointing at rows that no longer exist. Single-writer only.
type Resolver struct {
	db        *gorm.DB
	companies map[string]int
	books     map[string]int
	subjects  map[string]int
	projects  map[string]int
	parties   map[string]int
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{
		db:        db,
		companies: make(map[string]int),
		books:     make(map[string]int),
		subjects:  make(map[string]int),
		projects:  make(map[string]int),
		parties:   make(map[string]int),
	}
}

// Company resolves a company name, creating the dimension row on first
// sight. Generated codes take the first two runes of the name plus a
// sequence derived from the store, so codes stay unique across runs.
func (r *Resolver) Company(name string) (int, error) {
	if id, ok := r.companies[name]; ok {
		return id, nil
	}
	var company models.Company
	err := r.db.Where("name = ?", name).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.createCompany(name, &company)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve company %q: %w", name, err)
	}
	r.companies[name] = company.ID
	return company.ID, nil
}

// createCompany numbers the code after the rows already sharing the prefix
// and steps past collisions instead of failing the run. Companies are never
// deleted, so count+1 is the next free slot.
func (r *Resolver) createCompany(name string, company *models.Company) error {
	prefix := companyPrefix(name)
	var existing int64
	if err := r.db.Model(&models.Company{}).Where("code LIKE ?", prefix+"%").Count(&existing).Error; err != nil {
		return err
	}
	var err error
	for seq := existing + 1; seq <= existing+3; seq++ {
		*company = models.Company{
			Code: fmt.Sprintf("%s%03d", prefix, seq),
			Name: name,
		}
		err = r.db.Create(company).Error
		if !isDuplicateKey(err) {
			return err
		}
	}
	return err
}

func companyPrefix(name string) string {
	runes := []rune(name)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes)
}

func isDuplicateKey(err error) bool {
	var mysqlErr *gomysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// Book resolves an account book by company and full label.
func (r *Resolver) Book(companyID int, label string) (int, error) {
	key := fmt.Sprintf("%d|%s", companyID, label)
	if id, ok := r.books[key]; ok {
		return id, nil
	}
	var book models.AccountBook
	err := r.db.Where("company_id = ? AND name = ?", companyID, label).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		book = models.AccountBook{CompanyId: companyID, Name: label}
		err = r.db.Create(&book).Error
	}
	if err != nil {
		return 0, fmt.Errorf("resolve account book %q: %w", label, err)
	}
	r.books[key] = book.ID
	return book.ID, nil
}

// Subject resolves a chart-of-accounts entry by code, creating it with the
// classification derived from the code on first sight.
func (r *Resolver) Subject(info SubjectInfo) (int, error) {
	if id, ok := r.subjects[info.Code]; ok {
		return id, nil
	}
	var subject models.AccountSubject
	err := r.db.Where("code = ?", info.Code).First(&subject).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		subject = models.AccountSubject{
			Code:          info.Code,
			Name:          info.Name,
			FullName:      info.FullName,
			Level:         info.Level,
			SubjectType:   info.Type,
			NormalBalance: info.Balance,
		}
		err = r.db.Create(&subject).Error
	}
	if err != nil {
		return 0, fmt.Errorf("resolve subject %q: %w", info.Code, err)
	}
	r.subjects[info.Code] = subject.ID
	return subject.ID, nil
}

// Project resolves a project dimension row by name.
func (r *Resolver) Project(name string, companyID int) (int, error) {
	if id, ok := r.projects[name]; ok {
		return id, nil
	}
	var project models.Project
	err := r.db.Where("project_name = ?", name).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		project = models.Project{
			ProjectCode: fmt.Sprintf("PRJ%04d", len(r.projects)+1),
			ProjectName: name,
			CompanyId:   companyID,
		}
		err = r.db.Create(&project).Error
	}
	if err != nil {
		return 0, fmt.Errorf("resolve project %q: %w", name, err)
	}
	r.projects[name] = project.ID
	return project.ID, nil
}

// Party resolves a supplier/customer dimension row by name.
func (r *Resolver) Party(name string, dim models.DimensionType) (int, error) {
	if id, ok := r.parties[name]; ok {
		return id, nil
	}
	var party models.SupplierCustomer
	err := r.db.Where("name = ?", name).First(&party).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		party = models.SupplierCustomer{Name: name, Type: models.PartyTypeLabel(dim)}
		err = r.db.Create(&party).Error
	}
	if err != nil {
		return 0, fmt.Errorf("resolve party %q: %w", name, err)
	}
	r.parties[name] = party.ID
	return party.ID, nil
}
