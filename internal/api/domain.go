package api

import (
	"github.com/JaimeStill/dossier/internal/categories"
	"github.com/JaimeStill/dossier/internal/documents"
	"github.com/JaimeStill/dossier/internal/employees"
	"github.com/JaimeStill/dossier/internal/filing"
	"github.com/JaimeStill/dossier/internal/ledger"
	"github.com/JaimeStill/dossier/internal/maintenance"
	"github.com/JaimeStill/dossier/internal/rules"
	"github.com/JaimeStill/dossier/internal/scanjobs"
	"github.com/JaimeStill/dossier/internal/scanner"
	"github.com/JaimeStill/dossier/internal/scopes"
	"github.com/JaimeStill/dossier/internal/segment"
)

// Domain holds all domain systems shared by the server and the CLI.
type Domain struct {
	Scopes      scopes.System
	Employees   employees.System
	Categories  categories.System
	Ledger      ledger.System
	Documents   documents.System
	Rules       rules.System
	Filing      filing.System
	ScanJobs    scanjobs.System
	Resolver    *employees.Resolver
	Classifier  *rules.Classifier
	Splitter    *segment.Splitter
	Scanner     *scanner.Scanner
	Maintenance *maintenance.Service
}

// NewDomain creates all domain systems from the runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()
	cfg := runtime.Config

	scopesSystem := scopes.New(db, runtime.Logger)
	employeesSystem := employees.New(db, runtime.Logger)
	categoriesSystem := categories.New(db, runtime.Logger)
	ledgerSystem := ledger.New(db, runtime.Logger)
	jobsSystem := scanjobs.New(db, runtime.Logger, runtime.Pagination)

	docsSystem := documents.New(
		db,
		runtime.Storage,
		runtime.Cipher,
		runtime.Logger,
		runtime.Pagination,
	)

	rulesSystem := rules.New(db, categoriesSystem, runtime.Logger)

	filingSystem := filing.New(
		db,
		categoriesSystem,
		employeesSystem,
		cfg.Filing,
		runtime.Logger,
	)

	resolver := employees.NewResolver(
		employeesSystem,
		cfg.Employees.CacheSize,
		cfg.Employees.CacheTTLDuration(),
		runtime.Logger,
	)
	classifier := rules.NewClassifier(rulesSystem, docsSystem, runtime.Logger)
	splitter := segment.NewSplitter(docsSystem, resolver, nil, runtime.Logger)

	scan := scanner.New(
		scanner.Systems{
			Scopes:     scopesSystem,
			Ledger:     ledgerSystem,
			Documents:  docsSystem,
			Jobs:       jobsSystem,
			Resolver:   resolver,
			Extractor:  runtime.Extractor,
			Splitter:   splitter,
			Classifier: classifier,
			Filing:     filingSystem,
			Locker:     runtime.Locker,
		},
		&cfg.Scanner,
		cfg.Vault.MaxPlaintextBytes(),
		runtime.Logger,
	)

	maint := maintenance.New(
		maintenance.Systems{
			Documents:  docsSystem,
			Resolver:   resolver,
			Extractor:  runtime.Extractor,
			Splitter:   splitter,
			Classifier: classifier,
			Filing:     filingSystem,
		},
		cfg.Scanner.Workers,
		runtime.Logger,
	)

	return &Domain{
		Scopes:      scopesSystem,
		Employees:   employeesSystem,
		Categories:  categoriesSystem,
		Ledger:      ledgerSystem,
		Documents:   docsSystem,
		Rules:       rulesSystem,
		Filing:      filingSystem,
		ScanJobs:    jobsSystem,
		Resolver:    resolver,
		Classifier:  classifier,
		Splitter:    splitter,
		Scanner:     scan,
		Maintenance: maint,
	}
}
