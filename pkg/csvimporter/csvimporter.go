// Package csvimporter loads bank CSV exports into one account.
package csvimporter

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bcaldwell/ledgerline/pkg/config"
	"github.com/bcaldwell/ledgerline/pkg/finance"
	"github.com/bcaldwell/ledgerline/pkg/store"
)

const LogLevelEnv = "LEDGERLINE_LOG_LEVEL"

var defaultRegex = "^[A-Za-z0-9]([A-Za-z0-9\\-\\_]+)?$"

type Importer struct {
	store *store.Store
	conf  *config.CSVConfig
	regex *regexp.Regexp
	log   *logrus.Logger
}

type Result struct {
	Inserted int
	Updated  int
	Skipped  int
}

func NewImporter(s *store.Store, conf *config.CSVConfig, tagRegex string) (*Importer, error) {
	log := logrus.New()
	log.SetReportCaller(true)

	level, err := logrus.ParseLevel(os.Getenv(LogLevelEnv))
	if err != nil {
		level = logrus.InfoLevel
	}

	log.SetLevel(level)

	if tagRegex == "" {
		tagRegex = defaultRegex
	}

	regex, err := regexp.Compile(tagRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid tag regex %q: %w", tagRegex, err)
	}

	return &Importer{store: s, conf: conf, regex: regex, log: log}, nil
}

func (i *Importer) ImportFile(ctx context.Context, userID, accountID, path string) (Result, error) {
	csvFile, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open %s csv file: %w", path, err)
	}
	defer csvFile.Close()

	result, err := i.Import(ctx, userID, accountID, bufio.NewReader(csvFile))
	if err != nil {
		return result, fmt.Errorf("%s: %w", path, err)
	}

	i.log.Infof("Wrote %d transactions (%d updated) to account %s from csv file %s", result.Inserted, result.Updated, accountID, path)
	return result, nil
}

// Import reads a CSV with a header row and upserts its rows into the account.
// Rows that fail to parse are logged and skipped.
func (i *Importer) Import(ctx context.Context, userID, accountID string, r io.Reader) (Result, error) {
	result := Result{}

	account, err := i.store.GetAccount(ctx, userID, accountID)
	if err != nil {
		return result, err
	}

	accounts, err := i.store.ListAccounts(ctx, userID)
	if err != nil {
		return result, err
	}
	accountsByName := map[string]string{}
	for _, a := range accounts {
		accountsByName[strings.ToLower(a.Name)] = a.ID
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("failed to parse csv header: %w", err)
	}

	headerMap := generateHeaderMap(header)
	seen := map[string]int{}
	transactions := []finance.Transaction{}

	for {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return result, fmt.Errorf("failed to parse csv row: %w", err)
		}

		row := &CSVTransaction{record: line, headerMap: headerMap, regex: i.regex, conf: i.conf}

		t, err := row.Transaction(account.ID, accountsByName)
		if err != nil {
			i.log.WithFields(logrus.Fields{"transaction": line}).WithError(err).Error("Failed to parse transaction")
			result.Skipped++
			continue
		}
		if t == nil {
			result.Skipped++
			continue
		}

		// identical rows on the same day are separate purchases
		key := *t.ImportKey
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s#%d", key, n)
			t.ImportKey = &key
		}

		transactions = append(transactions, *t)
	}

	result.Inserted, result.Updated, err = i.store.UpsertImported(ctx, userID, transactions)
	return result, err
}

// generateHeaderMap maps lower cased header names to their column index
func generateHeaderMap(record []string) map[string]int {
	m := make(map[string]int)
	for i, r := range record {
		m[strings.ToLower(strings.TrimSpace(r))] = i
	}
	return m
}
