package entities

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"
)

// Row is one name->code mapping
type Row struct {
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// Table maps display names to codes. Immutable after construction.
type Table struct {
	byName map[string]string
	byCode map[string]string
	names  []string // sorted for deterministic iteration
}

// NewTable builds a table from rows. Rows with an empty name or a code that
// does not match the code pattern are skipped and returned as rejected.
func NewTable(rows []Row, pattern *CodePattern) (*Table, []Row) {
	t := &Table{
		byName: make(map[string]string, len(rows)),
		byCode: make(map[string]string, len(rows)),
	}
	var rejected []Row
	for _, r := range rows {
		name := strings.TrimSpace(r.Name)
		code := strings.TrimSpace(r.Code)
		if name == "" || !pattern.Valid(code) {
			rejected = append(rejected, r)
			continue
		}
		if _, exists := t.byName[name]; exists {
			continue
		}
		t.byName[name] = code
		if _, exists := t.byCode[code]; !exists {
			t.byCode[code] = name
		}
		t.names = append(t.names, name)
	}
	sort.Strings(t.names)
	return t, rejected
}

// Code returns the code for a display name
func (t *Table) Code(name string) (string, bool) {
	code, ok := t.byName[name]
	return code, ok
}

// Name returns the first display name registered for a code
func (t *Table) Name(code string) (string, bool) {
	name, ok := t.byCode[code]
	return name, ok
}

// Len returns the number of names in the table
func (t *Table) Len() int {
	return len(t.names)
}

// DefaultRows is the reference table for the gold sector plus the most
// discussed blue chips
var DefaultRows = []Row{
	{"山东黄金", "600547"},
	{"中金黄金", "600489"},
	{"紫金矿业", "601899"},
	{"赤峰黄金", "600988"},
	{"湖南黄金", "002155"},
	{"恒邦股份", "002237"},
	{"银泰黄金", "000975"},
	{"西部黄金", "601069"},
	{"荣华实业", "600311"},
	{"豫光金铅", "600531"},
	{"东方金钰", "600086"},
	{"贵州茅台", "600519"},
	{"五粮液", "000858"},
	{"宁德时代", "300750"},
	{"比亚迪", "002594"},
	{"隆基绿能", "601012"},
	{"中国平安", "601318"},
	{"招商银行", "600036"},
	{"工商银行", "601398"},
	{"建设银行", "601939"},
	{"中国石油", "601857"},
	{"中国石化", "600028"},
	{"中国神华", "601088"},
	{"长江电力", "600900"},
	{"中国联通", "600050"},
	{"中国移动", "600941"},
	{"格力电器", "000651"},
	{"美的集团", "000333"},
	{"海天味业", "603288"},
	{"伊利股份", "600887"},
	{"万科A", "000002"},
	{"保利发展", "600048"},
}

// DefaultTable returns the built-in reference table
func DefaultTable(pattern *CodePattern) *Table {
	t, _ := NewTable(DefaultRows, pattern)
	return t
}

type tableFile struct {
	Entities []Row `yaml:"entities"`
}

// LoadTable reads a YAML reference table:
//
//	entities:
//	  - name: 山东黄金
//	    code: "600547"
func LoadTable(path string, pattern *CodePattern, logger arbor.ILogger) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entity table %s: %w", path, err)
	}

	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse entity table %s: %w", path, err)
	}

	t, rejected := NewTable(file.Entities, pattern)
	for _, r := range rejected {
		logger.Warn().
			Str("name", r.Name).
			Str("code", r.Code).
			Msg("Entity table row rejected")
	}

	logger.Debug().
		Str("path", path).
		Int("entities", t.Len()).
		Msg("Entity table loaded")

	return t, nil
}
