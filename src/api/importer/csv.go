// Package importer loads a budget period, its categories and items from
// CSV exports of the planning spreadsheet. The Google Sheets fetch itself
// lives outside this service; it produces the same CSV shape.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/ptrdsh/participatory-budgeting/src/api/budget"
	"github.com/ptrdsh/participatory-budgeting/src/api/types"
	"gorm.io/gorm"
)

const defaultColor = "#4C6FFF"

// Imported strings come from a shared spreadsheet anyone on the team can
// edit, so everything is stripped down to plain text before storage.
var sanitizer = bluemonday.StrictPolicy()

type PeriodInput struct {
	Title            string
	Description      string
	TotalBudget      int64
	StartDate        time.Time
	EndDate          time.Time
	GovernanceAction string
}

type CategoryInput struct {
	Name        string
	Description string
	Color       string
}

type ItemInput struct {
	Title           string
	Description     string
	CategoryName    string
	SuggestedAmount int64
}

type BudgetData struct {
	Period     PeriodInput
	Categories []CategoryInput
	Items      []ItemInput
}

type Result struct {
	PeriodID        uint64 `json:"periodId"`
	CategoriesCount int    `json:"categoriesCount"`
	ItemsCount      int    `json:"itemsCount"`
}

// ParseCSV reads the three exports into one BudgetData.
func ParseCSV(period, categories, items io.Reader) (*BudgetData, error) {
	data := &BudgetData{}

	rows, err := readRecords(period)
	if err != nil {
		return nil, fmt.Errorf("period.csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("period.csv: no budget period row")
	}
	p := rows[0]
	start, err := parseDate(p["startDate"])
	if err != nil {
		return nil, fmt.Errorf("period.csv: %w", err)
	}
	end, err := parseDate(p["endDate"])
	if err != nil {
		return nil, fmt.Errorf("period.csv: %w", err)
	}
	data.Period = PeriodInput{
		Title:            clean(p["title"]),
		Description:      clean(p["description"]),
		TotalBudget:      parseAmount(p["totalBudget"]),
		StartDate:        start,
		EndDate:          end,
		GovernanceAction: clean(p["governanceAction"]),
	}

	rows, err = readRecords(categories)
	if err != nil {
		return nil, fmt.Errorf("categories.csv: %w", err)
	}
	for _, r := range rows {
		color := strings.TrimSpace(r["color"])
		if color == "" {
			color = defaultColor
		}
		data.Categories = append(data.Categories, CategoryInput{
			Name:        clean(r["name"]),
			Description: clean(r["description"]),
			Color:       color,
		})
	}

	rows, err = readRecords(items)
	if err != nil {
		return nil, fmt.Errorf("items.csv: %w", err)
	}
	for _, r := range rows {
		name := clean(r["categoryName"])
		if name == "" {
			name = "Uncategorized"
		}
		data.Items = append(data.Items, ItemInput{
			Title:           clean(r["title"]),
			Description:     clean(r["description"]),
			CategoryName:    name,
			SuggestedAmount: parseAmount(r["suggestedAmount"]),
		})
	}

	return data, nil
}

// Save writes the imported data: the new period plus categories and items
// in one transaction, an empty statistics row, then activation through the
// lifecycle component so the previous period is switched off atomically.
func Save(db *gorm.DB, data *BudgetData) (*Result, error) {
	var result Result

	err := db.Transaction(func(tx *gorm.DB) error {
		period := types.BudgetPeriod{
			Title:            data.Period.Title,
			Description:      data.Period.Description,
			TotalBudget:      data.Period.TotalBudget,
			StartDate:        data.Period.StartDate,
			EndDate:          data.Period.EndDate,
			GovernanceAction: data.Period.GovernanceAction,
		}
		if err := tx.Create(&period).Error; err != nil {
			return err
		}
		result.PeriodID = period.ID

		categoryIDs := make(map[string]uint64)
		for _, c := range data.Categories {
			cat := types.BudgetCategory{Name: c.Name, Description: c.Description, Color: c.Color}
			if err := tx.Create(&cat).Error; err != nil {
				return err
			}
			categoryIDs[strings.ToLower(c.Name)] = cat.ID
		}

		for _, item := range data.Items {
			catID, ok := categoryIDs[strings.ToLower(item.CategoryName)]
			if !ok {
				// Items may name categories the sheet forgot to declare.
				cat := types.BudgetCategory{Name: item.CategoryName, Color: defaultColor}
				if err := tx.Create(&cat).Error; err != nil {
					return err
				}
				catID = cat.ID
				categoryIDs[strings.ToLower(item.CategoryName)] = cat.ID
			}
			if err := tx.Create(&types.BudgetItem{
				Title:           item.Title,
				Description:     item.Description,
				CategoryID:      catID,
				SuggestedAmount: item.SuggestedAmount,
			}).Error; err != nil {
				return err
			}
			result.ItemsCount++
		}
		result.CategoriesCount = len(categoryIDs)

		return tx.Create(&types.Statistics{
			BudgetPeriodID:       period.ID,
			CategoryDistribution: types.CategoryDistribution{},
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := budget.ActivatePeriod(db, result.PeriodID); err != nil {
		return nil, err
	}
	return &result, nil
}

func readRecords(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[strings.TrimSpace(col)] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func clean(s string) string {
	return strings.TrimSpace(sanitizer.Sanitize(s))
}

func parseAmount(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02", "02/01/2006", "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
