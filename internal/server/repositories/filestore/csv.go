package filestore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/dayplanner/internal/server/models"
)

// importLegacyCSV pulls an old single-user tasks.csv into the global
// collection and renames the file so the import happens exactly once.
// Reports whether anything was imported.
func (s *Store) importLegacyCSV() (bool, error) {
	path := filepath.Join(s.path, legacyCSV)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("open legacy csv: %w", err)
	}
	defer f.Close()

	ts, err := parseLegacyCSV(f)
	if err != nil {
		return false, fmt.Errorf("parse legacy csv: %w", err)
	}

	rec, err := s.record(models.GlobalOwner)
	if err != nil {
		return false, err
	}

	var next int64
	for _, t := range rec.Tasks {
		if t.ID > next {
			next = t.ID
		}
	}
	for _, t := range ts {
		if t.ID > next {
			next = t.ID
		}
	}
	for i := range ts {
		if ts[i].ID == 0 {
			next++
			ts[i].ID = next
		}
	}

	rec.Tasks = append(rec.Tasks, ts...)

	if err := os.Rename(path, path+".imported"); err != nil {
		return false, fmt.Errorf("rename legacy csv: %w", err)
	}

	return true, nil
}

// parseLegacyCSV reads the old export format. The header row names the
// columns; files written before notes and completion flags existed are
// missing those columns and get zero values. Invalid priorities fall back
// to Low, same as the JSON schema migration.
func parseLegacyCSV(r io.Reader) ([]models.Task, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var result []models.Task
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		t := models.Task{
			Title:    field(row, "title"),
			Priority: models.Priority(field(row, "priority")),
			Due:      field(row, "duedate"),
			Note:     field(row, "note"),
		}
		if t.Title == "" {
			continue
		}
		if !t.Priority.Valid() {
			t.Priority = models.PriorityLow
		}
		if v := field(row, "id"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				t.ID = id
			}
		}
		if v := field(row, "completed"); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				t.Completed = b
			}
		}

		result = append(result, t)
	}

	return result, nil
}
