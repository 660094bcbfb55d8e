package database

import (
	"encoding/csv"
	"os"
	"strconv"

	"gorm.io/gorm"
)

// RadioIDRepository handles the admin-managed radio-ID ACL table and
// its CSV commit path (spec.md §6), grounded on pkg/radioid/syncer.go's
// CSV read/write idiom.
type RadioIDRepository struct {
	db *gorm.DB
}

func NewRadioIDRepository(db *gorm.DB) *RadioIDRepository {
	return &RadioIDRepository{db: db}
}

func (r *RadioIDRepository) Upsert(e *RadioIDEntry) error {
	return r.db.Save(e).Error
}

func (r *RadioIDRepository) Delete(id uint32) error {
	return r.db.Delete(&RadioIDEntry{}, "id = ?", id).Error
}

func (r *RadioIDRepository) All() ([]RadioIDEntry, error) {
	var entries []RadioIDEntry
	err := r.db.Order("id").Find(&entries).Error
	return entries, err
}

func (r *RadioIDRepository) Get(id uint32) (*RadioIDEntry, error) {
	var e RadioIDEntry
	if err := r.db.First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// CommitCSV writes every entry to path as "id,enabled,alias" rows, the
// REST "force-update"/"commit" operation spec.md §6 names.
func (r *RadioIDRepository) CommitCSV(path string) error {
	entries, err := r.All()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	for _, e := range entries {
		if err := w.Write([]string{
			strconv.FormatUint(uint64(e.ID), 10),
			strconv.FormatBool(e.Enabled),
			e.Alias,
		}); err != nil {
			return err
		}
	}
	return w.Error()
}

// LoadCSV upserts each "id,enabled,alias" row in path into the table.
// Entries already in the table but absent from the file are kept; rows
// with fewer than 3 fields or a non-numeric id are skipped.
func (r *RadioIDRepository) LoadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		id, err := strconv.ParseUint(row[0], 10, 32)
		if err != nil {
			continue
		}
		enabled, _ := strconv.ParseBool(row[1])
		if err := r.Upsert(&RadioIDEntry{ID: uint32(id), Enabled: enabled, Alias: row[2]}); err != nil {
			return err
		}
	}
	return nil
}
